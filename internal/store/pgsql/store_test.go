package pgsql

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oerhub/oerhub-server/internal/domain"
	"github.com/oerhub/oerhub-server/internal/store"
	"github.com/oerhub/oerhub-server/internal/store/storetest"
)

// testDSN is empty when neither POSTGRES_TEST_DSN nor Docker is available.
var testDSN string

func TestMain(m *testing.M) {
	if dsn := os.Getenv("POSTGRES_TEST_DSN"); dsn != "" {
		testDSN = dsn
		os.Exit(m.Run())
	}

	pool, err := dockertest.NewPool("")
	if err == nil {
		err = pool.Client.Ping()
	}
	if err != nil {
		fmt.Printf("Docker unavailable, skipping postgres tests: %s\n", err)
		os.Exit(m.Run())
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=oerhub",
			"POSTGRES_PASSWORD=secret",
			"POSTGRES_DB=oerhub_test",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
	})
	if err != nil {
		fmt.Printf("Could not start postgres: %s\n", err)
		os.Exit(m.Run())
	}
	_ = resource.Expire(300)

	pool.MaxWait = 120 * time.Second
	dsn := fmt.Sprintf("host=localhost port=%s user=oerhub password=secret dbname=oerhub_test sslmode=disable",
		resource.GetPort("5432/tcp"))

	if err := pool.Retry(func() error {
		s, err := Open(dsn, nil)
		if err != nil {
			return err
		}
		return s.Close()
	}); err != nil {
		fmt.Printf("Could not connect to postgres: %s\n", err)
		_ = pool.Purge(resource)
		os.Exit(1)
	}
	testDSN = dsn

	code := m.Run()

	if err := pool.Purge(resource); err != nil {
		fmt.Printf("Could not purge resource: %s\n", err)
	}
	os.Exit(code)
}

// newTestStore opens a store on empty tables. Tests in this package run
// sequentially, so truncating at the start isolates each one.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	if testDSN == "" {
		t.Skip("postgres not available")
	}

	s, err := Open(testDSN, nil)
	require.NoError(t, err)
	require.NoError(t, s.db.Exec("TRUNCATE keywords, resources, documents").Error)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return newTestStore(t)
	})
}

func TestUpsertResource_DescriptionKeptWhenEmpty(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, created, err := s.UpsertResource(ctx, domain.ResourceInput{ID: "oer-1", Title: "Algebra", Description: "Intro"}, 1)
	require.NoError(t, err)
	assert.True(t, created)

	r, created, err := s.UpsertResource(ctx, domain.ResourceInput{ID: "oer-1", Title: "Algebra"}, 1)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "Intro", r.Description)
	assert.Equal(t, int64(2), r.Count)
}
