package mongodb

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/oerhub/oerhub-server/internal/domain"
	"github.com/oerhub/oerhub-server/internal/store"
	"github.com/oerhub/oerhub-server/internal/store/storetest"
)

// testURI is empty when neither MONGO_TEST_URI nor Docker is available.
var testURI string

var dbCounter atomic.Int64

func TestMain(m *testing.M) {
	if uri := os.Getenv("MONGO_TEST_URI"); uri != "" {
		testURI = uri
		os.Exit(m.Run())
	}

	pool, err := dockertest.NewPool("")
	if err == nil {
		err = pool.Client.Ping()
	}
	if err != nil {
		fmt.Printf("Docker unavailable, skipping mongo tests: %s\n", err)
		os.Exit(m.Run())
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mongo",
		Tag:        "7",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
	})
	if err != nil {
		fmt.Printf("Could not start mongo: %s\n", err)
		os.Exit(m.Run())
	}
	_ = resource.Expire(300)

	pool.MaxWait = 120 * time.Second
	uri := "mongodb://localhost:" + resource.GetPort("27017/tcp")

	if err := pool.Retry(func() error {
		client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(uri))
		if err != nil {
			return err
		}
		defer client.Disconnect(context.Background())
		return client.Ping(context.Background(), nil)
	}); err != nil {
		fmt.Printf("Could not connect to mongo: %s\n", err)
		_ = pool.Purge(resource)
		os.Exit(1)
	}
	testURI = uri

	code := m.Run()

	if err := pool.Purge(resource); err != nil {
		fmt.Printf("Could not purge resource: %s\n", err)
	}
	os.Exit(code)
}

// newTestStore opens a store on a fresh database that is dropped on cleanup.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	if testURI == "" {
		t.Skip("mongo not available")
	}

	name := fmt.Sprintf("oerhub_test_%d_%d", os.Getpid(), dbCounter.Add(1))
	s, err := Open(context.Background(), testURI, name, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.db.Drop(context.Background())
		_ = s.Close()
	})
	return s
}

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return newTestStore(t)
	})
}

func TestUpsertResource_LiteralTitle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, _, err := s.UpsertResource(ctx, domain.ResourceInput{ID: "oer-1", Title: "$title looks like a field path"}, 1)
	require.NoError(t, err)
	r, _, err := s.UpsertResource(ctx, domain.ResourceInput{ID: "oer-1", Title: "$title looks like a field path"}, 1)
	require.NoError(t, err)

	got, err := s.GetResource(ctx, "oer-1")
	require.NoError(t, err)
	assert.Equal(t, "$title looks like a field path", got.Title)
	assert.Equal(t, r.Count, got.Count)
}

func TestPlain(t *testing.T) {
	in := primitive.M{
		"nested": primitive.M{"list": primitive.A{primitive.D{{Key: "a", Value: "b"}}}},
	}
	want := map[string]any{
		"nested": map[string]any{"list": []any{map[string]any{"a": "b"}}},
	}
	assert.Equal(t, want, plain(in))
}
