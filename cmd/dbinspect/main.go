// Package main prints a summary of the configured store: keyword, OER and
// document counts and the most used OERs.
//
// Usage:
//
//	go run ./cmd/dbinspect -storage sqlite -data-path /tmp/oerhub
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/oerhub/oerhub-server/internal/config"
	"github.com/oerhub/oerhub-server/internal/di/providers"
	"github.com/oerhub/oerhub-server/internal/domain"
	"github.com/oerhub/oerhub-server/internal/logger"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	st, err := providers.OpenStore(ctx, cfg, logger.Discard().Logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	fmt.Printf("=== %s store ===\n\n", cfg.Storage.Backend)

	keywords, err := st.ListKeywords(ctx)
	if err != nil {
		log.Fatalf("Failed to list keywords: %v", err)
	}
	fmt.Printf("Keywords: %d\n", len(keywords))
	for i, kw := range keywords {
		if i == 10 {
			fmt.Printf("  ... and %d more\n", len(keywords)-10)
			break
		}
		fmt.Printf("  %s\n", kw)
	}

	oers, err := st.ListResources(ctx)
	if err != nil {
		log.Fatalf("Failed to list OERs: %v", err)
	}
	var saves, likes, zero int64
	for _, r := range oers {
		saves += r.Count
		likes += r.Likes
		if r.Count == 0 {
			zero++
		}
	}
	fmt.Printf("\nOERs: %d (total count %d, total likes %d, reset to zero %d)\n", len(oers), saves, likes, zero)

	top, err := st.TopResources(ctx, 5)
	if err != nil {
		log.Fatalf("Failed to list top OERs: %v", err)
	}
	for _, r := range top {
		fmt.Printf("  %4d saves  %3d likes  %s\n", r.Count, r.Likes, r.Title)
	}

	fmt.Println()
	for _, kind := range []domain.DocumentKind{domain.KindLearningScenario, domain.KindLearningPath} {
		docs, err := st.ListDocuments(ctx, kind)
		if err != nil {
			log.Fatalf("Failed to list %s: %v", kind.Collection(), err)
		}
		fmt.Printf("%s: %d\n", kind.Collection(), len(docs))
	}
}
