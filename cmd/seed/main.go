// Package main seeds the configured store with demo keywords, OERs and a
// learning path, for trying out the API and the ranking endpoints.
//
// Usage:
//
//	go run ./cmd/seed
//	go run ./cmd/seed -oers 40 -- -storage sqlite -data-path /tmp/oerhub
//
// Arguments after "--" are server configuration flags. The search index is
// not touched; the server rebuilds it on start.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"

	"github.com/google/uuid"
	"github.com/samber/do/v2"

	"github.com/oerhub/oerhub-server/internal/config"
	"github.com/oerhub/oerhub-server/internal/di"
	"github.com/oerhub/oerhub-server/internal/domain"
	"github.com/oerhub/oerhub-server/internal/service"
)

var keywords = []string{
	"Algebra", "Biology", "Chemistry", "Climate", "Ecology", "Geometry",
	"History", "Literacy", "Photosynthesis", "Physics", "Programming", "Statistics",
}

var subjects = []string{
	"Introduction to", "Exercises in", "Lecture notes on", "A visual guide to",
	"Lab manual for", "Open textbook on",
}

func main() {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	oerCount := fs.Int("oers", 25, "Number of OERs to create")
	maxSaves := fs.Int("max-saves", 8, "Upper bound of saves per OER, which becomes its count")
	maxLikes := fs.Int("max-likes", 5, "Upper bound of likes per OER")
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(fs.Args())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.Search.Enabled = false

	injector := di.NewContainerWithConfig(cfg)
	defer func() { _ = injector.Shutdown() }()

	keywordService := do.MustInvoke[*service.KeywordService](injector)
	resourceService := do.MustInvoke[*service.ResourceService](injector)
	documentService := do.MustInvoke[*service.DocumentService](injector)

	ctx := context.Background()

	fmt.Printf("Seeding %s store\n", cfg.Storage.Backend)

	for _, kw := range keywords {
		if _, _, err := keywordService.SaveKeyword(ctx, kw); err != nil {
			log.Printf("Failed to save keyword %q: %v", kw, err)
		}
	}
	fmt.Printf("Saved %d keywords\n", len(keywords))

	var oerIDs []string
	for range *oerCount {
		oerID := uuid.NewString()
		title := fmt.Sprintf("%s %s", subjects[rand.IntN(len(subjects))], keywords[rand.IntN(len(keywords))])

		saves := 1 + rand.IntN(max(*maxSaves, 1))
		for range saves {
			if _, _, err := resourceService.SaveResource(ctx, service.SaveResourceRequest{
				ID:          oerID,
				Title:       title,
				Description: "Demo resource: " + title,
			}); err != nil {
				log.Fatalf("Failed to save OER: %v", err)
			}
		}

		for range rand.IntN(*maxLikes + 1) {
			if _, err := resourceService.Like(ctx, oerID); err != nil {
				log.Printf("Failed to like OER %s: %v", oerID, err)
			}
		}

		oerIDs = append(oerIDs, oerID)
	}
	fmt.Printf("Saved %d OERs\n", len(oerIDs))

	steps := make([]any, 0, min(len(oerIDs), 4))
	for i, oerID := range oerIDs[:min(len(oerIDs), 4)] {
		steps = append(steps, map[string]any{"order": i + 1, "oer": oerID})
	}
	path, err := documentService.SaveDocument(ctx, domain.KindLearningPath, map[string]any{
		"title":       "Getting started",
		"description": "A short path through the seeded resources",
		"steps":       steps,
	})
	if err != nil {
		log.Fatalf("Failed to save learning path: %v", err)
	}
	fmt.Printf("Saved learning path %s\n", path.ID)

	top, err := resourceService.TopResources(ctx, 0)
	if err != nil {
		log.Fatalf("Failed to list top OERs: %v", err)
	}
	fmt.Println("\nMost used OERs:")
	for _, r := range top {
		fmt.Printf("  %3d  %s (%s)\n", r.Count, r.Title, r.ID)
	}
}
