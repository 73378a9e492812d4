package main

import (
	"context"
	"flag"
	"log"

	"github.com/RIGishan/text-toolkit/internal/auth"
	"github.com/RIGishan/text-toolkit/internal/config"
	"github.com/RIGishan/text-toolkit/internal/logging"
	"github.com/RIGishan/text-toolkit/internal/repository"
	"github.com/RIGishan/text-toolkit/internal/services"
	"github.com/RIGishan/text-toolkit/internal/transform"
	"github.com/RIGishan/text-toolkit/internal/workflow"
	"github.com/RIGishan/text-toolkit/pkg/models"
)

type seedWorkflow struct {
	Name  string
	Steps []models.WorkflowStep
}

func seedWorkflows(reg *transform.Registry) []seedWorkflow {
	dedupe, _ := reg.DefaultOptionsFor(transform.DedupeLines)
	return []seedWorkflow{
		{Name: "Transcript cleanup", Steps: workflow.DefaultSteps(reg)},
		{Name: "Dedupe list", Steps: []models.WorkflowStep{
			{TransformID: string(transform.DedupeLines), Options: dedupe},
		}},
	}
}

// seed saves every sample workflow whose name is not taken yet and returns
// how many were added.
func seed(ctx context.Context, store *workflow.Store, samples []seedWorkflow, logger *logging.Logger) (int, error) {
	added := 0
	for _, w := range samples {
		_, found, err := store.FindByName(ctx, w.Name)
		if err != nil {
			return added, err
		}
		if found {
			logger.Info("Skipping existing workflow", "name", w.Name)
			continue
		}
		saved, err := store.Save(ctx, w.Name, w.Steps)
		if err != nil {
			return added, err
		}
		added++
		logger.Info("Seeded workflow", "name", saved.Name, "id", saved.ID)
	}
	return added, nil
}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml")
	origin := flag.String("origin", auth.DevOrigin, "Origin (email domain) to seed")
	flag.Parse()

	ctx := context.Background()
	logger := logging.NewLogger()
	defer logger.Sync()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	backend, err := repository.OpenBackend(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer backend.Close()
	if !backend.Durable() {
		logger.Warn("Seeding the memory driver has no lasting effect", "driver", backend.Driver())
	}

	reg := transform.Builtin()
	workspaces := services.NewWorkspaces(backend, reg, logger)
	defer workspaces.Close()

	added, err := seed(ctx, workspaces.For(*origin).Workflows, seedWorkflows(reg), logger)
	if err != nil {
		log.Fatalf("Seeding failed after %d workflows: %v", added, err)
	}
	logger.Info("Seeding complete!", "origin", *origin, "added", added)
}
