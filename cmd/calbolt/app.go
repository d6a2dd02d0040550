package main

import (
	"fmt"
	"log"

	"github.com/calbolt/calbolt/pkg/agent"
	"github.com/calbolt/calbolt/pkg/calcom"
	"github.com/calbolt/calbolt/pkg/config"
	"github.com/calbolt/calbolt/pkg/llm"
	"github.com/calbolt/calbolt/pkg/timeutil"
	"github.com/calbolt/calbolt/pkg/tools"
	"github.com/calbolt/calbolt/pkg/transcript"
)

// app holds the wired application components shared by all front ends
type app struct {
	cfg      *config.Config
	registry *tools.Registry
	manager  *agent.Manager
	store    transcript.Store
	backend  *llm.Client
}

// buildApp constructs the dependency graph from the configuration. The
// scheduling client is created once here and handed to the tool set.
func buildApp(cfg *config.Config) (*app, error) {
	converter, err := timeutil.NewConverter(cfg.User.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.User.Timezone, err)
	}

	calClient := calcom.NewClient(cfg.Calcom.APIKey, cfg.Calcom.BaseURL)
	calendarTools := tools.NewCalendarTools(calClient, converter, cfg.Calcom.EventTypeID)

	registry := tools.NewRegistry()
	if err := calendarTools.RegisterAll(registry); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	backend := llm.NewClient(llm.ClientConfig{
		BaseURL:   cfg.OpenAI.BaseURL,
		APIKey:    cfg.OpenAI.APIKey,
		ModelName: cfg.OpenAI.Model,
	})

	var persona *agent.Persona
	if cfg.User.PersonaFile != "" {
		persona, err = agent.LoadPersona(cfg.User.PersonaFile)
		if err != nil {
			return nil, err
		}
		log.Printf("Using persona %q from %s", persona.Name, cfg.User.PersonaFile)
	}

	store, err := transcript.New(cfg.Transcript.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript store: %w", err)
	}

	manager := agent.NewManager(func() *agent.Agent {
		return agent.New(agent.Config{
			Backend:     backend,
			Registry:    registry,
			UserEmail:   cfg.User.Email,
			Location:    converter.Location(),
			Persona:     persona,
			Temperature: cfg.OpenAI.Temperature,
			MaxTokens:   cfg.OpenAI.MaxTokens,
		})
	}, store)

	return &app{
		cfg:      cfg,
		registry: registry,
		manager:  manager,
		store:    store,
		backend:  backend,
	}, nil
}

// Close releases the app's resources
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		log.Printf("failed to close transcript store: %v", err)
	}
	_ = a.backend.Close()
}
