package main

import (
	"context"
	"fmt"
	"time"

	"donna/internal/agent"
	"donna/internal/agent/ports"
	"donna/internal/config"
	"donna/internal/llm"
	"donna/internal/logging"
	"donna/internal/observability"
	"donna/internal/session/filestore"
	"donna/internal/toolregistry"
	"donna/internal/tools/builtin"
	"donna/internal/tools/google"
)

// container wires the whole assistant together: config, planner, tool
// registry, session store and engine. Both front ends (chat and serve) start
// from the same wiring.
type container struct {
	Config   *config.Config
	Store    ports.SessionStore
	Engine   *agent.Engine
	Timer    *observability.Timer
	Logger   logging.Logger
	shutdown func(context.Context) error
}

func buildContainer(ctx context.Context) (*container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.GroqAPIKey == "" {
		return nil, fmt.Errorf("no planner API key configured; set GROQ_API_KEY or groq_api_key in ~/.donna.yaml")
	}

	logger := logging.NewComponentLogger("Main")
	shutdown, err := observability.SetupTracing(ctx, cfg.TraceEndpoint, logger)
	if err != nil {
		return nil, err
	}

	location, zoneName := cfg.EffectiveLocation()

	llmClient := llm.New(llm.Config{
		APIKey:      cfg.GroqAPIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		Timeout:     cfg.Timeout(),
		MaxRetries:  cfg.MaxRetries,
	})

	registry, err := buildRegistry(cfg, location, zoneName)
	if err != nil {
		return nil, err
	}

	store, err := filestore.New(cfg.SessionDir, logging.NewComponentLogger("SessionStore"))
	if err != nil {
		return nil, err
	}

	planner := agent.NewPlanner(llmClient, registry, agent.PlannerConfig{
		Persona:  cfg.Assistant.Persona,
		Location: location,
		ZoneName: zoneName,
	}, logging.NewComponentLogger("Planner"))
	gate := agent.NewGate(registry)
	dispatcher := agent.NewDispatcher(registry, zoneName, logging.NewComponentLogger("Dispatcher"))
	engine := agent.NewEngine(store, planner, gate, dispatcher, logging.NewComponentLogger("Engine"))

	return &container{
		Config:   cfg,
		Store:    store,
		Engine:   engine,
		Timer:    observability.NewTimer(cfg.TimingLogs, logging.NewComponentLogger("Timing")),
		Logger:   logger,
		shutdown: shutdown,
	}, nil
}

// buildRegistry registers every action the planner may choose. Mutating
// actions go through RegisterGuarded so the gate holds them for approval.
func buildRegistry(cfg *config.Config, location *time.Location, zoneName string) (*toolregistry.Registry, error) {
	tokens := google.NewFileTokenProvider(cfg.GoogleTokenFile, cfg.GoogleClientID, cfg.GoogleClientSecret)
	client := google.NewClient(tokens)
	gmail := google.NewGmail(client, cfg.GmailUserID)
	calendar := google.NewCalendar(client, cfg.CalendarID, zoneName)
	tasks := google.NewTasks(client)

	registry := toolregistry.New(logging.NewComponentLogger("Registry"))

	readonly := []ports.ToolExecutor{
		builtin.NewClockTool(location, zoneName),
		builtin.NewGetEmailsTool(gmail, logging.NewComponentLogger("Mail")),
		builtin.NewListEventsTool(calendar),
		builtin.NewListTasksTool(tasks, location),
		builtin.NewWebSearchTool(cfg.TavilyAPIKey, logging.NewComponentLogger("Search")),
		builtin.NewNewsTool(cfg.NewsFeeds, logging.NewComponentLogger("News")),
	}
	for _, tool := range readonly {
		if err := registry.Register(tool); err != nil {
			return nil, err
		}
	}

	guarded := []ports.ToolExecutor{
		builtin.NewSendEmailTool(gmail),
		builtin.NewAddEventTool(calendar),
		builtin.NewAddTaskTool(tasks, location),
		builtin.NewCompleteTaskTool(tasks),
	}
	for _, tool := range guarded {
		if err := registry.RegisterGuarded(tool); err != nil {
			return nil, err
		}
	}

	return registry, nil
}

func (c *container) Close(ctx context.Context) error {
	if c.shutdown == nil {
		return nil
	}
	return c.shutdown(ctx)
}
