// Package app assembles the store and services from configuration. It is
// shared by the server and the operator CLI.
package app

import (
	"context"
	"fmt"

	"github.com/pesio-ai/be-fraud-cases/internal/config"
	"github.com/pesio-ai/be-fraud-cases/internal/database"
	"github.com/pesio-ai/be-fraud-cases/internal/handler"
	"github.com/pesio-ai/be-fraud-cases/internal/logger"
	"github.com/pesio-ai/be-fraud-cases/internal/repository"
	"github.com/pesio-ai/be-fraud-cases/internal/repository/sqlite"
	"github.com/pesio-ai/be-fraud-cases/internal/service"
)

// OpenStore opens the store selected by cfg.Driver. PostgreSQL schemas are
// migrated first when AutoMigrate is set.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (repository.Store, error) {
	switch cfg.Driver {
	case "sqlite":
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("SQLite store opened")
		return store, nil

	case "postgres":
		if cfg.AutoMigrate {
			if err := database.Migrate(cfg.PostgresURL("pgx5")); err != nil {
				return nil, err
			}
			log.Info().Msg("Database migrations applied")
		}
		db, err := database.New(ctx, DatabaseConfig(cfg))
		if err != nil {
			return nil, err
		}
		log.Info().Str("host", cfg.Host).Str("database", cfg.Database).Msg("Database connection established")
		return repository.NewPostgresStore(db), nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// DatabaseConfig maps service configuration onto pool settings.
func DatabaseConfig(cfg config.DatabaseConfig) database.Config {
	return database.Config{
		Host:        cfg.Host,
		Port:        cfg.Port,
		User:        cfg.User,
		Password:    cfg.Password,
		Database:    cfg.Database,
		SSLMode:     cfg.SSLMode,
		MaxConns:    cfg.MaxConns,
		MinConns:    cfg.MinConns,
		MaxConnTime: cfg.MaxConnTime,
		MaxIdleTime: cfg.MaxIdleTime,
		HealthCheck: cfg.HealthCheck,
	}
}

// SLAPolicy converts configured offsets, falling back to the defaults for
// unset values.
func SLAPolicy(cfg config.SLAConfig) service.SLAPolicy {
	p := service.DefaultSLAPolicy
	if cfg.FMR1Days > 0 {
		p.FMR1Days = cfg.FMR1Days
	}
	if cfg.FMR3Days > 0 {
		p.FMR3Days = cfg.FMR3Days
	}
	if cfg.RetentionYears > 0 {
		p.RetentionYears = cfg.RetentionYears
	}
	return p
}

// NewServices wires every application service over one store, event
// publisher and clock.
func NewServices(store repository.Store, events service.EventPublisher, sla service.SLAPolicy, log *logger.Logger) handler.Services {
	clock := service.NewMonotonicClock()
	return handler.Services{
		Cases:          service.NewCaseService(store, events, clock, sla, log.Component("cases")),
		Workflow:       service.NewWorkflowService(store, events, clock, sla, log.Component("workflow")),
		Evidence:       service.NewEvidenceService(store, events, clock, log.Component("evidence")),
		Investigations: service.NewInvestigationService(store, events, clock, log.Component("investigations")),
		Directory:      service.NewDirectoryService(store, clock, log.Component("directory")),
	}
}
