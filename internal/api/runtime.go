package api

import (
	"github.com/careline/triage/internal/config"
	"github.com/careline/triage/internal/infrastructure"
	"github.com/careline/triage/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination          pagination.Config
	MinTranscriptLength int
	MaxRequestSize      int64
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", "api"),
			Database:  infra.Database,
			Storage:   infra.Storage,
			Generator: infra.Generator,
		},
		Pagination:          cfg.API.Pagination,
		MinTranscriptLength: cfg.API.MinTranscriptLength,
		MaxRequestSize:      cfg.API.MaxRequestSizeBytes(),
	}
}
