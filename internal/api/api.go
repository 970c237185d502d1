// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/careline/triage/internal/config"
	"github.com/careline/triage/internal/infrastructure"
	"github.com/careline/triage/internal/prompts"
	"github.com/careline/triage/pkg/middleware"
	"github.com/careline/triage/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
// Stage instruction defaults are validated here so a broken template fails
// startup instead of a pipeline run.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	if err := prompts.ValidateDefaults(); err != nil {
		return nil, err
	}

	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	registerRoutes(mux, domain, cfg, runtime)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Infrastructure.Logger))

	return m, nil
}
