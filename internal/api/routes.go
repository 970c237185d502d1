package api

import (
	"net/http"

	"github.com/careline/triage/internal/config"
	"github.com/careline/triage/pkg/handlers"
	"github.com/careline/triage/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) {
	routes.Register(
		mux,
		domain.Tasks.Handler().Routes(),
		domain.Prompts.Handler().Routes(),
		domain.Transcripts.Handler(runtime.MaxRequestSize).Routes(),
	)

	// The grounding snapshot endpoint exposes the exact reference data a
	// pipeline run started now would capture.
	mux.HandleFunc("GET /grounding", func(w http.ResponseWriter, r *http.Request) {
		snapshot, err := domain.Grounding.Load(r.Context())
		if err != nil {
			handlers.RespondError(
				w, runtime.Logger,
				http.StatusServiceUnavailable, err,
			)
			return
		}
		handlers.RespondJSON(w, http.StatusOK, snapshot)
	})

	mux.HandleFunc("GET /openapi", serveSpec(cfg))
}
