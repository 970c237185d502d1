package api

import (
	"github.com/careline/triage/internal/grounding"
	"github.com/careline/triage/internal/prompts"
	"github.com/careline/triage/internal/tasks"
	"github.com/careline/triage/internal/transcripts"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Grounding   grounding.System
	Prompts     prompts.System
	Transcripts transcripts.System
	Tasks       tasks.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	groundingSystem := grounding.New(
		runtime.Database.Connection(),
		runtime.Logger,
	)

	promptsSystem := prompts.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	transcriptsSystem := transcripts.New(
		runtime.Database.Connection(),
		runtime.Storage,
		runtime.Logger,
		runtime.Pagination,
	)

	tasksSystem := tasks.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
		runtime.MinTranscriptLength,
		groundingSystem,
		promptsSystem,
		runtime.Generator,
		transcriptsSystem,
	)

	return &Domain{
		Grounding:   groundingSystem,
		Prompts:     promptsSystem,
		Transcripts: transcriptsSystem,
		Tasks:       tasksSystem,
	}
}
