package api

import (
	"net/http"

	"github.com/careline/triage/internal/config"
	"github.com/careline/triage/pkg/openapi"
)

// serveSpec builds the OpenAPI 3.1 document once and serves the serialized
// bytes on every request.
func serveSpec(cfg *config.Config) http.HandlerFunc {
	spec := buildSpec(cfg)

	data, err := openapi.MarshalJSON(spec)
	if err != nil {
		// Spec construction is static; a marshal failure is a programming error.
		panic(err)
	}

	return openapi.ServeSpec(data)
}

func buildSpec(cfg *config.Config) *openapi.Spec {
	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.API.OpenAPI.Description)
	spec.AddServer(cfg.API.BasePath)

	spec.Components.AddSchemas(map[string]*openapi.Schema{
		"ProcessRequest": {
			Type:     "object",
			Required: []string{"transcript"},
			Properties: map[string]*openapi.Schema{
				"transcript": {
					Type:        "string",
					Description: "Free-text care coordination transcript",
					MinLength:   &cfg.API.MinTranscriptLength,
				},
				"transcript_id": {
					Type:        "string",
					Format:      "uuid",
					Description: "Optional archived transcript to associate with the task",
				},
			},
		},
		"CompletedResponse": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"status":         {Type: "string", Enum: []any{"completed"}},
				"task_id":        {Type: "string", Format: "uuid"},
				"task":           {Type: "object", Description: "The persisted task payload with full lineage"},
				"policy_version": {Type: "string"},
			},
		},
		"RejectedResponse": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"status":           {Type: "string", Enum: []any{"rejected"}},
				"rejection_reason": {Type: "string"},
				"rejection_category": {
					Type: "string",
					Enum: []any{"missing_data", "ambiguous_reference", "policy_noncompliance"},
				},
				"policy_version": {Type: "string"},
			},
		},
		"Stats": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"total_tasks": {Type: "integer"},
				"by_status":   {Type: "object"},
				"by_priority": {Type: "object"},
			},
		},
		"Transcript": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":          {Type: "string", Format: "uuid"},
				"source":      {Type: "string"},
				"size_bytes":  {Type: "integer"},
				"storage_key": {Type: "string"},
				"created_at":  {Type: "string", Format: "date-time"},
			},
		},
		"Prompt": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":   {Type: "string", Format: "uuid"},
				"name": {Type: "string"},
				"stage": {
					Type: "string",
					Enum: []any{"extraction", "normalization", "qa", "prioritization"},
				},
				"instructions": {Type: "string"},
				"description":  {Type: "string"},
				"active":       {Type: "boolean"},
			},
		},
	})

	spec.Components.AddResponses(map[string]*openapi.Response{
		"PipelineError": {
			Description: "Pipeline execution failed",
			Content: map[string]*openapi.MediaType{
				"application/json": {
					Schema: &openapi.Schema{
						Type: "object",
						Properties: map[string]*openapi.Schema{
							"error": {Type: "string"},
							"kind": {
								Type: "string",
								Enum: []any{
									"context_unavailable",
									"template_render_error",
									"agent_invocation_error",
									"agent_output_malformed",
									"persistence_error",
									"internal_error",
								},
							},
						},
					},
				},
			},
		},
	})

	spec.Paths["/tasks/process"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Process a transcript",
			Description: "Runs the four-stage pipeline and returns the persisted task or a documented rejection.",
			Tags:        []string{"tasks"},
			RequestBody: openapi.RequestBodyJSON("ProcessRequest", true),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Task created", "CompletedResponse"),
				422: openapi.ResponseJSON("Task rejected by QA or transcript too short", "RejectedResponse"),
				500: openapi.ResponseRef("PipelineError"),
			},
		},
	}

	spec.Paths["/tasks/process/{transcriptId}"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:    "Process an archived transcript",
			Tags:       []string{"tasks"},
			Parameters: []*openapi.Parameter{openapi.PathParam("transcriptId", "Archived transcript id")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Task created", "CompletedResponse"),
				404: openapi.ResponseRef("NotFound"),
				422: openapi.ResponseJSON("Task rejected by QA", "RejectedResponse"),
				500: openapi.ResponseRef("PipelineError"),
			},
		},
	}

	spec.Paths["/tasks"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "List tasks",
			Tags:    []string{"tasks"},
			Parameters: []*openapi.Parameter{
				openapi.QueryParam("status", "string", "Filter by status", false),
				openapi.QueryParam("priority_level", "string", "Filter by priority level", false),
			},
			Responses: map[int]*openapi.Response{
				200: {Description: "Paginated task records"},
			},
		},
	}

	spec.Paths["/tasks/{id}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Find a task",
			Tags:       []string{"tasks"},
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Task id")},
			Responses: map[int]*openapi.Response{
				200: {Description: "Task record"},
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}

	spec.Paths["/tasks/stats"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "Task statistics",
			Tags:    []string{"tasks"},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Aggregate counts", "Stats"),
			},
		},
	}

	spec.Paths["/transcripts"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "List transcripts",
			Tags:    []string{"transcripts"},
			Responses: map[int]*openapi.Response{
				200: {Description: "Paginated transcripts"},
			},
		},
		Post: &openapi.Operation{
			Summary: "Archive a transcript",
			Tags:    []string{"transcripts"},
			Responses: map[int]*openapi.Response{
				201: openapi.ResponseJSON("Archived transcript", "Transcript"),
				400: openapi.ResponseRef("BadRequest"),
			},
		},
	}

	spec.Paths["/transcripts/{id}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Find a transcript",
			Tags:       []string{"transcripts"},
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Transcript id")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Transcript", "Transcript"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
		Delete: &openapi.Operation{
			Summary:    "Delete a transcript",
			Tags:       []string{"transcripts"},
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Transcript id")},
			Responses: map[int]*openapi.Response{
				204: {Description: "Deleted"},
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}

	spec.Paths["/prompts"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "List instruction overrides",
			Tags:    []string{"prompts"},
			Responses: map[int]*openapi.Response{
				200: {Description: "Paginated prompts"},
			},
		},
		Post: &openapi.Operation{
			Summary: "Create an instruction override",
			Tags:    []string{"prompts"},
			Responses: map[int]*openapi.Response{
				201: openapi.ResponseJSON("Created prompt", "Prompt"),
				400: openapi.ResponseRef("BadRequest"),
				409: openapi.ResponseRef("Conflict"),
			},
		},
	}

	spec.Paths["/grounding"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:     "Grounding snapshot",
			Description: "The reference data a pipeline run started now would capture.",
			Tags:        []string{"grounding"},
			Responses: map[int]*openapi.Response{
				200: {Description: "Participants, patients, categories, SLAs"},
				503: {Description: "Reference store unavailable"},
			},
		},
	}

	return spec
}
