package prompts_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/careline/triage/internal/prompts"
)

func TestPlaceholders(t *testing.T) {
	tests := []struct {
		name     string
		template string
		expected []string
	}{
		{
			name:     "no placeholders",
			template: "just plain text",
			expected: nil,
		},
		{
			name:     "single placeholder",
			template: "Context:\n{{db_context}}",
			expected: []string{"db_context"},
		},
		{
			name:     "repeated placeholder counted once",
			template: "{{policy}} then {{transcript}} then {{policy}} again",
			expected: []string{"policy", "transcript"},
		},
		{
			name:     "malformed braces ignored",
			template: "{db_context} {{ policy }} {{UPPER}}",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := prompts.Placeholders(tt.template)
			if len(got) != len(tt.expected) {
				t.Fatalf("expected %v, got %v", tt.expected, got)
			}
			for i, name := range tt.expected {
				if got[i] != name {
					t.Errorf("placeholder %d: expected %q, got %q", i, name, got[i])
				}
			}
		})
	}
}

func TestValidateTemplate(t *testing.T) {
	tests := []struct {
		name     string
		stage    prompts.Stage
		template string
		wantErr  error
	}{
		{
			name:     "valid extraction template",
			stage:    prompts.StageExtraction,
			template: "Context: {{db_context}}\nPolicy: {{policy}}\nTranscript: {{transcript}}",
		},
		{
			name:     "empty template",
			stage:    prompts.StageExtraction,
			template: "   \n\t",
			wantErr:  prompts.ErrEmptyTemplate,
		},
		{
			name:     "variable from another stage",
			stage:    prompts.StageExtraction,
			template: "Task: {{normalized_task}}",
			wantErr:  prompts.ErrUnknownVar,
		},
		{
			name:     "unknown variable",
			stage:    prompts.StageQA,
			template: "{{db_context}} {{made_up}}",
			wantErr:  prompts.ErrUnknownVar,
		},
		{
			name:     "template without placeholders",
			stage:    prompts.StageNormalization,
			template: "Always respond with JSON.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := prompts.ValidateTemplate(tt.stage, tt.template)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected valid template, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error wrapping %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRenderTemplate(t *testing.T) {
	template := "Context:\n{{db_context}}\n\nPolicy:\n{{policy}}"

	rendered, err := prompts.RenderTemplate(template, map[string]string{
		"db_context": `{"participants": []}`,
		"policy":     `{"policy_version": "2025.1"}`,
	})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	if strings.Contains(rendered, "{{") {
		t.Errorf("rendered output still contains placeholders: %s", rendered)
	}
	if !strings.Contains(rendered, `"policy_version": "2025.1"`) {
		t.Errorf("expected policy value interpolated, got: %s", rendered)
	}
}

func TestRenderTemplateMissingVariable(t *testing.T) {
	_, err := prompts.RenderTemplate("{{db_context}} {{transcript}}", map[string]string{
		"db_context": "{}",
	})
	if !errors.Is(err, prompts.ErrRenderFailed) {
		t.Fatalf("expected ErrRenderFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "transcript") {
		t.Errorf("expected error to name the missing variable, got %v", err)
	}
}

func TestValidateDefaults(t *testing.T) {
	if err := prompts.ValidateDefaults(); err != nil {
		t.Fatalf("built-in instructions failed validation: %v", err)
	}
}

func TestDefaultInstructionsRender(t *testing.T) {
	base := map[string]string{
		"db_context": "{}",
		"policy":     "{}",
	}
	extras := map[prompts.Stage]map[string]string{
		prompts.StageExtraction:     {"transcript": "call notes"},
		prompts.StageNormalization:  {"extraction_output": "{}"},
		prompts.StageQA:             {"normalized_task": "{}"},
		prompts.StagePrioritization: {"priority_weights": "[]", "validated_task": "{}"},
	}

	for _, stage := range prompts.Stages() {
		t.Run(string(stage), func(t *testing.T) {
			text, err := prompts.Instructions(stage)
			if err != nil {
				t.Fatalf("Instructions(%s) failed: %v", stage, err)
			}

			vars := map[string]string{}
			for k, v := range base {
				vars[k] = v
			}
			for k, v := range extras[stage] {
				vars[k] = v
			}

			if _, err := prompts.RenderTemplate(text, vars); err != nil {
				t.Errorf("default %s instructions did not render: %v", stage, err)
			}
		})
	}
}
