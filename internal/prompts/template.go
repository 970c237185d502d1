package prompts

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{\{([a-z_]+)\}\}`)

// Placeholders returns the distinct variable names a template references,
// in first-appearance order.
func Placeholders(template string) []string {
	var names []string
	for _, match := range placeholderPattern.FindAllStringSubmatch(template, -1) {
		if !slices.Contains(names, match[1]) {
			names = append(names, match[1])
		}
	}
	return names
}

// ValidateTemplate checks a stage template before it is accepted: it must be
// non-empty and may only reference the stage's permitted variables. Called
// once at process start for the built-in defaults and on every override
// create/update, so rendering never discovers a bad template mid-run.
func ValidateTemplate(stage Stage, template string) error {
	if strings.TrimSpace(template) == "" {
		return ErrEmptyTemplate
	}

	allowed := StageVars(stage)
	for _, name := range Placeholders(template) {
		if !slices.Contains(allowed, name) {
			return fmt.Errorf("%w: {{%s}} is not available to stage %s", ErrUnknownVar, name, stage)
		}
	}
	return nil
}

// RenderTemplate substitutes {{variable}} placeholders with values from vars.
// Substitution is literal and deterministic; a referenced placeholder with no
// value fails with ErrRenderFailed rather than rendering an empty section.
func RenderTemplate(template string, vars map[string]string) (string, error) {
	var missing []string

	rendered := placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		value, ok := vars[name]
		if !ok {
			missing = append(missing, name)
			return match
		}
		return value
	})

	if len(missing) > 0 {
		return "", fmt.Errorf(
			"%w: no value for {{%s}}",
			ErrRenderFailed, strings.Join(missing, "}}, {{"),
		)
	}

	return rendered, nil
}

// ValidateDefaults checks every built-in stage template against its stage's
// permitted variables. Invoked at process start; a failure is fatal.
func ValidateDefaults() error {
	for _, stage := range Stages() {
		text, err := Instructions(stage)
		if err != nil {
			return err
		}
		if err := ValidateTemplate(stage, text); err != nil {
			return fmt.Errorf("default %s instructions: %w", stage, err)
		}
	}
	return nil
}
