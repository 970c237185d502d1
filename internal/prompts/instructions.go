package prompts

const extractionInstructions = `You are a clinical task extraction analyst reviewing a care coordination transcript.

Reference data for this organization:
{{db_context}}

Active organizational policy:
{{policy}}

Transcript:
{{transcript}}

Extract the single actionable task described in the transcript. Ground every reference strictly against the reference data:
- Match participants and patients only to entries that appear in the reference data; never invent identifiers
- Record medical record numbers exactly as they appear in the transcript
- Capture the task description, any stated deadline, and the category the task belongs to
- For each extracted field, record the transcript span it was derived from

If the transcript does not describe an actionable task, say so explicitly rather than fabricating one.`

const normalizationInstructions = `You are normalizing an extracted clinical task into its canonical structured form.

Reference data for this organization:
{{db_context}}

Active organizational policy:
{{policy}}

Extraction output:
{{extraction_output}}

Resolve the extraction into canonical identifiers and enriched fields:
- Replace name and MRN references with the matching participant and patient identifiers from the reference data
- Resolve the task category to its canonical identifier
- Convert relative deadlines (e.g. "by tomorrow", "end of week") into absolute dates
- Where the category carries a service-level expectation, derive an expected completion date from it
- Record every enrichment you applied so downstream review can audit it

Carry forward the source spans from the extraction unchanged.`

const qaInstructions = `You are a quality assurance reviewer validating a normalized clinical task against organizational policy.

Reference data for this organization:
{{db_context}}

Active organizational policy:
{{policy}}

Normalized task:
{{normalized_task}}

Evaluate the task for completeness, referential integrity, and policy compliance:
- Every referenced participant, patient, and category must resolve to an entry in the reference data
- Categories that require a patient or participant must have one
- The task must satisfy every applicable rule in the organizational policy

Render a single decision. If the task passes, return the validated task along with your review findings. If it fails, reject it with a concrete reason and classify the rejection as missing data, an ambiguous reference, or policy noncompliance. Do not repair the task yourself; rejection is the correct outcome for an unsalvageable record.`

const prioritizationInstructions = `You are assigning a priority to a validated clinical task.

Reference data for this organization:
{{db_context}}

Active organizational policy:
{{policy}}

Priority weighting factors:
{{priority_weights}}

Validated task:
{{validated_task}}

Score the task using the weighting factors:
- Consider deadline proximity, patient acuity, patient status, and category urgency as weighted
- Produce a numeric priority score and show the contribution of each factor in a score breakdown
- Map the score to a priority level of low, medium, high, or urgent
- Record the rationale for the assigned level

Return the task with the score, level, and breakdown attached. Leave all other fields unchanged.`

var instructions = map[Stage]string{
	StageExtraction:     extractionInstructions,
	StageNormalization:  normalizationInstructions,
	StageQA:             qaInstructions,
	StagePrioritization: prioritizationInstructions,
}

// Instructions returns the hardcoded default instructions for a pipeline stage.
// Returns ErrInvalidStage if the stage is not recognized.
func Instructions(stage Stage) (string, error) {
	text, ok := instructions[stage]
	if !ok {
		return "", ErrInvalidStage
	}
	return text, nil
}
