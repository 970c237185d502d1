package prompts

const extractionSpec = `Respond with a JSON object matching this exact structure:

{
  "description": "<task description>",
  "participant": "<name or identifier from the transcript, or null>",
  "patient": "<name from the transcript, or null>",
  "mrn": "<medical record number, or null>",
  "category": "<category name, or null>",
  "due": "<deadline as stated in the transcript, or null>",
  "source_spans": {
    "<field>": "<verbatim transcript excerpt the field came from>"
  }
}

Field constraints:
- description: The actionable task in one or two sentences, grounded in
  the transcript. Required; never null.
- participant, patient, category: Only values that match an entry in the
  provided reference data. Use null when the transcript names nobody or
  nothing that matches.
- mrn: The medical record number exactly as written in the transcript,
  or null when none is stated.
- due: The deadline phrase verbatim (e.g., "by tomorrow", "Friday").
  Do not convert to a date at this stage.
- source_spans: One entry per extracted field, mapping the field name to
  the transcript excerpt that supports it.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Never invent identifiers, names, or deadlines absent from the transcript
- Extract exactly one task per transcript`

const normalizationSpec = `Respond with a JSON object matching this exact structure:

{
  "description": "<task description>",
  "participant_id": "<uuid or null>",
  "patient_id": "<uuid or null>",
  "category_id": "<uuid or null>",
  "due_date": "<YYYY-MM-DD or null>",
  "expected_completion_date": "<YYYY-MM-DD or null>",
  "source_spans": { "<field>": "<transcript excerpt>" },
  "enriched_fields": {
    "<field>": "<how the canonical value was derived>"
  }
}

Field constraints:
- participant_id, patient_id, category_id: Canonical identifiers resolved
  from the reference data. Null when the extraction carried no matching
  reference.
- due_date: The stated deadline converted to an absolute calendar date.
- expected_completion_date: Derived from the category's service-level
  expectation when one applies; otherwise null.
- source_spans: Carried forward from the extraction output unchanged.
- enriched_fields: One entry per field you resolved or derived, describing
  the enrichment applied.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Resolve only against identifiers present in the reference data
- Never drop fields from the extraction; normalize them in place`

const qaSpec = `Respond with a JSON object matching this exact structure:

{
  "qa_decision": "<approved|rejected>",
  "validated_task": { ... } or null,
  "qa_metadata": {
    "checks": ["<check performed>"],
    "notes": "<review findings>"
  },
  "rejection_reason": "<reason or null>",
  "rejection_category": "<missing_data|ambiguous_reference|policy_noncompliance|null>"
}

Field constraints:
- qa_decision: "approved" when the task passes every check; "rejected"
  otherwise. No other values are valid.
- validated_task: The full normalized task, unchanged, when approved.
  Null when rejected.
- qa_metadata: The checks performed and any findings, present on both
  outcomes.
- rejection_reason: A concrete, specific reason when rejected. Null when
  approved.
- rejection_category: Exactly one of the three categories when rejected.
  Null when approved.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Never repair or mutate the task; approve it as-is or reject it
- A rejection without a reason and category is invalid`

const prioritizationSpec = `Respond with a JSON object matching this exact structure:

{
  "priority_score": <number>,
  "priority_level": "<low|medium|high|urgent>",
  "score_breakdown": {
    "<factor>": <weighted contribution>
  },
  "prioritization_metadata": {
    "rationale": "<why this level was assigned>"
  }
}

Field constraints:
- priority_score: The numeric score computed from the weighting factors.
- priority_level: Exactly one of low, medium, high, urgent, mapped from
  the score.
- score_breakdown: One entry per weighting factor showing its weighted
  contribution to the score.
- prioritization_metadata: The rationale for the assigned level.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Use only the provided weighting factors; do not invent factors
- Return only the priority fields; the validated task is merged by the
  caller and must not be restated`

var specs = map[Stage]string{
	StageExtraction:     extractionSpec,
	StageNormalization:  normalizationSpec,
	StageQA:             qaSpec,
	StagePrioritization: prioritizationSpec,
}

// Spec returns the hardcoded specification for a pipeline stage.
// Specifications define the expected output format and behavioral constraints.
// Returns ErrInvalidStage if the stage is not recognized.
func Spec(stage Stage) (string, error) {
	text, ok := specs[stage]
	if !ok {
		return "", ErrInvalidStage
	}
	return text, nil
}
