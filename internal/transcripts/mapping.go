package transcripts

import (
	"net/url"

	"github.com/careline/triage/pkg/query"
	"github.com/careline/triage/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "transcripts", "tr").
	Project("id", "ID").
	Project("source", "Source").
	Project("size_bytes", "SizeBytes").
	Project("storage_key", "StorageKey").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for transcript queries.
// Nil fields are ignored. Source uses case-insensitive contains matching.
type Filters struct {
	Source *string `json:"source,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.WhereContains("Source", f.Source)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("source"); s != "" {
		f.Source = &s
	}

	return f
}

func scanTranscript(s repository.Scanner) (Transcript, error) {
	var t Transcript
	err := s.Scan(
		&t.ID,
		&t.Source,
		&t.SizeBytes,
		&t.StorageKey,
		&t.CreatedAt,
	)
	return t, err
}
