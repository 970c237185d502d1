// Package transcripts implements the transcript archive domain: storing raw
// transcript text in blob storage with a metadata record in the database, so
// pipeline runs can be initiated from, and audited against, the original
// free-text input.
package transcripts

import (
	"time"

	"github.com/google/uuid"
)

// Transcript represents an archived transcript with its blob storage reference.
type Transcript struct {
	ID         uuid.UUID `json:"id"`
	Source     *string   `json:"source"`
	SizeBytes  int64     `json:"size_bytes"`
	StorageKey string    `json:"storage_key"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateCommand carries the data needed to archive a new transcript.
// Source optionally records where the transcript came from (e.g. a care
// coordination call, a voicemail transcription).
type CreateCommand struct {
	Text   string  `json:"text"`
	Source *string `json:"source"`
}
