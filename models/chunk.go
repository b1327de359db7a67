package models

import "time"

// Difficulty levels accepted by ingestion and retrieval.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// Content types a chunk can be classified as.
const (
	ContentTypeExplanation   = "explanation"
	ContentTypePrerequisites = "prerequisites"
	ContentTypePractice      = "practice"
)

// ContentChunk is the retrieval unit stored in the knowledge index.
// Chunks are created once per ingestion run and never modified;
// re-ingesting the same source produces the same DocIDs, so stale
// entries are superseded rather than duplicated.
type ContentChunk struct {
	Text      string
	Index     int
	StartPage int
	Metadata  ChunkMetadata
}

// ChunkMetadata is the searchable tag set attached to every chunk.
// Topic, Difficulty and ContentType are the filterable fields; DocID is
// the chunk's key in the index.
type ChunkMetadata struct {
	Topic          string    `json:"topic"`
	Difficulty     string    `json:"difficulty"`
	ContentType    string    `json:"content_type"`
	SourceFile     string    `json:"source_file"`
	ChunkIndex     int       `json:"chunk_index"`
	StartPage      int       `json:"start_page"`
	CharCount      int       `json:"char_count"`
	LastUpdated    time.Time `json:"last_updated"`
	DocID          string    `json:"doc_id"`
	HasExamples    bool      `json:"has_examples"`
	HasDefinitions bool      `json:"has_definitions"`
	HasSteps       bool      `json:"has_steps"`
}

// ValidDifficulty reports whether d is one of the accepted levels.
func ValidDifficulty(d string) bool {
	return d == DifficultyBeginner || d == DifficultyIntermediate || d == DifficultyAdvanced
}

// ValidContentType reports whether ct is one of the accepted types.
func ValidContentType(ct string) bool {
	return ct == ContentTypeExplanation || ct == ContentTypePrerequisites || ct == ContentTypePractice
}
