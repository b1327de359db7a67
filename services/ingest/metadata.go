package ingest

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"regexp"
	"time"

	"github.com/alishbaaramzan/Adaptive-Learning-Companion/models"
)

func mustCompileFold(expr string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + expr)
}

// Classification patterns, checked in priority order: practice first,
// prerequisites second, explanation as the fallthrough.
var (
	practiceRegex     = mustCompileFold(`exercise|problem|question \d+|quiz|task \d+`)
	prerequisiteRegex = mustCompileFold(`prerequisite|before.*study|prior knowledge|required.*understand`)

	examplesRegex    = mustCompileFold(`for example|e\.g\.|such as|consider`)
	definitionsRegex = mustCompileFold(`is defined as|refers to|means that|is called`)
	stepsRegex       = mustCompileFold(`step \d+|first[,\s]|second[,\s]|finally[,\s]`)
)

// ClassifyContentType detects a chunk's role from textual signals. The
// classification is a pure function of the text: identical input always
// yields the identical type.
func ClassifyContentType(text string) string {
	switch {
	case practiceRegex.MatchString(text):
		return models.ContentTypePractice
	case prerequisiteRegex.MatchString(text):
		return models.ContentTypePrerequisites
	default:
		return models.ContentTypeExplanation
	}
}

// BuildMetadata attaches the searchable tag set to a chunk. DocID is
// derived from the source file, the chunk's position and a text prefix,
// so re-ingesting the same document produces colliding keys instead of
// duplicate index entries.
func BuildMetadata(chunk Chunk, sourceFile, topic, difficulty string, now time.Time) models.ChunkMetadata {
	return models.ChunkMetadata{
		Topic:          models.NormalizeTopic(topic),
		Difficulty:     difficulty,
		ContentType:    ClassifyContentType(chunk.Text),
		SourceFile:     sourceFile,
		ChunkIndex:     chunk.Index,
		StartPage:      chunk.StartPage,
		CharCount:      len(chunk.Text),
		LastUpdated:    now,
		DocID:          ChunkDocID(sourceFile, chunk.Index, chunk.Text),
		HasExamples:    examplesRegex.MatchString(chunk.Text),
		HasDefinitions: definitionsRegex.MatchString(chunk.Text),
		HasSteps:       stepsRegex.MatchString(chunk.Text),
	}
}

// ChunkDocID hashes (source file, chunk index, first 60 bytes of text)
// into the chunk's index key.
func ChunkDocID(sourceFile string, index int, text string) string {
	prefix := text
	if len(prefix) > 60 {
		prefix = prefix[:60]
	}
	sum := md5.Sum([]byte(fmt.Sprintf("%s_%d_%s", sourceFile, index, prefix)))
	return hex.EncodeToString(sum[:])
}
