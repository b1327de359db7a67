package ingest

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/alishbaaramzan/Adaptive-Learning-Companion/models"

	"github.com/samber/lo"
)

// Embedder batch-embeds texts. Implementations must preserve order:
// vector i corresponds to text i.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// Indexer stores chunks and their vectors, keyed by chunk DocID.
type Indexer interface {
	UpsertChunks(ctx context.Context, chunks []models.ContentChunk, vectors [][]float32) error
}

// Service runs the ingestion pipeline: extract → clean → chunk → enrich
// → embed → store. The first four stages are pure; only embedding and
// storage touch collaborators.
type Service struct {
	embedder     Embedder
	index        Indexer
	maxChunkSize int
	overlap      int
}

func NewService(embedder Embedder, index Indexer) *Service {
	return &Service{
		embedder:     embedder,
		index:        index,
		maxChunkSize: DefaultMaxChunkSize,
		overlap:      DefaultOverlap,
	}
}

// Report summarizes one ingestion run. Zero chunks is a valid outcome
// for empty input, not an error.
type Report struct {
	SourceFile string `json:"source_file"`
	Characters int    `json:"characters"`
	Chunks     int    `json:"chunks"`
}

// IngestPDF runs the full pipeline for one document. Extraction failure
// aborts before anything is written, so the index never sees a partial
// document.
func (s *Service) IngestPDF(ctx context.Context, pdfPath, topic, difficulty string) (*Report, error) {
	raw, err := ExtractPDF(ctx, pdfPath)
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] Extracted %d characters from %s", len(raw), pdfPath)

	return s.IngestText(ctx, raw, filepath.Base(pdfPath), topic, difficulty)
}

// IngestText runs the pipeline on already-extracted, page-tagged text.
func (s *Service) IngestText(ctx context.Context, raw, sourceFile, topic, difficulty string) (*Report, error) {
	if !models.ValidDifficulty(difficulty) {
		return nil, fmt.Errorf("invalid difficulty %q: must be one of beginner, intermediate, advanced", difficulty)
	}

	cleaned := CleanText(raw)
	chunks := ChunkText(cleaned, s.maxChunkSize, s.overlap)
	log.Printf("[INFO] Created %d chunks from %s", len(chunks), sourceFile)

	report := &Report{SourceFile: sourceFile, Characters: len(cleaned), Chunks: len(chunks)}
	if len(chunks) == 0 {
		log.Printf("[WARN] No chunks produced for %s, nothing to index", sourceFile)
		return report, nil
	}

	now := time.Now()
	contentChunks := lo.Map(chunks, func(chunk Chunk, _ int) models.ContentChunk {
		return models.ContentChunk{
			Text:      chunk.Text,
			Index:     chunk.Index,
			StartPage: chunk.StartPage,
			Metadata:  BuildMetadata(chunk, sourceFile, topic, difficulty, now),
		}
	})

	texts := lo.Map(contentChunks, func(chunk models.ContentChunk, _ int) string {
		return chunk.Text
	})

	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(texts))
	}
	log.Printf("[INFO] Generated %d embeddings for %s", len(vectors), sourceFile)

	if err := s.index.UpsertChunks(ctx, contentChunks, vectors); err != nil {
		return nil, fmt.Errorf("failed to store chunks: %w", err)
	}
	log.Printf("[INFO] Stored %d chunks for %s", len(contentChunks), sourceFile)

	return report, nil
}
