package ingest

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/tmc/langchaingo/documentloaders"
)

// ExtractPDF pulls raw text out of a PDF page by page and tags every
// page with an inline [PAGE_n] marker for the chunking stage. An
// unreadable document fails the whole ingestion; there is no partial
// extraction.
func ExtractPDF(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat PDF %s: %w", path, err)
	}

	loader := documentloaders.NewPDF(f, info.Size())
	docs, err := loader.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to extract text from %s: %w", path, err)
	}

	var sb strings.Builder
	for i, doc := range docs {
		if strings.TrimSpace(doc.PageContent) == "" {
			continue
		}
		sb.WriteString(fmt.Sprintf("\n\n[PAGE_%d]\n%s", pageNumber(doc.Metadata, i+1), doc.PageContent))
	}

	return sb.String(), nil
}

func pageNumber(metadata map[string]any, fallback int) int {
	switch v := metadata["page"].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}
