package main

import (
	"context"
	"flag"
	"log"

	"github.com/alishbaaramzan/Adaptive-Learning-Companion/config"
	"github.com/alishbaaramzan/Adaptive-Learning-Companion/services/ingest"
	"github.com/alishbaaramzan/Adaptive-Learning-Companion/services/knowledge"
)

func main() {
	pdfPath := flag.String("pdf", "", "Path to the PDF to ingest (required)")
	topic := flag.String("topic", "", "Topic the document teaches, e.g. 'neural networks' (required)")
	difficulty := flag.String("difficulty", "beginner", "Difficulty level: beginner, intermediate or advanced")
	collection := flag.String("collection", "", "Pinecone namespace to store chunks in (defaults to PINECONE_NAMESPACE)")
	flag.Parse()

	if *pdfPath == "" || *topic == "" {
		flag.Usage()
		log.Fatal("[ERROR] -pdf and -topic are required")
	}

	cfg := config.Load()

	if cfg.PineconeAPIKey == "" {
		log.Fatal("[ERROR] PINECONE_API_KEY environment variable is required")
	}
	if cfg.OpenAIAPIKey == "" {
		log.Fatal("[ERROR] OPENAI_API_KEY environment variable is required")
	}

	if *collection == "" {
		*collection = cfg.PineconeNamespace
	}

	knowledgeService, err := knowledge.NewService(cfg.PineconeAPIKey, cfg.OpenAIAPIKey, cfg.PineconeIndexName, *collection, cfg.EmbedTimeout)
	if err != nil {
		log.Fatalf("[ERROR] Failed to initialize knowledge service: %v", err)
	}

	ctx := context.Background()
	if err := knowledgeService.EnsureIndex(ctx); err != nil {
		log.Fatalf("[ERROR] Failed to ensure Pinecone index: %v", err)
	}

	ingestService := ingest.NewService(knowledgeService, knowledgeService)

	report, err := ingestService.IngestPDF(ctx, *pdfPath, *topic, *difficulty)
	if err != nil {
		log.Fatalf("[ERROR] Ingestion failed: %v", err)
	}

	log.Printf("[INFO] Ingestion complete: %s (%d characters, %d chunks)",
		report.SourceFile, report.Characters, report.Chunks)
}
