package knowledge

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/alishbaaramzan/Adaptive-Learning-Companion/models"

	"github.com/pinecone-io/go-pinecone/v3/pinecone"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"google.golang.org/protobuf/types/known/structpb"
)

const upsertBatchSize = 10

// Match is one ranked retrieval result.
type Match struct {
	Text     string
	Metadata map[string]any
	Score    float32
}

// vectorIndex is the slice of the Pinecone index connection the service
// reads and writes through. *pinecone.IndexConnection satisfies it.
type vectorIndex interface {
	QueryByVectorValues(ctx context.Context, req *pinecone.QueryByVectorValuesRequest) (*pinecone.QueryVectorsResponse, error)
	UpsertVectors(ctx context.Context, vectors []*pinecone.Vector) (uint32, error)
}

// Service is the knowledge index: a Pinecone collection of embedded
// content chunks keyed by DocID, filterable on the mandatory metadata
// tags (topic, content_type, difficulty).
type Service struct {
	client       *pinecone.Client
	embedder     embeddings.Embedder
	indexName    string
	namespace    string
	embedTimeout time.Duration

	// index overrides the lazily-opened Pinecone connection when set.
	index vectorIndex
}

func NewService(pineconeAPIKey, openaiAPIKey, indexName, namespace string, embedTimeout time.Duration) (*Service, error) {
	log.Printf("[INFO] Initializing knowledge index service")

	pc, err := pinecone.NewClient(pinecone.NewClientParams{
		ApiKey: pineconeAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Pinecone client: %w", err)
	}

	llm, err := openai.New(
		openai.WithModel("gpt-4o-mini"),
		openai.WithToken(openaiAPIKey),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	service := &Service{
		client:       pc,
		embedder:     embedder,
		indexName:    indexName,
		namespace:    namespace,
		embedTimeout: embedTimeout,
	}

	log.Printf("[INFO] Knowledge index service initialized (index: %s, namespace: %s)", indexName, namespace)
	return service, nil
}

// EnsureIndex creates the serverless index when it does not exist yet
// and waits until it is ready.
func (s *Service) EnsureIndex(ctx context.Context) error {
	indexes, err := s.client.ListIndexes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list indexes: %w", err)
	}

	for _, idx := range indexes {
		if idx.Name == s.indexName {
			log.Printf("[INFO] Index %s already exists", s.indexName)
			return nil
		}
	}

	log.Printf("[INFO] Creating Pinecone index: %s", s.indexName)
	dimension := int32(1536) // text-embedding dimension used by the embedder
	deletionProtection := pinecone.DeletionProtectionDisabled
	metric := pinecone.Cosine

	_, err = s.client.CreateServerlessIndex(ctx, &pinecone.CreateServerlessIndexRequest{
		Name:               s.indexName,
		Dimension:          &dimension,
		Metric:             &metric,
		Cloud:              pinecone.Aws,
		Region:             "us-east-1",
		DeletionProtection: &deletionProtection,
		Tags:               &pinecone.IndexTags{"project": "learning-companion"},
	})
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	for {
		idx, err := s.client.DescribeIndex(ctx, s.indexName)
		if err != nil {
			return fmt.Errorf("failed to describe index: %w", err)
		}
		if idx.Status.Ready {
			log.Printf("[INFO] Index %s is ready", s.indexName)
			return nil
		}
		log.Printf("[INFO] Waiting for index %s to be ready...", s.indexName)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Second):
		}
	}
}

// EmbedDocuments batch-embeds texts, preserving input order in the
// output. It satisfies the ingestion pipeline's Embedder contract. Each
// call is bounded by the configured embed timeout.
func (s *Service) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := s.embedContext(ctx)
	defer cancel()

	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	return vectors, nil
}

func (s *Service) embedContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.embedTimeout > 0 {
		return context.WithTimeout(ctx, s.embedTimeout)
	}
	return ctx, func() {}
}

// UpsertChunks writes chunks and their vectors into the index, keyed by
// DocID. Re-ingesting the same document overwrites the existing entries
// instead of duplicating them.
func (s *Service) UpsertChunks(ctx context.Context, chunks []models.ContentChunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk/vector count mismatch: %d vs %d", len(chunks), len(vectors))
	}

	idxConn, err := s.indexConnection(ctx)
	if err != nil {
		return err
	}

	pineconeVectors := make([]*pinecone.Vector, 0, len(chunks))
	for i, chunk := range chunks {
		metadataStruct, err := structpb.NewStruct(chunkMetadataMap(chunk))
		if err != nil {
			return fmt.Errorf("failed to build metadata for chunk %s: %w", chunk.Metadata.DocID, err)
		}
		values := vectors[i]
		pineconeVectors = append(pineconeVectors, &pinecone.Vector{
			Id:       chunk.Metadata.DocID,
			Values:   &values,
			Metadata: metadataStruct,
		})
	}

	for start := 0; start < len(pineconeVectors); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(pineconeVectors) {
			end = len(pineconeVectors)
		}
		count, err := idxConn.UpsertVectors(ctx, pineconeVectors[start:end])
		if err != nil {
			return fmt.Errorf("failed to upsert vector batch: %w", err)
		}
		log.Printf("[INFO] Upserted %d vectors (batch %d)", count, start/upsertBatchSize+1)
	}

	return nil
}

// Search embeds the query text once and runs a similarity query with the
// given exact-match metadata filter. When the filtered query comes back
// empty, the same vector is re-queried without the filter so the caller
// gets the closest available material instead of nothing.
func (s *Service) Search(ctx context.Context, queryText string, n int, filter map[string]string) ([]Match, error) {
	embedCtx, cancel := s.embedContext(ctx)
	queryVectors, err := s.embedder.EmbedDocuments(embedCtx, []string{queryText})
	cancel()
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	matches, err := s.queryByVector(ctx, queryVectors[0], n, filter)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 && len(filter) > 0 {
		log.Printf("[INFO] No filtered matches for %q, falling back to unfiltered search", queryText)
		return s.queryByVector(ctx, queryVectors[0], n, nil)
	}
	return matches, nil
}

func (s *Service) queryByVector(ctx context.Context, vector []float32, n int, filter map[string]string) ([]Match, error) {
	idxConn, err := s.indexConnection(ctx)
	if err != nil {
		return nil, err
	}

	request := &pinecone.QueryByVectorValuesRequest{
		Vector:          vector,
		TopK:            uint32(n),
		IncludeValues:   false,
		IncludeMetadata: true,
	}
	if len(filter) > 0 {
		metadataFilter, err := buildMetadataFilter(filter)
		if err != nil {
			return nil, err
		}
		request.MetadataFilter = metadataFilter
	}

	result, err := idxConn.QueryByVectorValues(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("failed to query index: %w", err)
	}

	matches := make([]Match, 0, len(result.Matches))
	for _, scored := range result.Matches {
		if scored.Vector == nil || scored.Vector.Metadata == nil {
			continue
		}
		metadata := scored.Vector.Metadata.AsMap()
		text, _ := metadata["content"].(string)
		matches = append(matches, Match{
			Text:     text,
			Metadata: metadata,
			Score:    scored.Score,
		})
	}
	return matches, nil
}

func (s *Service) indexConnection(ctx context.Context) (vectorIndex, error) {
	if s.index != nil {
		return s.index, nil
	}

	idxDesc, err := s.client.DescribeIndex(ctx, s.indexName)
	if err != nil {
		return nil, fmt.Errorf("failed to describe index: %w", err)
	}

	idxConn, err := s.client.Index(pinecone.NewIndexConnParams{
		Host:      idxDesc.Host,
		Namespace: s.namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create index connection: %w", err)
	}
	return idxConn, nil
}

// buildMetadataFilter turns an exact-match conjunction into the index's
// filter form: {"$and": [{field: {"$eq": value}}, ...]}.
func buildMetadataFilter(filter map[string]string) (*structpb.Struct, error) {
	conditions := make([]any, 0, len(filter))
	for _, field := range []string{"topic", "content_type", "difficulty"} {
		if value, ok := filter[field]; ok {
			conditions = append(conditions, map[string]any{
				field: map[string]any{"$eq": value},
			})
		}
	}
	for field, value := range filter {
		if field == "topic" || field == "content_type" || field == "difficulty" {
			continue
		}
		conditions = append(conditions, map[string]any{
			field: map[string]any{"$eq": value},
		})
	}

	metadataFilter, err := structpb.NewStruct(map[string]any{"$and": conditions})
	if err != nil {
		return nil, fmt.Errorf("failed to build metadata filter: %w", err)
	}
	return metadataFilter, nil
}

// chunkMetadataMap flattens a chunk into the metadata record stored next
// to its vector. The chunk text travels along under "content" so queries
// can return it without a second lookup.
func chunkMetadataMap(chunk models.ContentChunk) map[string]any {
	return map[string]any{
		"content":         chunk.Text,
		"topic":           chunk.Metadata.Topic,
		"difficulty":      chunk.Metadata.Difficulty,
		"content_type":    chunk.Metadata.ContentType,
		"source_file":     chunk.Metadata.SourceFile,
		"chunk_index":     chunk.Metadata.ChunkIndex,
		"start_page":      chunk.Metadata.StartPage,
		"char_count":      chunk.Metadata.CharCount,
		"last_updated":    chunk.Metadata.LastUpdated.Format(time.RFC3339),
		"doc_id":          chunk.Metadata.DocID,
		"has_examples":    chunk.Metadata.HasExamples,
		"has_definitions": chunk.Metadata.HasDefinitions,
		"has_steps":       chunk.Metadata.HasSteps,
	}
}
