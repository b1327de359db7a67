package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alishbaaramzan/Adaptive-Learning-Companion/models"
	"github.com/alishbaaramzan/Adaptive-Learning-Companion/services"
	"github.com/alishbaaramzan/Adaptive-Learning-Companion/services/knowledge"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/invopop/jsonschema"
)

// AgentTool interface that all tools must implement
type AgentTool interface {
	Name() string
	Description() string
	Call(ctx context.Context, input string) (string, error)
	GetAnthropicToolSpec() anthropic.ToolInputSchemaParam
}

// ContentRetriever is the knowledge index as seen by the tools.
type ContentRetriever interface {
	Search(ctx context.Context, queryText string, n int, filter map[string]string) ([]knowledge.Match, error)
}

// ProgressTracker is the mastery store as seen by the tools.
type ProgressTracker interface {
	CheckProgress(ctx context.Context, studentID, topic string) (*models.ProgressRecord, error)
	RecordScore(ctx context.Context, studentID, topic string, score float64) (*models.ProgressRecord, error)
}

func generateAnthropicSchema[T any]() anthropic.ToolInputSchemaParam {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)

	return anthropic.ToolInputSchemaParam{
		Properties: schema.Properties,
	}
}

type RetrieveContentInput struct {
	Topic       string `json:"topic" jsonschema:"required,description=The subject topic to retrieve content about. E.g. 'neural_networks' or 'photosynthesis'"`
	ContentType string `json:"content_type" jsonschema:"required,enum=explanation,enum=prerequisites,enum=practice,description=Type of content to fetch: 'explanation' for concept explanations; 'prerequisites' for required background knowledge; 'practice' for exercise problems"`
	Difficulty  string `json:"difficulty" jsonschema:"required,enum=beginner,enum=intermediate,enum=advanced,description=The student's current difficulty level so retrieved content is appropriately pitched"`
	NResults    int    `json:"n_results,omitempty" jsonschema:"description=Number of relevant chunks to return (default 3)"`
}

// RetrieveContentTool grounds the tutor in course material: it runs a
// semantic search filtered by topic, content type and difficulty, and
// falls back to an unfiltered search when the exact combination has no
// indexed content.
type RetrieveContentTool struct {
	retriever ContentRetriever
}

func NewRetrieveContentTool(retriever ContentRetriever) RetrieveContentTool {
	return RetrieveContentTool{retriever: retriever}
}

func (r RetrieveContentTool) Name() string {
	return "retrieve_content"
}

func (r RetrieveContentTool) Description() string {
	return "Retrieves relevant course material from the knowledge base. Use it to ground explanations, " +
		"fetch prerequisite background before teaching a topic, or find practice problems. " +
		"Results are filtered by topic, content_type and difficulty so they match the student's level."
}

func (r RetrieveContentTool) Call(ctx context.Context, input string) (string, error) {
	var params RetrieveContentInput
	if err := json.Unmarshal([]byte(input), &params); err != nil {
		return "", fmt.Errorf("failed to parse retrieve content tool input: %v", err)
	}

	if !models.ValidContentType(params.ContentType) {
		return "", fmt.Errorf("invalid content_type %q: must be one of explanation, prerequisites, practice", params.ContentType)
	}
	if !models.ValidDifficulty(params.Difficulty) {
		return "", fmt.Errorf("invalid difficulty %q: must be one of beginner, intermediate, advanced", params.Difficulty)
	}

	nResults := params.NResults
	if nResults <= 0 {
		nResults = 3
	}

	topicKey := models.NormalizeTopic(params.Topic)
	queryText := fmt.Sprintf("%s %s %s", topicKey, params.ContentType, params.Difficulty)
	filter := map[string]string{
		"topic":        topicKey,
		"content_type": params.ContentType,
		"difficulty":   params.Difficulty,
	}

	matches, err := r.retriever.Search(ctx, queryText, nResults, filter)
	if err != nil {
		return "", fmt.Errorf("failed to search knowledge base: %v", err)
	}

	if len(matches) == 0 {
		return fmt.Sprintf("No content found for topic='%s', type='%s', difficulty='%s'.",
			params.Topic, params.ContentType, params.Difficulty), nil
	}

	parts := make([]string, 0, len(matches))
	for i, match := range matches {
		parts = append(parts, fmt.Sprintf("[Result %d | Source: %s, Page %s]\n%s",
			i+1, metadataString(match.Metadata, "source_file"), metadataPage(match.Metadata), match.Text))
	}

	return strings.Join(parts, "\n\n---\n\n"), nil
}

func (r RetrieveContentTool) GetAnthropicToolSpec() anthropic.ToolInputSchemaParam {
	return generateAnthropicSchema[RetrieveContentInput]()
}

func metadataString(metadata map[string]any, key string) string {
	if value, ok := metadata[key].(string); ok && value != "" {
		return value
	}
	return "unknown"
}

// metadataPage renders the start page. Numeric metadata comes back from
// the index as float64.
func metadataPage(metadata map[string]any) string {
	switch v := metadata["start_page"].(type) {
	case float64:
		return fmt.Sprintf("%d", int(v))
	case int:
		return fmt.Sprintf("%d", v)
	case string:
		return v
	default:
		return "?"
	}
}

type GetStudentProgressInput struct {
	StudentID string `json:"student_id" jsonschema:"required,description=Unique identifier for the student. E.g. 'student_123'"`
	Topic     string `json:"topic" jsonschema:"required,description=The subject topic to check progress on. E.g. 'neural_networks'"`
}

// GetStudentProgressTool reports a student's mastery for a topic. A
// missing record is an expected state and reports zero mastery rather
// than failing.
type GetStudentProgressTool struct {
	progress ProgressTracker
}

func NewGetStudentProgressTool(progress ProgressTracker) GetStudentProgressTool {
	return GetStudentProgressTool{progress: progress}
}

func (g GetStudentProgressTool) Name() string {
	return "get_student_progress"
}

func (g GetStudentProgressTool) Description() string {
	return "Checks a student's current mastery level and learning history for a topic. Use it to decide " +
		"whether prerequisites need review (mastery below 0.7 means needs review) and to pitch difficulty. " +
		"A mastery score of 0.0 means the student has not studied the topic yet."
}

func (g GetStudentProgressTool) Call(ctx context.Context, input string) (string, error) {
	var params GetStudentProgressInput
	if err := json.Unmarshal([]byte(input), &params); err != nil {
		return "", fmt.Errorf("failed to parse get student progress tool input: %v", err)
	}

	record, err := g.progress.CheckProgress(ctx, params.StudentID, params.Topic)
	if err != nil {
		return "", fmt.Errorf("failed to check progress: %v", err)
	}

	if record == nil {
		return fmt.Sprintf("No progress record found for student '%s' on topic '%s'. "+
			"This is likely a new topic for them. Mastery: 0.0, Attempts: 0.",
			params.StudentID, params.Topic), nil
	}

	lastStudied := "never"
	if record.LastStudied != nil {
		lastStudied = record.LastStudied.Format("2006-01-02")
	}

	var status string
	if record.MasteryScore < services.MasteryThreshold {
		status = "needs review"
	} else {
		status = "proficient"
	}

	return fmt.Sprintf("Student '%s' | Topic: '%s'\n"+
		"  Mastery Score : %.2f (%s)\n"+
		"  Attempts      : %d\n"+
		"  Last Studied  : %s",
		params.StudentID, params.Topic, record.MasteryScore, status, record.Attempts, lastStudied), nil
}

func (g GetStudentProgressTool) GetAnthropicToolSpec() anthropic.ToolInputSchemaParam {
	return generateAnthropicSchema[GetStudentProgressInput]()
}

type UpdateStudentProgressInput struct {
	StudentID string  `json:"student_id" jsonschema:"required,description=Unique identifier for the student"`
	Topic     string  `json:"topic" jsonschema:"required,description=The subject topic the student just practiced"`
	Score     float64 `json:"score" jsonschema:"required,minimum=0,maximum=1,description=The student's quiz or practice score as a decimal between 0.0 and 1.0. E.g. 0.8 means 80% correct"`
}

// UpdateStudentProgressTool folds one practice score into the student's
// running mastery average and logs the study session.
type UpdateStudentProgressTool struct {
	progress ProgressTracker
}

func NewUpdateStudentProgressTool(progress ProgressTracker) UpdateStudentProgressTool {
	return UpdateStudentProgressTool{progress: progress}
}

func (u UpdateStudentProgressTool) Name() string {
	return "update_student_progress"
}

func (u UpdateStudentProgressTool) Description() string {
	return "Records a student's latest quiz or practice score and updates their mastery level. " +
		"The new mastery is a running average of all attempts. Call this AFTER the student has " +
		"answered a practice question, to close the learning loop."
}

func (u UpdateStudentProgressTool) Call(ctx context.Context, input string) (string, error) {
	var params UpdateStudentProgressInput
	if err := json.Unmarshal([]byte(input), &params); err != nil {
		return "", fmt.Errorf("failed to parse update student progress tool input: %v", err)
	}

	record, err := u.progress.RecordScore(ctx, params.StudentID, params.Topic, params.Score)
	if err != nil {
		return "", fmt.Errorf("failed to record score: %v", err)
	}

	status := "Needs more practice."
	if record.MasteryScore >= services.MasteryThreshold {
		status = "Mastery achieved!"
	}

	return fmt.Sprintf("Progress updated for '%s' on '%s'.\n"+
		"  Latest Score  : %.2f\n"+
		"  New Mastery   : %.2f (after %d attempt(s))\n"+
		"  Status        : %s",
		params.StudentID, params.Topic, params.Score, record.MasteryScore, record.Attempts, status), nil
}

func (u UpdateStudentProgressTool) GetAnthropicToolSpec() anthropic.ToolInputSchemaParam {
	return generateAnthropicSchema[UpdateStudentProgressInput]()
}
