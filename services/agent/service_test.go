package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/alishbaaramzan/Adaptive-Learning-Companion/models"

	"github.com/anthropics/anthropic-sdk-go"
)

type scriptedPlanner struct {
	turns []models.AgentMessage
	err   error
	calls int
	seen  [][]models.AgentMessage
}

func (p *scriptedPlanner) Plan(ctx context.Context, messages []models.AgentMessage) (*models.AgentMessage, error) {
	snapshot := make([]models.AgentMessage, len(messages))
	copy(snapshot, messages)
	p.seen = append(p.seen, snapshot)

	if p.err != nil {
		return nil, p.err
	}
	if p.calls >= len(p.turns) {
		next := p.turns[len(p.turns)-1]
		return &next, nil
	}
	next := p.turns[p.calls]
	p.calls++
	return &next, nil
}

type echoTool struct {
	name   string
	err    error
	inputs []string
}

func (e *echoTool) Name() string        { return e.name }
func (e *echoTool) Description() string { return "echoes its input" }
func (e *echoTool) Call(ctx context.Context, input string) (string, error) {
	e.inputs = append(e.inputs, input)
	if e.err != nil {
		return "", e.err
	}
	return "echo:" + input, nil
}
func (e *echoTool) GetAnthropicToolSpec() anthropic.ToolInputSchemaParam {
	return anthropic.ToolInputSchemaParam{}
}

func userRequest(text string) models.AgentRequest {
	return models.AgentRequest{
		Messages: []models.AgentMessage{{Role: "user", Content: text}},
	}
}

func TestProcessMessagePlainAnswer(t *testing.T) {
	planner := &scriptedPlanner{
		turns: []models.AgentMessage{
			{Role: "assistant", Content: "Photosynthesis converts light into chemical energy."},
		},
	}
	svc := NewService(planner, nil, 0)

	resp, err := svc.ProcessMessage(context.Background(), userRequest("What is photosynthesis?"))
	if err != nil {
		t.Fatalf("ProcessMessage failed: %v", err)
	}
	if resp.FinalAnswer != "Photosynthesis converts light into chemical energy." {
		t.Errorf("unexpected final answer: %q", resp.FinalAnswer)
	}
	if len(resp.Messages) != 2 {
		t.Fatalf("expected 2 messages (user + assistant), got %d", len(resp.Messages))
	}
	if planner.calls != 1 {
		t.Errorf("expected a single planning turn, got %d", planner.calls)
	}
}

func TestProcessMessageToolRoundTrip(t *testing.T) {
	planner := &scriptedPlanner{
		turns: []models.AgentMessage{
			{
				Role: "assistant",
				ToolCalls: []models.ToolCall{
					{ID: "call_1", Name: "first", Arguments: map[string]interface{}{"topic": "algebra"}},
					{ID: "call_2", Name: "second", Arguments: map[string]interface{}{"topic": "calculus"}},
				},
			},
			{Role: "assistant", Content: "done"},
		},
	}
	first := &echoTool{name: "first"}
	second := &echoTool{name: "second"}
	svc := NewService(planner, []AgentTool{first, second}, 0)

	resp, err := svc.ProcessMessage(context.Background(), userRequest("teach me"))
	if err != nil {
		t.Fatalf("ProcessMessage failed: %v", err)
	}
	if resp.FinalAnswer != "done" {
		t.Errorf("unexpected final answer: %q", resp.FinalAnswer)
	}

	// user, assistant(tool calls), tool results, assistant(final)
	if len(resp.Messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(resp.Messages))
	}
	toolMsg := resp.Messages[2]
	if toolMsg.Role != "tool" {
		t.Fatalf("expected tool message at index 2, got role %q", toolMsg.Role)
	}
	if len(toolMsg.ToolResults) != 2 {
		t.Fatalf("expected 2 tool results, got %d", len(toolMsg.ToolResults))
	}
	if toolMsg.ToolResults[0].ToolCallID != "call_1" || toolMsg.ToolResults[1].ToolCallID != "call_2" {
		t.Errorf("tool results out of order: %+v", toolMsg.ToolResults)
	}
	if !strings.Contains(toolMsg.ToolResults[0].Content, "algebra") {
		t.Errorf("first result missing its arguments: %q", toolMsg.ToolResults[0].Content)
	}

	// The second planning turn must see the tool results.
	if len(planner.seen) != 2 {
		t.Fatalf("expected 2 planning turns, got %d", len(planner.seen))
	}
	last := planner.seen[1]
	if last[len(last)-1].Role != "tool" {
		t.Errorf("second turn should end with tool results, got role %q", last[len(last)-1].Role)
	}
}

func TestProcessMessageToolErrorBecomesResult(t *testing.T) {
	planner := &scriptedPlanner{
		turns: []models.AgentMessage{
			{
				Role: "assistant",
				ToolCalls: []models.ToolCall{
					{ID: "call_1", Name: "broken", Arguments: map[string]interface{}{}},
				},
			},
			{Role: "assistant", Content: "recovered"},
		},
	}
	broken := &echoTool{name: "broken", err: fmt.Errorf("index unavailable")}
	svc := NewService(planner, []AgentTool{broken}, 0)

	resp, err := svc.ProcessMessage(context.Background(), userRequest("teach me"))
	if err != nil {
		t.Fatalf("tool failure should not abort the loop: %v", err)
	}
	result := resp.Messages[2].ToolResults[0]
	if !strings.HasPrefix(result.Content, "Error: ") {
		t.Errorf("expected error payload, got %q", result.Content)
	}
	if !strings.Contains(result.Content, "index unavailable") {
		t.Errorf("error payload should carry the cause: %q", result.Content)
	}
	if resp.FinalAnswer != "recovered" {
		t.Errorf("loop should continue after a tool error, got %q", resp.FinalAnswer)
	}
}

func TestProcessMessageUnknownTool(t *testing.T) {
	planner := &scriptedPlanner{
		turns: []models.AgentMessage{
			{
				Role: "assistant",
				ToolCalls: []models.ToolCall{
					{ID: "call_1", Name: "no_such_tool", Arguments: map[string]interface{}{}},
				},
			},
			{Role: "assistant", Content: "ok"},
		},
	}
	svc := NewService(planner, []AgentTool{&echoTool{name: "other"}}, 0)

	resp, err := svc.ProcessMessage(context.Background(), userRequest("teach me"))
	if err != nil {
		t.Fatalf("ProcessMessage failed: %v", err)
	}
	result := resp.Messages[2].ToolResults[0]
	if !strings.Contains(result.Content, "unknown tool") {
		t.Errorf("expected unknown-tool error payload, got %q", result.Content)
	}
}

func TestProcessMessageTurnBudget(t *testing.T) {
	// Planner that never stops asking for tools.
	planner := &scriptedPlanner{
		turns: []models.AgentMessage{
			{
				Role: "assistant",
				ToolCalls: []models.ToolCall{
					{ID: "call_x", Name: "loop", Arguments: map[string]interface{}{}},
				},
			},
		},
	}
	svc := NewService(planner, []AgentTool{&echoTool{name: "loop"}}, 3)

	resp, err := svc.ProcessMessage(context.Background(), userRequest("teach me"))
	if !errors.Is(err, ErrTurnBudgetExceeded) {
		t.Fatalf("expected ErrTurnBudgetExceeded, got %v", err)
	}
	if len(planner.seen) != 3 {
		t.Errorf("expected exactly 3 planning turns, got %d", len(planner.seen))
	}

	// The accumulated history travels with the error so the caller can
	// resume the conversation: user + 3 x (assistant, tool results).
	if resp == nil {
		t.Fatal("expected the accumulated history alongside the error")
	}
	if len(resp.Messages) != 7 {
		t.Fatalf("expected 7 accumulated messages, got %d", len(resp.Messages))
	}
	if resp.Messages[len(resp.Messages)-1].Role != "tool" {
		t.Errorf("history should end with the last tool results, got role %q", resp.Messages[len(resp.Messages)-1].Role)
	}
	if resp.FinalAnswer != "" {
		t.Errorf("no final answer expected, got %q", resp.FinalAnswer)
	}
}

func TestProcessMessagePlannerErrorPropagates(t *testing.T) {
	plannerErr := errors.New("api overloaded")
	planner := &scriptedPlanner{err: plannerErr}
	svc := NewService(planner, nil, 0)

	_, err := svc.ProcessMessage(context.Background(), userRequest("teach me"))
	if !errors.Is(err, plannerErr) {
		t.Fatalf("expected planner error to propagate, got %v", err)
	}
}

func TestProcessMessageDoesNotMutateInput(t *testing.T) {
	planner := &scriptedPlanner{
		turns: []models.AgentMessage{{Role: "assistant", Content: "hi"}},
	}
	svc := NewService(planner, nil, 0)

	req := userRequest("hello")
	if _, err := svc.ProcessMessage(context.Background(), req); err != nil {
		t.Fatalf("ProcessMessage failed: %v", err)
	}
	if len(req.Messages) != 1 {
		t.Errorf("input request was mutated: %d messages", len(req.Messages))
	}
}
