package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/alishbaaramzan/Adaptive-Learning-Companion/models"
)

// DefaultMaxTurns bounds how many planner round trips a single
// conversation may consume before the loop gives up.
const DefaultMaxTurns = 25

// ErrTurnBudgetExceeded is returned when the planner keeps requesting
// tools past the configured turn limit.
var ErrTurnBudgetExceeded = errors.New("agent turn budget exceeded")

// Planner produces the next assistant message for a conversation. The
// Anthropic-backed implementation lives in planner.go; tests substitute
// a scripted one.
type Planner interface {
	Plan(ctx context.Context, messages []models.AgentMessage) (*models.AgentMessage, error)
}

// Service runs the reason-act loop: ask the planner for the next step,
// execute any tool calls it requested, feed the results back, repeat
// until the planner answers without tools.
type Service struct {
	planner  Planner
	tools    []AgentTool
	maxTurns int
}

func NewService(planner Planner, tools []AgentTool, maxTurns int) *Service {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Service{
		planner:  planner,
		tools:    tools,
		maxTurns: maxTurns,
	}
}

// ProcessMessage drives the conversation until the planner produces a
// plain answer. The input slice is not mutated.
func (s *Service) ProcessMessage(ctx context.Context, req models.AgentRequest) (*models.AgentResponse, error) {
	messages := make([]models.AgentMessage, 0, len(req.Messages)+1)
	messages = append(messages, req.Messages...)

	for turn := 0; turn < s.maxTurns; turn++ {
		assistant, err := s.planner.Plan(ctx, messages)
		if err != nil {
			return nil, fmt.Errorf("planning turn %d: %w", turn+1, err)
		}
		messages = append(messages, *assistant)

		if len(assistant.ToolCalls) == 0 {
			return &models.AgentResponse{
				Messages:    messages,
				FinalAnswer: assistant.Content,
			}, nil
		}

		results := make([]models.ToolResult, 0, len(assistant.ToolCalls))
		for _, call := range assistant.ToolCalls {
			log.Printf("[INFO] Agent calling tool %s", call.Name)
			content, err := s.executeTool(ctx, call)
			if err != nil {
				log.Printf("[ERROR] Tool %s failed: %v", call.Name, err)
				content = fmt.Sprintf("Error: %v", err)
			}
			results = append(results, models.ToolResult{
				ToolCallID: call.ID,
				Content:    content,
			})
		}
		messages = append(messages, models.AgentMessage{
			Role:        "tool",
			ToolResults: results,
		})
	}

	log.Printf("[WARN] Agent exceeded %d turns without a final answer", s.maxTurns)
	// Return the history accumulated so far so the caller can resume the
	// conversation in a later request.
	return &models.AgentResponse{Messages: messages}, ErrTurnBudgetExceeded
}

func (s *Service) executeTool(ctx context.Context, call models.ToolCall) (string, error) {
	tool := s.findTool(call.Name)
	if tool == nil {
		return "", fmt.Errorf("unknown tool %q", call.Name)
	}
	input, err := json.Marshal(call.Arguments)
	if err != nil {
		return "", fmt.Errorf("encoding arguments for %s: %w", call.Name, err)
	}
	return tool.Call(ctx, string(input))
}

func (s *Service) findTool(name string) AgentTool {
	for _, tool := range s.tools {
		if tool.Name() == name {
			return tool
		}
	}
	return nil
}
