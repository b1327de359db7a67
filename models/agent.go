package models

// AgentMessage is one entry in a conversation. The message history is
// append-only: once a message is added it is never mutated or removed
// within a run.
type AgentMessage struct {
	Role        string       `json:"role"`
	Content     string       `json:"content"`
	ToolCalls   []ToolCall   `json:"tool_calls,omitempty"`
	ToolResults []ToolResult `json:"tool_results,omitempty"`
}

// ToolCall is a planner-issued request to execute one of the fixed tools.
type ToolCall struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// ToolResult carries a tool's text payload keyed by the originating call ID.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Content    string `json:"content"`
}

type AgentRequest struct {
	Messages []AgentMessage `json:"messages"`
}

type AgentResponse struct {
	Messages    []AgentMessage `json:"messages"`
	FinalAnswer string         `json:"final_answer"`
}
