// Package a2a contains the agent-to-agent message and task types exchanged
// over the JSON-RPC endpoint.
package a2a

import (
	"encoding/json"
	"time"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// TaskState is the lifecycle state reported in a TaskStatus.
// This agent only ever produces TaskStateCompleted or TaskStateFailed;
// the rest exist so inbound payloads referencing them decode cleanly.
type TaskState string

const (
	TaskStateSubmitted     TaskState = "submitted"
	TaskStateWorking       TaskState = "working"
	TaskStateInputRequired TaskState = "input-required"
	TaskStateCompleted     TaskState = "completed"
	TaskStateFailed        TaskState = "failed"
	TaskStateCanceled      TaskState = "canceled"
)

// Message is one turn of a conversation.
type Message struct {
	Kind      string `json:"kind"`
	Role      Role   `json:"role"`
	Parts     Parts  `json:"parts"`
	MessageID string `json:"messageId,omitempty"`
	TaskID    string `json:"taskId,omitempty"`
	ContextID string `json:"contextId,omitempty"`
}

// NewAgentMessage builds an agent-authored message holding a single text part.
func NewAgentMessage(messageID, taskID, contextID, text string) Message {
	return Message{
		Kind:      "message",
		Role:      RoleAgent,
		Parts:     Parts{TextPart{Text: text}},
		MessageID: messageID,
		TaskID:    taskID,
		ContextID: contextID,
	}
}

// TaskStatus is the terminal status of a task.
type TaskStatus struct {
	State     TaskState `json:"state"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Artifact is a named bundle of result data attached to a TaskResult.
type Artifact struct {
	ArtifactID string `json:"artifactId"`
	Name       string `json:"name"`
	Parts      Parts  `json:"parts"`
}

// TaskResult is the outcome of a single request. It is built once and
// not modified after being returned.
type TaskResult struct {
	ID        string     `json:"id"`
	ContextID string     `json:"contextId"`
	Kind      string     `json:"kind"`
	Status    TaskStatus `json:"status"`
	Artifacts []Artifact `json:"artifacts"`
	History   []Message  `json:"history,omitempty"`
}

// MarshalJSON keeps artifacts encoded as an array even when empty.
func (r TaskResult) MarshalJSON() ([]byte, error) {
	type plain TaskResult
	p := plain(r)
	if p.Artifacts == nil {
		p.Artifacts = []Artifact{}
	}
	if p.Kind == "" {
		p.Kind = "task"
	}
	return json.Marshal(p)
}

// Configuration is the free-form per-request configuration forwarded to
// the issue fetcher.
type Configuration map[string]any

// String returns the string value stored under key, or "" when the key is
// missing or not a string.
func (c Configuration) String(key string) string {
	if c == nil {
		return ""
	}
	s, _ := c[key].(string)
	return s
}
