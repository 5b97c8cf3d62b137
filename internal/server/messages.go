package server

import (
	"encoding/json"
	"fmt"

	"github.com/acheong08/depvis/internal/graph"
	"github.com/acheong08/depvis/internal/simplify"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	// Client -> Server
	TypeVisualize MessageType = "visualize" // Client sends a restore output to graph
	TypePing      MessageType = "ping"      // Keep-alive

	// Server -> Client
	TypeGraph       MessageType = "graph"       // One framework graph as DGML
	TypeSuggestions MessageType = "suggestions" // Redundant project references
	TypeProgress    MessageType = "progress"    // Progress updates
	TypeLog         MessageType = "log"         // Log messages for terminal
	TypeComplete    MessageType = "complete"    // Visualization complete
	TypeError       MessageType = "error"       // Error message
	TypePong        MessageType = "pong"
)

// Message is the base WebSocket message structure
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// VisualizePayload sent by client to start a visualization
type VisualizePayload struct {
	AssetsJSON           string `json:"assets_json"`           // Raw project.assets.json content
	DGSpecJSON           string `json:"dgspec_json,omitempty"` // Optional raw dgspec content
	ProjectsOnly         bool   `json:"projects_only"`
	CheckVulnerabilities bool   `json:"check_vulnerabilities"`
	CheckDeprecation     bool   `json:"check_deprecation"`
	Sources              string `json:"sources,omitempty"` // Comma separated source override
}

// GraphPayload carries one framework graph
type GraphPayload struct {
	Framework string      `json:"framework"`
	DGML      string      `json:"dgml"`
	Stats     graph.Stats `json:"stats"`
}

// SuggestionsPayload lists redundant project references per framework
type SuggestionsPayload struct {
	Suggestions []simplify.Suggestion `json:"suggestions"`
}

// ProgressPayload for progress bar updates
type ProgressPayload struct {
	Percent int    `json:"percent"` // 0-100
	Stage   string `json:"stage"`   // "parse", "build", "decorate", "export"
	Message string `json:"message"` // Human-readable status
}

// LogPayload for terminal output
type LogPayload struct {
	Message string `json:"message"`         // Log message
	Level   string `json:"level,omitempty"` // "info", "success", "warning", "error"
}

// CompletePayload sent when the visualization is done
type CompletePayload struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Graphs  int    `json:"graphs"`
}

// ErrorPayload for error messages
type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Helper functions to create messages

func newMessage(t MessageType, payload any) Message {
	payloadBytes, _ := json.Marshal(payload)
	return Message{Type: t, Payload: payloadBytes}
}

func NewGraphMessage(framework string, dgml []byte, stats graph.Stats) Message {
	return newMessage(TypeGraph, GraphPayload{
		Framework: framework,
		DGML:      string(dgml),
		Stats:     stats,
	})
}

func NewSuggestionsMessage(suggestions []simplify.Suggestion) Message {
	if suggestions == nil {
		suggestions = []simplify.Suggestion{}
	}
	return newMessage(TypeSuggestions, SuggestionsPayload{Suggestions: suggestions})
}

func NewProgressMessage(percent int, stage, message string) Message {
	return newMessage(TypeProgress, ProgressPayload{
		Percent: percent,
		Stage:   stage,
		Message: message,
	})
}

func NewLogMessage(message, level string) Message {
	return newMessage(TypeLog, LogPayload{
		Message: message,
		Level:   level,
	})
}

func NewCompleteMessage(success bool, message string, graphs int) Message {
	return newMessage(TypeComplete, CompletePayload{
		Success: success,
		Message: message,
		Graphs:  graphs,
	})
}

func NewErrorMessage(message string, err error) Message {
	errMsg := message
	if err != nil {
		errMsg = fmt.Sprintf("%s: %v", message, err)
	}
	return newMessage(TypeError, ErrorPayload{Message: errMsg})
}

func NewPongMessage() Message {
	return Message{Type: TypePong}
}

// ParseVisualizePayload extracts the visualize payload from a message
func ParseVisualizePayload(msg Message) (*VisualizePayload, error) {
	var payload VisualizePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse visualize payload: %w", err)
	}
	if payload.AssetsJSON == "" {
		return nil, fmt.Errorf("visualize payload has no assets_json")
	}
	return &payload, nil
}
