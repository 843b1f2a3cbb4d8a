package core

import (
	"context"

	"leadchat/pkg"
)

// Node represents a single processing unit in the graph flow
type Node interface {
	Execute(ctx context.Context, input NodeInput) (NodeOutput, error)
	GetName() string
	GetType() NodeType
}

// NodeType defines the different types of nodes in the graph
type NodeType string

const (
	NodeTypeConversation NodeType = "conversation"
	NodeTypeKnowledge    NodeType = "knowledge"
	NodeTypePrompt       NodeType = "prompt"
	NodeTypeResponse     NodeType = "response"
	NodeTypeQualify      NodeType = "qualify"
	NodeTypeRecord       NodeType = "record"
)

// Node names used by the default flow
const (
	NodeConversation = "conversation"
	NodeKnowledge    = "knowledge"
	NodeCompose      = "prompt"
	NodeResponse     = "response"
	NodeQualify      = "qualify"
	NodeRecord       = "record"
	NodeComplete     = "complete"
)

// Keys nodes use in NodeOutput.Data
const (
	KeyConversation  = "conversation"
	KeyHistory       = "history"
	KeyKnowledge     = "knowledge"
	KeySystemPrompt  = "system_prompt"
	KeyResponse      = "response"
	KeyProvider      = "provider"
	KeyAttempts      = "attempts"
	KeyQualification = "qualification"
	KeyQualified     = "qualified"
	KeyLeadOutcome   = "lead_outcome"
	KeyCreated       = "created"
)

// NodeInput contains the input data for a node
type NodeInput struct {
	Request       ProcessorInput            `json:"request"`
	Conversation  *pkg.Conversation         `json:"conversation,omitempty"`
	History       []pkg.ConversationMessage `json:"history,omitempty"`
	Knowledge     string                    `json:"knowledge,omitempty"`
	SystemPrompt  string                    `json:"system_prompt,omitempty"`
	Reply         string                    `json:"reply,omitempty"`
	Provider      string                    `json:"provider,omitempty"`
	Qualification *pkg.Qualification        `json:"qualification,omitempty"`
	Metadata      map[string]any            `json:"metadata"`
}

// NodeOutput contains the output data from a node
type NodeOutput struct {
	Data     map[string]any `json:"data"`
	NextNode string         `json:"next_node,omitempty"`
	Error    error          `json:"error,omitempty"`
	Complete bool           `json:"complete"`
}

// GraphProcessor orchestrates the execution of nodes in a graph flow
type GraphProcessor interface {
	Execute(ctx context.Context, input ProcessorInput) (*ProcessorOutput, error)
	AddNode(node Node) error
	GetNode(name string) (Node, error)
	SetFlow(flow GraphFlow) error
}

// ProcessorInput is one inbound chat turn
type ProcessorInput struct {
	Message        string          `json:"message"`
	ConversationID string          `json:"conversation_id,omitempty"`
	SessionID      string          `json:"session_id,omitempty"`
	Contact        pkg.ContactInfo `json:"contact"`
}

// ProcessorOutput is the reply and derived lead data for one turn
type ProcessorOutput struct {
	Response       string                `json:"response"`
	ConversationID string                `json:"conversation_id"`
	Provider       string                `json:"provider"`
	Attempts       []pkg.ProviderAttempt `json:"attempts,omitempty"`
	Qualification  pkg.Qualification     `json:"qualification"`
	LeadOutcome    string                `json:"lead_outcome,omitempty"`
	ProcessingTime int64                 `json:"processing_time_ms"`
	Metadata       map[string]any        `json:"metadata"`
}

// GraphFlow defines the execution flow between nodes
type GraphFlow struct {
	StartNode string                 `json:"start_node"`
	Edges     map[string][]GraphEdge `json:"edges"` // node_name -> possible next nodes
}

// GraphEdge represents a connection between two nodes with conditions
type GraphEdge struct {
	To        string         `json:"to"`
	Condition map[string]any `json:"condition,omitempty"`
	Priority  int            `json:"priority"`
}

// TurnLocker serializes turns that share a conversation id
type TurnLocker interface {
	Lock(conversationID string) (unlock func())
}

// Config holds the processor configuration
type Config struct {
	Flow GraphFlow `json:"flow"`
	// MaxSteps bounds the walk so a cyclic flow cannot spin forever
	MaxSteps int `json:"max_steps"`
}
