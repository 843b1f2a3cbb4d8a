package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"leadchat/pkg"
	"leadchat/src/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultMaxSteps = 32

// DefaultGraphProcessor implements the GraphProcessor interface
type DefaultGraphProcessor struct {
	nodes    map[string]Node
	flow     GraphFlow
	maxSteps int
	locker   TurnLocker
	tracer   trace.Tracer
}

// NewGraphProcessor creates a new graph processor. locker may be nil.
func NewGraphProcessor(config Config, locker TurnLocker) *DefaultGraphProcessor {
	maxSteps := config.MaxSteps
	if maxSteps <= 0 {
		maxSteps = defaultMaxSteps
	}
	return &DefaultGraphProcessor{
		nodes:    make(map[string]Node),
		flow:     config.Flow,
		maxSteps: maxSteps,
		locker:   locker,
		tracer:   otel.Tracer("leadchat/pipeline"),
	}
}

// Execute runs one chat turn through the graph flow
func (g *DefaultGraphProcessor) Execute(ctx context.Context, input ProcessorInput) (*ProcessorOutput, error) {
	startTime := time.Now()

	if g.locker != nil && input.ConversationID != "" {
		unlock := g.locker.Lock(input.ConversationID)
		defer unlock()
	}

	logger.Debug().Str("conversation_id", input.ConversationID).Msg("🚀 Starting graph execution")

	nodeInput := NodeInput{
		Request:  input,
		Metadata: make(map[string]any),
	}
	output := &ProcessorOutput{
		ConversationID: input.ConversationID,
		Metadata:       make(map[string]any),
	}

	var executionPath []string
	currentNode := g.flow.StartNode

	for currentNode != "" && currentNode != NodeComplete {
		if len(executionPath) >= g.maxSteps {
			return nil, fmt.Errorf("graph exceeded %d steps at node %s", g.maxSteps, currentNode)
		}
		executionPath = append(executionPath, currentNode)

		node, exists := g.nodes[currentNode]
		if !exists {
			return nil, fmt.Errorf("node not found: %s", currentNode)
		}

		nodeOutput, err := g.runNode(ctx, node, nodeInput)
		if err != nil {
			logger.Error().Err(err).Str("node", currentNode).Msg("❌ Error executing node")
			return nil, fmt.Errorf("error executing node %s: %w", currentNode, err)
		}

		// non-fatal
		if nodeOutput.Error != nil {
			logger.Warn().Err(nodeOutput.Error).Str("node", currentNode).Msg("⚠️ Node returned error")
			output.Metadata["errors"] = append(getStringSlice(output.Metadata, "errors"), nodeOutput.Error.Error())
		}

		g.processNodeOutput(currentNode, nodeOutput, output, &nodeInput)

		if nodeOutput.Complete {
			break
		}

		nextNode := nodeOutput.NextNode
		if nextNode == "" {
			nextNode = g.getNextNode(currentNode, nodeOutput)
		}
		currentNode = nextNode
	}

	processingTime := time.Since(startTime)
	output.ProcessingTime = processingTime.Milliseconds()
	output.Metadata["execution_path"] = executionPath

	logger.Info().
		Str("conversation_id", output.ConversationID).
		Str("provider", output.Provider).
		Int("lead_score", output.Qualification.Score).
		Dur("took", processingTime).
		Msg("🏁 Graph execution completed")

	return output, nil
}

func (g *DefaultGraphProcessor) runNode(ctx context.Context, node Node, input NodeInput) (NodeOutput, error) {
	ctx, span := g.tracer.Start(ctx, "node."+node.GetName(),
		trace.WithAttributes(attribute.String("node.type", string(node.GetType()))))
	defer span.End()

	out, err := node.Execute(ctx, input)
	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case out.Error != nil:
		span.RecordError(out.Error)
	}
	return out, err
}

// AddNode adds a node to the processor
func (g *DefaultGraphProcessor) AddNode(node Node) error {
	if node == nil {
		return errors.New("node cannot be nil")
	}

	nodeName := node.GetName()
	if nodeName == "" {
		return errors.New("node name cannot be empty")
	}

	g.nodes[nodeName] = node
	logger.Debug().Str("node", nodeName).Str("type", string(node.GetType())).Msg("➕ Added node")

	return nil
}

// GetNode retrieves a node by name
func (g *DefaultGraphProcessor) GetNode(name string) (Node, error) {
	node, exists := g.nodes[name]
	if !exists {
		return nil, fmt.Errorf("node not found: %s", name)
	}
	return node, nil
}

// SetFlow sets the execution flow
func (g *DefaultGraphProcessor) SetFlow(flow GraphFlow) error {
	if flow.StartNode == "" {
		return errors.New("start node cannot be empty")
	}

	g.flow = flow
	logger.Debug().Str("start_node", flow.StartNode).Msg("🔀 Updated graph flow")

	return nil
}

// processNodeOutput merges node data into the global output and the next node's input
func (g *DefaultGraphProcessor) processNodeOutput(nodeName string, nodeOutput NodeOutput, globalOutput *ProcessorOutput, nodeInput *NodeInput) {
	for key, value := range nodeOutput.Data {
		switch key {
		case KeyConversation:
			if conv, ok := value.(*pkg.Conversation); ok {
				nodeInput.Conversation = conv
				globalOutput.ConversationID = conv.ID
			}
		case KeyHistory:
			if history, ok := value.([]pkg.ConversationMessage); ok {
				nodeInput.History = history
			}
		case KeyKnowledge:
			if knowledge, ok := value.(string); ok {
				nodeInput.Knowledge = knowledge
			}
		case KeySystemPrompt:
			if systemPrompt, ok := value.(string); ok {
				nodeInput.SystemPrompt = systemPrompt
			}
		case KeyResponse:
			if reply, ok := value.(string); ok {
				nodeInput.Reply = reply
				globalOutput.Response = reply
			}
		case KeyProvider:
			if provider, ok := value.(string); ok {
				nodeInput.Provider = provider
				globalOutput.Provider = provider
			}
		case KeyAttempts:
			if attempts, ok := value.([]pkg.ProviderAttempt); ok {
				globalOutput.Attempts = attempts
			}
		case KeyQualification:
			if q, ok := value.(pkg.Qualification); ok {
				nodeInput.Qualification = &q
				globalOutput.Qualification = q
			}
		case KeyLeadOutcome:
			if outcome, ok := value.(string); ok {
				globalOutput.LeadOutcome = outcome
			}
		default:
			globalOutput.Metadata[fmt.Sprintf("%s_%s", nodeName, key)] = value
			nodeInput.Metadata[key] = value
		}
	}
}

// getNextNode determines the next node based on flow edges and conditions
func (g *DefaultGraphProcessor) getNextNode(currentNode string, nodeOutput NodeOutput) string {
	edges, exists := g.flow.Edges[currentNode]
	if !exists || len(edges) == 0 {
		return NodeComplete
	}

	for _, edge := range sortEdgesByPriority(edges) {
		if evaluateCondition(edge.Condition, nodeOutput) {
			return edge.To
		}
	}

	return NodeComplete
}

// sortEdgesByPriority orders edges by priority, lower first
func sortEdgesByPriority(edges []GraphEdge) []GraphEdge {
	sorted := make([]GraphEdge, len(edges))
	copy(sorted, edges)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})
	return sorted
}

// evaluateCondition reports whether every condition key equals the node's output
func evaluateCondition(condition map[string]any, nodeOutput NodeOutput) bool {
	for key, expectedValue := range condition {
		actualValue, exists := nodeOutput.Data[key]
		if !exists || actualValue != expectedValue {
			return false
		}
	}
	return true
}

func getStringSlice(metadata map[string]any, key string) []string {
	if value, exists := metadata[key]; exists {
		if slice, ok := value.([]string); ok {
			return slice
		}
	}
	return []string{}
}
