package nodes

import (
	"fmt"

	"leadchat/internal/core"
	"leadchat/internal/leads"
	"leadchat/pkg"
	"leadchat/src/conversation"
	"leadchat/src/llm/prompt"
)

// Dependencies are the collaborators the chat pipeline nodes need
type Dependencies struct {
	Conversations *conversation.Service
	Knowledge     Searcher
	Composer      *prompt.Composer
	Services      []pkg.ServiceOffering
	Responder     Responder
	Qualifier     Scorer
	Recorder      *leads.Recorder
}

// NewPipeline registers every chat node on a processor running config's flow
func NewPipeline(config core.Config, deps Dependencies) (*core.DefaultGraphProcessor, error) {
	processor := core.NewGraphProcessor(config, deps.Conversations)

	for _, node := range []core.Node{
		NewConversationNode(deps.Conversations),
		NewKnowledgeNode(deps.Knowledge),
		NewPromptNode(deps.Composer, deps.Services, deps.Conversations),
		NewResponseNode(deps.Responder, deps.Conversations),
		NewQualifyNode(deps.Qualifier, deps.Recorder, deps.Conversations),
		NewRecordNode(deps.Recorder),
	} {
		if err := processor.AddNode(node); err != nil {
			return nil, fmt.Errorf("failed to add node: %w", err)
		}
	}

	return processor, nil
}
