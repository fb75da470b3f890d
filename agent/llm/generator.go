package llm

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/techflow-labs/careflow/agent/contract"
)

type generatorImpl struct {
	agentType contractx.AgentType
	runner    compose.Runnable[contractx.GenerateRequest, *schema.Message]
}

// newGenerator compiles the per-agent reply graph: assemble the chat
// transcript, run the model, hand back the raw message. Tools, when
// given, are bound to the model at construction; the node-level
// ToolInfo in requests is advisory.
func newGenerator(
	ctx context.Context,
	agentType contractx.AgentType,
	chatModel einomodel.ToolCallingChatModel,
	tools []*schema.ToolInfo,
) (*generatorImpl, error) {
	boundModel := einomodel.BaseChatModel(chatModel)
	if len(tools) > 0 {
		withTools, err := chatModel.WithTools(tools)
		if err != nil {
			return nil, fmt.Errorf("%w: bind tools for agent=%s: %v", contractx.ErrModelInvoke, agentType, err)
		}
		boundModel = withTools
	}

	graph := compose.NewGraph[contractx.GenerateRequest, *schema.Message]()

	if err := graph.AddLambdaNode("assemble",
		compose.InvokableLambda(func(ctx context.Context, req contractx.GenerateRequest) ([]*schema.Message, error) {
			return assembleTranscript(req)
		}),
	); err != nil {
		return nil, fmt.Errorf("add assemble node: %w", err)
	}
	if err := graph.AddChatModelNode("model", boundModel); err != nil {
		return nil, fmt.Errorf("add model node: %w", err)
	}
	if err := graph.AddEdge(compose.START, "assemble"); err != nil {
		return nil, fmt.Errorf("add edge start->assemble: %w", err)
	}
	if err := graph.AddEdge("assemble", "model"); err != nil {
		return nil, fmt.Errorf("add edge assemble->model: %w", err)
	}
	if err := graph.AddEdge("model", compose.END); err != nil {
		return nil, fmt.Errorf("add edge model->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName(fmt.Sprintf("careflow.%s_reply", agentType)))
	if err != nil {
		return nil, fmt.Errorf("%w: compile %s reply graph: %v", contractx.ErrModelInvoke, agentType, err)
	}

	return &generatorImpl{
		agentType: agentType,
		runner:    runner,
	}, nil
}

func (g *generatorImpl) Generate(ctx context.Context, req contractx.GenerateRequest) (contractx.Message, error) {
	out, err := g.runner.Invoke(ctx, req)
	if err != nil {
		return contractx.Message{}, fmt.Errorf("%w: %s generate: %v", contractx.ErrModelInvoke, g.agentType, err)
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		return contractx.Message{}, fmt.Errorf("%w: %s returned empty reply", contractx.ErrModelInvoke, g.agentType)
	}
	return contractx.Message{
		Role:    contractx.RoleAssistant,
		Content: strings.TrimSpace(out.Content),
	}, nil
}

func assembleTranscript(req contractx.GenerateRequest) ([]*schema.Message, error) {
	if strings.TrimSpace(req.System) == "" {
		return nil, fmt.Errorf("%w: system prompt is empty", contractx.ErrPromptMissing)
	}

	msgs := make([]*schema.Message, 0, len(req.Messages)+1)
	msgs = append(msgs, schema.SystemMessage(req.System))
	for _, m := range req.Messages {
		switch m.Role {
		case contractx.RoleHuman:
			msgs = append(msgs, schema.UserMessage(m.Content))
		case contractx.RoleAssistant:
			msgs = append(msgs, schema.AssistantMessage(m.Content, nil))
		case contractx.RoleSystemNote:
			msgs = append(msgs, schema.SystemMessage(m.Content))
		default:
			return nil, fmt.Errorf("%w: unknown message role=%q", contractx.ErrValidation, m.Role)
		}
	}
	return msgs, nil
}
