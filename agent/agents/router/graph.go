package router

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/techflow-labs/careflow/agent/contract"
	nodex "github.com/techflow-labs/careflow/agent/nodes"
	statex "github.com/techflow-labs/careflow/agent/state"
)

// compileTurnGraph builds the conversation state machine:
//
//	START -> greeter -> {retention, tech_support, billing, END}
//	         retention -> {processor, END}
//	         processor, tech_support, billing -> END
//
// Each node lambda runs one agent node and merges its delta into a
// fresh copy of the conversation, so a node failure never commits
// partial state.
func (r *Router) compileTurnGraph(ctx context.Context) (compose.Runnable[*statex.Conversation, *statex.Conversation], error) {
	graph := compose.NewGraph[*statex.Conversation, *statex.Conversation]()

	if err := graph.AddLambdaNode("greeter",
		compose.InvokableLambda(func(ctx context.Context, in *statex.Conversation) (*statex.Conversation, error) {
			delta, err := nodex.Greeter(ctx, in, r.directory, r.models.Greeter(), r.prompts.Greeter)
			if err != nil {
				return nil, err
			}
			return merge(in, delta)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node greeter: %w", err)
	}

	if err := graph.AddLambdaNode("retention",
		compose.InvokableLambda(func(ctx context.Context, in *statex.Conversation) (*statex.Conversation, error) {
			delta, err := nodex.Retention(ctx, in, r.retriever, r.rules, r.models.Retention(), r.prompts.Retention)
			if err != nil {
				return nil, err
			}
			return merge(in, delta)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node retention: %w", err)
	}

	if err := graph.AddLambdaNode("processor",
		compose.InvokableLambda(func(ctx context.Context, in *statex.Conversation) (*statex.Conversation, error) {
			delta, err := nodex.Processor(ctx, in, r.audit, r.models.Processor(), r.prompts.Processor)
			if err != nil {
				return nil, err
			}
			return merge(in, delta)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node processor: %w", err)
	}

	if err := graph.AddLambdaNode("tech_support",
		compose.InvokableLambda(func(ctx context.Context, in *statex.Conversation) (*statex.Conversation, error) {
			return merge(in, nodex.TechSupport(in))
		}),
	); err != nil {
		return nil, fmt.Errorf("add node tech_support: %w", err)
	}

	if err := graph.AddLambdaNode("billing",
		compose.InvokableLambda(func(ctx context.Context, in *statex.Conversation) (*statex.Conversation, error) {
			return merge(in, nodex.Billing(in))
		}),
	); err != nil {
		return nil, fmt.Errorf("add node billing: %w", err)
	}

	greeterBranch := compose.NewGraphBranch(
		func(ctx context.Context, in *statex.Conversation) (string, error) {
			if in == nil {
				return "", fmt.Errorf("%w: conversation is nil", contractx.ErrValidation)
			}
			switch in.Routing {
			case statex.RouteRetention:
				return "retention", nil
			case statex.RouteTechSupport:
				return "tech_support", nil
			case statex.RouteBilling:
				return "billing", nil
			default:
				// end turn, wait for the next human message
				return compose.END, nil
			}
		},
		map[string]bool{
			"retention":    true,
			"tech_support": true,
			"billing":      true,
			compose.END:    true,
		},
	)

	retentionBranch := compose.NewGraphBranch(
		func(ctx context.Context, in *statex.Conversation) (string, error) {
			if in == nil {
				return "", fmt.Errorf("%w: conversation is nil", contractx.ErrValidation)
			}
			if in.Routing == statex.RouteProcessor {
				return "processor", nil
			}
			return compose.END, nil
		},
		map[string]bool{
			"processor": true,
			compose.END: true,
		},
	)

	if err := graph.AddEdge(compose.START, "greeter"); err != nil {
		return nil, fmt.Errorf("add edge start->greeter: %w", err)
	}
	if err := graph.AddBranch("greeter", greeterBranch); err != nil {
		return nil, fmt.Errorf("add greeter branch: %w", err)
	}
	if err := graph.AddBranch("retention", retentionBranch); err != nil {
		return nil, fmt.Errorf("add retention branch: %w", err)
	}
	for _, terminal := range []string{"processor", "tech_support", "billing"} {
		if err := graph.AddEdge(terminal, compose.END); err != nil {
			return nil, fmt.Errorf("add edge %s->end: %w", terminal, err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("careflow.turn"))
	if err != nil {
		return nil, fmt.Errorf("compile turn graph: %w", err)
	}
	return runner, nil
}

// merge applies a node delta to a copy of the conversation. The
// original stays untouched so turn-level retry from the pre-turn state
// is always safe.
func merge(in *statex.Conversation, delta statex.Delta) (*statex.Conversation, error) {
	next := in.Clone()
	if err := next.Apply(delta); err != nil {
		return nil, fmt.Errorf("merge %s delta: %w", delta.CurrentAgent, err)
	}
	return next, nil
}
