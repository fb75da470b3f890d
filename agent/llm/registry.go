package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/techflow-labs/careflow/agent/contract"
)

type registryImpl struct {
	greeter   contractx.Generator
	retention contractx.Generator
	processor contractx.Generator
}

func (r *registryImpl) Greeter() contractx.Generator {
	return r.greeter
}

func (r *registryImpl) Retention() contractx.Generator {
	return r.retention
}

func (r *registryImpl) Processor() contractx.Generator {
	return r.processor
}

// NewRegistry builds the three per-agent generators over OpenRouter.
// Greeter and retention carry their lookup tools; the processor only
// confirms, so it gets none.
func NewRegistry(ctx context.Context, cfg Config) (contractx.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	greeterCfg := cfg.OpenRouterFor(contractx.AgentTypeGreeter)
	greeterModel, err := greeterCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create greeter model: %v", contractx.ErrModelInvoke, err)
	}
	retentionCfg := cfg.OpenRouterFor(contractx.AgentTypeRetention)
	retentionModel, err := retentionCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create retention model: %v", contractx.ErrModelInvoke, err)
	}
	processorCfg := cfg.OpenRouterFor(contractx.AgentTypeProcessor)
	processorModel, err := processorCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create processor model: %v", contractx.ErrModelInvoke, err)
	}

	greeter, err := newGenerator(ctx, contractx.AgentTypeGreeter, greeterModel, agentTools(contractx.AgentTypeGreeter))
	if err != nil {
		return nil, err
	}
	retention, err := newGenerator(ctx, contractx.AgentTypeRetention, retentionModel, agentTools(contractx.AgentTypeRetention))
	if err != nil {
		return nil, err
	}
	processor, err := newGenerator(ctx, contractx.AgentTypeProcessor, processorModel, nil)
	if err != nil {
		return nil, err
	}

	return &registryImpl{
		greeter:   greeter,
		retention: retention,
		processor: processor,
	}, nil
}

func agentTools(agentType contractx.AgentType) []*schema.ToolInfo {
	switch agentType {
	case contractx.AgentTypeGreeter:
		return []*schema.ToolInfo{
			{
				Name: "customer.lookup",
				Desc: "Look up a customer profile by email address.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"email": {Type: schema.String, Desc: "Customer email address", Required: true},
				}),
			},
		}
	case contractx.AgentTypeRetention:
		return []*schema.ToolInfo{
			{
				Name: "offers.calculate",
				Desc: "Calculate retention offers for a customer tier and cancellation reason.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"customer_tier": {Type: schema.String, Desc: "Customer loyalty tier", Required: true},
					"reason":        {Type: schema.String, Desc: "Cancellation reason label", Required: true},
				}),
			},
		}
	default:
		return nil
	}
}
