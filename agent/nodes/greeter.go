// Package nodes implements the agent-node transitions of the
// conversation graph. Every node reads state, does its work, and
// returns a Delta plus a routing signal inside it; nothing here
// mutates the running conversation.
package nodes

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/techflow-labs/careflow/agent/classify"
	contractx "github.com/techflow-labs/careflow/agent/contract"
	statex "github.com/techflow-labs/careflow/agent/state"
)

var greeterTools = []contractx.ToolInfo{
	{Name: "customer.lookup", Desc: "Look up a customer profile by email address."},
}

// Greeter authenticates the customer and classifies intent, then
// generates a reply. A lookup miss degrades gracefully: the
// conversation continues unauthenticated and the routing logic simply
// cannot advance. Only a generation failure aborts the turn.
func Greeter(
	ctx context.Context,
	conv *statex.Conversation,
	directory contractx.CustomerDirectory,
	gen contractx.Generator,
	systemPrompt string,
) (statex.Delta, error) {
	if conv == nil {
		return statex.Delta{}, fmt.Errorf("%w: conversation is nil", contractx.ErrValidation)
	}

	lastMsg := conv.LastHumanMessage()
	delta := statex.Delta{CurrentAgent: contractx.AgentTypeGreeter}

	if !conv.IsAuthenticated() {
		if email, ok := classify.Email(lastMsg); ok {
			profile, err := directory.Lookup(ctx, email)
			switch {
			case err == nil:
				delta.CustomerData = profile
				delta.CustomerEmail = email
				delta.CustomerID = profile.CustomerID
				log.Info().Str("customer_id", profile.CustomerID).Str("tier", profile.Tier).Msg("authenticated customer")
			case errors.Is(err, contractx.ErrCustomerNotFound):
				log.Warn().Str("email", email).Msg("customer lookup miss")
			default:
				// lookup outages are reported, never fatal for the turn
				delta.Metadata = map[string]string{"auth_error": err.Error()}
				log.Error().Err(err).Str("email", email).Msg("customer lookup failed")
			}
		}
	}

	if !conv.HasIntent() {
		if intent := classify.Intent(lastMsg); intent != contractx.IntentGeneral {
			delta.Intent = intent
			log.Info().Str("intent", string(intent)).Msg("classified intent")
		}
	}

	reply, err := gen.Generate(ctx, contractx.GenerateRequest{
		System:   systemPrompt,
		Messages: conv.Messages,
		Tools:    greeterTools,
	})
	if err != nil {
		return statex.Delta{}, err
	}
	delta.NewMessages = []contractx.Message{reply}

	delta.Routing = greeterRoute(conv.IsAuthenticated() || delta.CustomerData != nil, pickIntent(conv.Intent, delta.Intent))
	return delta, nil
}

// greeterRoute maps (authenticated, intent) onto exactly one routing
// signal. Unauthenticated conversations and unset intent always end
// the turn and wait for the next human message.
func greeterRoute(authenticated bool, intent contractx.Intent) statex.Route {
	if !authenticated {
		return statex.RouteEnd
	}
	switch intent {
	case contractx.IntentCancellation:
		return statex.RouteRetention
	case contractx.IntentTechnical:
		return statex.RouteTechSupport
	case contractx.IntentBilling:
		return statex.RouteBilling
	default:
		return statex.RouteEnd
	}
}

func pickIntent(current, pending contractx.Intent) contractx.Intent {
	if current != "" {
		return current
	}
	return pending
}
