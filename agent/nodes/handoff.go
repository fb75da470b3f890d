package nodes

import (
	contractx "github.com/techflow-labs/careflow/agent/contract"
	statex "github.com/techflow-labs/careflow/agent/state"
)

const techSupportHandoff = "I'm transferring you to our technical support team who can help with your device issue. They'll be with you shortly."

const billingHandoff = "I'm transferring you to our billing department who can help explain your charges. They'll assist you right away."

// TechSupport emits the fixed hand-off message and terminates the
// traversal. No collaborators, no failure modes.
func TechSupport(conv *statex.Conversation) statex.Delta {
	return handoff(contractx.AgentTypeTechSupport, techSupportHandoff)
}

// Billing emits the fixed hand-off message and terminates the
// traversal.
func Billing(conv *statex.Conversation) statex.Delta {
	return handoff(contractx.AgentTypeBilling, billingHandoff)
}

func handoff(agent contractx.AgentType, message string) statex.Delta {
	return statex.Delta{
		CurrentAgent: agent,
		NewMessages: []contractx.Message{
			{Role: contractx.RoleAssistant, Content: message},
		},
		Routing: statex.RouteEnd,
	}
}
