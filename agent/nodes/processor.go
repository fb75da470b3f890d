package nodes

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/techflow-labs/careflow/agent/contract"
	"github.com/techflow-labs/careflow/agent/outcome"
	statex "github.com/techflow-labs/careflow/agent/state"
)

// Processor finalizes the conversation: it determines the disposition
// once, records it in the audit log (failures there are reported, not
// fatal), and generates the confirmation reply. It always ends the
// graph traversal.
func Processor(
	ctx context.Context,
	conv *statex.Conversation,
	audit contractx.AuditLog,
	gen contractx.Generator,
	systemPrompt string,
) (statex.Delta, error) {
	if conv == nil {
		return statex.Delta{}, fmt.Errorf("%w: conversation is nil", contractx.ErrValidation)
	}

	delta := statex.Delta{CurrentAgent: contractx.AgentTypeProcessor}

	var logNote contractx.Message

	if !conv.Finalized() {
		action, details := outcome.Determine(conv)
		delta.FinalAction = action
		delta.FinalDetails = details
		log.Info().Str("action", string(action)).Msg("determined final action")

		switch {
		case conv.CustomerID == "":
			logNote = systemNote("Processing without customer_id")
			log.Warn().Msg("no customer_id available for audit logging")
		default:
			if err := audit.Append(ctx, conv.CustomerID, action, details); err != nil {
				logNote = systemNote("Note: Action logging encountered an error")
				log.Error().Err(err).Str("customer_id", conv.CustomerID).Msg("audit append failed")
			} else {
				logNote = systemNote(fmt.Sprintf("Action logged: %s - %s", action, details))
			}
		}
	} else {
		logNote = systemNote(fmt.Sprintf("Action already logged: %s", conv.FinalAction))
	}

	reply, err := gen.Generate(ctx, contractx.GenerateRequest{
		System:   systemPrompt,
		Messages: append(append([]contractx.Message(nil), conv.Messages...), logNote),
	})
	if err != nil {
		return statex.Delta{}, err
	}

	delta.NewMessages = []contractx.Message{logNote, reply}
	delta.Routing = statex.RouteEnd
	return delta, nil
}

func systemNote(content string) contractx.Message {
	return contractx.Message{Role: contractx.RoleSystemNote, Content: content}
}
