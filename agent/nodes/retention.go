package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/techflow-labs/careflow/agent/classify"
	contractx "github.com/techflow-labs/careflow/agent/contract"
	offersx "github.com/techflow-labs/careflow/agent/offers"
	statex "github.com/techflow-labs/careflow/agent/state"
)

var retentionAcceptKeywords = []string{
	"yes", "ok", "sure", "accept", "sounds good", "i'll take", "that works", "agree", "deal",
}

var retentionDeclineKeywords = []string{
	"no thanks", "still want to cancel", "not interested", "just cancel",
	"proceed with cancellation", "decline",
}

var retentionTools = []contractx.ToolInfo{
	{Name: "offers.calculate", Desc: "Calculate retention offers for a customer tier and cancellation reason."},
}

// Retention derives the cancellation reason once, conditionally pulls
// policy context, resolves offers once, and generates the retention
// reply. Offer-resolution failures degrade to "no offers"; retrieval
// and generation failures abort the turn with no partial state.
func Retention(
	ctx context.Context,
	conv *statex.Conversation,
	retriever contractx.PolicyRetriever,
	rules *offersx.Table,
	gen contractx.Generator,
	systemPrompt string,
) (statex.Delta, error) {
	if conv == nil {
		return statex.Delta{}, fmt.Errorf("%w: conversation is nil", contractx.ErrValidation)
	}

	delta := statex.Delta{CurrentAgent: contractx.AgentTypeRetention}

	reason := conv.Reason
	if reason == "" {
		reason = classify.CancellationReason(conv)
		delta.Reason = reason
		log.Info().Str("reason", string(reason)).Msg("determined cancellation reason")
	}

	var contextNotes []contractx.Message

	if retriever != nil && classify.ShouldQueryPolicyContext(conv) {
		query := strings.ReplaceAll(string(reason), "_", " ") + " " + conv.LastHumanMessage()
		policyContext, err := retriever.Retrieve(ctx, query)
		if err != nil {
			return statex.Delta{}, fmt.Errorf("retrieve policy context: %w", err)
		}
		delta.RAGContext = policyContext
		delta.HasRAGContext = true
		if policyContext != "" {
			contextNotes = append(contextNotes, contractx.Message{
				Role:    contractx.RoleSystemNote,
				Content: "Relevant Policy Information:\n" + policyContext,
			})
		}
	}

	offersToPresent := conv.RetentionOffers
	if len(offersToPresent) == 0 && conv.CustomerData != nil {
		result, err := rules.Resolve(conv.CustomerData.Tier, reason)
		if err != nil {
			// a broken rule table means no offers, not a dead turn
			delta.Metadata = map[string]string{"offer_error": err.Error()}
			log.Error().Err(err).Msg("offer resolution failed")
		} else {
			delta.Offers = result.Offers
			offersToPresent = result.Offers
			log.Info().Int("offers", len(result.Offers)).Str("primary", string(result.Strategy.Primary)).Msg("calculated retention offers")
		}
	}

	if len(offersToPresent) > 0 {
		var lines []string
		for _, offer := range offersToPresent {
			lines = append(lines, fmt.Sprintf("- %s: %s", offer.Type, offer.Description))
		}
		contextNotes = append(contextNotes, contractx.Message{
			Role:    contractx.RoleSystemNote,
			Content: "Available Offers:\n" + strings.Join(lines, "\n"),
		})
	}

	reply, err := gen.Generate(ctx, contractx.GenerateRequest{
		System:   systemPrompt,
		Messages: append(append([]contractx.Message(nil), conv.Messages...), contextNotes...),
		Tools:    retentionTools,
	})
	if err != nil {
		return statex.Delta{}, err
	}

	delta.NewMessages = append(contextNotes, reply)
	delta.Routing = retentionRoute(conv.LastHumanMessage())
	return delta, nil
}

// retentionRoute advances to the processor once the customer clearly
// accepts or declines; anything else ends the turn and keeps the
// retention conversation going.
func retentionRoute(lastMsg string) statex.Route {
	lowered := strings.ToLower(lastMsg)
	if containsAny(lowered, retentionAcceptKeywords) || containsAny(lowered, retentionDeclineKeywords) {
		return statex.RouteProcessor
	}
	return statex.RouteEnd
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
