package classify

import (
	"strings"

	contractx "github.com/techflow-labs/careflow/agent/contract"
	statex "github.com/techflow-labs/careflow/agent/state"
)

type reasonRule struct {
	reason   contractx.Reason
	keywords []string
}

// Reason groups are evaluated in fixed priority order. The first group
// with a hit wins so the narrative of why the customer wants to leave
// stays stable even when later messages mention other frustrations.
var reasonRules = []reasonRule{
	{
		reason: contractx.ReasonFinancialHardship,
		keywords: []string{
			"can't afford", "too expensive", "cost", "money",
			"budget", "financial", "save money", "cheaper",
		},
	},
	{
		reason: contractx.ReasonNotUsing,
		keywords: []string{
			"never use", "haven't used", "don't use", "unused",
			"not worth it", "no claims",
		},
	},
	{
		reason: contractx.ReasonProductDefect,
		keywords: []string{
			"broken", "defect", "not working", "problem with phone",
			"overheating", "screen issue", "battery problem",
		},
	},
	{
		reason:   contractx.ReasonTooExpensive,
		keywords: []string{"expensive", "high price", "costly", "price"},
	},
	{
		reason: contractx.ReasonSwitchingCarrier,
		keywords: []string{
			"switching", "new carrier", "moving to", "changing provider",
		},
	},
}

// CancellationReason derives the reason label from every human message
// in the conversation, not just the latest. Designed to be called once
// per conversation; callers must not re-derive once a reason is stored.
func CancellationReason(conv *statex.Conversation) contractx.Reason {
	allText := conv.AllHumanText()
	for _, rule := range reasonRules {
		if containsAny(allText, rule.keywords) {
			return rule.reason
		}
	}
	return contractx.ReasonOther
}

// ragTriggers mark messages questioning value, benefits, coverage, or
// a defect: the cases where policy context helps the retention reply.
var ragTriggers = []string{
	"what does",
	"coverage",
	"benefit",
	"worth",
	"value",
	"what's included",
	"return",
	"replacement",
	"defect",
	"never used",
	"don't use",
}

// recentWindow bounds how much history influences the retrieval
// decision: an early tangent must not force retrieval calls for the
// rest of the conversation.
const recentWindow = 3

// ShouldQueryPolicyContext reports whether the retention agent should
// consult the policy retriever. Only the last 3 human messages count.
func ShouldQueryPolicyContext(conv *statex.Conversation) bool {
	recent := strings.ToLower(strings.Join(conv.LastHumanMessages(recentWindow), " "))
	return containsAny(recent, ragTriggers)
}
