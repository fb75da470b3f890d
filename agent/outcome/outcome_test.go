package outcome

import (
	"testing"
	"time"

	contractx "github.com/techflow-labs/careflow/agent/contract"
	statex "github.com/techflow-labs/careflow/agent/state"
)

var testOffers = []contractx.Offer{
	{Type: contractx.OfferTypePause, Description: "pause coverage for 3 months"},
	{Type: contractx.OfferTypeDiscount, Description: "50% off for 6 months"},
}

func convWith(t *testing.T, offers []contractx.Offer, messages ...string) *statex.Conversation {
	t.Helper()
	conv := statex.NewConversation("s-1", messages[0], time.Now())
	for _, m := range messages[1:] {
		conv.AppendHuman(m)
	}
	conv.RetentionOffers = offers
	return conv
}

func TestDetermineAcceptsMentionedOffer(t *testing.T) {
	t.Parallel()

	conv := convWith(t, testOffers, "I want to cancel", "yes, I'll take the pause option")
	action, details := Determine(conv)
	if action != contractx.ActionAcceptedPause {
		t.Fatalf("Determine() action = %q, want %q", action, contractx.ActionAcceptedPause)
	}
	if details != "pause coverage for 3 months" {
		t.Fatalf("Determine() details = %q, want the pause description", details)
	}
}

func TestDetermineDiscountByPercentMention(t *testing.T) {
	t.Parallel()

	conv := convWith(t, testOffers, "I want to cancel", "sure, the 50% one works for me")
	action, _ := Determine(conv)
	if action != contractx.ActionAcceptedDiscount {
		t.Fatalf("Determine() action = %q, want %q", action, contractx.ActionAcceptedDiscount)
	}
}

func TestDetermineAcceptWithoutMentionTakesFirstOffer(t *testing.T) {
	t.Parallel()

	conv := convWith(t, testOffers, "I want to cancel", "deal, let's do that")
	action, details := Determine(conv)
	if action != contractx.ActionAcceptedPause {
		t.Fatalf("Determine() action = %q, want first offer %q", action, contractx.ActionAcceptedPause)
	}
	if details != testOffers[0].Description {
		t.Fatalf("Determine() details = %q, want %q", details, testOffers[0].Description)
	}
}

func TestDetermineDecline(t *testing.T) {
	t.Parallel()

	conv := convWith(t, nil, "I want out", "just cancel it, I still want to leave")
	conv.Reason = contractx.ReasonFinancialHardship
	action, details := Determine(conv)
	if action != contractx.ActionCancelledInsurance {
		t.Fatalf("Determine() action = %q, want %q", action, contractx.ActionCancelledInsurance)
	}
	if details != "reason: financial_hardship" {
		t.Fatalf("Determine() details = %q, want the stored reason", details)
	}
}

func TestDetermineDeclineWithoutReason(t *testing.T) {
	t.Parallel()

	conv := convWith(t, nil, "please proceed with cancellation")
	action, details := Determine(conv)
	if action != contractx.ActionCancelledInsurance {
		t.Fatalf("Determine() action = %q, want %q", action, contractx.ActionCancelledInsurance)
	}
	if details != "reason: customer_request" {
		t.Fatalf("Determine() details = %q, want customer_request fallback", details)
	}
}

func TestDetermineDefaultKeepsCoverage(t *testing.T) {
	t.Parallel()

	conv := convWith(t, nil, "let me think about it")
	action, details := Determine(conv)
	if action != contractx.ActionKeptCoverage {
		t.Fatalf("Determine() action = %q, want %q", action, contractx.ActionKeptCoverage)
	}
	if details == "" {
		t.Fatal("Determine() details empty, want the kept-coverage note")
	}
}

func TestDetermineIsIdempotent(t *testing.T) {
	t.Parallel()

	conv := convWith(t, testOffers, "I want to cancel", "yes, pause it")
	conv.FinalAction = contractx.ActionAcceptedDiscount
	conv.FinalDetails = "already recorded"

	// later history must not change an already-recorded outcome
	conv.AppendHuman("actually no, cancel everything")

	action, details := Determine(conv)
	if action != contractx.ActionAcceptedDiscount || details != "already recorded" {
		t.Fatalf("Determine() = (%q, %q), want the stored values back", action, details)
	}
}

func TestDetermineWindowIgnoresOldMessages(t *testing.T) {
	t.Parallel()

	// the old decline drops out of the 5-message window
	conv := convWith(t, nil,
		"just cancel it",
		"hmm", "wait", "hold please", "thinking", "let me keep it after all",
	)
	action, _ := Determine(conv)
	if action != contractx.ActionKeptCoverage {
		t.Fatalf("Determine() action = %q, want %q once the decline ages out", action, contractx.ActionKeptCoverage)
	}
}
