package classify

import (
	"testing"
	"time"

	contractx "github.com/techflow-labs/careflow/agent/contract"
	statex "github.com/techflow-labs/careflow/agent/state"
)

func TestIntent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want contractx.Intent
	}{
		{"cancel verb", "I want to cancel my insurance", contractx.IntentCancellation},
		{"affordability", "I just can't afford this anymore", contractx.IntentCancellation},
		{"billing question", "Why was I charged twice this month?", contractx.IntentBilling},
		{"price question", "How much is the monthly price?", contractx.IntentBilling},
		{"broken device", "My screen is broken and won't turn on", contractx.IntentTechnical},
		{"greeting", "Hello there", contractx.IntentGeneral},
		{"empty", "", contractx.IntentGeneral},
		{"case insensitive", "PLEASE CANCEL EVERYTHING", contractx.IntentCancellation},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Intent(tc.text); got != tc.want {
				t.Fatalf("Intent(%q) = %q, want %q", tc.text, got, tc.want)
			}
		})
	}
}

func TestIntentCancellationWinsOverTechnical(t *testing.T) {
	t.Parallel()

	// both keyword sets match; cancellation has priority
	got := Intent("my phone is overheating so I want to cancel everything")
	if got != contractx.IntentCancellation {
		t.Fatalf("Intent() = %q, want %q", got, contractx.IntentCancellation)
	}
}

func TestIntentBillingWinsOverTechnical(t *testing.T) {
	t.Parallel()

	got := Intent("there's an extra charge and my battery is draining")
	if got != contractx.IntentBilling {
		t.Fatalf("Intent() = %q, want %q", got, contractx.IntentBilling)
	}
}

func TestEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		text   string
		want   string
		wantOK bool
	}{
		{"plain address", "my email is jane.doe@example.com thanks", "jane.doe@example.com", true},
		{"first of two", "a@x.io or b@y.io", "a@x.io", true},
		{"mixed case preserved", "Reach me at Jane@Example.COM", "Jane@Example.COM", true},
		{"no address", "I don't have one", "", false},
		{"missing tld", "broken@nowhere", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := Email(tc.text)
			if ok != tc.wantOK || got != tc.want {
				t.Fatalf("Email(%q) = (%q, %v), want (%q, %v)", tc.text, got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func conversationWith(messages ...string) *statex.Conversation {
	conv := statex.NewConversation("s-1", messages[0], time.Now())
	for _, m := range messages[1:] {
		conv.AppendHuman(m)
	}
	return conv
}

func TestCancellationReason(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		messages []string
		want     contractx.Reason
	}{
		{"financial", []string{"I need to save money these days"}, contractx.ReasonFinancialHardship},
		{"not using", []string{"honestly I never use the coverage"}, contractx.ReasonNotUsing},
		{"defect", []string{"the phone keeps overheating"}, contractx.ReasonProductDefect},
		{"expensive only", []string{"the plan feels expensive"}, contractx.ReasonTooExpensive},
		{"switching", []string{"I'm switching to a new carrier"}, contractx.ReasonSwitchingCarrier},
		{"fallback", []string{"I just don't want it"}, contractx.ReasonOther},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			conv := conversationWith(tc.messages...)
			if got := CancellationReason(conv); got != tc.want {
				t.Fatalf("CancellationReason() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCancellationReasonUsesWholeTranscript(t *testing.T) {
	t.Parallel()

	// the financial mention in the first message outranks the defect
	// complaint that only appears later
	conv := conversationWith(
		"I want to cancel, it's about my budget",
		"also the screen issue never got fixed",
	)
	if got := CancellationReason(conv); got != contractx.ReasonFinancialHardship {
		t.Fatalf("CancellationReason() = %q, want %q", got, contractx.ReasonFinancialHardship)
	}
}

func TestShouldQueryPolicyContext(t *testing.T) {
	t.Parallel()

	if !ShouldQueryPolicyContext(conversationWith("what does my coverage include?")) {
		t.Fatal("ShouldQueryPolicyContext() = false, want true for a coverage question")
	}
	if ShouldQueryPolicyContext(conversationWith("please cancel my plan")) {
		t.Fatal("ShouldQueryPolicyContext() = true, want false without a policy question")
	}
}

func TestShouldQueryPolicyContextWindow(t *testing.T) {
	t.Parallel()

	// the coverage question is 4 messages back; only the last 3 count
	conv := conversationWith(
		"what does my coverage include?",
		"ok",
		"I see",
		"please cancel",
	)
	if ShouldQueryPolicyContext(conv) {
		t.Fatal("ShouldQueryPolicyContext() = true, want false once the trigger leaves the window")
	}
}
