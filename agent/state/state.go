package state

import (
	"errors"
	"fmt"
	"strings"
	"time"

	contractx "github.com/techflow-labs/careflow/agent/contract"
)

// Route is the signal consumed by the graph router to pick the next
// node. A node that ends the turn emits RouteEnd explicitly; the empty
// value only ever appears before the first node of a conversation runs.
type Route string

const (
	RouteRetention   Route = "retention"
	RouteTechSupport Route = "tech_support"
	RouteBilling     Route = "billing"
	RouteProcessor   Route = "processor"
	RouteEnd         Route = "end"
)

var (
	ErrInvalidSession  = errors.New("session id is empty")
	ErrNilConversation = errors.New("conversation state is nil")
	ErrFieldOverwrite  = errors.New("one-shot field already set")
	ErrHistoryShrunk   = errors.New("message history may not shrink")
)

// Conversation is the single record threading through every turn. One
// agent node runs at a time; nodes never mutate it directly but return
// a Delta that the router merges via Apply.
type Conversation struct {
	SessionID string             `json:"session_id"`
	Messages  []contractx.Message `json:"messages"`

	CustomerEmail string                     `json:"customer_email,omitempty"`
	CustomerID    string                     `json:"customer_id,omitempty"`
	CustomerData  *contractx.CustomerProfile `json:"customer_data,omitempty"`

	Intent contractx.Intent `json:"intent,omitempty"`
	Reason contractx.Reason `json:"reason,omitempty"`

	RetentionOffers []contractx.Offer `json:"retention_offers,omitempty"`

	FinalAction  contractx.FinalAction `json:"final_action,omitempty"`
	FinalDetails string                `json:"final_details,omitempty"`

	// RAGContext is transient: overwritten on each retention turn and
	// not part of the conversation's long-term identity.
	RAGContext string `json:"rag_context,omitempty"`

	CurrentAgent contractx.AgentType `json:"current_agent"`
	Routing      Route               `json:"routing_decision,omitempty"`

	Error    string            `json:"error,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewConversation seeds state from the customer's opening message.
func NewConversation(sessionID, userMessage string, now time.Time) *Conversation {
	return &Conversation{
		SessionID: sessionID,
		Messages: []contractx.Message{
			{Role: contractx.RoleHuman, Content: userMessage},
		},
		CurrentAgent: contractx.AgentTypeGreeter,
		Metadata:     map[string]string{},
		UpdatedAt:    now.UTC(),
	}
}

// AppendHuman appends the newest human message before a turn runs.
func (c *Conversation) AppendHuman(text string) {
	c.Messages = append(c.Messages, contractx.Message{
		Role:    contractx.RoleHuman,
		Content: text,
	})
}

// IsAuthenticated reports whether the customer profile has been
// loaded. Profile presence is the authentication predicate.
func (c *Conversation) IsAuthenticated() bool {
	return c != nil && c.CustomerData != nil
}

// HasIntent reports whether intent classification already happened.
func (c *Conversation) HasIntent() bool {
	return c != nil && c.Intent != ""
}

// Finalized reports whether the conversation passed through the
// processor.
func (c *Conversation) Finalized() bool {
	return c != nil && c.FinalAction != ""
}

// LastHumanMessage returns the content of the most recent human
// message, or "" when there is none.
func (c *Conversation) LastHumanMessage() string {
	if c == nil {
		return ""
	}
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == contractx.RoleHuman {
			return c.Messages[i].Content
		}
	}
	return ""
}

// LastHumanMessages returns up to n most recent human messages in
// conversation order.
func (c *Conversation) LastHumanMessages(n int) []string {
	if c == nil || n <= 0 {
		return nil
	}
	out := make([]string, 0, n)
	for i := len(c.Messages) - 1; i >= 0 && len(out) < n; i-- {
		if c.Messages[i].Role == contractx.RoleHuman {
			out = append(out, c.Messages[i].Content)
		}
	}
	// reverse into conversation order
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// AllHumanText concatenates every human message, lower-cased. The
// cancellation-reason classifier works over this full transcript.
func (c *Conversation) AllHumanText() string {
	if c == nil {
		return ""
	}
	var parts []string
	for _, m := range c.Messages {
		if m.Role == contractx.RoleHuman {
			parts = append(parts, m.Content)
		}
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// Clone returns a deep copy. Turn execution always works on a clone so
// a failed node leaves the caller's state untouched.
func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Messages = append([]contractx.Message(nil), c.Messages...)
	cp.RetentionOffers = append([]contractx.Offer(nil), c.RetentionOffers...)
	if c.CustomerData != nil {
		data := *c.CustomerData
		cp.CustomerData = &data
	}
	if c.Metadata != nil {
		cp.Metadata = make(map[string]string, len(c.Metadata))
		for k, v := range c.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}

// Validate checks the cross-field invariants that must hold after
// every merge.
func (c *Conversation) Validate() error {
	if c == nil {
		return ErrNilConversation
	}
	if strings.TrimSpace(c.SessionID) == "" {
		return ErrInvalidSession
	}
	if c.FinalAction != "" {
		switch c.FinalAction {
		case contractx.ActionCancelledInsurance,
			contractx.ActionAcceptedDiscount,
			contractx.ActionAcceptedPause,
			contractx.ActionAcceptedUpgrade,
			contractx.ActionKeptCoverage:
		default:
			return fmt.Errorf("%w: unknown final_action=%q", contractx.ErrValidation, c.FinalAction)
		}
	}
	if c.Intent == contractx.IntentGeneral {
		return fmt.Errorf("%w: intent=general must stay unset", contractx.ErrValidation)
	}
	return nil
}
