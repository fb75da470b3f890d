package state

import (
	"fmt"

	contractx "github.com/techflow-labs/careflow/agent/contract"
)

// Delta is the partial update an agent node emits. Nodes never touch
// the running conversation; the router merges deltas via Apply so the
// one-shot and monotonic invariants are enforced in exactly one place.
type Delta struct {
	// NewMessages are appended to the history in order.
	NewMessages []contractx.Message

	CustomerEmail string
	CustomerID    string
	CustomerData  *contractx.CustomerProfile

	Intent contractx.Intent
	Reason contractx.Reason

	Offers []contractx.Offer

	FinalAction  contractx.FinalAction
	FinalDetails string

	// RAGContext overwrites freely; it is transient per retention turn.
	RAGContext    string
	HasRAGContext bool

	CurrentAgent contractx.AgentType
	Routing      Route

	Error    string
	Metadata map[string]string
}

// Apply merges a delta into the conversation. Zero-valued delta fields
// leave state alone. A delta that would overwrite an already-set
// one-shot field with a different value is rejected: those fields
// represent decisions already taken.
func (c *Conversation) Apply(d Delta) error {
	if c == nil {
		return ErrNilConversation
	}

	if d.CustomerData != nil {
		if c.CustomerData != nil && c.CustomerData.CustomerID != d.CustomerData.CustomerID {
			return fmt.Errorf("%w: customer_data", ErrFieldOverwrite)
		}
		c.CustomerData = d.CustomerData
	}
	if d.CustomerEmail != "" && c.CustomerEmail == "" {
		c.CustomerEmail = d.CustomerEmail
	}
	if d.CustomerID != "" && c.CustomerID == "" {
		c.CustomerID = d.CustomerID
	}

	if d.Intent != "" {
		if c.Intent != "" && c.Intent != d.Intent {
			return fmt.Errorf("%w: intent=%s", ErrFieldOverwrite, c.Intent)
		}
		c.Intent = d.Intent
	}
	if d.Reason != "" {
		if c.Reason != "" && c.Reason != d.Reason {
			return fmt.Errorf("%w: reason=%s", ErrFieldOverwrite, c.Reason)
		}
		c.Reason = d.Reason
	}
	if len(d.Offers) > 0 {
		if len(c.RetentionOffers) > 0 {
			return fmt.Errorf("%w: retention_offers", ErrFieldOverwrite)
		}
		c.RetentionOffers = append([]contractx.Offer(nil), d.Offers...)
	}
	if d.FinalAction != "" {
		if c.FinalAction != "" && c.FinalAction != d.FinalAction {
			return fmt.Errorf("%w: final_action=%s", ErrFieldOverwrite, c.FinalAction)
		}
		c.FinalAction = d.FinalAction
		c.FinalDetails = d.FinalDetails
	}

	if d.HasRAGContext {
		c.RAGContext = d.RAGContext
	}

	c.Messages = append(c.Messages, d.NewMessages...)

	if d.CurrentAgent != "" {
		c.CurrentAgent = d.CurrentAgent
	}
	if d.Routing != "" {
		c.Routing = d.Routing
	}
	if d.Error != "" {
		c.Error = d.Error
	}
	for k, v := range d.Metadata {
		if c.Metadata == nil {
			c.Metadata = map[string]string{}
		}
		c.Metadata[k] = v
	}

	return c.Validate()
}
