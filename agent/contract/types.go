package contract

type AgentType string

const (
	AgentTypeGreeter     AgentType = "greeter"
	AgentTypeRetention   AgentType = "retention"
	AgentTypeProcessor   AgentType = "processor"
	AgentTypeTechSupport AgentType = "tech_support"
	AgentTypeBilling     AgentType = "billing"
)

// Intent is the closed vocabulary produced by the intent classifier.
// IntentGeneral is the fallback and is never persisted on state; an
// unset intent means "general / not yet classified".
type Intent string

const (
	IntentCancellation Intent = "cancellation"
	IntentTechnical    Intent = "technical"
	IntentBilling      Intent = "billing"
	IntentGeneral      Intent = "general"
)

// Reason is the fine-grained cancellation reason, set once per
// conversation by the retention agent.
type Reason string

const (
	ReasonFinancialHardship Reason = "financial_hardship"
	ReasonNotUsing          Reason = "not_using"
	ReasonProductDefect     Reason = "product_defect"
	ReasonTooExpensive      Reason = "too_expensive"
	ReasonSwitchingCarrier  Reason = "switching_carrier"
	ReasonOther             Reason = "other"
)

// FinalAction is the terminal disposition recorded by the processor.
type FinalAction string

const (
	ActionCancelledInsurance FinalAction = "cancelled_insurance"
	ActionAcceptedDiscount   FinalAction = "accepted_discount"
	ActionAcceptedPause      FinalAction = "accepted_pause"
	ActionAcceptedUpgrade    FinalAction = "accepted_upgrade"
	ActionKeptCoverage       FinalAction = "kept_coverage"
)

// OfferType identifies a retention offer family. The outcome determiner
// checks for explicit mentions in OfferTypeDiscount, OfferTypePause,
// OfferTypeUpgrade order.
type OfferType string

const (
	OfferTypeDiscount OfferType = "discount"
	OfferTypePause    OfferType = "pause"
	OfferTypeUpgrade  OfferType = "upgrade"
)

// Offer is one retention offer resolved from the rule table.
type Offer struct {
	Type        OfferType `json:"type" yaml:"type"`
	Description string    `json:"description" yaml:"description"`
	AuthLevel   string    `json:"authorization_level,omitempty" yaml:"authorization_level,omitempty"`
}

// OfferStrategy summarizes a resolved offer list: the type of the
// first offer is primary, the second (if present) secondary. Zero or
// one offers is valid; missing slots stay empty.
type OfferStrategy struct {
	Primary   OfferType `json:"primary,omitempty"`
	Secondary OfferType `json:"secondary,omitempty"`
}

// CustomerProfile is the opaque profile record returned by the
// customer directory. Its presence on conversation state is the
// authentication predicate; there is no separate boolean.
type CustomerProfile struct {
	CustomerID    string  `json:"customer_id" bun:"customer_id,pk"`
	Name          string  `json:"name" bun:"name"`
	Email         string  `json:"email" bun:"email"`
	Phone         string  `json:"phone,omitempty" bun:"phone"`
	PlanType      string  `json:"plan_type,omitempty" bun:"plan_type"`
	MonthlyCharge float64 `json:"monthly_charge,omitempty" bun:"monthly_charge"`
	Tier          string  `json:"tier" bun:"tier"`
	TenureMonths  int     `json:"tenure_months,omitempty" bun:"tenure_months"`
	Device        string  `json:"device,omitempty" bun:"device"`
	Status        string  `json:"status,omitempty" bun:"status"`
}

// Role tags a turn record in the conversation history.
type Role string

const (
	RoleHuman      Role = "human"
	RoleAssistant  Role = "assistant"
	RoleSystemNote Role = "system_note"
)

// Message is one turn record. History is append-only; records are
// never reordered or deleted.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ToolInfo describes a structured tool the generator may invoke
// mid-generation. The tool-calling protocol itself belongs to the
// generator implementation.
type ToolInfo struct {
	Name string `json:"name"`
	Desc string `json:"desc"`
}

// GenerateRequest carries everything a generator needs for one reply.
type GenerateRequest struct {
	System   string     `json:"system"`
	Messages []Message  `json:"messages"`
	Tools    []ToolInfo `json:"tools,omitempty"`
}
