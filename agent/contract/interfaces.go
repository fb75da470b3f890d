package contract

import "context"

// Generator produces one assistant reply given a system prompt and the
// conversation history. Implementations may suspend on a network
// round-trip; a failed generation aborts the whole turn.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (Message, error)
}

// Registry hands out the per-agent generators.
type Registry interface {
	Greeter() Generator
	Retention() Generator
	Processor() Generator
}

// CustomerDirectory looks up a customer profile by email address.
// Lookups are case-insensitive on the email; a miss is reported as
// ErrCustomerNotFound, never as a turn-level failure.
type CustomerDirectory interface {
	Lookup(ctx context.Context, email string) (*CustomerProfile, error)
}

// PolicyRetriever returns formatted policy context for a query.
type PolicyRetriever interface {
	Retrieve(ctx context.Context, query string) (string, error)
}

// AuditLog records the final disposition of a conversation. Append
// failures are logged by the processor but never abort the turn.
type AuditLog interface {
	Append(ctx context.Context, customerID string, action FinalAction, details string) error
}
