package nodes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	contractx "github.com/techflow-labs/careflow/agent/contract"
	offersx "github.com/techflow-labs/careflow/agent/offers"
	statex "github.com/techflow-labs/careflow/agent/state"
)

type fakeGenerator struct {
	reply    string
	err      error
	requests []contractx.GenerateRequest
}

func (g *fakeGenerator) Generate(_ context.Context, req contractx.GenerateRequest) (contractx.Message, error) {
	g.requests = append(g.requests, req)
	if g.err != nil {
		return contractx.Message{}, g.err
	}
	return contractx.Message{Role: contractx.RoleAssistant, Content: g.reply}, nil
}

type fakeDirectory struct {
	profiles map[string]*contractx.CustomerProfile
	err      error
	lookups  []string
}

func (d *fakeDirectory) Lookup(_ context.Context, email string) (*contractx.CustomerProfile, error) {
	d.lookups = append(d.lookups, email)
	if d.err != nil {
		return nil, d.err
	}
	profile, ok := d.profiles[strings.ToLower(email)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", contractx.ErrCustomerNotFound, email)
	}
	clone := *profile
	return &clone, nil
}

type fakeRetriever struct {
	context string
	err     error
	queries []string
}

func (r *fakeRetriever) Retrieve(_ context.Context, query string) (string, error) {
	r.queries = append(r.queries, query)
	if r.err != nil {
		return "", r.err
	}
	return r.context, nil
}

type auditEntry struct {
	customerID string
	action     contractx.FinalAction
	details    string
}

type fakeAudit struct {
	err     error
	entries []auditEntry
}

func (a *fakeAudit) Append(_ context.Context, customerID string, action contractx.FinalAction, details string) error {
	if a.err != nil {
		return a.err
	}
	a.entries = append(a.entries, auditEntry{customerID: customerID, action: action, details: details})
	return nil
}

func premiumProfile() *contractx.CustomerProfile {
	return &contractx.CustomerProfile{
		CustomerID: "CUST001",
		Name:       "Jane",
		Email:      "jane@example.com",
		Tier:       "premium",
	}
}

func testDirectory() *fakeDirectory {
	return &fakeDirectory{profiles: map[string]*contractx.CustomerProfile{
		"jane@example.com": premiumProfile(),
	}}
}

func newConv(messages ...string) *statex.Conversation {
	conv := statex.NewConversation("s-1", messages[0], time.Now())
	for _, m := range messages[1:] {
		conv.AppendHuman(m)
	}
	return conv
}

func mustRules(t *testing.T) *offersx.Table {
	t.Helper()
	table, err := offersx.LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault() error = %v", err)
	}
	return table
}

func TestGreeterAuthenticatesAndRoutes(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{reply: "hello Jane"}
	conv := newConv("I want to cancel, my email is jane@example.com")

	delta, err := Greeter(context.Background(), conv, testDirectory(), gen, "system")
	if err != nil {
		t.Fatalf("Greeter() error = %v", err)
	}
	if delta.CustomerData == nil || delta.CustomerData.CustomerID != "CUST001" {
		t.Fatalf("Greeter() customer data = %+v, want CUST001", delta.CustomerData)
	}
	if delta.CustomerEmail != "jane@example.com" || delta.CustomerID != "CUST001" {
		t.Fatalf("Greeter() email=%q id=%q", delta.CustomerEmail, delta.CustomerID)
	}
	if delta.Intent != contractx.IntentCancellation {
		t.Fatalf("Greeter() intent = %q, want cancellation", delta.Intent)
	}
	if delta.Routing != statex.RouteRetention {
		t.Fatalf("Greeter() routing = %q, want %q", delta.Routing, statex.RouteRetention)
	}
	if len(delta.NewMessages) != 1 || delta.NewMessages[0].Content != "hello Jane" {
		t.Fatalf("Greeter() messages = %+v", delta.NewMessages)
	}
}

func TestGreeterRoutingMatrix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		authenticated bool
		intent        contractx.Intent
		want          statex.Route
	}{
		{"unauthenticated cancellation", false, contractx.IntentCancellation, statex.RouteEnd},
		{"unauthenticated no intent", false, "", statex.RouteEnd},
		{"authenticated cancellation", true, contractx.IntentCancellation, statex.RouteRetention},
		{"authenticated technical", true, contractx.IntentTechnical, statex.RouteTechSupport},
		{"authenticated billing", true, contractx.IntentBilling, statex.RouteBilling},
		{"authenticated no intent", true, "", statex.RouteEnd},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := greeterRoute(tc.authenticated, tc.intent); got != tc.want {
				t.Fatalf("greeterRoute(%v, %q) = %q, want %q", tc.authenticated, tc.intent, got, tc.want)
			}
		})
	}
}

func TestGreeterLookupMissIsNotFatal(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{reply: "I couldn't find that account"}
	conv := newConv("my email is ghost@example.com")

	delta, err := Greeter(context.Background(), conv, testDirectory(), gen, "system")
	if err != nil {
		t.Fatalf("Greeter() error = %v", err)
	}
	if delta.CustomerData != nil {
		t.Fatalf("Greeter() customer data = %+v, want nil on a miss", delta.CustomerData)
	}
	if delta.Routing != statex.RouteEnd {
		t.Fatalf("Greeter() routing = %q, want end while unauthenticated", delta.Routing)
	}
}

func TestGreeterLookupOutageDegrades(t *testing.T) {
	t.Parallel()

	dir := &fakeDirectory{err: errors.New("db down")}
	gen := &fakeGenerator{reply: "bear with me"}
	conv := newConv("my email is jane@example.com")

	delta, err := Greeter(context.Background(), conv, dir, gen, "system")
	if err != nil {
		t.Fatalf("Greeter() error = %v", err)
	}
	if delta.Metadata["auth_error"] == "" {
		t.Fatal("Greeter() did not record auth_error metadata")
	}
	if delta.Routing != statex.RouteEnd {
		t.Fatalf("Greeter() routing = %q, want end", delta.Routing)
	}
}

func TestGreeterGenerationFailureAbortsTurn(t *testing.T) {
	t.Parallel()

	genErr := fmt.Errorf("%w: upstream 500", contractx.ErrModelInvoke)
	gen := &fakeGenerator{err: genErr}
	conv := newConv("I want to cancel, my email is jane@example.com")

	_, err := Greeter(context.Background(), conv, testDirectory(), gen, "system")
	if !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("Greeter() error = %v, want ErrModelInvoke", err)
	}
}

func TestGreeterSkipsLookupWhenAuthenticated(t *testing.T) {
	t.Parallel()

	dir := testDirectory()
	gen := &fakeGenerator{reply: "welcome back"}
	conv := newConv("hello again jane@example.com")
	conv.CustomerData = premiumProfile()

	if _, err := Greeter(context.Background(), conv, dir, gen, "system"); err != nil {
		t.Fatalf("Greeter() error = %v", err)
	}
	if len(dir.lookups) != 0 {
		t.Fatalf("Greeter() ran %d lookups, want 0 once authenticated", len(dir.lookups))
	}
}

func TestRetentionResolvesReasonAndOffers(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{reply: "here is what we can do"}
	conv := newConv("I want to cancel, it's about my budget")
	conv.CustomerData = premiumProfile()
	conv.Intent = contractx.IntentCancellation

	delta, err := Retention(context.Background(), conv, nil, mustRules(t), gen, "system")
	if err != nil {
		t.Fatalf("Retention() error = %v", err)
	}
	if delta.Reason != contractx.ReasonFinancialHardship {
		t.Fatalf("Retention() reason = %q, want financial_hardship", delta.Reason)
	}
	if len(delta.Offers) != 2 {
		t.Fatalf("Retention() offers = %d, want 2 for a premium customer", len(delta.Offers))
	}
	if delta.Routing != statex.RouteEnd {
		t.Fatalf("Retention() routing = %q, want end while awaiting a decision", delta.Routing)
	}

	// system note carrying the offers precedes the reply
	last := delta.NewMessages[len(delta.NewMessages)-1]
	if last.Role != contractx.RoleAssistant {
		t.Fatalf("Retention() last message role = %q, want assistant", last.Role)
	}
	foundOffers := false
	for _, m := range delta.NewMessages {
		if m.Role == contractx.RoleSystemNote && strings.HasPrefix(m.Content, "Available Offers:") {
			foundOffers = true
		}
	}
	if !foundOffers {
		t.Fatal("Retention() did not record the offers system note")
	}
}

func TestRetentionQueriesPolicyContext(t *testing.T) {
	t.Parallel()

	retriever := &fakeRetriever{context: "Care+ covers accidental damage."}
	gen := &fakeGenerator{reply: "good question"}
	conv := newConv("what does my coverage include? I might cancel")
	conv.CustomerData = premiumProfile()
	conv.Intent = contractx.IntentCancellation

	delta, err := Retention(context.Background(), conv, retriever, mustRules(t), gen, "system")
	if err != nil {
		t.Fatalf("Retention() error = %v", err)
	}
	if len(retriever.queries) != 1 {
		t.Fatalf("Retention() retriever calls = %d, want 1", len(retriever.queries))
	}
	if !delta.HasRAGContext || delta.RAGContext != "Care+ covers accidental damage." {
		t.Fatalf("Retention() rag context = %q", delta.RAGContext)
	}

	// the generator sees the policy note appended to the transcript
	req := gen.requests[0]
	foundPolicy := false
	for _, m := range req.Messages {
		if m.Role == contractx.RoleSystemNote && strings.HasPrefix(m.Content, "Relevant Policy Information:") {
			foundPolicy = true
		}
	}
	if !foundPolicy {
		t.Fatal("Retention() did not pass the policy note to the generator")
	}
}

func TestRetentionSkipsRetrieverWithoutTrigger(t *testing.T) {
	t.Parallel()

	retriever := &fakeRetriever{context: "unused"}
	gen := &fakeGenerator{reply: "tell me more"}
	conv := newConv("please cancel my plan")
	conv.CustomerData = premiumProfile()

	if _, err := Retention(context.Background(), conv, retriever, mustRules(t), gen, "system"); err != nil {
		t.Fatalf("Retention() error = %v", err)
	}
	if len(retriever.queries) != 0 {
		t.Fatalf("Retention() retriever calls = %d, want 0", len(retriever.queries))
	}
}

func TestRetentionRetrievalFailureAbortsTurn(t *testing.T) {
	t.Parallel()

	retriever := &fakeRetriever{err: errors.New("vector store down")}
	gen := &fakeGenerator{reply: "unused"}
	conv := newConv("what does my coverage include?")
	conv.CustomerData = premiumProfile()

	if _, err := Retention(context.Background(), conv, retriever, mustRules(t), gen, "system"); err == nil {
		t.Fatal("Retention() error = nil, want retrieval failure to abort the turn")
	}
	if len(gen.requests) != 0 {
		t.Fatal("Retention() generated a reply after a retrieval failure")
	}
}

func TestRetentionOfferFailureDegrades(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{reply: "let me see what I can do"}
	conv := newConv("I want to cancel, about my budget")
	conv.CustomerData = premiumProfile()

	var empty *offersx.Table
	delta, err := Retention(context.Background(), conv, nil, empty, gen, "system")
	if err != nil {
		t.Fatalf("Retention() error = %v, want offer failure to degrade", err)
	}
	if delta.Metadata["offer_error"] == "" {
		t.Fatal("Retention() did not record offer_error metadata")
	}
	if len(delta.Offers) != 0 {
		t.Fatalf("Retention() offers = %v, want none", delta.Offers)
	}
}

func TestRetentionRoutesToProcessorOnDecision(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		last string
		want statex.Route
	}{
		{"accept", "yes, that works", statex.RouteProcessor},
		{"decline", "no thanks, just cancel", statex.RouteProcessor},
		{"undecided", "what else can you tell me", statex.RouteEnd},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := retentionRoute(tc.last); got != tc.want {
				t.Fatalf("retentionRoute(%q) = %q, want %q", tc.last, got, tc.want)
			}
		})
	}
}

func TestProcessorRecordsOutcome(t *testing.T) {
	t.Parallel()

	audit := &fakeAudit{}
	gen := &fakeGenerator{reply: "all set, your pause starts today"}
	conv := newConv("I want to cancel", "yes, I'll take the pause option")
	conv.CustomerID = "CUST001"
	conv.RetentionOffers = []contractx.Offer{
		{Type: contractx.OfferTypePause, Description: "pause coverage for 3 months"},
		{Type: contractx.OfferTypeDiscount, Description: "50% off"},
	}

	delta, err := Processor(context.Background(), conv, audit, gen, "system")
	if err != nil {
		t.Fatalf("Processor() error = %v", err)
	}
	if delta.FinalAction != contractx.ActionAcceptedPause {
		t.Fatalf("Processor() action = %q, want accepted_pause", delta.FinalAction)
	}
	if delta.Routing != statex.RouteEnd {
		t.Fatalf("Processor() routing = %q, want end", delta.Routing)
	}
	if len(audit.entries) != 1 {
		t.Fatalf("Processor() audit entries = %d, want 1", len(audit.entries))
	}
	entry := audit.entries[0]
	if entry.customerID != "CUST001" || entry.action != contractx.ActionAcceptedPause {
		t.Fatalf("Processor() audit entry = %+v", entry)
	}
	if !strings.HasPrefix(delta.NewMessages[0].Content, "Action logged:") {
		t.Fatalf("Processor() first message = %q, want the logged note", delta.NewMessages[0].Content)
	}
}

func TestProcessorAuditFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	audit := &fakeAudit{err: errors.New("insert failed")}
	gen := &fakeGenerator{reply: "done"}
	conv := newConv("just cancel it")
	conv.CustomerID = "CUST001"

	delta, err := Processor(context.Background(), conv, audit, gen, "system")
	if err != nil {
		t.Fatalf("Processor() error = %v, want audit failure swallowed", err)
	}
	if delta.FinalAction != contractx.ActionCancelledInsurance {
		t.Fatalf("Processor() action = %q, want cancelled_insurance", delta.FinalAction)
	}
	if !strings.Contains(delta.NewMessages[0].Content, "logging encountered an error") {
		t.Fatalf("Processor() note = %q", delta.NewMessages[0].Content)
	}
}

func TestProcessorWithoutCustomerID(t *testing.T) {
	t.Parallel()

	audit := &fakeAudit{}
	gen := &fakeGenerator{reply: "noted"}
	conv := newConv("let me keep it then")

	delta, err := Processor(context.Background(), conv, audit, gen, "system")
	if err != nil {
		t.Fatalf("Processor() error = %v", err)
	}
	if len(audit.entries) != 0 {
		t.Fatalf("Processor() audit entries = %d, want 0 without a customer id", len(audit.entries))
	}
	if delta.NewMessages[0].Content != "Processing without customer_id" {
		t.Fatalf("Processor() note = %q", delta.NewMessages[0].Content)
	}
}

func TestProcessorAlreadyFinalized(t *testing.T) {
	t.Parallel()

	audit := &fakeAudit{}
	gen := &fakeGenerator{reply: "as confirmed earlier"}
	conv := newConv("thanks")
	conv.CustomerID = "CUST001"
	conv.FinalAction = contractx.ActionAcceptedDiscount
	conv.FinalDetails = "50% off"

	delta, err := Processor(context.Background(), conv, audit, gen, "system")
	if err != nil {
		t.Fatalf("Processor() error = %v", err)
	}
	if delta.FinalAction != "" {
		t.Fatalf("Processor() re-set final action to %q", delta.FinalAction)
	}
	if len(audit.entries) != 0 {
		t.Fatalf("Processor() audit entries = %d, want 0 on a finalized conversation", len(audit.entries))
	}
	if !strings.HasPrefix(delta.NewMessages[0].Content, "Action already logged:") {
		t.Fatalf("Processor() note = %q", delta.NewMessages[0].Content)
	}
}

func TestHandoffs(t *testing.T) {
	t.Parallel()

	conv := newConv("my screen is broken")

	tech := TechSupport(conv)
	if tech.CurrentAgent != contractx.AgentTypeTechSupport || tech.Routing != statex.RouteEnd {
		t.Fatalf("TechSupport() delta = %+v", tech)
	}
	if len(tech.NewMessages) != 1 || !strings.Contains(tech.NewMessages[0].Content, "technical support team") {
		t.Fatalf("TechSupport() message = %+v", tech.NewMessages)
	}

	billing := Billing(conv)
	if billing.CurrentAgent != contractx.AgentTypeBilling || billing.Routing != statex.RouteEnd {
		t.Fatalf("Billing() delta = %+v", billing)
	}
	if len(billing.NewMessages) != 1 || !strings.Contains(billing.NewMessages[0].Content, "billing department") {
		t.Fatalf("Billing() message = %+v", billing.NewMessages)
	}
}
