package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	routerx "github.com/techflow-labs/careflow/agent/agents/router"
	contractx "github.com/techflow-labs/careflow/agent/contract"
	offersx "github.com/techflow-labs/careflow/agent/offers"
	statex "github.com/techflow-labs/careflow/agent/state"
)

type stubGenerator struct{ reply string }

func (g stubGenerator) Generate(_ context.Context, _ contractx.GenerateRequest) (contractx.Message, error) {
	return contractx.Message{Role: contractx.RoleAssistant, Content: g.reply}, nil
}

type stubRegistry struct{}

func (stubRegistry) Greeter() contractx.Generator   { return stubGenerator{reply: "greeter reply"} }
func (stubRegistry) Retention() contractx.Generator { return stubGenerator{reply: "retention reply"} }
func (stubRegistry) Processor() contractx.Generator { return stubGenerator{reply: "processor reply"} }

type stubDirectory struct{}

func (stubDirectory) Lookup(_ context.Context, email string) (*contractx.CustomerProfile, error) {
	if strings.EqualFold(email, "jane@example.com") {
		return &contractx.CustomerProfile{CustomerID: "CUST001", Email: email, Tier: "premium"}, nil
	}
	return nil, fmt.Errorf("%w: %s", contractx.ErrCustomerNotFound, email)
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	rules, err := offersx.LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault() error = %v", err)
	}
	router, err := routerx.New(statex.NewMemoryStore(), stubRegistry{}, stubDirectory{}, nil, nil, rules)
	if err != nil {
		t.Fatalf("router.New() error = %v", err)
	}

	server := httptest.NewServer(NewServer(router).Handler())
	t.Cleanup(server.Close)
	return server
}

func postChat(t *testing.T, server *httptest.Server, body string) (*http.Response, chatResponse) {
	t.Helper()

	resp, err := http.Post(server.URL+"/chat", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /chat error = %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var parsed chatResponse
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			t.Fatalf("decode chat response: %v", err)
		}
	}
	return resp, parsed
}

func TestChatCreatesSession(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	resp, parsed := postChat(t, server, `{"message":"hello there"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if parsed.SessionID == "" {
		t.Fatal("response missing generated session_id")
	}
	if parsed.Agent != string(contractx.AgentTypeGreeter) {
		t.Fatalf("agent = %q, want greeter", parsed.Agent)
	}
	if parsed.Message != "greeter reply" {
		t.Fatalf("message = %q", parsed.Message)
	}
}

func TestChatContinuesSession(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	_, first := postChat(t, server, `{"message":"I want to cancel, my email is jane@example.com"}`)
	if first.Agent != string(contractx.AgentTypeRetention) {
		t.Fatalf("first turn agent = %q, want retention", first.Agent)
	}

	body := fmt.Sprintf(`{"message":"yes, I'll take the pause option","session_id":%q}`, first.SessionID)
	resp, second := postChat(t, server, body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if second.SessionID != first.SessionID {
		t.Fatalf("session id changed: %q -> %q", first.SessionID, second.SessionID)
	}
	if second.Agent != string(contractx.AgentTypeProcessor) {
		t.Fatalf("second turn agent = %q, want processor", second.Agent)
	}
	if second.FinalAction != string(contractx.ActionAcceptedPause) {
		t.Fatalf("final action = %q, want accepted_pause", second.FinalAction)
	}
}

func TestChatRejectsBadInput(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)

	resp, _ := postChat(t, server, `not json`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for malformed json", resp.StatusCode)
	}

	resp, _ = postChat(t, server, `{"message":"   "}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for an empty message", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	resp, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestMetricsExposed(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	if _, parsed := postChat(t, server, `{"message":"hello"}`); parsed.SessionID == "" {
		t.Fatal("chat turn failed")
	}

	resp, err := http.Get(server.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read metrics body: %v", err)
	}
	if !strings.Contains(string(body), "careflow_turns_total") {
		t.Fatalf("metrics output missing careflow_turns_total:\n%s", body)
	}
}
