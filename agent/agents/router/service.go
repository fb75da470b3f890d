// Package router composes the agent nodes into the turn state machine
// and drives one graph traversal per human message.
package router

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/techflow-labs/careflow/agent/contract"
	offersx "github.com/techflow-labs/careflow/agent/offers"
	promptx "github.com/techflow-labs/careflow/agent/prompt"
	statex "github.com/techflow-labs/careflow/agent/state"
)

var (
	ErrInvalidMessage = errors.New("message is empty")
	ErrInvalidSession = errors.New("session id is empty")
)

// Router owns the compiled turn graph and the per-turn
// read-modify-write against the session store. Turns for the same
// session are serialized by arrival; independent sessions share
// nothing and run concurrently.
type Router struct {
	store     statex.Store
	models    contractx.Registry
	directory contractx.CustomerDirectory
	retriever contractx.PolicyRetriever
	audit     contractx.AuditLog
	rules     *offersx.Table
	prompts   promptx.PromptSet

	graphRunner compose.Runnable[*statex.Conversation, *statex.Conversation]

	sessionLocks sync.Map // session id -> *sync.Mutex

	now func() time.Time
}

func New(
	store statex.Store,
	models contractx.Registry,
	directory contractx.CustomerDirectory,
	retriever contractx.PolicyRetriever,
	audit contractx.AuditLog,
	rules *offersx.Table,
) (*Router, error) {
	if store == nil {
		return nil, errors.New("state store is required")
	}
	if models == nil {
		return nil, errors.New("model registry is required")
	}
	if directory == nil {
		return nil, errors.New("customer directory is required")
	}
	if audit == nil {
		audit = noopAuditLog{}
	}
	// retriever may be nil: retention then skips policy context

	r := &Router{
		store:     store,
		models:    models,
		directory: directory,
		retriever: retriever,
		audit:     audit,
		rules:     rules,
		prompts:   promptx.LoadPromptSet(),
		now:       time.Now,
	}

	graphRunner, err := r.compileTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	r.graphRunner = graphRunner

	return r, nil
}

// Invoke runs the graph once on a state pre-populated with the newest
// human message and returns the fully updated state. On error the
// input state is untouched and the identical turn can be retried.
func (r *Router) Invoke(ctx context.Context, conv *statex.Conversation) (*statex.Conversation, error) {
	if conv == nil {
		return nil, statex.ErrNilConversation
	}
	if err := conv.Validate(); err != nil {
		return nil, err
	}

	out, err := r.graphRunner.Invoke(ctx, conv.Clone())
	if err != nil {
		return nil, err
	}
	out.UpdatedAt = r.now().UTC()
	return out, nil
}

// HandleMessage is the turn entry point used by the HTTP handler and
// the CLI: load or create the session, append the message, traverse
// the graph, persist, and return the updated conversation.
func (r *Router) HandleMessage(ctx context.Context, sessionID, text string) (*statex.Conversation, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	unlock := r.lockSession(sessionID)
	defer unlock()

	conv, err := r.store.Load(ctx, sessionID)
	switch {
	case err == nil:
		conv.AppendHuman(text)
	case errors.Is(err, statex.ErrStateNotFound):
		conv = statex.NewConversation(sessionID, text, r.now())
	default:
		return nil, err
	}

	next, err := r.Invoke(ctx, conv)
	if err != nil {
		return nil, err
	}

	if err := r.store.Save(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// lockSession serializes turns per session id. Last-write-wins is not
// an acceptable resolution for concurrent turns on one conversation.
func (r *Router) lockSession(sessionID string) func() {
	muIface, _ := r.sessionLocks.LoadOrStore(sessionID, &sync.Mutex{})
	mu := muIface.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Reply returns the latest assistant message of a conversation, the
// text a caller shows to the human.
func Reply(conv *statex.Conversation) string {
	if conv == nil {
		return ""
	}
	for i := len(conv.Messages) - 1; i >= 0; i-- {
		if conv.Messages[i].Role == contractx.RoleAssistant {
			return conv.Messages[i].Content
		}
	}
	return ""
}

type noopAuditLog struct{}

func (noopAuditLog) Append(context.Context, string, contractx.FinalAction, string) error {
	return nil
}
