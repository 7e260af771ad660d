package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/subhakanta156/nobr-project/internal/answer"
	"github.com/subhakanta156/nobr-project/internal/domain"
	"github.com/subhakanta156/nobr-project/internal/repository"
	"github.com/subhakanta156/nobr-project/internal/view"
)

const testBackendURL = "http://chatbot.local:8000"

type fakeChatView struct {
	mu          sync.Mutex
	inputEvents []bool
	typingShows int
	typingHides int
	rendered    []view.SessionView
	welcomes    int
}

func (v *fakeChatView) SetInputEnabled(enabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.inputEvents = append(v.inputEvents, enabled)
}

func (v *fakeChatView) ShowTyping() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.typingShows++
}

func (v *fakeChatView) HideTyping() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.typingHides++
}

func (v *fakeChatView) RenderSession(sv view.SessionView) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rendered = append(v.rendered, sv)
}

func (v *fakeChatView) ShowWelcome() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.welcomes++
}

func (v *fakeChatView) lastInputEnabled(t *testing.T) bool {
	t.Helper()
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.inputEvents) == 0 {
		t.Fatalf("expected input events")
	}
	return v.inputEvents[len(v.inputEvents)-1]
}

type funcClient struct {
	fn func(ctx context.Context, query string) (answer.Reply, error)
}

func (f *funcClient) Ask(ctx context.Context, query string) (answer.Reply, error) {
	return f.fn(ctx, query)
}

func newTestChatService(client answer.Client, v View) (*ChatService, *SessionManager) {
	manager := NewSessionManager(zap.NewNop(), repository.NewMemorySessionRepository(), nil)
	manager.MarkReady()
	svc := NewChatService(zap.NewNop(), manager, client, v, testBackendURL, 0)
	return svc, manager
}

func TestSend_AppendOrdering(t *testing.T) {
	client := &answer.MockClient{Reply: answer.Reply{Answer: "here are some flats"}}
	svc, manager := newTestChatService(client, nil)

	queries := []string{"2bhk in pune", "under 1.2 cr", "ready to move"}
	for _, q := range queries {
		if _, err := svc.Send(context.Background(), q); err != nil {
			t.Fatalf("send %q: %v", q, err)
		}
	}

	session, err := manager.Load(context.Background(), manager.CurrentID())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(session.Messages) != 6 {
		t.Fatalf("expected 6 messages, got %d", len(session.Messages))
	}
	for i, q := range queries {
		u := session.Messages[2*i]
		a := session.Messages[2*i+1]
		if u.Sender != domain.SenderUser || u.Content != q {
			t.Fatalf("message %d: expected user %q, got %+v", 2*i, q, u)
		}
		if a.Sender != domain.SenderAssistant || a.Content != "here are some flats" {
			t.Fatalf("message %d: expected assistant reply, got %+v", 2*i+1, a)
		}
	}
}

func TestSend_GreetingShortCircuit(t *testing.T) {
	for _, greeting := range []string{"hello", "Hi!", "good morning"} {
		client := &answer.MockClient{Reply: answer.Reply{Answer: "should not be used"}}
		v := &fakeChatView{}
		svc, manager := newTestChatService(client, v)

		sv, err := svc.Send(context.Background(), greeting)
		if err != nil {
			t.Fatalf("send %q: %v", greeting, err)
		}
		if client.Calls != 0 {
			t.Fatalf("%q: expected no network call, got %d", greeting, client.Calls)
		}
		if v.typingShows != 0 {
			t.Fatalf("%q: expected no typing indicator for greetings", greeting)
		}
		if len(sv.Messages) != 2 || sv.Messages[1].Content != GreetingReply {
			t.Fatalf("%q: expected canned reply as sole assistant message, got %+v", greeting, sv.Messages)
		}

		session, _ := manager.Load(context.Background(), manager.CurrentID())
		if len(session.Messages) != 2 || session.Messages[1].Content != GreetingReply {
			t.Fatalf("%q: expected canned reply persisted, got %+v", greeting, session.Messages)
		}
	}
}

func TestSend_FailureVisibleAndInputReenabled(t *testing.T) {
	client := &answer.MockClient{Err: errors.New("connection refused")}
	v := &fakeChatView{}
	svc, manager := newTestChatService(client, v)

	sv, err := svc.Send(context.Background(), "2bhk in pune")
	if err != nil {
		t.Fatalf("expected no error (failure becomes a message), got %v", err)
	}
	if client.Calls != 1 {
		t.Fatalf("expected exactly one network call, got %d", client.Calls)
	}

	var assistantMsgs []view.MessageView
	for _, msg := range sv.Messages {
		if msg.Sender == domain.SenderAssistant {
			assistantMsgs = append(assistantMsgs, msg)
		}
	}
	if len(assistantMsgs) != 1 {
		t.Fatalf("expected exactly one assistant message, got %d", len(assistantMsgs))
	}
	if !strings.Contains(assistantMsgs[0].Content, testBackendURL) {
		t.Fatalf("expected failure message to name %q, got %q", testBackendURL, assistantMsgs[0].Content)
	}

	session, _ := manager.Load(context.Background(), manager.CurrentID())
	if len(session.Messages) != 2 {
		t.Fatalf("expected failure persisted in history, got %+v", session.Messages)
	}
	if !v.lastInputEnabled(t) {
		t.Fatalf("expected input re-enabled after failure")
	}
	if v.typingShows != 1 || v.typingHides != 1 {
		t.Fatalf("expected typing shown and removed exactly once, shows=%d hides=%d", v.typingShows, v.typingHides)
	}
}

func TestSend_EmptyMessage(t *testing.T) {
	client := &answer.MockClient{}
	svc, manager := newTestChatService(client, nil)

	if _, err := svc.Send(context.Background(), "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if manager.CurrentID() != "" {
		t.Fatalf("expected no session created for empty submit")
	}
}

func TestSend_BusyGuard(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var startOnce sync.Once
	client := &funcClient{fn: func(ctx context.Context, query string) (answer.Reply, error) {
		startOnce.Do(func() { close(started) })
		<-release
		return answer.Reply{Answer: "late reply"}, nil
	}}
	svc, _ := newTestChatService(client, nil)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Send(context.Background(), "first query")
		done <- err
	}()
	<-started

	if _, err := svc.Send(context.Background(), "second query"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("expected first send to succeed, got %v", err)
	}

	// Con el envio terminado, el guard se libera.
	if _, err := svc.Send(context.Background(), "third query"); err != nil {
		t.Fatalf("expected send after completion to succeed, got %v", err)
	}
}

func TestSend_StaleSessionReplyDropped(t *testing.T) {
	var manager *SessionManager
	client := &funcClient{fn: func(ctx context.Context, query string) (answer.Reply, error) {
		// Simula un cambio de sesion mientras la respuesta esta en vuelo.
		manager.Reset()
		if _, _, err := manager.EnsureSessionFor(ctx, userMsg("parallel chat")); err != nil {
			return answer.Reply{}, err
		}
		return answer.Reply{Answer: "late reply"}, nil
	}}
	svc, m := newTestChatService(client, nil)
	manager = m

	first, _, err := manager.EnsureSessionFor(context.Background(), userMsg("original chat"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if _, err := svc.Send(context.Background(), "show me flats"); !errors.Is(err, ErrSessionChanged) {
		t.Fatalf("expected ErrSessionChanged, got %v", err)
	}

	// El mensaje del usuario persiste; la respuesta tardia no se escribe en
	// ninguna de las dos sesiones.
	session, _ := manager.Load(context.Background(), first)
	for _, msg := range session.Messages {
		if msg.Content == "late reply" {
			t.Fatalf("late reply cross-wired into original session: %+v", session.Messages)
		}
	}
	if session.Messages[len(session.Messages)-1].Content != "show me flats" {
		t.Fatalf("expected user message persisted, got %+v", session.Messages)
	}

	current, _ := manager.Load(context.Background(), manager.CurrentID())
	for _, msg := range current.Messages {
		if msg.Content == "late reply" {
			t.Fatalf("late reply cross-wired into new session: %+v", current.Messages)
		}
	}
}

func TestSend_CardsComputedButNotDisplayed(t *testing.T) {
	client := &answer.MockClient{Reply: answer.Reply{
		Answer: "found 2 properties",
		Cards: []domain.ResultCard{
			{Title: "Skyline Residency", Price: "₹1.1 Cr"},
			{Title: "Green Acres"},
		},
	}}
	svc, manager := newTestChatService(client, nil)

	sv, err := svc.Send(context.Background(), "2bhk in pune")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	for _, msg := range sv.Messages {
		if len(msg.Cards) != 0 {
			t.Fatalf("expected no cards rendered, got %+v", msg.Cards)
		}
	}

	session, _ := manager.Load(context.Background(), manager.CurrentID())
	if len(session.Messages[1].Cards) != 0 {
		t.Fatalf("expected assistant message persisted without cards, got %+v", session.Messages[1].Cards)
	}
}

func TestDeleteSession_ActiveResetsView(t *testing.T) {
	client := &answer.MockClient{Reply: answer.Reply{Answer: "ok"}}
	v := &fakeChatView{}
	svc, manager := newTestChatService(client, v)

	if _, err := svc.Send(context.Background(), "2bhk in pune"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	id := manager.CurrentID()

	if err := svc.DeleteSession(context.Background(), id); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if manager.CurrentID() != "" {
		t.Fatalf("expected current reset after delete")
	}
	if v.welcomes != 1 {
		t.Fatalf("expected welcome state after deleting active session, got %d", v.welcomes)
	}

	summaries, err := svc.History(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	for _, s := range summaries {
		if s.ID == id {
			t.Fatalf("expected session gone from history")
		}
	}
}

func TestSwitchSession_RendersFromStore(t *testing.T) {
	client := &answer.MockClient{Reply: answer.Reply{Answer: "ok"}}
	v := &fakeChatView{}
	svc, manager := newTestChatService(client, v)

	if _, err := svc.Send(context.Background(), "first chat message"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	first := manager.CurrentID()
	manager.Reset()
	if _, err := svc.Send(context.Background(), "second chat message"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	sv, err := svc.SwitchSession(context.Background(), first)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if sv.ID != first || manager.CurrentID() != first {
		t.Fatalf("expected switch to %q", first)
	}
	if len(sv.Messages) != 2 || sv.Messages[0].Content != "first chat message" {
		t.Fatalf("expected full re-render from persisted data, got %+v", sv.Messages)
	}
}
