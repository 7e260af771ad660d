package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/subhakanta156/nobr-project/internal/domain"
)

// MemorySessionRepository implementa SessionRepository en memoria.
// Se usa en tests y cuando no hay DATABASE_URL configurada.
type MemorySessionRepository struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	order    []string
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[string]domain.Session),
	}
}

func (r *MemorySessionRepository) Create(_ context.Context, title string, messages []domain.Message) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session := domain.Session{
		ID:        uuid.NewString(),
		Title:     title,
		Messages:  copyMessages(messages),
		CreatedAt: time.Now().UTC(),
	}
	r.sessions[session.ID] = session
	r.order = append(r.order, session.ID)
	return session.ID, nil
}

func (r *MemorySessionRepository) GetByID(_ context.Context, id string) (domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return domain.Session{}, ErrSessionNotFound
	}
	return cloneSession(session), nil
}

func (r *MemorySessionRepository) Put(_ context.Context, session domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	if _, ok := r.sessions[session.ID]; !ok {
		r.order = append(r.order, session.ID)
	}
	r.sessions[session.ID] = cloneSession(session)
	return nil
}

func (r *MemorySessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return nil
	}
	delete(r.sessions, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *MemorySessionRepository) ListAll(_ context.Context) ([]domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessions := make([]domain.Session, 0, len(r.order))
	for _, id := range r.order {
		sessions = append(sessions, cloneSession(r.sessions[id]))
	}
	return sessions, nil
}

func (r *MemorySessionRepository) ListByTitle(_ context.Context, title string) ([]domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var sessions []domain.Session
	for _, id := range r.order {
		if r.sessions[id].Title == title {
			sessions = append(sessions, cloneSession(r.sessions[id]))
		}
	}
	return sessions, nil
}

func cloneSession(session domain.Session) domain.Session {
	session.Messages = copyMessages(session.Messages)
	return session
}

func copyMessages(messages []domain.Message) []domain.Message {
	out := make([]domain.Message, len(messages))
	copy(out, messages)
	return out
}
