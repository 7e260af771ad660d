package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/subhakanta156/nobr-project/internal/domain"
)

// ErrSessionNotFound indica que el id consultado no existe en el almacen.
var ErrSessionNotFound = errors.New("session not found")

// SessionRepository define el contrato del almacen de sesiones de chat.
// Las operaciones sobre un mismo id se observan en orden de programa;
// no se asume atomicidad entre sesiones distintas.
type SessionRepository interface {
	Create(ctx context.Context, title string, messages []domain.Message) (string, error)
	GetByID(ctx context.Context, id string) (domain.Session, error)
	Put(ctx context.Context, session domain.Session) error
	Delete(ctx context.Context, id string) error
	ListAll(ctx context.Context) ([]domain.Session, error)
	ListByTitle(ctx context.Context, title string) ([]domain.Session, error)
}

// PgSessionRepository guarda cada sesion como una fila con los mensajes en jsonb.
type PgSessionRepository struct {
	pool *pgxpool.Pool
}

func NewPgSessionRepository(pool *pgxpool.Pool) *PgSessionRepository {
	return &PgSessionRepository{pool: pool}
}

func (r *PgSessionRepository) Create(ctx context.Context, title string, messages []domain.Message) (string, error) {
	const query = `
		INSERT INTO chat_sessions (id, title, messages, created_at)
		VALUES ($1, $2, $3, $4)
	`
	id := uuid.NewString()
	payload, err := encodeMessages(messages)
	if err != nil {
		return "", err
	}
	_, err = r.pool.Exec(ctx, query, id, title, payload, time.Now().UTC())
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *PgSessionRepository) GetByID(ctx context.Context, id string) (domain.Session, error) {
	const query = `
		SELECT id, title, messages, created_at
		FROM chat_sessions
		WHERE id = $1
	`
	session, err := scanSession(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Session{}, ErrSessionNotFound
	}
	return session, err
}

// Put sobreescribe el registro completo identificado por session.ID.
func (r *PgSessionRepository) Put(ctx context.Context, session domain.Session) error {
	const query = `
		INSERT INTO chat_sessions (id, title, messages, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title, messages = EXCLUDED.messages
	`
	payload, err := encodeMessages(session.Messages)
	if err != nil {
		return err
	}
	createdAt := session.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err = r.pool.Exec(ctx, query, session.ID, session.Title, payload, createdAt)
	return err
}

// Delete es idempotente: borrar un id inexistente no es un error.
func (r *PgSessionRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM chat_sessions WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

// ListAll devuelve las sesiones en orden de creacion.
func (r *PgSessionRepository) ListAll(ctx context.Context) ([]domain.Session, error) {
	const query = `
		SELECT id, title, messages, created_at
		FROM chat_sessions
		ORDER BY position ASC
	`
	return r.querySessions(ctx, query)
}

// ListByTitle usa el indice secundario por titulo; puede devolver varias sesiones.
func (r *PgSessionRepository) ListByTitle(ctx context.Context, title string) ([]domain.Session, error) {
	const query = `
		SELECT id, title, messages, created_at
		FROM chat_sessions
		WHERE title = $1
		ORDER BY position ASC
	`
	return r.querySessions(ctx, query, title)
}

func (r *PgSessionRepository) querySessions(ctx context.Context, query string, args ...any) ([]domain.Session, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

func scanSession(row pgx.Row) (domain.Session, error) {
	var session domain.Session
	var payload []byte
	if err := row.Scan(&session.ID, &session.Title, &payload, &session.CreatedAt); err != nil {
		return domain.Session{}, err
	}
	messages, err := decodeMessages(payload)
	if err != nil {
		return domain.Session{}, err
	}
	session.Messages = messages
	return session, nil
}

func encodeMessages(messages []domain.Message) ([]byte, error) {
	if messages == nil {
		messages = []domain.Message{}
	}
	payload, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("encode messages: %w", err)
	}
	return payload, nil
}

func decodeMessages(payload []byte) ([]domain.Message, error) {
	messages := []domain.Message{}
	if len(payload) == 0 {
		return messages, nil
	}
	if err := json.Unmarshal(payload, &messages); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return messages, nil
}
