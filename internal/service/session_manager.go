package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/subhakanta156/nobr-project/internal/domain"
	"github.com/subhakanta156/nobr-project/internal/repository"
)

const titleMaxRunes = 25

var (
	// ErrStoreNotReady se devuelve mientras el almacen no haya confirmado
	// su inicializacion; ninguna operacion de sesion procede antes de eso.
	ErrStoreNotReady = errors.New("session store not ready")
)

// SessionManager es dueno del puntero de sesion actual y del ciclo de vida de
// las sesiones: creacion implicita en el primer mensaje, retitulado, borrado.
//
// Limitacion documentada: el puntero vive en este proceso y el almacen asume
// un unico escritor. Varios procesos (o pestanas) escribiendo a la vez no
// estan soportados.
type SessionManager struct {
	logger *zap.Logger
	repo   repository.SessionRepository
	titles TitleIndex // opcional; nil desactiva el indice secundario

	ready atomic.Bool

	mu        sync.Mutex
	currentID string
}

func NewSessionManager(logger *zap.Logger, repo repository.SessionRepository, titles TitleIndex) *SessionManager {
	return &SessionManager{
		logger: logger,
		repo:   repo,
		titles: titles,
	}
}

// MarkReady abre la compuerta de inicializacion; se llama una vez que el
// almacen respondio el ping inicial.
func (m *SessionManager) MarkReady() {
	m.ready.Store(true)
}

func (m *SessionManager) Ready() bool {
	return m.ready.Load()
}

// CurrentID devuelve el id de la sesion actual, o cadena vacia si no hay.
func (m *SessionManager) CurrentID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentID
}

// NewChat crea explicitamente una sesion con el titulo placeholder y la marca actual.
func (m *SessionManager) NewChat(ctx context.Context) (string, error) {
	if !m.Ready() {
		return "", ErrStoreNotReady
	}
	id, err := m.repo.Create(ctx, domain.PlaceholderTitle, nil)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	m.indexAdd(ctx, domain.PlaceholderTitle, id)
	m.setCurrent(id)
	m.logger.Info("new chat started", zap.String("session_id", id))
	return id, nil
}

// EnsureSessionFor persiste el mensaje en una sesion definida: la actual si
// existe, o una nueva cuyo titulo se deriva del propio mensaje. Devuelve el id
// y si la sesion fue creada en esta llamada.
func (m *SessionManager) EnsureSessionFor(ctx context.Context, msg domain.Message) (string, bool, error) {
	if !m.Ready() {
		return "", false, ErrStoreNotReady
	}

	if id := m.CurrentID(); id != "" {
		session, err := m.repo.GetByID(ctx, id)
		if err != nil {
			return "", false, fmt.Errorf("load current session: %w", err)
		}
		session.Messages = append(session.Messages, msg)
		if err := m.repo.Put(ctx, session); err != nil {
			return "", false, fmt.Errorf("append message: %w", err)
		}
		return id, false, nil
	}

	title := DeriveTitle(msg.Content)
	id, err := m.repo.Create(ctx, title, []domain.Message{msg})
	if err != nil {
		return "", false, fmt.Errorf("create session: %w", err)
	}
	m.indexAdd(ctx, title, id)
	m.setCurrent(id)
	m.logger.Info("session created", zap.String("session_id", id), zap.String("title", title))
	return id, true, nil
}

// AppendMessage agrega un mensaje al final de la sesion indicada, que no
// necesariamente es la actual.
func (m *SessionManager) AppendMessage(ctx context.Context, id string, msg domain.Message) error {
	if !m.Ready() {
		return ErrStoreNotReady
	}
	session, err := m.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	session.Messages = append(session.Messages, msg)
	if err := m.repo.Put(ctx, session); err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// MaybeRetitle deriva el titulo de la sesion actual a partir del texto, solo
// si el titulo sigue siendo el placeholder. Ocurre a lo sumo una vez por sesion.
func (m *SessionManager) MaybeRetitle(ctx context.Context, text string) error {
	if !m.Ready() {
		return ErrStoreNotReady
	}
	id := m.CurrentID()
	if id == "" || strings.TrimSpace(text) == "" {
		return nil
	}
	session, err := m.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load current session: %w", err)
	}
	if session.Title != domain.PlaceholderTitle {
		return nil
	}
	session.Title = DeriveTitle(text)
	if err := m.repo.Put(ctx, session); err != nil {
		return fmt.Errorf("retitle session: %w", err)
	}
	m.indexRemove(ctx, domain.PlaceholderTitle, id)
	m.indexAdd(ctx, session.Title, id)
	return nil
}

// SwitchTo carga la sesion pedida y la marca actual. Los ids vienen del
// historial, asi que un id inexistente es un error de logica del caller.
func (m *SessionManager) SwitchTo(ctx context.Context, id string) (domain.Session, error) {
	if !m.Ready() {
		return domain.Session{}, ErrStoreNotReady
	}
	session, err := m.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Session{}, err
	}
	m.setCurrent(id)
	return session, nil
}

// Load relee una sesion sin mover el puntero actual.
func (m *SessionManager) Load(ctx context.Context, id string) (domain.Session, error) {
	if !m.Ready() {
		return domain.Session{}, ErrStoreNotReady
	}
	return m.repo.GetByID(ctx, id)
}

// Delete borra la sesion; si era la actual, el puntero vuelve a "ninguna" y
// el caller debe resetear la vista al estado de bienvenida.
func (m *SessionManager) Delete(ctx context.Context, id string) (wasCurrent bool, err error) {
	if !m.Ready() {
		return false, ErrStoreNotReady
	}

	if session, getErr := m.repo.GetByID(ctx, id); getErr == nil {
		m.indexRemove(ctx, session.Title, id)
	} else if !errors.Is(getErr, repository.ErrSessionNotFound) {
		return false, getErr
	}

	if err := m.repo.Delete(ctx, id); err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}

	m.mu.Lock()
	if m.currentID == id {
		m.currentID = ""
		wasCurrent = true
	}
	m.mu.Unlock()

	m.logger.Info("session deleted", zap.String("session_id", id), zap.Bool("was_current", wasCurrent))
	return wasCurrent, nil
}

// Reset limpia el puntero actual sin tocar el almacen.
func (m *SessionManager) Reset() {
	m.setCurrent("")
}

// History devuelve todas las sesiones en orden de creacion.
func (m *SessionManager) History(ctx context.Context) ([]domain.Session, error) {
	if !m.Ready() {
		return nil, ErrStoreNotReady
	}
	return m.repo.ListAll(ctx)
}

func (m *SessionManager) setCurrent(id string) {
	m.mu.Lock()
	m.currentID = id
	m.mu.Unlock()
}

func (m *SessionManager) indexAdd(ctx context.Context, title, id string) {
	if m.titles == nil {
		return
	}
	if err := m.titles.Add(ctx, title, id); err != nil {
		m.logger.Warn("title index add failed", zap.Error(err), zap.String("session_id", id))
	}
}

func (m *SessionManager) indexRemove(ctx context.Context, title, id string) {
	if m.titles == nil {
		return
	}
	if err := m.titles.Remove(ctx, title, id); err != nil {
		m.logger.Warn("title index remove failed", zap.Error(err), zap.String("session_id", id))
	}
}

// DeriveTitle recorta el texto a 25 caracteres y agrega una unica elipsis
// solo cuando hubo truncado. La misma regla aplica en creacion implicita y en
// retitulado posterior.
func DeriveTitle(text string) string {
	runes := []rune(text)
	if len(runes) <= titleMaxRunes {
		return text
	}
	return string(runes[:titleMaxRunes]) + "…"
}
