package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/subhakanta156/nobr-project/internal/answer"
	"github.com/subhakanta156/nobr-project/internal/domain"
	"github.com/subhakanta156/nobr-project/internal/view"
)

// GreetingReply es la respuesta fija para saludos; no genera llamada de red.
const GreetingReply = "Hi! I'm your NoBrokerage property assistant. Ask me about flats, localities or budgets and I'll find matching homes for you."

var (
	// ErrEmptyMessage indica un envio vacio tras el trim; no cambia ningun estado.
	ErrEmptyMessage = errors.New("empty message")
	// ErrBusy indica que ya hay un envio en vuelo; el input esta deshabilitado.
	ErrBusy = errors.New("a message is already in flight")
	// ErrSessionChanged indica que la sesion actual cambio mientras la
	// respuesta estaba en vuelo; la respuesta se descarta en vez de
	// escribirse en la sesion equivocada.
	ErrSessionChanged = errors.New("current session changed while reply was in flight")
)

// View es la superficie minima que el pipeline necesita del adaptador de
// presentacion. El indicador de "escribiendo" es solo de vista: nunca se
// persiste y se quita por un camino independiente del de los mensajes.
type View interface {
	SetInputEnabled(enabled bool)
	ShowTyping()
	HideTyping()
	RenderSession(sv view.SessionView)
	ShowWelcome()
}

// ChatService orquesta el pipeline de un mensaje saliente: persistir el
// mensaje del usuario en una sesion definida, clasificarlo y producir la
// respuesta del asistente. A lo sumo un envio en vuelo; sin reintentos.
type ChatService struct {
	logger        *zap.Logger
	manager       *SessionManager
	client        answer.Client
	view          View // opcional; nil en modo headless (API HTTP)
	backendURL    string
	greetingDelay time.Duration

	busy atomic.Bool
}

func NewChatService(
	logger *zap.Logger,
	manager *SessionManager,
	client answer.Client,
	v View,
	backendURL string,
	greetingDelay time.Duration,
) *ChatService {
	return &ChatService{
		logger:        logger,
		manager:       manager,
		client:        client,
		view:          v,
		backendURL:    backendURL,
		greetingDelay: greetingDelay,
	}
}

// Send procesa un mensaje del usuario de punta a punta y devuelve la sesion
// renderizada desde el almacen. Pase lo que pase, el input queda habilitado y
// el indicador de escritura removido al salir.
func (s *ChatService) Send(ctx context.Context, rawText string) (view.SessionView, error) {
	text := strings.TrimSpace(rawText)
	if text == "" {
		return view.SessionView{}, ErrEmptyMessage
	}
	if !s.busy.CompareAndSwap(false, true) {
		return view.SessionView{}, ErrBusy
	}
	defer s.busy.Store(false)

	s.setInputEnabled(false)
	defer s.setInputEnabled(true)
	defer s.hideTyping()

	userMsg := domain.Message{
		Sender:    domain.SenderUser,
		Content:   text,
		CreatedAt: time.Now().UTC(),
	}
	sessionID, created, err := s.manager.EnsureSessionFor(ctx, userMsg)
	if err != nil {
		return view.SessionView{}, err
	}
	if !created {
		if err := s.manager.MaybeRetitle(ctx, text); err != nil {
			s.logger.Warn("retitle failed", zap.Error(err), zap.String("session_id", sessionID))
		}
	}

	reply := s.produceReply(ctx, text)

	// La respuesta quedo etiquetada con la sesion capturada al emitir la
	// peticion; si la sesion actual ya es otra, se descarta.
	if current := s.manager.CurrentID(); current != sessionID {
		s.logger.Warn("dropping reply for abandoned session",
			zap.String("issued_for", sessionID),
			zap.String("current", current),
		)
		return view.SessionView{}, ErrSessionChanged
	}

	if err := s.manager.AppendMessage(ctx, sessionID, reply); err != nil {
		return view.SessionView{}, err
	}

	session, err := s.manager.Load(ctx, sessionID)
	if err != nil {
		return view.SessionView{}, err
	}
	sv := view.FromSession(session)
	s.renderSession(sv)
	return sv, nil
}

// produceReply resuelve el contenido del mensaje del asistente: respuesta
// enlatada para saludos, o exactamente una llamada al chatbot remoto.
func (s *ChatService) produceReply(ctx context.Context, text string) domain.Message {
	if IsGreeting(text) {
		// Pausa cosmetica para que la respuesta enlatada no aparezca instantanea.
		if s.greetingDelay > 0 {
			time.Sleep(s.greetingDelay)
		}
		return assistantMessage(GreetingReply)
	}

	// El indicador se remueve en el defer de Send, en todas las salidas.
	s.showTyping()
	result, err := s.client.Ask(ctx, text)
	if err != nil {
		s.logger.Warn("chatbot request failed", zap.Error(err))
		return assistantMessage(s.failureReply())
	}
	// Las cartas estructuradas se calculan rio arriba pero hoy no se
	// muestran: el mensaje persiste sin cartas. No reactivar sin decision
	// de producto.
	return assistantMessage(result.Answer)
}

// failureReply nombra el endpoint configurado; el fallo queda visible en el historial.
func (s *ChatService) failureReply() string {
	return fmt.Sprintf("Sorry, I couldn't reach the property assistant at %s. Please try again in a moment.", s.backendURL)
}

// NewChat arranca una conversacion nueva y resetea la vista.
func (s *ChatService) NewChat(ctx context.Context) (string, error) {
	id, err := s.manager.NewChat(ctx)
	if err != nil {
		return "", err
	}
	s.showWelcome()
	return id, nil
}

// SwitchSession carga la sesion pedida, la marca actual y re-renderiza
// completo desde datos persistidos.
func (s *ChatService) SwitchSession(ctx context.Context, id string) (view.SessionView, error) {
	session, err := s.manager.SwitchTo(ctx, id)
	if err != nil {
		return view.SessionView{}, err
	}
	sv := view.FromSession(session)
	s.renderSession(sv)
	return sv, nil
}

// DeleteSession borra la sesion; si era la actual la vista vuelve al estado
// de bienvenida.
func (s *ChatService) DeleteSession(ctx context.Context, id string) error {
	wasCurrent, err := s.manager.Delete(ctx, id)
	if err != nil {
		return err
	}
	if wasCurrent {
		s.showWelcome()
	}
	return nil
}

// History devuelve el historial de sesiones como resumenes renderizables.
func (s *ChatService) History(ctx context.Context) ([]view.SessionSummary, error) {
	sessions, err := s.manager.History(ctx)
	if err != nil {
		return nil, err
	}
	return view.Summaries(sessions), nil
}

func assistantMessage(content string) domain.Message {
	return domain.Message{
		Sender:    domain.SenderAssistant,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

func (s *ChatService) setInputEnabled(enabled bool) {
	if s.view != nil {
		s.view.SetInputEnabled(enabled)
	}
}

func (s *ChatService) showTyping() {
	if s.view != nil {
		s.view.ShowTyping()
	}
}

func (s *ChatService) hideTyping() {
	if s.view != nil {
		s.view.HideTyping()
	}
}

func (s *ChatService) renderSession(sv view.SessionView) {
	if s.view != nil {
		s.view.RenderSession(sv)
	}
}

func (s *ChatService) showWelcome() {
	if s.view != nil {
		s.view.ShowWelcome()
	}
}
