package answer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/subhakanta156/nobr-project/internal/domain"
)

// Reply es la respuesta del servicio remoto de busqueda de propiedades.
// Cards puede venir vacio; el pipeline decide si se muestra o no.
type Reply struct {
	Answer string              `json:"answer"`
	Cards  []domain.ResultCard `json:"cards"`
}

// Client define la interfaz hacia el servicio remoto de respuestas.
type Client interface {
	Ask(ctx context.Context, query string) (Reply, error)
}

// HTTPClient implementa Client contra el endpoint POST /chat del chatbot.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPClient construye un cliente HTTP apuntando al backend del chatbot.
func NewHTTPClient(baseURL string, logger *zap.Logger) *HTTPClient {
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 60 * time.Second},
		logger:  logger,
	}
}

// BaseURL expone el endpoint configurado; se usa para nombrarlo en mensajes de error.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// Ask emite exactamente una peticion; cualquier status fuera de 2xx es un fallo uniforme.
func (c *HTTPClient) Ask(ctx context.Context, query string) (Reply, error) {
	bodyBytes, err := json.Marshal(askRequest{Query: query})
	if err != nil {
		return Reply{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(bodyBytes))
	if err != nil {
		return Reply{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Reply{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Reply{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if c.logger != nil {
			c.logger.Warn("chatbot error response",
				zap.Int("status", resp.StatusCode),
				zap.ByteString("body", respBody),
			)
		}
		return Reply{}, fmt.Errorf("chatbot http error: status=%d", resp.StatusCode)
	}

	var reply Reply
	if err := json.Unmarshal(respBody, &reply); err != nil {
		return Reply{}, fmt.Errorf("unmarshal response: %w", err)
	}
	return reply, nil
}

type askRequest struct {
	Query string `json:"query"`
}
