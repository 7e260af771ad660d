package domain

import "time"

// Valores permitidos para Message.Sender.
const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

// Message es inmutable una vez persistido dentro de su sesion.
type Message struct {
	Sender    string       `json:"sender"`
	Content   string       `json:"content"`
	Cards     []ResultCard `json:"cards,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}
