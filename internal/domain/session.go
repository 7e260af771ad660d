package domain

import "time"

// PlaceholderTitle es el titulo inicial de toda sesion antes del primer mensaje.
const PlaceholderTitle = "New Chat"

// Session es una conversacion completa; los mensajes conservan el orden de insercion.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
}
