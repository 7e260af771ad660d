package view

import (
	"strings"
	"unicode"

	"github.com/subhakanta156/nobr-project/internal/domain"
)

// Fallbacks para campos ausentes en la carta cruda.
const (
	fallbackCardTitle = "Property"
	fallbackPrice     = "Price on request"
	fallbackLocation  = "Location not specified"
	fallbackDetailURL = "#"
)

const maxAmenities = 3

// SessionSummary es la fila que se muestra en el historial de chats.
type SessionSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// SessionView es el render completo de una sesion, siempre reconstruido
// desde datos persistidos.
type SessionView struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Messages []MessageView `json:"messages"`
}

type MessageView struct {
	Sender  string     `json:"sender"`
	Content string     `json:"content"`
	Cards   []CardView `json:"cards,omitempty"`
}

// CardView es la carta de propiedad ya normalizada y con fallbacks aplicados.
type CardView struct {
	Title         string   `json:"title"`
	Price         string   `json:"price"`
	Location      string   `json:"location"`
	BedroomConfig string   `json:"bedroom_config,omitempty"`
	Status        string   `json:"status,omitempty"`
	Amenities     []string `json:"amenities,omitempty"`
	DetailURL     string   `json:"detail_url"`
}

// FromSession reconstruye el view model completo; llamarlo dos veces sobre la
// misma sesion produce exactamente el mismo resultado.
func FromSession(session domain.Session) SessionView {
	sv := SessionView{
		ID:       session.ID,
		Title:    session.Title,
		Messages: make([]MessageView, 0, len(session.Messages)),
	}
	for _, msg := range session.Messages {
		mv := MessageView{Sender: msg.Sender, Content: msg.Content}
		for _, card := range msg.Cards {
			mv.Cards = append(mv.Cards, FromCard(card))
		}
		sv.Messages = append(sv.Messages, mv)
	}
	return sv
}

// Summaries proyecta las sesiones al formato del historial, en el mismo orden.
func Summaries(sessions []domain.Session) []SessionSummary {
	out := make([]SessionSummary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, SessionSummary{ID: s.ID, Title: s.Title})
	}
	return out
}

// FromCard normaliza una carta cruda aplicando los fallbacks del contrato.
func FromCard(card domain.ResultCard) CardView {
	cv := CardView{
		Title:         card.Title,
		Price:         card.Price,
		Location:      card.Location,
		BedroomConfig: NormalizeBedrooms(card.BHK),
		Status:        NormalizeStatus(card.PossessionStatus),
		Amenities:     FilterAmenities(card.Amenities),
		DetailURL:     card.DetailURL,
	}
	if cv.Title == "" {
		cv.Title = fallbackCardTitle
	}
	if cv.Price == "" {
		cv.Price = fallbackPrice
	}
	if cv.Location == "" {
		cv.Location = fallbackLocation
	}
	if cv.DetailURL == "" {
		cv.DetailURL = fallbackDetailURL
	}
	return cv
}

// NormalizeBedrooms convierte el texto crudo de bhk: guiones bajos a espacios y trim.
func NormalizeBedrooms(raw string) string {
	return strings.TrimSpace(strings.ReplaceAll(raw, "_", " "))
}

// NormalizeStatus convierte posesion cruda tipo "UNDER_CONSTRUCTION" en "Under Construction".
func NormalizeStatus(raw string) string {
	cleaned := strings.TrimSpace(strings.ToLower(strings.ReplaceAll(raw, "_", " ")))
	if cleaned == "" {
		return ""
	}
	words := strings.Fields(cleaned)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// FilterAmenities descarta entradas vacias, de 2 caracteres o menos y los
// placeholders del scraper; conserva el orden y devuelve a lo sumo 3.
func FilterAmenities(raw []string) []string {
	var out []string
	for _, amenity := range raw {
		trimmed := strings.TrimSpace(amenity)
		if len([]rune(trimmed)) <= 2 {
			continue
		}
		lowered := strings.ToLower(trimmed)
		if lowered == "about property" || lowered == "property" {
			continue
		}
		out = append(out, trimmed)
		if len(out) == maxAmenities {
			break
		}
	}
	return out
}
