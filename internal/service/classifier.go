package service

import "strings"

// greetingSet cubre los saludos puros mas comunes; cualquier otra cosa es una consulta.
var greetingSet = map[string]struct{}{
	"hello":          {},
	"hello there":    {},
	"hi":             {},
	"hi there":       {},
	"hey":            {},
	"heya":           {},
	"yo":             {},
	"hola":           {},
	"namaste":        {},
	"greetings":      {},
	"good morning":   {},
	"good afternoon": {},
	"good evening":   {},
	"good day":       {},
}

// IsGreeting clasifica el texto como saludo puro. Es una funcion pura:
// no toca almacenamiento ni red.
func IsGreeting(text string) bool {
	normalized := strings.ToLower(strings.TrimSpace(text))
	normalized = strings.TrimRight(normalized, "!.?,")
	normalized = strings.TrimSpace(normalized)
	_, ok := greetingSet[normalized]
	return ok
}
