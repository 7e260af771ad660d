package view

import (
	"reflect"
	"testing"

	"github.com/subhakanta156/nobr-project/internal/domain"
)

func TestNormalizeStatus(t *testing.T) {
	cases := map[string]string{
		"UNDER_CONSTRUCTION": "Under Construction",
		"READY_TO_MOVE":      "Ready To Move",
		"ready_to_move":      "Ready To Move",
		"  launched ":        "Launched",
		"":                   "",
	}
	for raw, want := range cases {
		if got := NormalizeStatus(raw); got != want {
			t.Fatalf("NormalizeStatus(%q): expected %q, got %q", raw, want, got)
		}
	}
}

func TestNormalizeBedrooms(t *testing.T) {
	cases := map[string]string{
		"2_BHK":    "2 BHK",
		" 3 BHK ":  "3 BHK",
		"2_3_BHK":  "2 3 BHK",
		"":         "",
	}
	for raw, want := range cases {
		if got := NormalizeBedrooms(raw); got != want {
			t.Fatalf("NormalizeBedrooms(%q): expected %q, got %q", raw, want, got)
		}
	}
}

func TestFilterAmenities(t *testing.T) {
	got := FilterAmenities([]string{"Pool", "ab", "About Property", "Gym"})
	want := []string{"Pool", "Gym"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestFilterAmenities_CapsAtThree(t *testing.T) {
	got := FilterAmenities([]string{"Pool", "Gym", "Clubhouse", "Garden", "Parking"})
	want := []string{"Pool", "Gym", "Clubhouse"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected first 3 survivors, got %v", got)
	}
}

func TestFilterAmenities_DropsPlaceholders(t *testing.T) {
	got := FilterAmenities([]string{"  ", "", "xy", "PROPERTY", "about property", "Power Backup"})
	want := []string{"Power Backup"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestFromCard_Fallbacks(t *testing.T) {
	cv := FromCard(domain.ResultCard{})
	if cv.Title != "Property" {
		t.Fatalf("expected title fallback, got %q", cv.Title)
	}
	if cv.Price != "Price on request" {
		t.Fatalf("expected price fallback, got %q", cv.Price)
	}
	if cv.Location != "Location not specified" {
		t.Fatalf("expected location fallback, got %q", cv.Location)
	}
	if cv.DetailURL != "#" {
		t.Fatalf("expected null-link marker, got %q", cv.DetailURL)
	}
}

func TestFromCard_Normalizes(t *testing.T) {
	cv := FromCard(domain.ResultCard{
		Title:            "Skyline Residency",
		Price:            "₹1.1 Cr",
		Location:         "Hinjewadi, Pune",
		BHK:              "2_BHK",
		PossessionStatus: "UNDER_CONSTRUCTION",
		Amenities:        []string{"Pool", "ab", "About Property", "Gym"},
		DetailURL:        "https://example.com/p/skyline",
	})
	if cv.BedroomConfig != "2 BHK" {
		t.Fatalf("expected normalized bhk, got %q", cv.BedroomConfig)
	}
	if cv.Status != "Under Construction" {
		t.Fatalf("expected normalized status, got %q", cv.Status)
	}
	if !reflect.DeepEqual(cv.Amenities, []string{"Pool", "Gym"}) {
		t.Fatalf("expected filtered amenities, got %v", cv.Amenities)
	}
	if cv.DetailURL != "https://example.com/p/skyline" {
		t.Fatalf("expected detail url preserved, got %q", cv.DetailURL)
	}
}

func TestFromSession_IdempotentReplay(t *testing.T) {
	session := domain.Session{
		ID:    "s1",
		Title: "2bhk in pune",
		Messages: []domain.Message{
			{Sender: domain.SenderUser, Content: "2bhk in pune"},
			{Sender: domain.SenderAssistant, Content: "found 2 properties"},
			{Sender: domain.SenderAssistant, Content: "with card", Cards: []domain.ResultCard{{Title: "Skyline"}}},
		},
	}

	first := FromSession(session)
	second := FromSession(session)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical renders, got %+v vs %+v", first, second)
	}
	if len(first.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(first.Messages))
	}
	if len(first.Messages[2].Cards) != 1 || first.Messages[2].Cards[0].Title != "Skyline" {
		t.Fatalf("expected card plumbed through, got %+v", first.Messages[2].Cards)
	}
}
