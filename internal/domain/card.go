package domain

// ResultCard es el registro crudo de una propiedad tal como lo devuelve el
// chatbot. Todos los campos son opcionales; los fallbacks se aplican al
// construir el view model, nunca aqui.
type ResultCard struct {
	Title            string   `json:"title"`
	Price            string   `json:"price"`
	Location         string   `json:"location"`
	BHK              string   `json:"bhk"`
	PossessionStatus string   `json:"possession_status"`
	Amenities        []string `json:"amenities"`
	DetailURL        string   `json:"detail_url"`
}
