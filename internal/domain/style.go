package domain

// Style identifiers accepted by the enhance endpoint.
const (
	StyleCinematic = "cinematic"
	StyleEnhance   = "enhance"
)

// Style describes one selectable enhancement style.
type Style struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// Styles is the catalog exposed to clients.
var Styles = []Style{
	{
		ID:          StyleCinematic,
		Name:        "Cinematic Enhancement",
		Description: "Deterministic cinematic grade: light sculpting, center focus, teal-orange color and film polish",
		Category:    "ai_enhancement",
	},
	{
		ID:          StyleEnhance,
		Name:        "AI Enhancement",
		Description: "Generative model enhancement with a cinematic fallback when the model is unavailable",
		Category:    "ai_enhancement",
	},
}

// LookupStyle returns the catalog entry for id.
func LookupStyle(id string) (Style, bool) {
	for _, s := range Styles {
		if s.ID == id {
			return s, true
		}
	}
	return Style{}, false
}
