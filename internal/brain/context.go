package brain

import "time"

// Context is the compact bundle of game state handed to the model for a
// single chat turn. The engine builds it; the responder never reaches
// back into live state.
type Context struct {
	PetName      string
	Mood         string
	Stats        map[string]float64 // hunger, hygiene, mood, energy, affection, health
	Sleeping     bool
	RecentEvents []string // last up-to-6 events, oldest first
	LastUserText string
	TimeOfDay    string // morning, day, evening, night
}

// TimeOfDay buckets a clock time into the coarse label the prompt uses.
func TimeOfDay(t time.Time) string {
	switch h := t.Hour(); {
	case h >= 5 && h < 12:
		return "morning"
	case h >= 12 && h < 17:
		return "day"
	case h >= 17 && h < 21:
		return "evening"
	default:
		return "night"
	}
}

func (c Context) stat(name string, def float64) float64 {
	if v, ok := c.Stats[name]; ok {
		return v
	}
	return def
}
