package democards

import (
	"fmt"
	"math/rand"
	"time"
)

var (
	rooms   = []string{"Living room", "Kitchen", "Bedroom", "Garage", "Office", "Hallway"}
	devices = []string{"Lights", "Heating", "Door", "Window", "Speaker", "Camera"}
	states  = []struct {
		status string
		text   string
	}{
		{"ok", "All good"},
		{"warning", "Needs attention"},
		{"error", "Offline"},
	}
	icons = []string{"bulb", "thermometer", "lock", "window", "speaker", "camera"}
)

// Card is a published card with its id.
type Card struct {
	ID         string
	Descriptor map[string]any
}

// Generate returns n medium-card descriptors. The same seed yields the
// same cards.
func Generate(n int, seed int64) []Card {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // demo data

	cards := make([]Card, 0, n)
	for i := 0; i < n; i++ {
		d := rng.Intn(len(devices))
		room := rooms[rng.Intn(len(rooms))]
		st := states[rng.Intn(len(states))]

		cards = append(cards, Card{
			ID: fmt.Sprintf("demo-%04d", i),
			Descriptor: map[string]any{
				"component": "medium-card",
				"data": map[string]any{
					"title": fmt.Sprintf("%s %s", room, devices[d]),
					"icon":  map[string]any{"component": "weave-icon", "data": map[string]any{"icon": icons[d]}},
					"content": map[string]any{
						"component": "vertical-layout",
						"data": map[string]any{"children": []any{
							map[string]any{"component": "paragraph", "data": map[string]any{"text": st.text}},
							map[string]any{"component": "weave-button", "data": map[string]any{"text": "Details", "action": "open:" + fmt.Sprint(i)}},
						}},
					},
					"footer": map[string]any{
						"component": "card-footer-status",
						"data":      map[string]any{"status": st.status, "text": "Updated just now"},
					},
				},
			},
		})
	}
	return cards
}
