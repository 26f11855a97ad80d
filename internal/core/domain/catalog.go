package domain

import "sort"

type CatalogEntry struct {
	ID       string    `json:"id"`
	Kind     HabitKind `json:"kind"`
	Name     string    `json:"name"`
	Icon     string    `json:"icon"`
	Category string    `json:"category"`
}

var catalog = map[string]CatalogEntry{
	"meditation":      {ID: "meditation", Kind: HabitKindBuild, Name: "Meditate", Icon: "lotus", Category: "mind"},
	"exercise":        {ID: "exercise", Kind: HabitKindBuild, Name: "Exercise", Icon: "dumbbell", Category: "body"},
	"reading":         {ID: "reading", Kind: HabitKindBuild, Name: "Read", Icon: "book", Category: "mind"},
	"hydration":       {ID: "hydration", Kind: HabitKindBuild, Name: "Drink water", Icon: "droplet", Category: "body"},
	"journaling":      {ID: "journaling", Kind: HabitKindBuild, Name: "Journal", Icon: "pen", Category: "mind"},
	"sleep-early":     {ID: "sleep-early", Kind: HabitKindBuild, Name: "Sleep before 11pm", Icon: "moon", Category: "body"},
	"no-smoking":      {ID: "no-smoking", Kind: HabitKindBreak, Name: "Quit smoking", Icon: "no-smoking", Category: "health"},
	"no-junk-food":    {ID: "no-junk-food", Kind: HabitKindBreak, Name: "No junk food", Icon: "burger", Category: "health"},
	"no-social-media": {ID: "no-social-media", Kind: HabitKindBreak, Name: "Less social media", Icon: "phone", Category: "focus"},
	"no-alcohol":      {ID: "no-alcohol", Kind: HabitKindBreak, Name: "No alcohol", Icon: "glass", Category: "health"},
}

func LookupCatalog(id string) (CatalogEntry, bool) {
	entry, ok := catalog[id]
	return entry, ok
}

func Catalog() []CatalogEntry {
	out := make([]CatalogEntry, 0, len(catalog))
	for _, entry := range catalog {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind == HabitKindBuild
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Metadata returns the catalog defaults overlaid with the caller's values.
func (c CatalogEntry) Metadata(overrides map[string]string) map[string]string {
	m := map[string]string{
		"name":     c.Name,
		"icon":     c.Icon,
		"category": c.Category,
	}
	for k, v := range overrides {
		m[k] = v
	}
	return m
}
