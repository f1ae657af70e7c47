// Package fallback decides when a grounded answer signals insufficient
// knowledge. The policy is a case-insensitive substring match against a
// configurable marker set, not a semantic judgment: an answer that merely
// discusses not-knowing as a topic will misfire. Keeping the marker set
// external lets operators tune it without code changes.
package fallback

import "strings"

func DefaultMarkers() []string {
	return []string{"I'm sorry", "I don't know"}
}

type Decider struct {
	markers []string
}

func NewDecider(markers []string) *Decider {
	cleaned := make([]string, 0, len(markers))
	for _, m := range markers {
		m = strings.TrimSpace(m)
		if m != "" {
			cleaned = append(cleaned, strings.ToLower(m))
		}
	}
	if len(cleaned) == 0 {
		for _, m := range DefaultMarkers() {
			cleaned = append(cleaned, strings.ToLower(m))
		}
	}
	return &Decider{markers: cleaned}
}

func (d *Decider) NeedsFallback(answer string) bool {
	lowered := strings.ToLower(answer)
	for _, marker := range d.markers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

func (d *Decider) Markers() []string {
	out := make([]string, len(d.markers))
	copy(out, d.markers)
	return out
}
