package wizard

import (
	"net/url"

	"runwizard/src/model"
)

// DefaultTokenField is the anti-forgery field rendered into every form.
const DefaultTokenField = "csrfmiddlewaretoken"

// Snapshot builds the snapshot of a submitted form. The token field is
// dropped, and for multi-valued controls only the first value counts.
func Snapshot(values url.Values, tokenField string) model.FormSnapshot {
	snap := make(model.FormSnapshot, len(values))
	for name, vs := range values {
		if name == tokenField {
			continue
		}
		if len(vs) == 0 {
			snap[name] = ""
			continue
		}
		snap[name] = vs[0]
	}
	return snap
}

// Drifted reports whether live diverges from stored. Only the fields recorded
// in stored are compared: a stored field missing from live is drift, a field
// that exists only in live is not.
func Drifted(stored, live model.FormSnapshot) bool {
	for name, want := range stored {
		got, ok := live[name]
		if !ok || got != want {
			return true
		}
	}
	return false
}

// DriftedFields lists the stored fields that no longer match live, sorted.
func DriftedFields(stored, live model.FormSnapshot) []string {
	var out []string
	for _, name := range stored.Keys() {
		if got, ok := live[name]; !ok || got != stored[name] {
			out = append(out, name)
		}
	}
	return out
}
