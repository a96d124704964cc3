package rendering

import (
	"sort"
	"strings"
)

// ctaThreshold is the number of distinct expansions a reader opens before the chat CTA shows
const ctaThreshold = 2

// ExpansionState is the "read more" view state: at most one expansion is open at a time, and
// every expansion ever opened is remembered to gate the chat call-to-action.
type ExpansionState struct {
	OpenID string
	Opened map[string]bool
}

// Toggle opens id, closing whichever expansion was open. Toggling the open expansion closes it.
// The receiver is not modified.
func (s ExpansionState) Toggle(id string) ExpansionState {
	opened := make(map[string]bool, len(s.Opened)+1)
	for k, v := range s.Opened {
		opened[k] = v
	}
	if id == "" || id == s.OpenID {
		return ExpansionState{Opened: opened}
	}
	opened[id] = true
	return ExpansionState{OpenID: id, Opened: opened}
}

// IsOpen reports whether id is the open expansion
func (s ExpansionState) IsOpen(id string) bool {
	return id != "" && s.OpenID == id
}

// ShowCTA reports whether enough distinct expansions were opened to offer the chat
func (s ExpansionState) ShowCTA() bool {
	return len(s.Opened) >= ctaThreshold
}

// ParseExpansionState rebuilds the state from the page query: open names the expansion to show
// and seen is a comma-separated list of expansions opened earlier.
func ParseExpansionState(open, seen string) ExpansionState {
	var s ExpansionState
	for _, id := range strings.Split(seen, ",") {
		if id = strings.TrimSpace(id); id != "" {
			s = s.Toggle(id)
		}
	}
	s.OpenID = ""
	return s.Toggle(strings.TrimSpace(open))
}

// Seen returns the opened ids as the comma-separated form ParseExpansionState accepts
func (s ExpansionState) Seen() string {
	ids := make([]string, 0, len(s.Opened))
	for id := range s.Opened {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return strings.Join(ids, ",")
}
