package core

import "time"

// CallType identifies which facade entry point produced a call.
type CallType string

const (
	// CallTrack is a named custom event with optional properties.
	CallTrack CallType = "track"
	// CallPageview is a page/screen view.
	CallPageview CallType = "pageview"
	// CallIdentify associates (or clears) a user identity.
	CallIdentify CallType = "identify"
)

// ConsentCategory tags a call for consent gating. Essential calls may be
// exempt from a denied consent state, depending on configuration.
type ConsentCategory string

const (
	CategoryAnalytics ConsentCategory = "analytics"
	CategoryEssential ConsentCategory = "essential"
)

// Props carries custom event properties. Values should be JSON-encodable.
type Props map[string]any

// PageContext describes the page or screen a call was recorded on.
// All fields are optional; adapters use what their payload supports.
type PageContext struct {
	URL      string `json:"url,omitempty"`
	Path     string `json:"path,omitempty"`
	Title    string `json:"title,omitempty"`
	Referrer string `json:"referrer,omitempty"`
	Hostname string `json:"hostname,omitempty"`
	Language string `json:"language,omitempty"`
}

// Call is one recorded facade invocation, tagged by type. The populated
// fields depend on Type: Name/Props for track, UserID for identify.
// Dispatch is an exhaustive switch on Type; there is no reflective replay.
//
// A Call is never mutated after it is enqueued, so replay is faithful to
// the original invocation.
type Call struct {
	ID        string          `json:"id"`
	Type      CallType        `json:"type"`
	Name      string          `json:"name,omitempty"`
	Props     Props           `json:"props,omitempty"`
	UserID    string          `json:"userId,omitempty"`
	Category  ConsentCategory `json:"category,omitempty"`
	Page      *PageContext    `json:"pageContext,omitempty"`
	Timestamp int64           `json:"timestamp"` // epoch milliseconds
}

// category returns the effective consent category used for gating.
// Identify is the designated essential call; everything else defaults to
// analytics unless explicitly tagged.
func (c Call) category() ConsentCategory {
	if c.Category != "" {
		return c.Category
	}
	if c.Type == CallIdentify {
		return CategoryEssential
	}
	return CategoryAnalytics
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
