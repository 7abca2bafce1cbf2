package whitelist

import (
	"time"

	"github.com/samber/lo"
)

// AddResult is the outcome of a successful Gate.Add.
type AddResult int

const (
	// Added means the identity was not present and has been persisted.
	Added AddResult = iota + 1
	// AlreadyPresent means the identity was present and nothing was written.
	AlreadyPresent
)

// String ...
func (r AddResult) String() string {
	switch r {
	case Added:
		return "added"
	case AlreadyPresent:
		return "already-present"
	}
	return "unknown"
}

// RemoveResult is the outcome of a successful Gate.Remove.
type RemoveResult int

const (
	// Removed means the identity was present and has been deleted.
	Removed RemoveResult = iota + 1
	// NotPresent means the identity was absent and nothing was written.
	NotPresent
)

// String ...
func (r RemoveResult) String() string {
	switch r {
	case Removed:
		return "removed"
	case NotPresent:
		return "not-present"
	}
	return "unknown"
}

// Verdict is what a sweep decided for a single session.
type Verdict string

const (
	VerdictAdmin        Verdict = "admin"
	VerdictAllowed      Verdict = "allowed"
	VerdictDisconnected Verdict = "disconnected"
	VerdictGone         Verdict = "gone"
	VerdictError        Verdict = "error"
)

// Entry is the sweep result for one session.
type Entry struct {
	ID           Identity `json:"xuid"`
	Name         string   `json:"name"`
	Disconnected bool     `json:"disconnected"`
	Verdict      Verdict  `json:"verdict"`
	Error        string   `json:"error,omitempty"`
}

// Report is the result of a sweep. A sweep over a disabled gate returns a
// report without entries.
type Report struct {
	Entries  []Entry   `json:"entries"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
}

// Disconnected returns the number of sessions the sweep disconnected.
func (r Report) Disconnected() int {
	return lo.CountBy(r.Entries, func(e Entry) bool {
		return e.Disconnected
	})
}

// Failed returns the entries that could not be evaluated and were left connected.
func (r Report) Failed() []Entry {
	return lo.Filter(r.Entries, func(e Entry, _ int) bool {
		return e.Verdict == VerdictError
	})
}

// Entry returns the entry of the given identity, if it was evaluated.
func (r Report) Entry(id Identity) (Entry, bool) {
	return lo.Find(r.Entries, func(e Entry) bool {
		return e.ID == id
	})
}
