// Package beename defines the closed set of bee identities shared by every
// layer of the orchestrator: the supervisory Queen, the worker bees, the
// synthetic system/beekeeper senders, and the broadcast target "all".
package beename

import "fmt"

// Name identifies a bee, a synthetic sender, or the broadcast target.
type Name string

// The closed set of bee and sender identities. This set is immutable for the
// life of a process; it is not configuration.
const (
	Queen     Name = "queen"
	Developer Name = "developer"
	QA        Name = "qa"
	Analyst   Name = "analyst"

	System    Name = "system"
	Beekeeper Name = "beekeeper"

	All Name = "all"
)

// Workers lists the worker-role bees, in the order they should be addressed
// when expanding a broadcast.
var Workers = []Name{Developer, QA, Analyst}

// Bees lists every real bee (Queen plus workers), excluding the synthetic
// senders and the broadcast target.
var Bees = append([]Name{Queen}, Workers...)

// Senders lists the synthetic, non-bee senders permitted on a message.
var Senders = []Name{System, Beekeeper}

// InvalidNameError reports a name outside the closed set, or a use of a
// name in a position where it is not permitted (e.g. "all" as an assignee).
type InvalidNameError struct {
	Name Name
	Why  string
}

func (e *InvalidNameError) Error() string {
	if e.Why != "" {
		return fmt.Sprintf("invalid bee name %q: %s", e.Name, e.Why)
	}
	return fmt.Sprintf("invalid bee name %q", e.Name)
}

// IsBee reports whether n is one of the real, addressable bees (not a
// synthetic sender and not the broadcast target).
func IsBee(n Name) bool {
	for _, b := range Bees {
		if b == n {
			return true
		}
	}
	return false
}

// IsSender reports whether n may appear as a message's from_bee: any real
// bee, or one of the synthetic senders (system, beekeeper).
func IsSender(n Name) bool {
	if IsBee(n) {
		return true
	}
	for _, s := range Senders {
		if s == n {
			return true
		}
	}
	return false
}

// IsRecipient reports whether n may appear as a message's to_bee: any real
// bee, or the broadcast target "all".
func IsRecipient(n Name) bool {
	return IsBee(n) || n == All
}

// Validate checks that n is a known sender identity or the broadcast name
// "all". It returns *InvalidNameError when n is outside the closed set.
func Validate(n Name) error {
	if !IsSender(n) && n != All {
		return &InvalidNameError{Name: n}
	}
	return nil
}

// ValidateAssignee checks that n is a bee eligible to be a task's assignee:
// a real bee, never "all", "system", or "beekeeper".
func ValidateAssignee(n Name) error {
	if !IsBee(n) {
		return &InvalidNameError{Name: n, Why: "assignee must be a real bee, not a synthetic sender or broadcast target"}
	}
	return nil
}

// Expand returns the concrete bees a recipient expands to: every real bee
// except from when to is All, or [to] unchanged otherwise.
func Expand(to Name, from Name) []Name {
	if to != All {
		return []Name{to}
	}
	out := make([]Name, 0, len(Bees))
	for _, b := range Bees {
		if b != from {
			out = append(out, b)
		}
	}
	return out
}
