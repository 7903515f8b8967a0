// Package pane implements Pane Addressing (component A): a process-wide
// immutable bee -> multiplexer-pane table loaded once at startup from
// configuration. No other component stores a raw pane string; every lookup
// goes through a Table.
package pane

import (
	"fmt"

	"github.com/beehive-swarm/beehive/internal/beename"
)

// ID is an opaque multiplexer pane identifier, e.g. "beehive:queen".
type ID string

// NotFoundError reports that a bee has no bound pane in the table.
type NotFoundError struct {
	Bee beename.Name
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no pane bound to bee %q", e.Bee)
}

// Table is the immutable bee -> pane binding, configuration rather than
// state. Construct with New; Table is safe for concurrent read access by
// every other component.
type Table struct {
	byBee map[beename.Name]ID
}

// New builds a Table from a bee->pane mapping, validating that every key is
// a real, addressable bee and that no pane is bound twice.
func New(mapping map[beename.Name]ID) (*Table, error) {
	byPane := make(map[ID]beename.Name, len(mapping))
	byBee := make(map[beename.Name]ID, len(mapping))

	for bee, id := range mapping {
		if !beename.IsBee(bee) {
			return nil, &beename.InvalidNameError{Name: bee, Why: "pane mapping keys must be real bees"}
		}
		if id == "" {
			return nil, fmt.Errorf("pane mapping for bee %q is empty", bee)
		}
		if owner, dup := byPane[id]; dup {
			return nil, fmt.Errorf("pane %q bound to both %q and %q", id, owner, bee)
		}
		byPane[id] = bee
		byBee[bee] = id
	}

	return &Table{byBee: byBee}, nil
}

// Resolve returns the pane bound to bee, or *NotFoundError. "all" expands to
// every bee's pane via ResolveAll; Resolve rejects "all" directly since a
// single pane is requested.
func (t *Table) Resolve(bee beename.Name) (ID, error) {
	if bee == beename.All {
		return "", fmt.Errorf("resolve %q: use ResolveAll for the broadcast target", bee)
	}
	id, ok := t.byBee[bee]
	if !ok {
		return "", &NotFoundError{Bee: bee}
	}
	return id, nil
}

// ResolveAll expands the broadcast target to every bound pane, in a stable
// order following beename.Bees.
func (t *Table) ResolveAll() []ID {
	out := make([]ID, 0, len(t.byBee))
	for _, bee := range beename.Bees {
		if id, ok := t.byBee[bee]; ok {
			out = append(out, id)
		}
	}
	return out
}

// Validate reports whether bee is a member of the closed BeeName set. It
// does not require bee to have a bound pane.
func Validate(bee beename.Name) error {
	if !beename.IsBee(bee) && bee != beename.All {
		return &beename.InvalidNameError{Name: bee}
	}
	return nil
}
