package config

import (
	"github.com/beehive-swarm/beehive/internal/beename"
	"github.com/beehive-swarm/beehive/internal/pane"
)

// PaneTable builds a pane.Table from the config's pane_mapping.
func (c *Config) PaneTable() (*pane.Table, error) {
	mapping := make(map[beename.Name]pane.ID, len(c.PaneMapping))
	for bee, id := range c.PaneMapping {
		mapping[beename.Name(bee)] = pane.ID(id)
	}
	return pane.New(mapping)
}
