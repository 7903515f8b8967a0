package buildinfo_test

import (
	"testing"

	"github.com/beehive-swarm/beehive/internal/buildinfo"
)

func TestVersionIsSet(t *testing.T) {
	t.Parallel()

	v := buildinfo.String()
	if v == "" {
		t.Fatal("buildinfo.String() must not be empty")
	}
}
