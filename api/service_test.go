package api

import (
	"testing"

	"github.com/tonyzorin/youtrack-mcp/internal/trackertest"
)

func newFixture(t *testing.T) (*trackertest.Tracker, *Service) {
	t.Helper()
	fixture := trackertest.New(t)
	return fixture, New(fixture.Client(t))
}
