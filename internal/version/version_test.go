package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrent(t *testing.T) {
	t.Setenv("APP_VERSION", "")
	assert.Equal(t, Version, Current())
	t.Setenv("APP_VERSION", "1.2.3")
	assert.Equal(t, "1.2.3", Current())
	assert.Equal(t, "youtrack-mcp version 1.2.3", Full())
	assert.Equal(t, "youtrack-mcp/1.2.3", UserAgent())
}
