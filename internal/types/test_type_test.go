package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTestType(t *testing.T) {
	for _, valid := range []string{"api", "uptime", "browser"} {
		parsed, err := ParseTestType(valid)
		require.NoError(t, err)
		assert.Equal(t, TestType(valid), parsed)
	}

	for _, invalid := range []string{"", "database", "API", "ping"} {
		_, err := ParseTestType(invalid)
		assert.Error(t, err, "type %q", invalid)
	}
}
