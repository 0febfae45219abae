package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLookupsFallBack(t *testing.T) {
	t.Setenv("PF_INT", "not-a-number")
	t.Setenv("PF_BOOL", "true")
	t.Setenv("PF_DUR", "90m")

	assert.Equal(t, 7, GetInt("PF_INT", 7))
	assert.True(t, GetBool("PF_BOOL", false))
	assert.Equal(t, 90*time.Minute, GetDuration("PF_DUR", time.Hour))
	assert.Equal(t, "x", GetString("PF_MISSING", "x"))
}
