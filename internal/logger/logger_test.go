package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAnonymize(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)

	in := "mail bob@example.com token eyJhbGciOiJIUzI1NiJ9.eyJpZCI6IjEifQ.sig hash " + string(hash) + " user_id=42"
	out := Anonymize(in)

	assert.NotContains(t, out, "bob@example.com")
	assert.NotContains(t, out, "eyJhbGci")
	assert.NotContains(t, out, string(hash))
	assert.Contains(t, out, "[REDACTED_EMAIL]")
	assert.Contains(t, out, "[REDACTED_TOKEN]")
	assert.Contains(t, out, "[REDACTED_HASH]")
	assert.Contains(t, out, "user_id=[USER_ID]")
}

func TestLogger_WritesJSONEntry(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, DebugLevel)

	l.Error("store", "insert failed", errors.New("timeout"))

	var entry LogEntry
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, ErrorLevel, entry.Level)
	assert.Equal(t, "store", entry.Module)
	assert.Equal(t, "insert failed", entry.Message)
	assert.Equal(t, "timeout", entry.Error)
	assert.NotEmpty(t, entry.Time)
}

func TestLogger_MinLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, WarnLevel)

	l.Debug("m", "debug")
	l.Info("m", "info")
	l.Warn("m", "warn", nil)
	l.Error("m", "error", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel("debug"))
	assert.Equal(t, WarnLevel, ParseLevel(" WARN "))
	assert.Equal(t, InfoLevel, ParseLevel("verbose"))
	assert.Equal(t, InfoLevel, ParseLevel(""))
}
