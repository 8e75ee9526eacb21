package logger

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsolatedLogger_WritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.log")
	l := NewIsolatedLogger(path)

	l.Info("ChatService", "turn completed", map[string]interface{}{"session_id": "abc"})
	l.Error("ChatService", "persist failed", map[string]interface{}{"error": errors.New("db down")})
	l.Debug("ChatService", "below file level", nil)
	require.NoError(t, l.Sync())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]interface{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		lines = append(lines, entry)
	}

	require.Len(t, lines, 2)
	assert.Equal(t, "INFO", lines[0]["level"])
	assert.Equal(t, "ChatService", lines[0]["module"])
	assert.Equal(t, "turn completed", lines[0]["message"])
	assert.Equal(t, "ERROR", lines[1]["level"])
	assert.Equal(t, "db down", lines[1]["error"])
}

func TestNopLogger_AcceptsNilDetails(t *testing.T) {
	l := NewNopLogger()
	l.Warn("Test", "nothing", nil)
	assert.NoError(t, l.Sync())
}
