package screenshot

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNilSaverIsDisabled(t *testing.T) {
	s, err := NewSession("", zap.NewNop())
	require.NoError(t, err)
	require.Nil(t, s)

	assert.Empty(t, s.Dir())
	assert.NoError(t, s.Save("aGVsbG8="))
}

func TestSaveWritesNumberedFrames(t *testing.T) {
	base := t.TempDir()
	s, err := NewSession(base, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, s)

	payload := base64.StdEncoding.EncodeToString([]byte("fake png bytes"))
	require.NoError(t, s.Save(payload))
	require.NoError(t, s.Save(payload))

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Contains(t, entries[0].Name(), "step_001")
	assert.Contains(t, entries[1].Name(), "step_002")

	data, err := os.ReadFile(filepath.Join(s.Dir(), entries[0].Name()))
	require.NoError(t, err)
	assert.Equal(t, "fake png bytes", string(data))
}

func TestSaveRejectsBadBase64(t *testing.T) {
	s, err := NewSession(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	assert.Error(t, s.Save("not base64!!!"))
}
