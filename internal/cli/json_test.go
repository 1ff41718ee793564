package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sshsshje/sshsshje/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSONSuccess(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSONSuccess(&buf, map[string]int{"count": 3}))

	var env struct {
		Success bool           `json:"success"`
		Data    map[string]int `json:"data"`
		Error   *JSONError     `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))
	assert.True(t, env.Success)
	assert.Equal(t, 3, env.Data["count"])
	assert.Nil(t, env.Error)
	assert.Contains(t, buf.String(), "\n  \"success\"")
}

func TestErrorToJSON(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, ErrorToJSON(nil))
	})

	t.Run("structured", func(t *testing.T) {
		err := errors.WrapWithCode(fmt.Errorf("connection refused"), errors.ErrSSH,
			"Cannot reach host", "Check SSH_HOST")

		out := ErrorToJSON(err)
		assert.Equal(t, errors.ErrSSH, out.Code)
		assert.Equal(t, "Cannot reach host", out.Message)
		assert.Equal(t, "Check SSH_HOST", out.Suggestion)
		assert.Equal(t, "connection refused", out.Details)
	})

	t.Run("plain", func(t *testing.T) {
		out := ErrorToJSON(fmt.Errorf("boom"))
		assert.Equal(t, ErrCodeUnknown, out.Code)
		assert.Equal(t, "boom", out.Message)
	})
}

func TestWriteJSONFromError(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSONFromError(&buf, errors.New(errors.ErrInput, "Bad name", "")))

	var env JSONEnvelope
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, errors.ErrInput, env.Error.Code)
}
