package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "", want: slog.LevelInfo},
		{in: "debug", want: slog.LevelDebug},
		{in: "WARN", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "info", "json")
	require.NoError(t, err)

	WithResource(logger, "/api/v1/pods").Info("loaded",
		Namespace(""),
		Namespaces(false, []string{"a", "b"}),
		Err(errors.New("boom")))

	out := buf.String()
	assert.Contains(t, out, `"resource":"/api/v1/pods"`)
	assert.Contains(t, out, `"namespace":"<all>"`)
	assert.Contains(t, out, `"namespaces":"a,b"`)
	assert.Contains(t, out, `"error":"boom"`)

	_, err = New(&buf, "info", "xml")
	assert.Error(t, err)
}

func TestErr_Nil(t *testing.T) {
	assert.Equal(t, "", Err(nil).Value.String())
}
