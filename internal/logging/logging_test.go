package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextEntryCarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	l := New("debug", "json", &buf)
	ctx := IntoContext(context.Background(), l.WithField("request_id", "req-1"))

	assert.Equal(t, "req-1", RequestID(ctx))
	FromContext(ctx).Info("hello")
	require.Contains(t, buf.String(), `"request_id":"req-1"`)
	require.Contains(t, buf.String(), `"msg":"hello"`)
}

func TestFromContextFallsBack(t *testing.T) {
	e := FromContext(context.Background())
	require.NotNil(t, e)
	assert.Equal(t, "", RequestID(context.Background()))
}

func TestNewParsesLevel(t *testing.T) {
	assert.Equal(t, logrus.WarnLevel, New("warn", "text", nil).GetLevel())
	assert.Equal(t, logrus.InfoLevel, New("nonsense", "text", nil).GetLevel())
	assert.NotEmpty(t, NewRequestID())
}
