package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type redacted string

func (redacted) String() string { return "[REDACTED]" }

func TestTestLogger(t *testing.T) {
	tl := NewTestLogger()
	ctx := context.Background()

	tl.Info(ctx, "pin recovered", zap.String("strategy", "keyword"), zap.Stringer("pin", redacted("4321")))
	tl.Debug(ctx, "window scanned", zap.Int("window", 2))

	tl.AssertLogged(t, zapcore.InfoLevel, "pin recovered")
	tl.AssertNotLogged(t, zapcore.ErrorLevel, "pin recovered")
	tl.AssertField(t, "pin recovered", "strategy", "keyword")
	tl.AssertField(t, "window scanned", "window", int64(2))
	tl.AssertNoValue(t, "4321")

	assert.Len(t, tl.All(), 2)
	assert.Equal(t, 1, tl.FilterMessage("window").Len())
	assert.Equal(t, 1, tl.FilterMessage("window scanned").Len())
	assert.Equal(t, 0, tl.FilterMessage("chunk").Len())

	tl.Reset()
	assert.Empty(t, tl.All())
}
