package logging

import (
	"context"
	"testing"
	"time"

	"github.com/fyrsmithlabs/pinrecover/internal/config"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewSampledCore_Disabled(t *testing.T) {
	core, _ := observer.New(zapcore.InfoLevel)
	assert.Equal(t, core, newSampledCore(core, SamplingConfig{}))
}

func TestNewSampledCore_ErrorsNeverSampled(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	sampled := newSampledCore(core, SamplingConfig{
		Enabled:    true,
		Tick:       config.Duration(time.Minute),
		Initial:    1,
		Thereafter: 0,
	})
	logger := &Logger{zap: zap.New(sampled), config: NewDefaultConfig()}

	for i := 0; i < 50; i++ {
		logger.Error(context.Background(), "read failed")
	}
	assert.Equal(t, 50, observed.FilterMessage("read failed").Len())
}

func TestNewSampledCore_InfoSampled(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	sampled := newSampledCore(core, SamplingConfig{
		Enabled:    true,
		Tick:       config.Duration(time.Minute),
		Initial:    5,
		Thereafter: 0,
	})
	logger := &Logger{zap: zap.New(sampled), config: NewDefaultConfig()}

	for i := 0; i < 50; i++ {
		logger.Info(context.Background(), "window scanned")
	}
	assert.Equal(t, 5, observed.FilterMessage("window scanned").Len())
}

func TestLevelFilterCore(t *testing.T) {
	core, _ := observer.New(TraceLevel)

	errorsOnly := &levelFilterCore{Core: core, minLevel: zapcore.ErrorLevel}
	assert.False(t, errorsOnly.Enabled(zapcore.WarnLevel))
	assert.True(t, errorsOnly.Enabled(zapcore.ErrorLevel))

	belowError := &levelFilterCore{Core: core, maxLevel: zapcore.WarnLevel}
	assert.True(t, belowError.Enabled(TraceLevel))
	assert.False(t, belowError.Enabled(zapcore.ErrorLevel))

	child, ok := belowError.With(nil).(*levelFilterCore)
	assert.True(t, ok)
	assert.Equal(t, zapcore.WarnLevel, child.maxLevel)
}
