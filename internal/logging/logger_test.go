package logging

import (
	"bytes"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLogging(t *testing.T) {
	logger := newLogger("testmodule", zapcore.InfoLevel, nil)
	var buffer bytes.Buffer
	logger.SetOut(&buffer)

	assert.False(t, logger.IsDebugEnabled())

	logger.Debugf("debug message %s", "hello")
	assert.Empty(t, buffer.Bytes())

	logger.Infof("info message %s", "hello")
	assert.NotEmpty(t, buffer.Bytes())
	buffer.Reset()
	logger.Warnw("warning message", "k", "v")
	assert.NotEmpty(t, buffer.Bytes())
	buffer.Reset()
	logger.Errorf("error message %s", "hello")
	assert.NotEmpty(t, buffer.Bytes())
}

func TestLoggingFields(t *testing.T) {
	t.Setenv(FormatterEnv, "")

	var buffer bytes.Buffer
	logger := newLogger("routeauthz.test", zapcore.DebugLevel, &buffer)
	logger.With("pass", "abc").Infow("constraint", "method", "GET")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buffer.Bytes(), &entry))
	assert.Equal(t, "routeauthz.test", entry["module"])
	assert.Equal(t, "abc", entry["pass"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "constraint", entry["msg"])
}

func TestChildSharesLevel(t *testing.T) {
	var buffer bytes.Buffer
	logger := newLogger("routeauthz.test", zapcore.InfoLevel, &buffer)
	child := logger.With("pass", "abc")

	child.Debugf("hidden")
	assert.Empty(t, buffer.Bytes())

	logger.SetLevel(zapcore.DebugLevel)
	child.Debugf("shown")
	assert.NotEmpty(t, buffer.Bytes())
}

func TestUpdateLogLevels(t *testing.T) {
	resetForTesting()
	defer resetForTesting()

	a := GetLogger("routeauthz.a")
	b := GetLogger("routeauthz.b")

	UpdateLogLevels("routeauthz.a : debug ; .:error")
	assert.Equal(t, zapcore.DebugLevel, a.Level())
	assert.Equal(t, zapcore.ErrorLevel, b.Level())

	c := GetLogger("routeauthz.c")
	assert.Equal(t, zapcore.ErrorLevel, c.Level())

	UpdateLogLevels(".:info")
	assert.Equal(t, zapcore.DebugLevel, a.Level())
	assert.Equal(t, zapcore.InfoLevel, b.Level())
}

func TestGetLoggerReturnsSameInstance(t *testing.T) {
	resetForTesting()
	defer resetForTesting()

	assert.Same(t, GetLogger("x"), GetLogger("x"))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("WARNING"))
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("trace"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("bogus"))
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}

func TestSetOutWhileLogging(t *testing.T) {
	resetForTesting()
	defer resetForTesting()

	first, second := &lockedBuffer{}, &lockedBuffer{}
	SetOutput(first)
	logger := GetLogger("routeauthz.concurrent")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				logger.Infow("entry", "n", j)
				_ = logger.With("worker", j).Sync()
			}
		}()
	}
	for i := 0; i < 50; i++ {
		if i%2 == 0 {
			SetOutput(second)
		} else {
			SetOutput(first)
		}
	}
	wg.Wait()

	SetOutput(second)
	before := second.Len()
	logger.Infof("after")
	assert.Greater(t, second.Len(), before)
	assert.NotZero(t, first.Len()+second.Len())
}
