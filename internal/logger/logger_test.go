package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerServiceConfig(t *testing.T) {
	l := NewLoggerService(map[string]interface{}{
		"max_file_mb":    float64(5),
		"retention_days": 3,
		"level":          "debug",
	})
	assert.Equal(t, "./logs", l.folderPath)
	assert.Equal(t, 5, l.maxFileMB)
	assert.Equal(t, 3, l.retentionDays)
	assert.Equal(t, zapcore.DebugLevel, l.level)

	l = NewLoggerService(map[string]interface{}{"level": "loud"})
	assert.Equal(t, zapcore.InfoLevel, l.level)
}

func TestStartWritesJSONAndInstallsGlobal(t *testing.T) {
	dir := t.TempDir()
	l := NewLoggerService(map[string]interface{}{"folder_path": dir})
	require.NoError(t, l.Start())
	SetGlobalLogger(l)
	t.Cleanup(func() { SetGlobalLogger(nil) })

	zap.L().Info("hello", zap.String("mall", "coupang"))
	Audit("template %s saved", "coupang")
	require.NoError(t, l.Stop())

	data, err := os.ReadFile(filepath.Join(dir, "app.log"))
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `"msg":"hello"`)
	assert.Contains(t, out, `"mall":"coupang"`)
	assert.Contains(t, out, `"audit":true`)
	assert.True(t, strings.Contains(out, "template coupang saved"))
}

func TestStopBeforeStart(t *testing.T) {
	l := NewLoggerService(map[string]interface{}{})
	assert.NoError(t, l.Stop())
	assert.NotNil(t, l.Logger())
}
