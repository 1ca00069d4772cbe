package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type LoggerService struct {
	Config        map[string]interface{}
	mu            sync.Mutex
	sink          *lumberjack.Logger
	zl            *zap.Logger
	restore       func()
	folderPath    string
	maxFileMB     int
	retentionDays int
	level         zapcore.Level
	console       bool
}

func NewLoggerService(config map[string]interface{}) *LoggerService {
	folder, _ := config["folder_path"].(string)
	if folder == "" {
		folder = "./logs"
	}
	level := zapcore.InfoLevel
	if s, ok := config["level"].(string); ok && s != "" {
		if err := level.UnmarshalText([]byte(s)); err != nil {
			log.Printf("[LoggerService] unknown level %q, using info", s)
			level = zapcore.InfoLevel
		}
	}
	console, _ := config["console"].(bool)
	return &LoggerService{
		Config:        config,
		folderPath:    folder,
		maxFileMB:     intValue(config["max_file_mb"]),
		retentionDays: intValue(config["retention_days"]),
		level:         level,
		console:       console,
	}
}

// yaml.v3 decodes numbers as int, JSON-ish configs as float64.
func intValue(v interface{}) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	}
	return 0
}

func (l *LoggerService) Name() string {
	return "logger"
}

// Start opens the rotating log file and installs the service as the global
// zap logger and the output of the standard log package.
func (l *LoggerService) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.folderPath, 0755); err != nil {
		return err
	}
	l.sink = &lumberjack.Logger{
		Filename:  filepath.Join(l.folderPath, "app.log"),
		MaxSize:   l.maxFileMB,
		MaxAge:    l.retentionDays,
		Compress:  true,
		LocalTime: true,
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var ws zapcore.WriteSyncer = zapcore.AddSync(l.sink)
	if l.console {
		ws = zapcore.NewMultiWriteSyncer(ws, zapcore.Lock(os.Stdout))
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), ws, l.level)
	l.zl = zap.New(core, zap.AddCaller())
	l.restore = zap.ReplaceGlobals(l.zl)
	log.SetOutput(l.sink)

	l.zl.Info("logger started",
		zap.String("file", l.sink.Filename),
		zap.Int("max_file_mb", l.maxFileMB),
		zap.Int("retention_days", l.retentionDays))
	return nil
}

func (l *LoggerService) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.zl == nil {
		return nil
	}
	l.zl.Info("logger stopping")
	_ = l.zl.Sync()
	l.restore()
	log.SetOutput(os.Stderr)
	err := l.sink.Close()
	l.zl = nil
	return err
}

// Logger returns the service's zap logger, or the global one before Start.
func (l *LoggerService) Logger() *zap.Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.zl == nil {
		return zap.L()
	}
	return l.zl
}

// LogAudit writes an audit record for an operator action.
func (l *LoggerService) LogAudit(msg string, fields ...zap.Field) {
	l.Logger().Info(msg, append(fields, zap.Bool("audit", true))...)
}

var GlobalLogger *LoggerService

func SetGlobalLogger(l *LoggerService) {
	GlobalLogger = l
}

// Audit logs through GlobalLogger when one is registered.
func Audit(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if GlobalLogger != nil {
		GlobalLogger.LogAudit(msg)
		return
	}
	log.Println("[AUDIT]", msg)
}
