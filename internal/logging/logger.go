package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const logFile = "storecheck.log"

// NewLogger writes JSON logs to a rotating file under logDir. Stdout stays
// reserved for the human-readable probe output.
func NewLogger(logDir string) (*zap.Logger, error) {
	return newLogger(logDir, zap.InfoLevel)
}

// NewDebugLogger is NewLogger with per-step debug events enabled.
func NewDebugLogger(logDir string) (*zap.Logger, error) {
	return newLogger(logDir, zap.DebugLevel)
}

func newLogger(logDir string, level zapcore.Level) (*zap.Logger, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}
	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(logDir, logFile),
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	})
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(cfg), w, level)
	return zap.New(core).With(zap.String("service", "storecheck")), nil
}
