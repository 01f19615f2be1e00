package logging

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger with additional functionality
type Logger struct {
	*zap.Logger
	serviceName string
}

// Config represents logger configuration
type Config struct {
	Level       string `json:"level" yaml:"level" mapstructure:"level"`
	Format      string `json:"format" yaml:"format" mapstructure:"format"`
	Output      string `json:"output" yaml:"output" mapstructure:"output"`
	ServiceName string `json:"service_name" yaml:"service_name" mapstructure:"service_name"`
	Development bool   `json:"development" yaml:"development" mapstructure:"development"`
}

// Field represents a log field
type Field = zapcore.Field

// NewLogger creates a new logger instance
func NewLogger(config Config) (*Logger, error) {
	level, err := zapcore.ParseLevel(config.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	var zapConfig zap.Config

	if config.Development {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapConfig = zap.NewProductionConfig()
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	zapConfig.Level = zap.NewAtomicLevelAt(level)

	// Configure output format
	switch strings.ToLower(config.Format) {
	case "console":
		zapConfig.Encoding = "console"
	default:
		zapConfig.Encoding = "json"
	}

	// Progress logs go to stderr so stdout stays free for listings
	switch strings.ToLower(config.Output) {
	case "stdout":
		zapConfig.OutputPaths = []string{"stdout"}
	case "stderr", "":
		zapConfig.OutputPaths = []string{"stderr"}
	default:
		zapConfig.OutputPaths = []string{config.Output}
	}

	zapConfig.InitialFields = map[string]interface{}{
		"service": config.ServiceName,
	}

	zapLogger, err := zapConfig.Build(
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return &Logger{
		Logger:      zapLogger,
		serviceName: config.ServiceName,
	}, nil
}

// NewNopLogger returns a logger that discards everything
func NewNopLogger() *Logger {
	return Wrap(zap.NewNop(), "")
}

// Wrap adopts an existing zap logger, e.g. one from zaptest
func Wrap(l *zap.Logger, serviceName string) *Logger {
	return &Logger{
		Logger:      l,
		serviceName: serviceName,
	}
}

// ServiceName returns the service the logger was built for
func (l *Logger) ServiceName() string {
	return l.serviceName
}

// WithComponent adds component information to logger
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger:      l.Logger.With(zap.String("component", component)),
		serviceName: l.serviceName,
	}
}

// WithExercise scopes the logger to one exercise
func (l *Logger) WithExercise(exerciseID string) *Logger {
	return &Logger{
		Logger:      l.Logger.With(zap.String("exercise", exerciseID)),
		serviceName: l.serviceName,
	}
}

// WithError adds error information to logger
func (l *Logger) WithError(err error) *Logger {
	return &Logger{
		Logger:      l.Logger.With(zap.Error(err)),
		serviceName: l.serviceName,
	}
}

// LogPerformance logs how long an operation took
func (l *Logger) LogPerformance(operation string, duration time.Duration, fields ...Field) {
	allFields := append([]Field{
		zap.String("event_type", "performance"),
		zap.String("operation", operation),
		zap.Duration("duration", duration),
		zap.Float64("duration_ms", float64(duration.Nanoseconds())/1000000),
	}, fields...)

	l.Info("Performance metric", allFields...)
}

// LogDatasetEvent logs a dataset lifecycle step (generated, verified, written, published)
func (l *Logger) LogDatasetEvent(step, message string, fields ...Field) {
	allFields := append([]Field{
		zap.String("event_type", "dataset"),
		zap.String("step", step),
	}, fields...)

	l.Info(message, allFields...)
}

// Cleanup flushes any buffered log entries
func (l *Logger) Cleanup() {
	if l.Logger != nil {
		_ = l.Logger.Sync()
	}
}

// Field creation functions

// String creates a string field
func String(key, value string) Field {
	return zap.String(key, value)
}

// Int creates an int field
func Int(key string, value int) Field {
	return zap.Int(key, value)
}

// Error creates an error field
func Error(err error) Field {
	return zap.Error(err)
}
