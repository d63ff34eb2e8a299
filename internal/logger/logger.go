package logger

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// instanceID tags every record and the health payload so replicas behind a
// load balancer can be told apart.
var instanceID = resolveInstanceID()

func resolveInstanceID() string {
	for _, key := range []string{"INSTANCE_ID", "HOSTNAME", "POD_NAME"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// InstanceID returns the identifier of this process.
func InstanceID() string {
	return instanceID
}

// Config selects the minimum level and the output format ("text" or "json").
type Config struct {
	Level  slog.Level
	Format string
}

type contextKey string

const (
	ContextKeyRequestID contextKey = "request_id"
	ContextKeyTargetURL contextKey = "target_url"
	ContextKeyOperation contextKey = "operation"
)

// contextAttrs lists the context values copied onto records by WithContext,
// in output order.
var contextAttrs = []contextKey{ContextKeyRequestID, ContextKeyTargetURL, ContextKeyOperation}

// Logger is the service logger. It embeds *slog.Logger so the usual
// Debug/Info/Warn/Error methods are available directly.
type Logger struct {
	*slog.Logger
}

// New returns a logger writing to stdout.
func New(cfg Config) *Logger {
	return NewWithWriter(os.Stdout, cfg)
}

// NewWithWriter returns a logger writing to w. Every record carries instance_id.
func NewWithWriter(w io.Writer, cfg Config) *Logger {
	base := slog.New(newHandler(w, cfg)).With(slog.String("instance_id", instanceID))
	return &Logger{Logger: base}
}

func newHandler(w io.Writer, cfg Config) slog.Handler {
	if cfg.Format == "json" {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:       cfg.Level,
			AddSource:   true,
			ReplaceAttr: rfc3339Time,
		})
	}
	return tint.NewHandler(w, &tint.Options{
		Level:      cfg.Level,
		AddSource:  true,
		TimeFormat: time.Kitchen,
	})
}

func rfc3339Time(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.TimeKey {
		return a
	}
	return slog.String(a.Key, a.Value.Time().Format(time.RFC3339))
}

// FromConfig maps the LOG_LEVEL and LOG_FORMAT settings onto a Config.
// Unknown levels fall back to debug; APP_ENV=production forces JSON.
func FromConfig(logLevel, logFormat string) Config {
	cfg := Config{Level: slog.LevelDebug, Format: "text"}

	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err == nil {
		cfg.Level = level
	}
	if logFormat != "" {
		cfg.Format = logFormat
	}
	if os.Getenv("APP_ENV") == "production" {
		cfg.Format = "json"
	}
	return cfg
}

// WithContext returns a logger annotated with the request-scoped values found in ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	log := l.Logger
	for _, key := range contextAttrs {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			log = log.With(slog.String(string(key), v))
		}
	}
	return &Logger{Logger: log}
}

func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.With(slog.String("component", component))}
}
