package logger

import (
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// serviceHook stamps every entry with the emitting service name so
// mixed log streams stay attributable.
type serviceHook struct {
	service string
}

func (h *serviceHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h *serviceHook) Fire(e *logrus.Entry) error {
	e.Data["service"] = h.service
	return nil
}

// New builds a JSON logger for the named service. The level comes from
// LOG_LEVEL; unknown or empty values fall back to info.
func New(service string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	l.AddHook(&serviceHook{service: service})

	level, err := logrus.ParseLevel(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)
	return l
}
