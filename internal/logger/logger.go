package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var log *logrus.Logger

// Init configures the structured logger. JSON output in production,
// colored text in development.
func Init(logLevel string, isDevelopment bool) *logrus.Logger {
	l := logrus.New()

	if logLevel == "" {
		logLevel = os.Getenv("LOG_LEVEL")
		if logLevel == "" {
			if isDevelopment {
				logLevel = "debug"
			} else {
				logLevel = "info"
			}
		}
	}

	if level, err := logrus.ParseLevel(strings.ToLower(logLevel)); err == nil {
		l.SetLevel(level)
	} else {
		l.SetLevel(logrus.InfoLevel)
		l.WithField("invalid_level", logLevel).Warn("Invalid LOG_LEVEL, using INFO")
	}

	if !isDevelopment || strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
			ForceColors:     true,
		})
	}

	l.SetOutput(os.Stdout)

	log = l
	return l
}

// Get returns the global logger, initializing a default one if needed.
func Get() *logrus.Logger {
	if log == nil {
		return Init("info", false)
	}
	return log
}

// WithComponent creates a logger scoped to a pipeline component.
func WithComponent(component string) *logrus.Entry {
	return Get().WithField("component", component)
}

// WithRunID creates a logger carrying the pipeline run id.
func WithRunID(runID string) *logrus.Entry {
	return Get().WithField("run_id", runID)
}

// WithSolveContext creates a logger carrying the full solve context.
func WithSolveContext(runID string, horizon int, playerCount int) *logrus.Entry {
	return Get().WithFields(logrus.Fields{
		"run_id":       runID,
		"horizon":      horizon,
		"player_count": playerCount,
	})
}

// WithGameweek creates a logger scoped to one gameweek.
func WithGameweek(gameweek int) *logrus.Entry {
	return Get().WithField("gameweek", gameweek)
}
