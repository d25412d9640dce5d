// Package logging configures the logrus standard logger for the loader.
package logging

import (
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Setup configures the standard logger based on level and format.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
//
// Use "json" when the run's output is shipped to a log pipeline.
func Setup(level, format string) {
	SetupWriter(os.Stderr, level, format)
}

// SetupWriter is Setup with an explicit destination.
func SetupWriter(w io.Writer, level, format string) {
	log.SetOutput(w)
	log.SetLevel(parseLevel(level))

	if strings.ToLower(format) == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

// parseLevel converts a level name to a logrus level, defaulting to info.
func parseLevel(level string) log.Level {
	l, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		return log.InfoLevel
	}
	return l
}

// ForRun returns a logger that stamps every entry with the run id.
func ForRun(runID string) *log.Entry {
	return log.WithField("run_id", runID)
}
