// Package logging constructs the structured logger shared by all
// services.
package logging

import (
	"os"
	"strings"
	"time"

	clog "github.com/charmbracelet/log"

	"humancanvas/internal/config"
)

// New builds a logger from the logging configuration. The logger is
// injected wherever needed; there is no package-level instance.
func New(cfg *config.Config) *clog.Logger {
	logger := clog.NewWithOptions(os.Stderr, clog.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           parseLevel(cfg.Logging.Level),
	})
	if strings.EqualFold(cfg.Logging.Format, "json") {
		logger.SetFormatter(clog.JSONFormatter)
	}
	return logger
}

func parseLevel(level string) clog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return clog.DebugLevel
	case "warn":
		return clog.WarnLevel
	case "error":
		return clog.ErrorLevel
	default:
		return clog.InfoLevel
	}
}
