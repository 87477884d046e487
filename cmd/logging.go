package cmd

import (
	"fmt"
	"os"

	"rifa/config"

	log "github.com/sirupsen/logrus"
)

// SetupLogging configures the global logrus logger from cfg
func SetupLogging(cfg *config.Config) error {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	log.SetLevel(level)
	log.SetOutput(os.Stdout)

	switch cfg.LogFormat {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "text", "":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("unknown log format: %s", cfg.LogFormat)
	}
	return nil
}
