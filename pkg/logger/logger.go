package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

type Config struct {
	Service string `json:"service" yaml:"service"`
	Env     string `json:"env" yaml:"env" env:"VINABOOK_ENV"`
	Level   string `json:"level" yaml:"level" env:"VINABOOK_LOG_LEVEL"`
	Format  string `json:"format" yaml:"format" env:"VINABOOK_LOG_FORMAT"`
}

func New(cfg Config) *logrus.Logger {
	return NewWithWriter(cfg, os.Stderr)
}

func NewWithWriter(cfg Config, w io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(parseLevel(cfg.Level))

	if strings.EqualFold(cfg.Format, "text") {
		log.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	return log
}

// Base returns the entry every component logger derives from.
func Base(log *logrus.Logger, cfg Config) *logrus.Entry {
	return log.WithFields(logrus.Fields{
		"service": cfg.Service,
		"env":     cfg.Env,
	})
}

func parseLevel(lvl string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
