package util

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var _logger *logrus.Logger

func SetLogger(logger *logrus.Logger) {
	_logger = logger
}

func Logger() *logrus.Logger {
	return _logger
}

// NewLogger creates a logger writing to stderr. An unknown level falls back to info.
func NewLogger(level string, json bool) *logrus.Logger {
	return NewLoggerTo(os.Stderr, level, json)
}

func NewLoggerTo(w io.Writer, level string, json bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	if json {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logger
}

func LogDebug(s string, a ...any) {
	if _logger == nil {
		return
	}
	_logger.Debugf(s, a...)
}

func LogInfo(s string, a ...any) {
	if _logger == nil {
		return
	}
	_logger.Infof(s, a...)
}

func LogWarn(s string, a ...any) {
	if _logger == nil {
		return
	}
	_logger.Warnf(s, a...)
}

func LogError(s string, a ...any) {
	if _logger == nil {
		return
	}
	_logger.Errorf(s, a...)
}
