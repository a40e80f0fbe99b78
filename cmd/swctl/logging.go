package main

import (
	"io"

	"github.com/sirupsen/logrus"
)

// newLogger returns the stderr logger: warnings by default, info with
// --verbose, debug with --debug.
func newLogger(w io.Writer, verbose, debug bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		DisableColors:   true,
		TimestampFormat: "15:04:05.000",
	})
	switch {
	case debug:
		logger.SetLevel(logrus.DebugLevel)
	case verbose:
		logger.SetLevel(logrus.InfoLevel)
	default:
		logger.SetLevel(logrus.WarnLevel)
	}
	return logger
}
