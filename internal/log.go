package internal

import (
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the process logger. Verbose enables per-file debug
// output from the resolver and planner.
func NewLogger(verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
	return log
}
