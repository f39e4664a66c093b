package main

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// log is the process-wide diagnostic logger. It only ever writes to
// stderr: row output is a separate, exact-format stream on stdout that
// must never be interleaved with diagnostics (see end-to-end scenarios).
var (
	logOnce sync.Once
	log     *logrus.Logger
)

func logger() *logrus.Logger {
	logOnce.Do(func() {
		log = logrus.New()
		log.SetOutput(os.Stderr)
		log.SetFormatter(&logrus.TextFormatter{
			DisableTimestamp: true,
		})
		log.SetLevel(logrus.InfoLevel)
	})
	return log
}
