package logger

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

func New() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.TimeOnly,
	})
	log.SetLevel(logrus.InfoLevel)
	return log
}

func NewWithLevel(level string) *logrus.Logger {
	log := New()
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		log.Warnf("Unknown log level %q, using info", level)
		return log
	}
	log.SetLevel(parsed)
	return log
}
