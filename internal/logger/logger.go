package logger

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var log = logrus.New()

// Init configures the shared logger. An empty file keeps output on
// stderr; otherwise log lines rotate through lumberjack.
func Init(file, level string, maxSize, maxBackups int) error {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log.SetLevel(parsed)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if file == "" {
		log.SetOutput(os.Stderr)
		return nil
	}

	log.SetOutput(&lumberjack.Logger{
		Filename:   file,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		Compress:   true,
	})
	return nil
}

func GetLogger() *logrus.Logger {
	return log
}
