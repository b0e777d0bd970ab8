package logging

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the shared logrus instance used across the application.
var Logger = logrus.New()

var once sync.Once

// Init configures the global logger: text output to stdout plus a rotating
// file under logs/.
func Init(systemName string) {
	once.Do(func() {
		if err := os.MkdirAll("logs", 0o755); err != nil {
			logrus.Fatalf("Failed to create log directory: %v", err)
		}

		logFile := &lumberjack.Logger{
			Filename:   "logs/" + systemName + ".log",
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}

		Logger.SetOutput(io.MultiWriter(os.Stdout, logFile))
		Logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})

		level := logrus.InfoLevel
		if parsed, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
			level = parsed
		}
		Logger.SetLevel(level)

		Logger.Infof("Logger initialized for %s", systemName)
	})
}
