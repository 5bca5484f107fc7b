package logging

import (
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/caa-tools/caa-launch/internal/constants"
)

// NewRotatingFileLogger logs to the console and to a rotating file.
// The console gets the human-readable format; the file gets structured JSON
// lines so old launches stay greppable.
func NewRotatingFileLogger(path string) *Logger {
	fileWriter := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    constants.LogMaxSizeMB,
		MaxBackups: constants.LogMaxBackups,
		MaxAge:     constants.LogMaxAgeDays,
		Compress:   true,
	}

	console := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}

	multi := zerolog.MultiLevelWriter(console, fileWriter)

	logger := zerolog.New(multi).
		With().
		Timestamp().
		Logger()

	return &Logger{
		zlog:   logger,
		output: multi,
	}
}
