package logger

import (
	"os"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog"
)

func Setup(dev bool) zerolog.Logger {
	var logger zerolog.Logger
	level := zerolog.InfoLevel
	if dev {
		level = zerolog.DebugLevel
	}

	logger = zerolog.New(os.Stderr).Level(level).With().Timestamp().Caller().Logger()

	if dev {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, FormatTimestamp: func(i any) string {
			return time.Now().Format(time.RFC3339)
		}}).Level(level).With().Stack().Logger()
	}

	return logger
}

// Messages logs esbuild diagnostics at the given level, one event per message.
func Messages(logger zerolog.Logger, level zerolog.Level, msgs []api.Message) {
	for _, msg := range msgs {
		event := logger.WithLevel(level).Str("text", msg.Text)
		if msg.PluginName != "" {
			event = event.Str("plugin", msg.PluginName)
		}
		if loc := msg.Location; loc != nil {
			event = event.Str("file", loc.File).Int("line", loc.Line).Int("column", loc.Column)
		}
		for _, note := range msg.Notes {
			event = event.Str("note", note.Text)
		}
		event.Msg("Build message")
	}
}
