package sim

import (
	"log/slog"
	"os"
	"path"

	"github.com/encodeous/tint"
	slogmulti "github.com/samber/slog-multi"
)

// NewLogger builds the simulation logger: a tinted stderr handler with the
// node/network name as prefix, fanned out to a plain text file when logPath
// is set.
func NewLogger(level slog.Level, logPath, prefix string) (*slog.Logger, error) {
	handlers := []slog.Handler{
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:        level,
			AddSource:    false,
			CustomPrefix: prefix,
			ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
				if attr.Key == "time" {
					return slog.Attr{}
				}
				return attr
			},
		}),
	}

	if logPath != "" {
		err := os.MkdirAll(path.Dir(logPath), 0700)
		if err != nil {
			return nil, err
		}
		f, err := os.OpenFile(logPath, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0700)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	}

	return slog.New(slogmulti.Fanout(handlers...)), nil
}
