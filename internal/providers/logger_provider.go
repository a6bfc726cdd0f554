package providers

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"memoriesbot/internal/structures"
)

type TypeEnum int

const (
	TypeApp TypeEnum = iota
	TypeStore
	TypeScan
	TypeEvent
	TypeHTTP
)

func (t TypeEnum) String() string {
	switch t {
	case TypeStore:
		return "store"
	case TypeScan:
		return "scan"
	case TypeEvent:
		return "event"
	case TypeHTTP:
		return "http"
	default:
		return "app"
	}
}

type Logger interface {
	Errorf(t TypeEnum, format string, args ...interface{})
	Warnf(t TypeEnum, format string, args ...interface{})
	Debugf(t TypeEnum, format string, args ...interface{})
	Infof(t TypeEnum, format string, args ...interface{})
	Fatalf(t TypeEnum, format string, args ...interface{})
	Close()
}

type LogProvider struct {
	app   zerolog.Logger
	http  zerolog.Logger
	files []*os.File
}

// NewLogProvider opens app.log and http.log under the configured directory.
// In debug mode every line is mirrored to a console writer on stderr.
func NewLogProvider(conf *structures.Config) (Logger, error) {
	level, err := zerolog.ParseLevel(conf.Logger.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", conf.Logger.Level, err)
	}

	lp := &LogProvider{}
	open := func(name string) (io.Writer, error) {
		path := filepath.Join(conf.Logger.Dir, name)
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, os.FileMode(conf.Logger.Mode))
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", path, err)
		}
		lp.files = append(lp.files, file)
		if conf.Debug {
			return zerolog.MultiLevelWriter(file, zerolog.ConsoleWriter{Out: os.Stderr}), nil
		}
		return file, nil
	}

	appWriter, err := open("app.log")
	if err != nil {
		return nil, err
	}
	httpWriter, err := open("http.log")
	if err != nil {
		lp.Close()
		return nil, err
	}

	lp.app = zerolog.New(appWriter).Level(level).With().Timestamp().Logger()
	lp.http = zerolog.New(httpWriter).Level(level).With().Timestamp().Logger()
	return lp, nil
}

func (lp *LogProvider) logger(t TypeEnum) *zerolog.Logger {
	if t == TypeHTTP {
		return &lp.http
	}
	return &lp.app
}

func (lp *LogProvider) Errorf(t TypeEnum, format string, args ...interface{}) {
	lp.logger(t).Error().Str("type", t.String()).Msgf(format, args...)
}

func (lp *LogProvider) Warnf(t TypeEnum, format string, args ...interface{}) {
	lp.logger(t).Warn().Str("type", t.String()).Msgf(format, args...)
}

func (lp *LogProvider) Debugf(t TypeEnum, format string, args ...interface{}) {
	lp.logger(t).Debug().Str("type", t.String()).Msgf(format, args...)
}

func (lp *LogProvider) Infof(t TypeEnum, format string, args ...interface{}) {
	lp.logger(t).Info().Str("type", t.String()).Msgf(format, args...)
}

func (lp *LogProvider) Fatalf(t TypeEnum, format string, args ...interface{}) {
	lp.logger(t).Fatal().Str("type", t.String()).Msgf(format, args...)
}

func (lp *LogProvider) Close() {
	for _, f := range lp.files {
		_ = f.Close()
	}
	lp.files = nil
}
