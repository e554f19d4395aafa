// Package logging configures the logrus logger shared by the advising tool.
package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type LogConfig struct {
	Level string
	// File receives log output in addition to stderr when set.
	File string
}

// Formatter writes one line per entry: time, four-letter level, message and
// the entry's fields sorted by key.
type Formatter struct {
	TimestampFormat string
}

func (f *Formatter) Format(entry *logrus.Entry) ([]byte, error) {
	timestampFormat := f.TimestampFormat
	if timestampFormat == "" {
		timestampFormat = "15:04:05 MST 2006/01/02"
	}

	level := strings.ToUpper(entry.Level.String())
	if len(level) > 4 {
		level = level[:4]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] [%s] %s", entry.Time.Format(timestampFormat), level, entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for key := range entry.Data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, " %s=%v", key, entry.Data[key])
	}
	b.WriteByte('\n')

	return []byte(b.String()), nil
}

func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// New builds a logger writing to stderr and, if configured, to a log file.
// The returned closer releases the file.
func New(config LogConfig) (*logrus.Logger, io.Closer, error) {
	logger := logrus.New()
	logger.SetFormatter(&Formatter{})
	logger.SetLevel(ParseLevel(config.Level))

	if config.File == "" {
		logger.SetOutput(os.Stderr)
		return logger, io.NopCloser(nil), nil
	}

	file, err := os.OpenFile(config.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "unable to open log file %s", config.File)
	}
	logger.SetOutput(io.MultiWriter(os.Stderr, file))
	return logger, file, nil
}
