package config

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// SetupLogging applies the log settings to logger. With a log file set the
// output goes to both stderr and the rotated file; the returned closer
// releases the file and is never nil.
func SetupLogging(logger *logrus.Logger, opt Log) (io.Closer, error) {
	level, err := logrus.ParseLevel(opt.Level)
	if err != nil {
		return nopCloser{}, errors.Wrapf(err, "invalid log level %q", opt.Level)
	}
	logger.SetLevel(level)

	switch strings.ToLower(opt.Format) {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nopCloser{}, errors.Errorf("unsupported log format %q", opt.Format)
	}

	if opt.File == "" {
		logger.SetOutput(os.Stderr)
		return nopCloser{}, nil
	}

	logFile := &lumberjack.Logger{
		Filename:   opt.File,
		MaxSize:    opt.MaxSize,
		MaxBackups: opt.MaxBackups,
		MaxAge:     opt.MaxAge,
		Compress:   opt.Compress,
		LocalTime:  true,
	}
	logger.SetOutput(io.MultiWriter(os.Stderr, logFile))
	return logFile, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
