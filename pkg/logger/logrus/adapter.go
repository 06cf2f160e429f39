package logrus

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/raykavin/pricealert/pkg/logger"
)

// Adapter exposes a logrus entry through logger.Logger
type Adapter struct {
	*logrus.Entry
}

// New builds a logrus logger writing JSON or text to out, stdout when nil
func New(level string, jsonFormat bool, out io.Writer) (*Adapter, error) {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	if out == nil {
		out = os.Stdout
	}

	log := logrus.New()
	log.SetOutput(out)
	log.SetLevel(parsed)
	if jsonFormat {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return &Adapter{logrus.NewEntry(log)}, nil
}

var levels = map[logrus.Level]logger.Level{
	logrus.TraceLevel: logger.TraceLevel,
	logrus.DebugLevel: logger.DebugLevel,
	logrus.InfoLevel:  logger.InfoLevel,
	logrus.WarnLevel:  logger.WarnLevel,
	logrus.ErrorLevel: logger.ErrorLevel,
	logrus.FatalLevel: logger.FatalLevel,
	logrus.PanicLevel: logger.PanicLevel,
}

func (l *Adapter) GetLevel() logger.Level {
	if level, ok := levels[l.Logger.GetLevel()]; ok {
		return level
	}
	return logger.NoLevel
}

func (l *Adapter) SetLevel(level logger.Level) {
	for ll, lv := range levels {
		if lv == level {
			l.Logger.SetLevel(ll)
			return
		}
	}
}

func (l *Adapter) WithError(err error) logger.Logger {
	return &Adapter{l.Entry.WithError(err)}
}

func (l *Adapter) WithField(key string, value any) logger.Logger {
	return &Adapter{l.Entry.WithField(key, value)}
}

func (l *Adapter) WithFields(fields map[string]any) logger.Logger {
	return &Adapter{l.Entry.WithFields(fields)}
}
