package zerolog

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/raykavin/pricealert/pkg/logger"
)

// Adapter exposes a zerolog.Logger through logger.Logger
type Adapter struct {
	*zerolog.Logger
}

func NewAdapter(log *zerolog.Logger) *Adapter {
	return &Adapter{log}
}

var levels = map[zerolog.Level]logger.Level{
	zerolog.Disabled:   logger.Disabled,
	zerolog.NoLevel:    logger.NoLevel,
	zerolog.TraceLevel: logger.TraceLevel,
	zerolog.DebugLevel: logger.DebugLevel,
	zerolog.InfoLevel:  logger.InfoLevel,
	zerolog.WarnLevel:  logger.WarnLevel,
	zerolog.ErrorLevel: logger.ErrorLevel,
	zerolog.FatalLevel: logger.FatalLevel,
	zerolog.PanicLevel: logger.PanicLevel,
}

func (z *Adapter) GetLevel() logger.Level {
	if level, ok := levels[z.Logger.GetLevel()]; ok {
		return level
	}
	return logger.NoLevel
}

// SetLevel changes the level of this logger only
func (z *Adapter) SetLevel(level logger.Level) {
	for zl, l := range levels {
		if l == level {
			updated := z.Logger.Level(zl)
			z.Logger = &updated
			return
		}
	}
}

func (z *Adapter) WithError(err error) logger.Logger {
	log := z.With().Err(err).Logger()
	return &Adapter{&log}
}

func (z *Adapter) WithField(key string, value any) logger.Logger {
	log := z.With().Interface(key, value).Logger()
	return &Adapter{&log}
}

func (z *Adapter) WithFields(fields map[string]any) logger.Logger {
	log := z.With().Fields(fields).Logger()
	return &Adapter{&log}
}

func (z *Adapter) Debug(args ...any) { z.Logger.Debug().Msg(fmt.Sprint(args...)) }
func (z *Adapter) Info(args ...any)  { z.Logger.Info().Msg(fmt.Sprint(args...)) }
func (z *Adapter) Warn(args ...any)  { z.Logger.Warn().Msg(fmt.Sprint(args...)) }
func (z *Adapter) Error(args ...any) { z.Logger.Error().Msg(fmt.Sprint(args...)) }

func (z *Adapter) Debugf(format string, args ...any) { z.Logger.Debug().Msgf(format, args...) }
func (z *Adapter) Infof(format string, args ...any)  { z.Logger.Info().Msgf(format, args...) }
func (z *Adapter) Warnf(format string, args ...any)  { z.Logger.Warn().Msgf(format, args...) }
func (z *Adapter) Errorf(format string, args ...any) { z.Logger.Error().Msgf(format, args...) }
