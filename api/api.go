package api

import (
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const UserAgent = "modman-agent"

// restyLogger routes resty's own warnings into zerolog.
type restyLogger struct {
	logger zerolog.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) { l.logger.Error().Msgf(format, v...) }
func (l restyLogger) Warnf(format string, v ...interface{})  { l.logger.Warn().Msgf(format, v...) }
func (l restyLogger) Debugf(format string, v ...interface{}) { l.logger.Debug().Msgf(format, v...) }

// NewClient builds the resty client shared by every download. A zero timeout disables it.
func NewClient(timeout time.Duration, logger zerolog.Logger) *resty.Client {
	client := resty.New().
		SetLogger(restyLogger{logger: logger}).
		SetHeader("User-Agent", UserAgent).
		SetRetryCount(0)
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return client
}
