package cronlogger

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/dpe27/esk-upload/pkg/log"
)

type cronlogger struct {
	logger *log.Logger
}

var _ cron.Logger = (*cronlogger)(nil)

func NewCronLogger() *cronlogger {
	return &cronlogger{
		logger: log.With("service", "cron"),
	}
}

// Info is called for every wake-up and dispatch, so it is logged at debug level.
func (c *cronlogger) Info(msg string, keysAndValues ...interface{}) {
	c.logger.Debug(context.Background(), msg, keysAndValues...)
}

func (c *cronlogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.logger.Error(context.Background(), msg, append(keysAndValues, "error", err)...)
}
