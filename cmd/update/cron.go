package main

import (
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// cronLogger routes the scheduler's own messages through zap.
type cronLogger struct {
	logger *zap.SugaredLogger
}

var _ cron.Logger = cronLogger{}

func (c cronLogger) Info(message string, keysAndValues ...interface{}) {
	c.logger.Infow("cron_"+message, keysAndValues...)
}

func (c cronLogger) Error(err error, message string, keysAndValues ...interface{}) {
	c.logger.Errorw("cron_"+message, append(keysAndValues, "error", err)...)
}

func newScheduler(logger *zap.Logger) *cron.Cron {
	adapter := cronLogger{logger: logger.Sugar()}
	return cron.New(cron.WithLogger(adapter), cron.WithChain(cron.SkipIfStillRunning(adapter)))
}
