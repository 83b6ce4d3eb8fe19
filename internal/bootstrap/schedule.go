package bootstrap

import (
	"context"
	"fmt"

	infralogger "github.com/jonesrussell/north-cloud/harvester/infrastructure/logger"
	"github.com/robfig/cron/v3"
)

// RunSchedule runs topics on the cron spec until ctx is done. Standard
// five-field expressions and descriptors such as "@hourly" or "@every 30m"
// are accepted. A run still in progress when the next tick fires is not
// overlapped.
func RunSchedule(ctx context.Context, runner TopicRunner, spec string, topics []string, log infralogger.Logger) error {
	log = log.With(infralogger.Component("schedule"))
	cronLog := cronLogger{log: log}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(
		cron.WithParser(parser),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	_, err := c.AddFunc(spec, func() {
		if _, runErr := runner.Run(ctx, topics); runErr != nil {
			log.Error("Scheduled run failed", infralogger.Error(runErr))
		}
	})
	if err != nil {
		return fmt.Errorf("parse schedule %q: %w", spec, err)
	}

	c.Start()
	log.Info("Schedule started",
		infralogger.String("spec", spec),
		infralogger.Strings("topics", topics),
		infralogger.Any("next_run", c.Entries()[0].Next),
	)

	<-ctx.Done()

	stopped := c.Stop()
	<-stopped.Done()
	log.Info("Schedule stopped")

	return nil
}

// cronLogger adapts the harvester logger to cron.Logger.
type cronLogger struct {
	log infralogger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, kvFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append(kvFields(keysAndValues), infralogger.Error(err))...)
}

func kvFields(keysAndValues []any) []infralogger.Field {
	fields := make([]infralogger.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		fields = append(fields, infralogger.Any(key, keysAndValues[i+1]))
	}
	return fields
}
