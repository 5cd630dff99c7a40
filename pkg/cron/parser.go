package cron

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
)

var ErrInvalidCronExpression = errors.New("invalid cron expression")

type CronSchedule struct {
	spec cron.Schedule
}

// ParseCronExpression accepts five-field expressions and descriptors such as
// "@hourly" or "@every 1m".
func ParseCronExpression(expr string) (*CronSchedule, error) {
	if expr == "" {
		return nil, ErrInvalidCronExpression
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	spec, err := parser.Parse(expr)
	if err != nil {
		return nil, errors.Join(ErrInvalidCronExpression, err)
	}

	return &CronSchedule{spec: spec}, nil
}

func ValidateCronExpression(expr string) error {
	_, err := ParseCronExpression(expr)

	return err
}

func CalculateNextRun(schedule *CronSchedule, from time.Time, timezone string) time.Time {
	if schedule == nil || schedule.spec == nil {
		return time.Time{}
	}

	loc := time.UTC
	if timezone != "" {
		var err error
		loc, err = time.LoadLocation(timezone)
		if err != nil {
			loc = time.UTC
		}
	}

	return schedule.spec.Next(from.In(loc))
}

// Run calls fn at every activation of schedule until ctx is done. Runs never
// overlap; an activation missed while fn is running is skipped.
func Run(ctx context.Context, schedule *CronSchedule, fn func(context.Context)) error {
	if schedule == nil || schedule.spec == nil {
		return ErrInvalidCronExpression
	}

	for {
		next := CalculateNextRun(schedule, time.Now(), "")
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()

			return ctx.Err()
		case <-timer.C:
			fn(ctx)
		}
	}
}
