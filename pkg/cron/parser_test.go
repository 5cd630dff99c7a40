package cron_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/absmach/fedkit/pkg/cron"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCronExpression(t *testing.T) {
	t.Parallel()

	cases := []struct {
		desc string
		expr string
		err  error
	}{
		{desc: "five fields", expr: "*/5 * * * *"},
		{desc: "every descriptor", expr: "@every 1m"},
		{desc: "hourly descriptor", expr: "@hourly"},
		{desc: "empty", expr: "", err: cron.ErrInvalidCronExpression},
		{desc: "garbage", expr: "every minute", err: cron.ErrInvalidCronExpression},
		{desc: "six fields", expr: "0 */5 * * * *", err: cron.ErrInvalidCronExpression},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()
			err := cron.ValidateCronExpression(tc.expr)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)

				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCalculateNextRun(t *testing.T) {
	t.Parallel()

	schedule, err := cron.ParseCronExpression("0 * * * *")
	require.NoError(t, err)

	from := time.Date(2024, 5, 1, 10, 15, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC), cron.CalculateNextRun(schedule, from, ""))
	assert.True(t, cron.CalculateNextRun(nil, from, "").IsZero())
}

func TestRun(t *testing.T) {
	t.Parallel()

	schedule, err := cron.ParseCronExpression("@every 1s")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2500*time.Millisecond)
	defer cancel()

	var calls atomic.Int32
	err = cron.Run(ctx, schedule, func(context.Context) { calls.Add(1) })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, calls.Load(), int32(1))

	assert.ErrorIs(t, cron.Run(context.Background(), nil, func(context.Context) {}), cron.ErrInvalidCronExpression)
}
