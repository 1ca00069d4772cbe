package jobs

import (
	"context"
	"errors"
	"testing"

	"OrderOps/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLines struct {
	n     int64
	err   error
	calls int
}

func (f *fakeLines) BackfillManufacturer(ctx context.Context, productKey string, manufacturerID int64) (int64, error) {
	return 0, nil
}

func (f *fakeLines) BackfillAllManufacturers(ctx context.Context) (int64, error) {
	f.calls++
	return f.n, f.err
}

func (f *fakeLines) ListOrderLines(ctx context.Context, uploadID int64) ([]store.OrderLine, error) {
	return nil, nil
}

func TestNewCronServiceReadsConfig(t *testing.T) {
	svc := NewCronService(map[string]interface{}{
		"backfill_schedule": "0 * * * *",
		"time_zone":         "UTC",
	}, &fakeLines{}).(*CronService)
	assert.Equal(t, "cron", svc.Name())
	assert.Equal(t, "0 * * * *", svc.cfg.Schedule)
	assert.Equal(t, "UTC", svc.cfg.TimeZone)

	def := NewCronService(nil, &fakeLines{}).(*CronService)
	assert.Equal(t, NewDefaultBackfillConfig().Schedule, def.cfg.Schedule)
}

func TestSweep(t *testing.T) {
	lines := &fakeLines{n: 7}
	svc := NewCronService(nil, lines).(*CronService)
	n, err := svc.Sweep()
	require.NoError(t, err)
	assert.EqualValues(t, 7, n)
	assert.Equal(t, 1, lines.calls)

	lines.err = errors.New("db down")
	_, err = svc.Sweep()
	assert.Error(t, err)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	svc := NewCronService(map[string]interface{}{"backfill_schedule": "every tuesday"}, &fakeLines{})
	assert.Error(t, svc.Start())
	assert.NoError(t, svc.Stop())
}

func TestStartStop(t *testing.T) {
	svc := NewCronService(nil, &fakeLines{})
	require.NoError(t, svc.Start())
	assert.NoError(t, svc.Stop())
	assert.NoError(t, svc.Stop())
}
