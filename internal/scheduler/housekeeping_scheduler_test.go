package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTrials struct {
	expireErr   error
	expiredAt   time.Time
	remindedAt  time.Time
	withinDays  int
	expireCalls int
	remindCalls int
}

func (f *fakeTrials) ExpireTrials(now time.Time) (int64, error) {
	f.expireCalls++
	f.expiredAt = now
	return 2, f.expireErr
}

func (f *fakeTrials) SendTrialReminders(_ context.Context, now time.Time, withinDays int) (int, error) {
	f.remindCalls++
	f.remindedAt = now
	f.withinDays = withinDays
	return 1, nil
}

type fakeResets struct {
	calls int
}

func (f *fakeResets) PurgeExpired(time.Time) (int64, error) {
	f.calls++
	return 3, nil
}

func TestHousekeepingScheduler_SweepTrials(t *testing.T) {
	fixed := time.Date(2026, 6, 1, 6, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		cfg         Config
		expireErr   error
		wantReminds int
	}{
		{name: "Expire and remind", cfg: Config{TrialReminderDays: 3}, wantReminds: 1},
		{name: "Reminders disabled", cfg: Config{TrialReminderDays: 0}, wantReminds: 0},
		{name: "Expire failure still reminds", cfg: Config{TrialReminderDays: 3}, expireErr: errors.New("db down"), wantReminds: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trials := &fakeTrials{expireErr: tt.expireErr}
			s := NewHousekeepingScheduler(trials, &fakeResets{}, tt.cfg)
			s.now = func() time.Time { return fixed }

			s.SweepTrials(context.Background())

			assert.Equal(t, 1, trials.expireCalls)
			assert.Equal(t, fixed, trials.expiredAt)
			assert.Equal(t, tt.wantReminds, trials.remindCalls)
			if tt.wantReminds > 0 {
				assert.Equal(t, fixed, trials.remindedAt)
				assert.Equal(t, 3, trials.withinDays)
			}
		})
	}
}

func TestHousekeepingScheduler_StartStop(t *testing.T) {
	resets := &fakeResets{}
	s := NewHousekeepingScheduler(&fakeTrials{}, resets, Config{TrialSweepSpec: "0 6 * * *", TrialReminderDays: 3})
	require.NoError(t, s.Start())

	entries := s.cron.Entries()
	assert.Len(t, entries, 2)

	s.PurgeResets()
	assert.Equal(t, 1, resets.calls)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}

func TestHousekeepingScheduler_InvalidSpec(t *testing.T) {
	s := NewHousekeepingScheduler(&fakeTrials{}, &fakeResets{}, Config{TrialSweepSpec: "every morning"})
	assert.Error(t, s.Start())
}
