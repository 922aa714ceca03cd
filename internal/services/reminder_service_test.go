package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doulaBack/internal/models"
)

func TestReminderService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	contract := f.seedContract(t)
	p := f.seedSchedule(t, contract.ID, day(2024, 1, 1))[0]
	svc := NewReminderService(f.db)
	svc.Clock = fixedClock

	now, err := svc.CreateReminder(ctx, p.ID, CreateReminderInput{ReminderType: models.ReminderTypeOverdue})
	require.NoError(t, err)
	later, err := svc.CreateReminder(ctx, p.ID, CreateReminderInput{ReminderType: models.ReminderTypeUpcoming, ScheduledFor: testNow.Add(48 * time.Hour)})
	require.NoError(t, err)

	list, err := svc.ListReminders(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, now.ID, list[0].ID)
	assert.Equal(t, later.ID, list[1].ID)

	due, err := svc.ListDueReminders(ctx)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, now.ID, due[0].ID)

	sent, err := svc.MarkSent(ctx, now.ID, true, false)
	require.NoError(t, err)
	assert.Equal(t, models.ReminderStatusSent, sent.Status)
	assert.True(t, sent.EmailSent)
	require.NotNil(t, sent.SentAt)

	svc.Clock = func() time.Time { return testNow.Add(time.Hour) }
	again, err := svc.MarkSent(ctx, now.ID, false, true)
	require.NoError(t, err)
	assert.Equal(t, *sent.SentAt, *again.SentAt)
	assert.False(t, again.SMSSent)

	_, err = svc.MarkSent(ctx, "missing", true, true)
	assert.ErrorIs(t, err, models.ErrReminderNotFound)

	_, err = svc.CreateReminder(ctx, p.ID, CreateReminderInput{ReminderType: "weekly"})
	var inErr *InputError
	assert.ErrorAs(t, err, &inErr)

	_, err = svc.CreateReminder(ctx, "missing", CreateReminderInput{ReminderType: models.ReminderTypeUpcoming})
	assert.ErrorIs(t, err, models.ErrPaymentNotFound)
}
