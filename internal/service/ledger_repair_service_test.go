package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/noah-isme/campus-admissions-api/internal/workflow"
)

func TestLedgerRepairServiceRepair(t *testing.T) {
	store := newMemoryStore()
	svc := NewLedgerRepairService(memorySteps{store}, NewMetricsService(), nil, LedgerRepairConfig{})
	e := store.seedEnrollment(3, false)
	store.dropStep(e.ID, 1)
	store.dropStep(e.ID, 4)

	added, err := svc.Repair(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	steps, _ := memorySteps{store}.ListByEnrollment(context.Background(), e.ID)
	assert.True(t, workflow.LedgerComplete(steps))
	steps = workflow.Decorate(steps)
	assert.True(t, steps[0].Completed)
	assert.False(t, steps[3].Completed)

	added, err = svc.Repair(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Zero(t, added)
}

func TestLedgerRepairServiceScheduleRunsInBackground(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := newMemoryStore()
	svc := NewLedgerRepairService(memorySteps{store}, nil, nil, LedgerRepairConfig{Workers: 1})
	svc.Start(context.Background())
	e := store.seedEnrollment(2, false)
	store.dropStep(e.ID, 6)

	svc.Schedule(e.ID)
	require.Eventually(t, func() bool {
		steps, _ := memorySteps{store}.ListByEnrollment(context.Background(), e.ID)
		return workflow.LedgerComplete(steps)
	}, 2*time.Second, 10*time.Millisecond)
	svc.Stop()
}

func TestLedgerRepairServiceRepairsOnRead(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := newMemoryStore()
	repairs := NewLedgerRepairService(memorySteps{store}, nil, nil, LedgerRepairConfig{Workers: 1})
	repairs.Start(context.Background())
	defer repairs.Stop()
	svc := newTestEnrollmentService(store, repairs, nil)
	e := store.seedEnrollment(2, false)
	store.dropStep(e.ID, 3)

	detail, err := svc.Get(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Steps, 5)

	require.Eventually(t, func() bool {
		detail, err := svc.Get(context.Background(), e.ID)
		return err == nil && len(detail.Steps) == 6
	}, 2*time.Second, 10*time.Millisecond)
}

func TestLedgerRepairServiceNilIsSafe(t *testing.T) {
	var svc *LedgerRepairService
	assert.NotPanics(t, func() { svc.Schedule("enr-1") })
}
