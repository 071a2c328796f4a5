package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconciliationScheduler_RunOnceReconcilesPreviousMonth(t *testing.T) {
	// GIVEN: Two employees, one with an already paid March salary
	// WHEN: The scheduler runs on April 1st
	// THEN: March is reconciled: one record created, the paid one skipped

	h, svc := newTestServer(t)
	createEmployee(t, h, "EMP001")
	paid := createEmployee(t, h, "EMP002")
	sal := reconciledMarch(t, h, paid.ID, 5)
	rec := call(t, h, asAdmin, http.MethodPost, "/api/salaries/"+sal.ID+"/payment", map[string]any{"payment_method": "cash"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rs := NewReconciliationScheduler(svc, "0 1 1 * *")
	rs.Now = func() time.Time { return time.Date(2024, time.April, 1, 1, 0, 0, 0, time.UTC) }

	summary, err := rs.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, time.March, summary.Month)
	assert.Equal(t, 2024, summary.Year)
	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 1, summary.SkippedPaid)
	assert.Empty(t, summary.Failures)
}

func TestReconciliationScheduler_JanuaryRunsDecember(t *testing.T) {
	_, svc := newTestServer(t)
	rs := NewReconciliationScheduler(svc, "0 1 1 * *")
	rs.Now = func() time.Time { return time.Date(2025, time.January, 1, 1, 0, 0, 0, time.UTC) }

	summary, err := rs.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.December, summary.Month)
	assert.Equal(t, 2024, summary.Year)
}

func TestReconciliationScheduler_StartStop(t *testing.T) {
	_, svc := newTestServer(t)

	bad := NewReconciliationScheduler(svc, "not a schedule")
	assert.Error(t, bad.Start())

	off := NewReconciliationScheduler(svc, "not a schedule")
	off.Enabled = false
	assert.NoError(t, off.Start(), "disabled scheduler never parses its schedule")

	rs := NewReconciliationScheduler(svc, "0 1 1 * *")
	require.NoError(t, rs.Start())
	require.NoError(t, rs.Start(), "second start is a no-op")
	rs.Stop()
	rs.Stop()
}
