package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/persistence"
	"github.com/spec-kit/grievance-service/pkg/util"
)

func newTestRepository(t *testing.T) ComplaintRepository {
	t.Helper()
	store, err := persistence.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return NewComplaintRepository(store.Handle())
}

func testComplaint(ref string) *domain.Complaint {
	return &domain.Complaint{
		SubmitterRef:  ref,
		SubmitterName: "Asha Rao",
		RawText:       "The streetlight near the park gate has been broken for a week",
		IssueType:     "streetlight outage",
		Location:      "Hauz Khas",
		DepartmentID:  "electrical",
		Priority:      domain.PriorityMedium,
		Confidence:    0.9,
		Summary:       "Broken streetlight near park gate",
		SLAHours:      48,
	}
}

func TestCreateAssignsSequentialIDs(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for i, want := range []string{"SF-0001", "SF-0002", "SF-0003"} {
		complaint := testComplaint("telegram:101")
		require.NoError(t, repo.Create(ctx, complaint))
		assert.Equal(t, want, complaint.ID)
		assert.Equal(t, int64(i+1), complaint.Seq)
		assert.Equal(t, domain.ComplaintStatusPending, complaint.Status)
	}
}

func TestCreateWritesInitialHistory(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	complaint := testComplaint("telegram:101")
	require.NoError(t, repo.Create(ctx, complaint))

	history, err := repo.History(ctx, complaint.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.ComplaintStatusPending, history[0].OldStatus)
	assert.Equal(t, domain.ComplaintStatusPending, history[0].NewStatus)
	assert.Equal(t, domain.ActorSystem, history[0].ChangedBy)
	assert.Equal(t, complaint.ID, history[0].ComplaintID)
}

func TestGetByIDAcceptsAnyPadding(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	complaint := testComplaint("telegram:101")
	require.NoError(t, repo.Create(ctx, complaint))

	for _, id := range []string{"SF-0001", "SF-1", "sf-001"} {
		got, err := repo.GetByID(ctx, id)
		require.NoError(t, err, "lookup %s", id)
		assert.Equal(t, complaint.ID, got.ID)
		assert.Equal(t, complaint.RawText, got.RawText)
	}
}

func TestGetByIDUnknownAndMalformed(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for _, id := range []string{"SF-0042", "GRV-1", "not an id"} {
		_, err := repo.GetByID(ctx, id)
		assert.ErrorIs(t, err, sql.ErrNoRows, "lookup %s", id)
	}
}

func TestListFiltersAndPaginates(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		complaint := testComplaint("telegram:101")
		if i%2 == 0 {
			complaint.DepartmentID = "water"
			complaint.Priority = domain.PriorityUrgent
		}
		require.NoError(t, repo.Create(ctx, complaint))
	}

	items, total, err := repo.List(ctx, ComplaintFilter{})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, items, 5)
	// Oldest first.
	assert.Equal(t, "SF-0001", items[0].ID)
	assert.Equal(t, "SF-0005", items[4].ID)

	water := "water"
	urgent := domain.PriorityUrgent
	items, total, err = repo.List(ctx, ComplaintFilter{Department: &water, Priority: &urgent})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, items, 3)

	// Offset pages report the unfiltered total for that filter.
	items, total, err = repo.List(ctx, ComplaintFilter{Department: &water, Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, items, 1)
	assert.Equal(t, "SF-0005", items[0].ID)
}

func TestListPaginationStableAcrossInserts(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, testComplaint("telegram:101")))
	}

	firstPage, _, err := repo.List(ctx, ComplaintFilter{Limit: 2, Offset: 0})
	require.NoError(t, err)
	require.Len(t, firstPage, 2)

	// A complaint arriving between page reads must not shift rows the
	// caller has already seen.
	require.NoError(t, repo.Create(ctx, testComplaint("telegram:202")))

	firstPageAgain, _, err := repo.List(ctx, ComplaintFilter{Limit: 2, Offset: 0})
	require.NoError(t, err)
	assert.Equal(t, firstPage, firstPageAgain)

	secondPage, total, err := repo.List(ctx, ComplaintFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, secondPage, 2)
	assert.Equal(t, "SF-0003", secondPage[0].ID)
	assert.Equal(t, "SF-0004", secondPage[1].ID)
	for _, seen := range firstPage {
		for _, later := range secondPage {
			assert.NotEqual(t, seen.ID, later.ID)
		}
	}
}

func TestListBySubmitterNewestFirst(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testComplaint("telegram:101")))
	require.NoError(t, repo.Create(ctx, testComplaint("telegram:202")))
	require.NoError(t, repo.Create(ctx, testComplaint("telegram:101")))

	items, err := repo.ListBySubmitter(ctx, "telegram:101", 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "SF-0003", items[0].ID)
	assert.Equal(t, "SF-0001", items[1].ID)
}

func TestUpdateStatusAppendsHistory(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	complaint := testComplaint("telegram:101")
	require.NoError(t, repo.Create(ctx, complaint))

	updated, err := repo.UpdateStatus(ctx, complaint.ID, StatusUpdate{
		NewStatus: domain.ComplaintStatusAcknowledged,
		ChangedBy: domain.ActorAdmin,
		Note:      "Assigned to field team",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ComplaintStatusAcknowledged, updated.Status)

	history, err := repo.History(ctx, complaint.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.ComplaintStatusPending, history[1].OldStatus)
	assert.Equal(t, domain.ComplaintStatusAcknowledged, history[1].NewStatus)
	assert.Equal(t, "Assigned to field team", history[1].Note)
	assert.Equal(t, domain.ActorAdmin, history[1].ChangedBy)
}

func TestUpdateStatusValidateSeesCurrentState(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	complaint := testComplaint("telegram:101")
	require.NoError(t, repo.Create(ctx, complaint))

	var seen domain.ComplaintStatus
	rejection := util.NewInvalidTransition("pending", "resolved")
	_, err := repo.UpdateStatus(ctx, complaint.ID, StatusUpdate{
		NewStatus: domain.ComplaintStatusResolved,
		ChangedBy: domain.ActorAdmin,
		Validate: func(current domain.ComplaintStatus) error {
			seen = current
			return rejection
		},
	})
	assert.ErrorIs(t, err, rejection)
	assert.Equal(t, domain.ComplaintStatusPending, seen)

	// A rejected update leaves no trace.
	got, err := repo.GetByID(ctx, complaint.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ComplaintStatusPending, got.Status)
	history, err := repo.History(ctx, complaint.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestHistoryReplaysStatusPath(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	complaint := testComplaint("telegram:101")
	require.NoError(t, repo.Create(ctx, complaint))

	path := []domain.ComplaintStatus{
		domain.ComplaintStatusAcknowledged,
		domain.ComplaintStatusInProgress,
		domain.ComplaintStatusResolved,
		domain.ComplaintStatusClosed,
	}
	for _, status := range path {
		_, err := repo.UpdateStatus(ctx, complaint.ID, StatusUpdate{
			NewStatus: status,
			ChangedBy: domain.ActorAdmin,
		})
		require.NoError(t, err)
	}

	history, err := repo.History(ctx, complaint.ID)
	require.NoError(t, err)
	require.Len(t, history, len(path)+1)

	// Each entry's old status chains from the previous entry's new status,
	// and replaying ends at the stored status.
	replayed := history[0].NewStatus
	for _, entry := range history[1:] {
		assert.Equal(t, replayed, entry.OldStatus)
		replayed = entry.NewStatus
	}
	got, err := repo.GetByID(ctx, complaint.ID)
	require.NoError(t, err)
	assert.Equal(t, got.Status, replayed)
}

func TestStatsAggregates(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	urgentWater := testComplaint("telegram:101")
	urgentWater.DepartmentID = "water"
	urgentWater.Priority = domain.PriorityUrgent
	require.NoError(t, repo.Create(ctx, urgentWater))
	require.NoError(t, repo.Create(ctx, testComplaint("telegram:202")))

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 2, stats.ByStatus["pending"])
	assert.Equal(t, 1, stats.ByDepartment["water"])
	assert.Equal(t, 1, stats.ByDepartment["electrical"])
	assert.Equal(t, 1, stats.ByPriority["urgent"])
	assert.Equal(t, 1, stats.ByPriority["medium"])
	assert.Equal(t, 0, stats.ResolvedCount)
	assert.Nil(t, stats.MeanResolutionHours)

	_, err = repo.UpdateStatus(ctx, urgentWater.ID, StatusUpdate{
		NewStatus: domain.ComplaintStatusResolved,
		ChangedBy: domain.ActorAdmin,
	})
	require.NoError(t, err)

	stats, err = repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ResolvedCount)
	require.NotNil(t, stats.MeanResolutionHours)
	assert.GreaterOrEqual(t, *stats.MeanResolutionHours, 0.0)
}
