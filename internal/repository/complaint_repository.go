package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/grievance-service/internal/domain"
)

const timeLayout = time.RFC3339Nano

// ComplaintFilter captures list query parameters. Filters combine
// conjunctively; Limit and Offset page the result.
type ComplaintFilter struct {
	Status     *domain.ComplaintStatus
	Department *string
	Priority   *domain.PriorityLevel
	Limit      int
	Offset     int
}

// StatusUpdate describes one requested transition. Validate runs inside
// the update transaction against the row's current status, so two
// concurrent updates apply as a serial pair and each sees the state the
// other produced.
type StatusUpdate struct {
	NewStatus domain.ComplaintStatus
	ChangedBy string
	Note      string
	Validate  func(current domain.ComplaintStatus) error
}

// Stats aggregates complaint counts for the admin dashboard.
type Stats struct {
	Total               int
	ByStatus            map[string]int
	ByDepartment        map[string]int
	ByPriority          map[string]int
	ResolvedCount       int
	MeanResolutionHours *float64
}

// ComplaintRepository encapsulates complaint and history persistence.
// History rows belong to the complaint aggregate: creation and status
// changes write both tables atomically.
type ComplaintRepository interface {
	Create(ctx context.Context, complaint *domain.Complaint) error
	GetByID(ctx context.Context, publicID string) (*domain.Complaint, error)
	List(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, int, error)
	ListBySubmitter(ctx context.Context, submitterRef string, limit int) ([]domain.Complaint, error)
	UpdateStatus(ctx context.Context, publicID string, update StatusUpdate) (*domain.Complaint, error)
	History(ctx context.Context, publicID string) ([]domain.StatusHistoryEntry, error)
	Stats(ctx context.Context) (*Stats, error)
}

type complaintRepository struct {
	db *sql.DB
}

// NewComplaintRepository instantiates the repository.
func NewComplaintRepository(db *sql.DB) ComplaintRepository {
	return &complaintRepository{db: db}
}

const complaintColumns = `seq, submitter_ref, submitter_name, raw_text, issue_type, location,
               department_id, priority, status, confidence, summary, sla_hours, created_at, updated_at`

func (r *complaintRepository) Create(ctx context.Context, complaint *domain.Complaint) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	complaint.Status = domain.ComplaintStatusPending
	complaint.CreatedAt = now
	complaint.UpdatedAt = now

	res, err := tx.ExecContext(ctx, `
        INSERT INTO complaints (submitter_ref, submitter_name, raw_text, issue_type, location,
            department_id, priority, status, confidence, summary, sla_hours, created_at, updated_at)
        VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		complaint.SubmitterRef,
		complaint.SubmitterName,
		complaint.RawText,
		complaint.IssueType,
		complaint.Location,
		complaint.DepartmentID,
		complaint.Priority,
		complaint.Status,
		complaint.Confidence,
		complaint.Summary,
		complaint.SLAHours,
		formatTime(now),
		formatTime(now),
	)
	if err != nil {
		return err
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return err
	}

	// The first history entry records the initial state so replaying the
	// chain always starts at pending.
	if _, err := tx.ExecContext(ctx, `
        INSERT INTO status_history (complaint_seq, old_status, new_status, note, changed_by, changed_at)
        VALUES (?,?,?,?,?,?)`,
		seq,
		domain.ComplaintStatusPending,
		domain.ComplaintStatusPending,
		"Complaint registered",
		domain.ActorSystem,
		formatTime(now),
	); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	complaint.Seq = seq
	complaint.ID = domain.FormatComplaintID(seq)
	return nil
}

func (r *complaintRepository) GetByID(ctx context.Context, publicID string) (*domain.Complaint, error) {
	seq, err := domain.ParseComplaintID(publicID)
	if err != nil {
		return nil, sql.ErrNoRows
	}
	row := r.db.QueryRowContext(ctx,
		`SELECT `+complaintColumns+` FROM complaints WHERE seq=?`, seq)
	return scanComplaint(row)
}

func (r *complaintRepository) List(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, int, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != nil {
		clauses = append(clauses, "status=?")
		args = append(args, *filter.Status)
	}
	if filter.Department != nil {
		clauses = append(clauses, "department_id=?")
		args = append(args, *filter.Department)
	}
	if filter.Priority != nil {
		clauses = append(clauses, "priority=?")
		args = append(args, *filter.Priority)
	}
	where := strings.Join(clauses, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM complaints WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	// seq ascending keeps offset pagination stable: inserts only ever
	// append past the last page, so a row already served on one page can
	// neither reappear later nor vanish from an earlier page.
	query := fmt.Sprintf(`SELECT %s FROM complaints WHERE %s ORDER BY seq ASC LIMIT %d OFFSET %d`,
		complaintColumns, where, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items, err := scanComplaints(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *complaintRepository) ListBySubmitter(ctx context.Context, submitterRef string, limit int) ([]domain.Complaint, error) {
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM complaints WHERE submitter_ref=? ORDER BY seq DESC LIMIT %d`,
		complaintColumns, limit)

	rows, err := r.db.QueryContext(ctx, query, submitterRef)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComplaints(rows)
}

func (r *complaintRepository) UpdateStatus(ctx context.Context, publicID string, update StatusUpdate) (*domain.Complaint, error) {
	seq, err := domain.ParseComplaintID(publicID)
	if err != nil {
		return nil, sql.ErrNoRows
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT `+complaintColumns+` FROM complaints WHERE seq=?`, seq)
	complaint, err := scanComplaint(row)
	if err != nil {
		return nil, err
	}

	if update.Validate != nil {
		if err := update.Validate(complaint.Status); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE complaints SET status=?, updated_at=? WHERE seq=?`,
		update.NewStatus, formatTime(now), seq); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `
        INSERT INTO status_history (complaint_seq, old_status, new_status, note, changed_by, changed_at)
        VALUES (?,?,?,?,?,?)`,
		seq, complaint.Status, update.NewStatus, update.Note, update.ChangedBy, formatTime(now),
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	complaint.Status = update.NewStatus
	complaint.UpdatedAt = now
	return complaint, nil
}

func (r *complaintRepository) History(ctx context.Context, publicID string) ([]domain.StatusHistoryEntry, error) {
	seq, err := domain.ParseComplaintID(publicID)
	if err != nil {
		return nil, sql.ErrNoRows
	}

	rows, err := r.db.QueryContext(ctx, `
        SELECT id, complaint_seq, old_status, new_status, note, changed_by, changed_at
        FROM status_history WHERE complaint_seq=? ORDER BY id ASC`, seq)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StatusHistoryEntry
	for rows.Next() {
		var entry domain.StatusHistoryEntry
		var complaintSeq int64
		var changedAt string
		if err := rows.Scan(
			&entry.ID,
			&complaintSeq,
			&entry.OldStatus,
			&entry.NewStatus,
			&entry.Note,
			&entry.ChangedBy,
			&changedAt,
		); err != nil {
			return nil, err
		}
		entry.ComplaintID = domain.FormatComplaintID(complaintSeq)
		if entry.ChangedAt, err = parseTime(changedAt); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *complaintRepository) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ByStatus:     map[string]int{},
		ByDepartment: map[string]int{},
		ByPriority:   map[string]int{},
	}

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM complaints`).Scan(&stats.Total); err != nil {
		return nil, err
	}
	for column, target := range map[string]map[string]int{
		"status":        stats.ByStatus,
		"department_id": stats.ByDepartment,
		"priority":      stats.ByPriority,
	} {
		if err := r.groupCounts(ctx, column, target); err != nil {
			return nil, err
		}
	}

	// Resolution time spans creation to the first resolved history entry.
	// Averaged in Go to keep timestamp handling in one place.
	rows, err := r.db.QueryContext(ctx, `
        SELECT created_at, resolved_at FROM (
            SELECT c.created_at AS created_at,
                   (SELECT h.changed_at FROM status_history h
                     WHERE h.complaint_seq = c.seq AND h.new_status = 'resolved'
                     ORDER BY h.id LIMIT 1) AS resolved_at
            FROM complaints c
        ) WHERE resolved_at IS NOT NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totalHours float64
	for rows.Next() {
		var createdRaw, resolvedRaw string
		if err := rows.Scan(&createdRaw, &resolvedRaw); err != nil {
			return nil, err
		}
		created, err := parseTime(createdRaw)
		if err != nil {
			return nil, err
		}
		resolved, err := parseTime(resolvedRaw)
		if err != nil {
			return nil, err
		}
		totalHours += resolved.Sub(created).Hours()
		stats.ResolvedCount++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if stats.ResolvedCount > 0 {
		mean := totalHours / float64(stats.ResolvedCount)
		stats.MeanResolutionHours = &mean
	}
	return stats, nil
}

func (r *complaintRepository) groupCounts(ctx context.Context, column string, target map[string]int) error {
	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s, COUNT(*) FROM complaints GROUP BY %s`, column, column))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		target[key] = count
	}
	return rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanComplaint(sc scanner) (*domain.Complaint, error) {
	var c domain.Complaint
	var createdAt, updatedAt string
	if err := sc.Scan(
		&c.Seq,
		&c.SubmitterRef,
		&c.SubmitterName,
		&c.RawText,
		&c.IssueType,
		&c.Location,
		&c.DepartmentID,
		&c.Priority,
		&c.Status,
		&c.Confidence,
		&c.Summary,
		&c.SLAHours,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	c.ID = domain.FormatComplaintID(c.Seq)
	return &c, nil
}

func scanComplaints(rows *sql.Rows) ([]domain.Complaint, error) {
	var result []domain.Complaint
	for rows.Next() {
		complaint, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *complaint)
	}
	return result, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) (time.Time, error) {
	return time.Parse(timeLayout, raw)
}
