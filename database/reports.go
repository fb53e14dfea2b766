package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/apex/log"

	"github.com/luishou/safe-xcx/models"
)

const reportColumns = `id, reporter_id, reporter_name, description, hazard_type, severity,
		location, section, status, assigned_to, plan, feedback,
		initial_images, rectified_images, created_at, updated_at`

// CreateReport inserts a new report with status 'submitted' and the
// creation history entry in one transaction, returning the new id.
func (d *Database) CreateReport(ctx context.Context, req *models.SubmitReportRequest, reporterID, reporterName string) (int64, error) {
	if req.Description == "" || req.HazardType == "" || req.Severity == "" || req.Location == "" {
		return 0, fmt.Errorf("%w: missing required field", ErrValidation)
	}
	if req.Section == "" {
		return 0, fmt.Errorf("%w: section is required", ErrValidation)
	}
	if !models.IsValidHazardType(req.HazardType) {
		return 0, fmt.Errorf("%w: unknown hazard type %q", ErrValidation, req.HazardType)
	}
	if !models.IsValidSeverity(req.Severity) {
		return 0, fmt.Errorf("%w: unknown severity %q", ErrValidation, req.Severity)
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	result, err := tx.ExecContext(ctx, `
		INSERT INTO reports (
			reporter_id, reporter_name, description, hazard_type,
			severity, location, section, status, initial_images,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		reporterID, reporterName, req.Description, req.HazardType,
		req.Severity, req.Location, req.Section, models.StatusSubmitted,
		models.EncodeImageList(req.InitialImages), now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to insert report: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get report id: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO report_history (report_id, user_id, action, description, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		id, reporterID, "提交举报", fmt.Sprintf("用户%s提交了举报", reporterName), now)
	if err != nil {
		return 0, fmt.Errorf("failed to insert creation history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithField("report_id", id).WithField("section", req.Section).Info("report created")
	return id, nil
}

// scanReport scans one row into a Report, normalizing the status and
// decoding the image columns.
func scanReport(scanner interface {
	Scan(dest ...interface{}) error
}) (*models.Report, error) {
	var (
		r                        models.Report
		assignedTo, plan         sql.NullString
		feedback                 sql.NullString
		initialRaw, rectifiedRaw sql.NullString
	)
	err := scanner.Scan(
		&r.ID, &r.ReporterID, &r.ReporterName, &r.Description,
		&r.HazardType, &r.Severity, &r.Location, &r.Section, &r.Status,
		&assignedTo, &plan, &feedback, &initialRaw, &rectifiedRaw,
		&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}

	r.Status = models.NormalizeStatus(r.Status)
	if assignedTo.Valid {
		r.AssignedTo = &assignedTo.String
	}
	if plan.Valid {
		r.Plan = &plan.String
	}
	if feedback.Valid {
		r.Feedback = &feedback.String
	}
	r.InitialImages = models.ParseImageList(initialRaw.String)
	r.RectifiedImages = models.ParseImageList(rectifiedRaw.String)
	return &r, nil
}

// GetReport returns a single report by id.
func (d *Database) GetReport(ctx context.Context, id int64) (*models.Report, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT `+reportColumns+`
		FROM reports
		WHERE id = ?`, id)

	report, err := scanReport(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return report, nil
}

// GetReportHistory returns a report's history in commit order.
func (d *Database) GetReportHistory(ctx context.Context, reportID int64) ([]models.HistoryEntry, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, report_id, user_id, action, description, created_at
		FROM report_history
		WHERE report_id = ?
		ORDER BY created_at ASC, id ASC`, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to get report history: %w", err)
	}
	defer rows.Close()

	history := []models.HistoryEntry{}
	for rows.Next() {
		var (
			entry models.HistoryEntry
			desc  sql.NullString
		)
		if err := rows.Scan(&entry.ID, &entry.ReportID, &entry.UserID, &entry.Action, &desc, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entry.Description = desc.String
		history = append(history, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}
	return history, nil
}

// AddHistory appends a free-form history entry without changing the
// report's status.
func (d *Database) AddHistory(ctx context.Context, reportID int64, userID, action, description string) error {
	if action == "" {
		return fmt.Errorf("%w: action is required", ErrValidation)
	}

	var exists int
	err := d.db.QueryRowContext(ctx, "SELECT 1 FROM reports WHERE id = ?", reportID).Scan(&exists)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return fmt.Errorf("failed to check report existence: %w", err)
	}

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO report_history (report_id, user_id, action, description, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		reportID, userID, action, description, time.Now())
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}
	return nil
}

// buildListWhere turns a filter into a WHERE clause and its args.
func buildListWhere(filter *models.ListFilter) (string, []interface{}) {
	clauses := []string{"1=1"}
	args := []interface{}{}

	if len(filter.Statuses) > 0 {
		stored := []string{}
		for _, s := range filter.Statuses {
			stored = append(stored, models.StatusWithAliases(s)...)
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(stored)), ",")
		clauses = append(clauses, "status IN ("+placeholders+")")
		for _, s := range stored {
			args = append(args, s)
		}
	}
	if filter.Section != "" {
		clauses = append(clauses, "section = ?")
		args = append(args, filter.Section)
	} else if len(filter.Sections) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(filter.Sections)), ",")
		clauses = append(clauses, "section IN ("+placeholders+")")
		for _, s := range filter.Sections {
			args = append(args, s)
		}
	}
	if filter.Severity != "" {
		clauses = append(clauses, "severity = ?")
		args = append(args, filter.Severity)
	}
	if filter.ReporterID != "" {
		clauses = append(clauses, "reporter_id = ?")
		args = append(args, filter.ReporterID)
	}

	return "WHERE " + strings.Join(clauses, " AND "), args
}

// ListReports returns one page of reports matching the filter, newest
// update first, with the pagination envelope.
func (d *Database) ListReports(ctx context.Context, filter *models.ListFilter) (*models.ReportList, error) {
	where, args := buildListWhere(filter)

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 20
	}
	offset := (page - 1) * limit

	var total int
	countArgs := make([]interface{}, len(args))
	copy(countArgs, args)
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reports "+where, countArgs...).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("failed to count reports: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT `+reportColumns+`
		FROM reports
		%s
		ORDER BY updated_at DESC
		LIMIT ? OFFSET ?`, where)
	rows, err := d.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	reports := []models.Report{}
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, *report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return &models.ReportList{
		Reports: reports,
		Pagination: models.Pagination{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: totalPages,
		},
	}, nil
}

// ListSectionReports returns every report in a section, newest update
// first, for the spreadsheet export.
func (d *Database) ListSectionReports(ctx context.Context, section string) ([]models.Report, error) {
	if section == "" {
		return nil, fmt.Errorf("%w: section is required", ErrValidation)
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT `+reportColumns+`
		FROM reports
		WHERE section = ?
		ORDER BY updated_at DESC`, section)
	if err != nil {
		return nil, fmt.Errorf("failed to list section reports: %w", err)
	}
	defer rows.Close()

	reports := []models.Report{}
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, *report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}
	return reports, nil
}
