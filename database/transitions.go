package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/apex/log"

	"github.com/luishou/safe-xcx/models"
)

// History labels for the lifecycle events.
const (
	actionConfirm  = "确认处理"
	actionComplete = "完成办结"
	actionReject   = "驳回办结"
	descConfirm    = "已确认接收任务，正在处理中"
	descComplete   = "隐患已整改完成，确认办结"
	descReject     = "确认为非隐患，直接办结"
)

// lockReport reads a report's lifecycle fields under FOR UPDATE so a
// concurrent transition on the same row blocks until commit.
func lockReport(ctx context.Context, tx *sql.Tx, id int64) (status string, section string, rectifiedRaw string, plan sql.NullString, err error) {
	var rectified sql.NullString
	err = tx.QueryRowContext(ctx, `
		SELECT status, section, rectified_images, plan
		FROM reports
		WHERE id = ?
		FOR UPDATE`, id).Scan(&status, &section, &rectified, &plan)
	if err != nil {
		if err == sql.ErrNoRows {
			err = ErrNotFound
		} else {
			err = fmt.Errorf("failed to lock report: %w", err)
		}
		return
	}
	status = models.NormalizeStatus(status)
	rectifiedRaw = rectified.String
	return
}

// ConfirmProcessing moves a submitted report to processing. Optional
// assignment and feedback fields are applied with the transition.
func (d *Database) ConfirmProcessing(ctx context.Context, id int64, userID string, assignedTo, plan, feedback *string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	status, _, _, _, err := lockReport(ctx, tx, id)
	if err != nil {
		return err
	}
	if status != models.StatusSubmitted {
		return fmt.Errorf("%w: report is %s, expected %s", ErrInvalidTransition, status, models.StatusSubmitted)
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx, `
		UPDATE reports
		SET status = ?,
		    assigned_to = COALESCE(?, assigned_to),
		    plan = COALESCE(?, plan),
		    feedback = COALESCE(?, feedback),
		    updated_at = ?
		WHERE id = ?`,
		models.StatusProcessing, assignedTo, plan, feedback, now, id)
	if err != nil {
		return fmt.Errorf("failed to update report status: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO report_history (report_id, user_id, action, description, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		id, userID, actionConfirm, descConfirm, now)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithField("report_id", id).WithField("user_id", userID).Info("report confirmed for processing")
	return nil
}

// RejectAndClose closes a report without remediation. Allowed from
// submitted or processing; the plan is forced to the rejection
// sentinel so the closure reason is unambiguous.
func (d *Database) RejectAndClose(ctx context.Context, id int64, userID string, feedback *string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	status, _, _, _, err := lockReport(ctx, tx, id)
	if err != nil {
		return err
	}
	if models.StatusRank(status) >= models.StatusRank(models.StatusCompleted) {
		return fmt.Errorf("%w: report is already %s", ErrInvalidTransition, status)
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx, `
		UPDATE reports
		SET status = ?,
		    plan = ?,
		    feedback = COALESCE(?, feedback),
		    updated_at = ?
		WHERE id = ?`,
		models.StatusCompleted, models.RejectedPlanSentinel, feedback, now, id)
	if err != nil {
		return fmt.Errorf("failed to update report status: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO report_history (report_id, user_id, action, description, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		id, userID, actionReject, descReject, now)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithField("report_id", id).WithField("user_id", userID).Info("report rejected and closed")
	return nil
}

// CompleteWithEvidence closes a processing report with the remediation
// plan and photo evidence. The precondition is re-checked under the
// row lock, so retrying after a timeout cannot apply twice.
func (d *Database) CompleteWithEvidence(ctx context.Context, id int64, userID string, rectifiedImages []string, plan string) error {
	if len(rectifiedImages) == 0 {
		return fmt.Errorf("%w: rectified images are required", ErrValidation)
	}
	if plan == "" {
		return fmt.Errorf("%w: remediation plan is required", ErrValidation)
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	status, _, _, _, err := lockReport(ctx, tx, id)
	if err != nil {
		return err
	}
	if status != models.StatusProcessing {
		return fmt.Errorf("%w: report is %s, expected %s", ErrInvalidTransition, status, models.StatusProcessing)
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx, `
		UPDATE reports
		SET status = ?,
		    rectified_images = ?,
		    plan = ?,
		    updated_at = ?
		WHERE id = ?`,
		models.StatusCompleted, models.EncodeImageList(rectifiedImages), plan, now, id)
	if err != nil {
		return fmt.Errorf("failed to update report status: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO report_history (report_id, user_id, action, description, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		id, userID, actionComplete, descComplete, now)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithField("report_id", id).WithField("user_id", userID).Info("report completed with evidence")
	return nil
}

// CompleteFromStored closes a processing report using the evidence
// already on the row (uploaded earlier via the images endpoint). An
// explicit plan overrides the stored one; either way plan and photos
// must be present at commit time.
func (d *Database) CompleteFromStored(ctx context.Context, id int64, userID string, plan *string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	status, _, rectifiedRaw, storedPlan, err := lockReport(ctx, tx, id)
	if err != nil {
		return err
	}
	if status != models.StatusProcessing {
		return fmt.Errorf("%w: report is %s, expected %s", ErrInvalidTransition, status, models.StatusProcessing)
	}

	effectivePlan := storedPlan.String
	if plan != nil && *plan != "" {
		effectivePlan = *plan
	}
	if effectivePlan == "" {
		return fmt.Errorf("%w: remediation plan is required", ErrValidation)
	}
	if len(models.ParseImageList(rectifiedRaw)) == 0 {
		return fmt.Errorf("%w: rectified images are required", ErrValidation)
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx, `
		UPDATE reports
		SET status = ?,
		    plan = ?,
		    updated_at = ?
		WHERE id = ?`,
		models.StatusCompleted, effectivePlan, now, id)
	if err != nil {
		return fmt.Errorf("failed to update report status: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO report_history (report_id, user_id, action, description, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		id, userID, actionComplete, descComplete, now)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithField("report_id", id).WithField("user_id", userID).Info("report completed")
	return nil
}

// SetRectifiedImages replaces a report's rectification photos without
// touching its status.
func (d *Database) SetRectifiedImages(ctx context.Context, id int64, images []string) error {
	if len(images) == 0 {
		return fmt.Errorf("%w: images are required", ErrValidation)
	}

	result, err := d.db.ExecContext(ctx, `
		UPDATE reports
		SET rectified_images = ?, updated_at = ?
		WHERE id = ?`,
		models.EncodeImageList(images), time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update rectified images: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
