package database

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/luishou/safe-xcx/models"
)

// statsTimeLayout matches the MySQL DATETIME rendering the dashboard
// expects in the echoed range.
const statsTimeLayout = "2006-01-02 15:04:05"

// GetStats aggregates a section's reports over an optional date range:
// canonical status counts, hazard type distribution, total and
// resolution rate. Omitted bounds widen to all time.
func (d *Database) GetStats(ctx context.Context, section string, start, end *time.Time) (*models.Stats, error) {
	if section == "" {
		return nil, fmt.Errorf("%w: section is required", ErrValidation)
	}

	effectiveStart := time.Unix(0, 0).UTC()
	if start != nil {
		effectiveStart = *start
	}
	effectiveEnd := time.Now()
	if end != nil {
		effectiveEnd = *end
	}

	statusCounts := map[string]int{
		models.StatusSubmitted:  0,
		models.StatusProcessing: 0,
		models.StatusCompleted:  0,
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT status, COUNT(*)
		FROM reports
		WHERE section = ? AND created_at BETWEEN ? AND ?
		GROUP BY status`,
		section, effectiveStart, effectiveEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to get status counts: %w", err)
	}
	defer rows.Close()

	total := 0
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		// Legacy aliases fold into their canonical bucket; anything
		// else stored in the column is skipped so the map keeps
		// exactly the three canonical keys.
		canonical := models.NormalizeStatus(status)
		if _, ok := statusCounts[canonical]; !ok {
			continue
		}
		statusCounts[canonical] += count
		total += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status counts: %w", err)
	}

	hazardRows, err := d.db.QueryContext(ctx, `
		SELECT hazard_type, COUNT(*)
		FROM reports
		WHERE section = ? AND created_at BETWEEN ? AND ?
		GROUP BY hazard_type`,
		section, effectiveStart, effectiveEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to get hazard distribution: %w", err)
	}
	defer hazardRows.Close()

	dist := []models.HazardCount{}
	for hazardRows.Next() {
		var bucket models.HazardCount
		if err := hazardRows.Scan(&bucket.Type, &bucket.Count); err != nil {
			return nil, fmt.Errorf("failed to scan hazard count: %w", err)
		}
		if bucket.Type == "" {
			bucket.Type = "other"
		}
		dist = append(dist, bucket)
	}
	if err := hazardRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hazard counts: %w", err)
	}

	resolutionRate := 0
	if total > 0 {
		resolutionRate = int(math.Round(float64(statusCounts[models.StatusCompleted]) / float64(total) * 100))
	}

	return &models.Stats{
		StatusCounts:   statusCounts,
		HazardDist:     dist,
		HazardChart:    models.ChartPercentages(dist),
		TotalReports:   total,
		ResolutionRate: resolutionRate,
		Range: models.StatsRange{
			Start: effectiveStart.Format(statsTimeLayout),
			End:   effectiveEnd.Format(statsTimeLayout),
		},
	}, nil
}
