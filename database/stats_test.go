package database

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/luishou/safe-xcx/models"
)

func TestGetStatsFoldsLegacyAliases(t *testing.T) {
	it(func() {
		statusRows := sqlmock.NewRows([]string{"status", "count"}).
			AddRow("submitted", 2).
			AddRow("pending", 1).
			AddRow("assigned", 3).
			AddRow("completed", 3).
			AddRow("rejected", 1).
			AddRow("archived", 5)
		mock.ExpectQuery("SELECT status, COUNT\\(\\*\\) FROM reports").
			WithArgs("TJ01", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(statusRows)

		hazardRows := sqlmock.NewRows([]string{"hazard_type", "count"}).
			AddRow("fire", 4).
			AddRow("electric", 6)
		mock.ExpectQuery("SELECT hazard_type, COUNT\\(\\*\\) FROM reports").
			WithArgs("TJ01", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(hazardRows)

		stats, err := d.GetStats(context.Background(), "TJ01", nil, nil)
		if err != nil {
			t.Fatalf("GetStats: %v", err)
		}

		if stats.StatusCounts[models.StatusSubmitted] != 3 {
			t.Errorf("submitted = %d, want 3 (pending folded in)", stats.StatusCounts[models.StatusSubmitted])
		}
		if stats.StatusCounts[models.StatusProcessing] != 3 {
			t.Errorf("processing = %d, want 3 (assigned folded in)", stats.StatusCounts[models.StatusProcessing])
		}
		if stats.StatusCounts[models.StatusCompleted] != 4 {
			t.Errorf("completed = %d, want 4 (rejected folded in)", stats.StatusCounts[models.StatusCompleted])
		}
		// The unrecognized "archived" rows must not leak a fourth
		// bucket or inflate the total.
		if len(stats.StatusCounts) != 3 {
			t.Errorf("status buckets = %d, want 3: %+v", len(stats.StatusCounts), stats.StatusCounts)
		}
		if stats.TotalReports != 10 {
			t.Errorf("total = %d, want 10", stats.TotalReports)
		}

		// Status counts must sum to the total.
		sum := 0
		for _, c := range stats.StatusCounts {
			sum += c
		}
		if sum != stats.TotalReports {
			t.Errorf("status counts sum to %d, want %d", sum, stats.TotalReports)
		}

		// round(4/10*100) = 40.
		if stats.ResolutionRate != 40 {
			t.Errorf("resolutionRate = %d, want 40", stats.ResolutionRate)
		}
		if stats.Range.Start == "" || stats.Range.End == "" {
			t.Errorf("range not echoed: %+v", stats.Range)
		}

		chartSum := 0
		for _, p := range stats.HazardChart {
			chartSum += p.Percentage
		}
		if chartSum != 100 {
			t.Errorf("chart percentages sum to %d, want 100", chartSum)
		}
	})
}

func TestGetStatsEmptyRange(t *testing.T) {
	it(func() {
		start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2025, 1, 31, 23, 59, 59, 0, time.UTC)

		mock.ExpectQuery("SELECT status, COUNT\\(\\*\\) FROM reports").
			WithArgs("TJ02", start, end).
			WillReturnRows(sqlmock.NewRows([]string{"status", "count"}))
		mock.ExpectQuery("SELECT hazard_type, COUNT\\(\\*\\) FROM reports").
			WithArgs("TJ02", start, end).
			WillReturnRows(sqlmock.NewRows([]string{"hazard_type", "count"}))

		stats, err := d.GetStats(context.Background(), "TJ02", &start, &end)
		if err != nil {
			t.Fatalf("GetStats: %v", err)
		}

		if stats.TotalReports != 0 || stats.ResolutionRate != 0 {
			t.Errorf("empty range should be all zeros, got %+v", stats)
		}
		for status, count := range stats.StatusCounts {
			if count != 0 {
				t.Errorf("status %q = %d, want 0", status, count)
			}
		}
		if stats.Range.Start != "2025-01-01 00:00:00" || stats.Range.End != "2025-01-31 23:59:59" {
			t.Errorf("range = %+v", stats.Range)
		}
	})
}

func TestGetStatsRequiresSection(t *testing.T) {
	it(func() {
		_, err := d.GetStats(context.Background(), "", nil, nil)
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("err = %v, want ErrValidation", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Error(err)
		}
	})
}
