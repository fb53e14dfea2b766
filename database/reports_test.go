package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jknair0/beforeeach"

	"github.com/luishou/safe-xcx/models"
)

var (
	conn *sql.DB
	mock sqlmock.Sqlmock
	d    *Database
)

func setUp() {
	conn, mock, _ = sqlmock.New()
	d = NewDatabaseFromConn(conn)
}

func tearDown() {
	conn.Close()
}

var it = beforeeach.Create(setUp, tearDown)

var reportCols = []string{
	"id", "reporter_id", "reporter_name", "description", "hazard_type", "severity",
	"location", "section", "status", "assigned_to", "plan", "feedback",
	"initial_images", "rectified_images", "created_at", "updated_at",
}

func reportRow(id int64, status string) []driverValue {
	now := time.Now()
	return []driverValue{
		id, "u1", "张三", "裸露电线", "electric", "high",
		"3号楼二层", "TJ01", status, nil, nil, nil,
		`["https://cos.example.com/a.jpg"]`, nil, now, now,
	}
}

type driverValue = driver.Value

func TestCreateReport(t *testing.T) {
	it(func() {
		req := &models.SubmitReportRequest{
			Description:   "基坑边缘无防护栏",
			HazardType:    "edge",
			Severity:      "high",
			Location:      "西侧基坑",
			Section:       "TJ01",
			InitialImages: []string{"https://cos.example.com/a.jpg"},
		}

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO reports").
			WithArgs("u1", "张三", req.Description, req.HazardType, req.Severity,
				req.Location, req.Section, models.StatusSubmitted,
				`["https://cos.example.com/a.jpg"]`, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(42, 1))
		mock.ExpectExec("INSERT INTO report_history").
			WithArgs(int64(42), "u1", "提交举报", "用户张三提交了举报", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		id, err := d.CreateReport(context.Background(), req, "u1", "张三")
		if err != nil {
			t.Fatalf("CreateReport: %v", err)
		}
		if id != 42 {
			t.Errorf("id = %d, want 42", id)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Error(err)
		}
	})
}

func TestCreateReportValidation(t *testing.T) {
	it(func() {
		testCases := []struct {
			name string
			req  models.SubmitReportRequest
		}{
			{"missing description", models.SubmitReportRequest{HazardType: "fire", Severity: "low", Location: "门口", Section: "TJ01"}},
			{"missing hazard type", models.SubmitReportRequest{Description: "x", Severity: "low", Location: "门口", Section: "TJ01"}},
			{"missing severity", models.SubmitReportRequest{Description: "x", HazardType: "fire", Location: "门口", Section: "TJ01"}},
			{"missing location", models.SubmitReportRequest{Description: "x", HazardType: "fire", Severity: "low", Section: "TJ01"}},
			{"missing section", models.SubmitReportRequest{Description: "x", HazardType: "fire", Severity: "low", Location: "门口"}},
			{"unknown hazard type", models.SubmitReportRequest{Description: "x", HazardType: "cosmic", Severity: "low", Location: "门口", Section: "TJ01"}},
			{"unknown severity", models.SubmitReportRequest{Description: "x", HazardType: "fire", Severity: "extreme", Location: "门口", Section: "TJ01"}},
		}

		for _, tc := range testCases {
			_, err := d.CreateReport(context.Background(), &tc.req, "u1", "张三")
			if !errors.Is(err, ErrValidation) {
				t.Errorf("%s: err = %v, want ErrValidation", tc.name, err)
			}
		}
		// No statements may reach the database on validation failure.
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Error(err)
		}
	})
}

func TestGetReportNormalizesLegacyStatus(t *testing.T) {
	it(func() {
		rows := sqlmock.NewRows(reportCols).AddRow(reportRow(7, "assigned")...)
		mock.ExpectQuery("SELECT (.+) FROM reports WHERE id = ?").
			WithArgs(int64(7)).
			WillReturnRows(rows)

		report, err := d.GetReport(context.Background(), 7)
		if err != nil {
			t.Fatalf("GetReport: %v", err)
		}
		if report.Status != models.StatusProcessing {
			t.Errorf("status = %q, want processing", report.Status)
		}
		if len(report.InitialImages) != 1 {
			t.Errorf("initial images = %v, want 1 url", report.InitialImages)
		}
		if len(report.RectifiedImages) != 0 {
			t.Errorf("rectified images = %v, want empty", report.RectifiedImages)
		}
	})
}

func TestGetReportNotFound(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT (.+) FROM reports WHERE id = ?").
			WithArgs(int64(99)).
			WillReturnError(sql.ErrNoRows)

		_, err := d.GetReport(context.Background(), 99)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestAddHistoryMissingReport(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT 1 FROM reports WHERE id = ?").
			WithArgs(int64(99)).
			WillReturnError(sql.ErrNoRows)

		err := d.AddHistory(context.Background(), 99, "u1", "补充说明", "现场复查")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestAddHistoryRequiresAction(t *testing.T) {
	it(func() {
		err := d.AddHistory(context.Background(), 1, "u1", "", "desc")
		if !errors.Is(err, ErrValidation) {
			t.Errorf("err = %v, want ErrValidation", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Error(err)
		}
	})
}

func TestListReportsPagination(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM reports").
			WithArgs("TJ01").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(41))

		rows := sqlmock.NewRows(reportCols).
			AddRow(reportRow(2, "pending")...).
			AddRow(reportRow(1, "completed")...)
		mock.ExpectQuery("SELECT (.+) FROM reports (.+) ORDER BY updated_at DESC").
			WithArgs("TJ01", 20, 0).
			WillReturnRows(rows)

		list, err := d.ListReports(context.Background(), &models.ListFilter{Section: "TJ01"})
		if err != nil {
			t.Fatalf("ListReports: %v", err)
		}
		if list.Pagination.Total != 41 || list.Pagination.Page != 1 || list.Pagination.Limit != 20 {
			t.Errorf("pagination = %+v", list.Pagination)
		}
		if list.Pagination.TotalPages != 3 {
			t.Errorf("totalPages = %d, want 3", list.Pagination.TotalPages)
		}
		if list.Reports[0].Status != models.StatusSubmitted {
			t.Errorf("legacy pending not folded: %q", list.Reports[0].Status)
		}
	})
}

func TestListReportsStatusFilterIncludesAliases(t *testing.T) {
	it(func() {
		// A canonical processing filter must also match legacy
		// 'assigned' rows.
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM reports").
			WithArgs("processing", "assigned").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery("status IN \\(\\?,\\?\\)").
			WithArgs("processing", "assigned", 20, 0).
			WillReturnRows(sqlmock.NewRows(reportCols))

		list, err := d.ListReports(context.Background(), &models.ListFilter{
			Statuses: []string{models.StatusProcessing},
		})
		if err != nil {
			t.Fatalf("ListReports: %v", err)
		}
		if len(list.Reports) != 0 {
			t.Errorf("reports = %v, want empty", list.Reports)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Error(err)
		}
	})
}
