package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/apex/log"

	"github.com/luishou/safe-xcx/config"

	_ "github.com/go-sql-driver/mysql"
)

// Sentinel errors returned by store operations. Handlers map these
// onto HTTP status codes.
var (
	ErrNotFound          = errors.New("report not found")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Database handles all database operations
type Database struct {
	db *sql.DB
}

// NewDatabase creates a new database connection
func NewDatabase(cfg *config.Config) (*Database, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&multiStatements=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	log.WithField("host", cfg.DBHost).WithField("db", cfg.DBName).Info("database connected")

	return &Database{db: db}, nil
}

// NewDatabaseFromConn wraps an existing connection; used by tests.
func NewDatabaseFromConn(db *sql.DB) *Database {
	return &Database{db: db}
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// EnsureReportsTable creates the reports table if it doesn't exist
func (d *Database) EnsureReportsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS reports (
			id INT NOT NULL AUTO_INCREMENT,
			reporter_id VARCHAR(64) NOT NULL,
			reporter_name VARCHAR(100) NOT NULL,
			description TEXT NOT NULL,
			hazard_type ENUM('fire', 'electric', 'chemical', 'mechanical', 'height', 'edge', 'environment', 'ppe', 'other') NOT NULL,
			severity ENUM('low', 'medium', 'high', 'critical') NOT NULL,
			location VARCHAR(255) NOT NULL,
			section VARCHAR(32) NOT NULL,
			status VARCHAR(32) NOT NULL DEFAULT 'submitted',
			assigned_to VARCHAR(100),
			plan TEXT,
			feedback TEXT,
			initial_images TEXT,
			rectified_images TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (id),
			INDEX reporter_idx (reporter_id),
			INDEX section_idx (section),
			INDEX status_idx (status),
			INDEX updated_at_idx (updated_at)
		)
	`

	if _, err := d.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create reports table: %w", err)
	}

	log.Info("reports table ensured")
	return nil
}

// EnsureReportHistoryTable creates the report_history table if it doesn't exist
func (d *Database) EnsureReportHistoryTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS report_history (
			id INT NOT NULL AUTO_INCREMENT,
			report_id INT NOT NULL,
			user_id VARCHAR(64) NOT NULL,
			action VARCHAR(64) NOT NULL,
			description TEXT,
			created_at DATETIME NOT NULL,
			PRIMARY KEY (id),
			INDEX report_idx (report_id),
			FOREIGN KEY (report_id) REFERENCES reports(id) ON DELETE CASCADE
		)
	`

	if _, err := d.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create report_history table: %w", err)
	}

	log.Info("report history table ensured")
	return nil
}
