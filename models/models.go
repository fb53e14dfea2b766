package models

import "time"

// Hazard type values accepted on submission.
var HazardTypes = []string{
	"fire", "electric", "chemical", "mechanical",
	"height", "edge", "environment", "ppe", "other",
}

// Severity values accepted on submission.
var Severities = []string{"low", "medium", "high", "critical"}

// IsValidHazardType reports whether the value is a known hazard type.
func IsValidHazardType(v string) bool {
	for _, t := range HazardTypes {
		if t == v {
			return true
		}
	}
	return false
}

// IsValidSeverity reports whether the value is a known severity.
func IsValidSeverity(v string) bool {
	for _, s := range Severities {
		if s == v {
			return true
		}
	}
	return false
}

// Report is a hazard report row. Identity and classification fields
// are set once at submission; status, plan, assignment and the
// rectification evidence change only through the lifecycle methods.
type Report struct {
	ID              int64     `json:"id"`
	ReporterID      string    `json:"reporter_id,omitempty"`
	ReporterName    string    `json:"reporter_name,omitempty"`
	Description     string    `json:"description"`
	HazardType      string    `json:"hazard_type"`
	Severity        string    `json:"severity"`
	Location        string    `json:"location"`
	Section         string    `json:"section"`
	Status          string    `json:"status"`
	AssignedTo      *string   `json:"assigned_to,omitempty"`
	Plan            *string   `json:"plan,omitempty"`
	Feedback        *string   `json:"feedback,omitempty"`
	InitialImages   []string  `json:"initial_images"`
	RectifiedImages []string  `json:"rectified_images"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// HistoryEntry is one row of a report's append-only audit trail.
type HistoryEntry struct {
	ID          int64     `json:"id"`
	ReportID    int64     `json:"report_id"`
	UserID      string    `json:"user_id"`
	UserName    string    `json:"user_name,omitempty"`
	Action      string    `json:"action"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Principal is the authenticated caller, as decoded from the bearer
// token by the auth collaborator.
type Principal struct {
	UserID          string
	Role            string
	NickName        string
	ManagedSections []string
}

// Roles known to the system.
const (
	RoleEmployee = "employee"
	RoleAdmin    = "admin"
)

// IsAdmin reports whether the principal holds the admin role.
func (p *Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// ManagesSection reports whether the principal may act on the section.
// An admin with no managed_sections claim manages every section.
func (p *Principal) ManagesSection(section string) bool {
	if !p.IsAdmin() {
		return false
	}
	if len(p.ManagedSections) == 0 {
		return true
	}
	for _, s := range p.ManagedSections {
		if s == section {
			return true
		}
	}
	return false
}

// SubmitReportRequest is the body of POST /report/submit.
type SubmitReportRequest struct {
	Description   string   `json:"description"`
	HazardType    string   `json:"hazardType"`
	Severity      string   `json:"severity"`
	Location      string   `json:"location"`
	Section       string   `json:"section"`
	InitialImages []string `json:"initialImages"`
}

// UpdateStatusRequest is the body of PUT /report/:id/status.
type UpdateStatusRequest struct {
	Status     string  `json:"status"`
	AssignedTo *string `json:"assignedTo"`
	Plan       *string `json:"plan"`
	Feedback   *string `json:"feedback"`
	IsRejected bool    `json:"isRejected"`
}

// CompleteReportRequest is the body of POST /report/:id/complete.
type CompleteReportRequest struct {
	RectifiedImages []string `json:"rectified_images"`
	Plan            string   `json:"plan"`
}

// RectifiedImagesRequest is the body of POST /report/:id/images.
type RectifiedImagesRequest struct {
	Images []string `json:"images"`
}

// AddHistoryRequest is the body of POST /report/:id/history.
type AddHistoryRequest struct {
	Action      string `json:"action"`
	Description string `json:"description"`
}

// ListFilter narrows a report listing query.
type ListFilter struct {
	// Statuses holds canonical statuses; alias folding happens before
	// the filter is built.
	Statuses []string
	Section  string
	// Sections restricts results to an admin's managed sections when
	// no explicit section was requested.
	Sections   []string
	Severity   string
	ReporterID string
	Page       int
	Limit      int
}

// Pagination is the listing envelope metadata.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// ReportList is the data payload of the listing endpoints.
type ReportList struct {
	Reports    []Report   `json:"reports"`
	Pagination Pagination `json:"pagination"`
}

// HazardCount is one bucket of the hazard type distribution.
type HazardCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// StatsRange echoes the effective time bounds of a stats query.
type StatsRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Stats is the payload of GET /report/stats. HazardChart carries the
// distribution pre-normalized to whole percentages for the ring chart.
type Stats struct {
	StatusCounts   map[string]int    `json:"statusCounts"`
	HazardDist     []HazardCount     `json:"hazardDistribution"`
	HazardChart    []ChartPercentage `json:"hazardChart"`
	TotalReports   int               `json:"totalReports"`
	ResolutionRate int               `json:"resolutionRate"`
	Range          StatsRange        `json:"range"`
}

// ReportEvent is the message published to RabbitMQ on every accepted
// lifecycle mutation.
type ReportEvent struct {
	Event      string    `json:"event"`
	ReportID   int64     `json:"report_id"`
	Section    string    `json:"section"`
	Status     string    `json:"status"`
	HazardType string    `json:"hazard_type"`
	Severity   string    `json:"severity"`
	ActorID    string    `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Lifecycle event names.
const (
	EventReportCreated   = "report.created"
	EventReportConfirmed = "report.confirmed"
	EventReportCompleted = "report.completed"
	EventReportRejected  = "report.rejected"
)
