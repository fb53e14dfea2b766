package models

// Canonical report statuses. Earlier revisions of the system used a
// six-value vocabulary (pending/submitted/assigned/processing/
// completed/rejected); stored rows may still carry the legacy values,
// so every read boundary must pass through NormalizeStatus.
const (
	StatusSubmitted  = "submitted"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
)

// Legacy status aliases still present in old rows.
const (
	legacyPending  = "pending"
	legacyAssigned = "assigned"
	legacyRejected = "rejected"
)

// statusAliases maps legacy statuses onto the canonical set.
var statusAliases = map[string]string{
	legacyPending:  StatusSubmitted,
	legacyAssigned: StatusProcessing,
	legacyRejected: StatusCompleted,
}

// statusRank orders the canonical statuses; transitions only move to a
// strictly higher rank.
var statusRank = map[string]int{
	StatusSubmitted:  0,
	StatusProcessing: 1,
	StatusCompleted:  2,
}

// RejectedPlanSentinel is stored as the remediation plan when a report
// is closed via the rejection shortcut.
const RejectedPlanSentinel = "已驳回，无须处理"

// NormalizeStatus folds legacy aliases into the canonical status set.
// Unknown values are returned unchanged.
func NormalizeStatus(status string) string {
	if canonical, ok := statusAliases[status]; ok {
		return canonical
	}
	return status
}

// IsValidStatus reports whether the value is canonical or a known
// legacy alias.
func IsValidStatus(status string) bool {
	_, canonical := statusRank[status]
	_, alias := statusAliases[status]
	return canonical || alias
}

// StatusRank returns the position of the (normalized) status in the
// forward-only order, or -1 for unknown values.
func StatusRank(status string) int {
	if rank, ok := statusRank[NormalizeStatus(status)]; ok {
		return rank
	}
	return -1
}

// StatusWithAliases returns every stored value that folds into the
// given canonical status, for use in SQL IN filters over legacy rows.
func StatusWithAliases(status string) []string {
	switch NormalizeStatus(status) {
	case StatusSubmitted:
		return []string{StatusSubmitted, legacyPending}
	case StatusProcessing:
		return []string{StatusProcessing, legacyAssigned}
	case StatusCompleted:
		return []string{StatusCompleted, legacyRejected}
	default:
		return []string{status}
	}
}

// StatusLabel returns the user-facing Chinese label for a status.
func StatusLabel(status string) string {
	switch NormalizeStatus(status) {
	case StatusSubmitted:
		return "待处理"
	case StatusProcessing:
		return "处理中"
	case StatusCompleted:
		return "已办结"
	default:
		return status
	}
}
