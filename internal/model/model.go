// Package model holds the shared catalog types persisted by the store.
package model

import (
	"strconv"
	"strings"
	"time"
)

// Role is a reviewer's access level.
type Role string

const (
	RoleContributor   Role = "contributor"
	RoleSupervisor    Role = "supervisor"
	RoleAdministrator Role = "administrator"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleContributor, RoleSupervisor, RoleAdministrator:
		return true
	}
	return false
}

// User is a reviewer account. PasswordHash is a bcrypt hash and is never
// serialized to API responses.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name"`
	Role         Role      `json:"role"`
	InviteCode   string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Paper is one screened catalog entry.
type Paper struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Authors       string    `json:"authors"`
	Year          int       `json:"year,omitempty"`
	Abstract      string    `json:"abstract"`
	DOI           string    `json:"doi"`
	Source        string    `json:"source"`
	NLPConfidence string    `json:"nlp_confidence"`
	NLPReason     string    `json:"nlp_reason"`
	CreatedAt     time.Time `json:"created_at"`
}

// Decision is one reviewer's keep/reject call on one paper.
type Decision struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	PaperID   int64     `json:"paper_id"`
	Decision  string    `json:"decision"`
	DecidedAt time.Time `json:"decided_at"`
}

// Decision values as persisted. The swipe API payload encodes them as
// "Y"/"N"; the server translates at that boundary.
const (
	DecisionKeep   = "keep"
	DecisionReject = "reject"
)

// Progress tracks where a reviewer's swipe session stands within the
// catalog ordering.
type Progress struct {
	UserID        int64     `json:"user_id"`
	Cursor        int       `json:"cursor"`
	TotalKept     int       `json:"total_kept"`
	TotalRejected int       `json:"total_rejected"`
	LastActive    time.Time `json:"last_active"`
}

// ParseYear coerces a publication year cell to an integer, returning 0 for
// unknown. Spreadsheet exports sometimes carry years as floats ("2024.0").
func ParseYear(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

// FormatYear renders a year for CSV output, empty when unknown.
func FormatYear(year int) string {
	if year == 0 {
		return ""
	}
	return strconv.Itoa(year)
}
