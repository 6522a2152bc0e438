package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Registration holds the detail blobs collected during the later stages.
type Registration struct {
	EnrollmentID string         `db:"enrollment_id" json:"enrollment_id"`
	Personal     types.JSONText `db:"personal" json:"personal"`
	Academic     types.JSONText `db:"academic" json:"academic"`
	Payment      types.JSONText `db:"payment" json:"payment"`
	UpdatedBy    string         `db:"updated_by" json:"updated_by"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
	CompletedAt  *time.Time     `db:"completed_at" json:"completed_at,omitempty"`
}
