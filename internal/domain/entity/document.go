package entity

import (
	"time"

	"gorm.io/datatypes"
)

// DocumentRecord is one document of the shared store when it is kept in PostgreSQL.
type DocumentRecord struct {
	Path       string         `gorm:"type:varchar(255);primaryKey" json:"path"`
	Collection string         `gorm:"type:varchar(255);index;not null" json:"collection"`
	Data       datatypes.JSON `gorm:"type:jsonb;not null" json:"data"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// TableName specifies the table name for DocumentRecord
func (DocumentRecord) TableName() string {
	return "documents"
}
