package models

import "time"

// ConnectorConfigModel is one stored connector setting
type ConnectorConfigModel struct {
	Name      string    `gorm:"type:varchar(100);primaryKey"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ConnectorConfigModel) TableName() string {
	return "connector_config"
}
