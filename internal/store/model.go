// Package store persists workspace connections with their secrets encrypted
// at rest.
package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Connection statuses tracked for stored connections.
const (
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
	StatusError        = "error"
)

// BaseModel provides shared fields for persistent models.
type BaseModel struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate ensures UUID identifiers are generated automatically.
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// Connection is a stored backend connection. Config holds the normalized
// ConnectionConfig with sensitive values blanked; Secret carries those values
// AES-256-GCM encrypted.
type Connection struct {
	BaseModel

	Name            string         `gorm:"not null;index" json:"name"`
	DBType          string         `gorm:"not null;index" json:"db_type"`
	Status          string         `gorm:"default:disconnected" json:"status"`
	Config          datatypes.JSON `json:"config"`
	Secret          string         `json:"-"`
	LastConnectedAt *time.Time     `json:"last_connected_at"`
}

// AutoMigrate creates or updates the store schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Connection{})
}
