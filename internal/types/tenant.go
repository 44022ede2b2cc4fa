package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TenantStatus reflects whether a tenant may currently be served.
type TenantStatus string

const (
	TenantStatusActive   TenantStatus = "active"
	TenantStatusInactive TenantStatus = "inactive"
)

// Tenant partitions every index, cache entry and quota counter in the system.
// No operation may surface or mutate data whose tenant id differs from the
// authenticated caller.
type Tenant struct {
	ID        string       `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string       `gorm:"size:255;not null" json:"name"`
	APIKey    string       `gorm:"size:128;uniqueIndex;not null" json:"api_key"`
	Status    TenantStatus `gorm:"size:32;not null;default:active" json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}

// Collection is a logical index scope within a tenant: (tenant, collection_id).
type Collection struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID    string    `gorm:"type:uuid;index:idx_collection_tenant;not null" json:"tenant_id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (c *Collection) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}
