package credential

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	Provider          = "GOOGLE_CALENDAR"
	DefaultTTLMinutes = 60
)

// IntegrationCredential is the stored row. Token columns hold ciphertext.
type IntegrationCredential struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID string    `gorm:"column:organization_id;not null;uniqueIndex:idx_credential_org_provider" json:"organization_id"`
	Provider       string    `gorm:"not null;uniqueIndex:idx_credential_org_provider" json:"provider"`
	AccessToken    string    `gorm:"type:text;not null" json:"-"`
	RefreshToken   string    `gorm:"type:text" json:"-"`
	Email          string    `json:"email,omitempty"`
	IssuedAt       time.Time `gorm:"not null" json:"issued_at"`
	TTLMinutes     int       `gorm:"column:ttl_minutes;not null" json:"ttl_minutes"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (IntegrationCredential) TableName() string {
	return "integration_credentials"
}

func (c *IntegrationCredential) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Credential is the decrypted view handed to callers.
type Credential struct {
	OrganizationID string
	Provider       string
	AccessToken    string
	RefreshToken   string
	Email          string
	IssuedAt       time.Time
	TTLMinutes     int
}

func (c *Credential) ExpiresAt() time.Time {
	return c.IssuedAt.Add(time.Duration(c.TTLMinutes) * time.Minute)
}
