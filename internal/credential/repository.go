package credential

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrPersistenceFailure = errors.New("credential store failure")
	ErrDecryptionFailed   = errors.New("failed to decrypt stored token")
)

// Cipher is the reversible transform applied at the storage boundary.
type Cipher interface {
	Encrypt(text string) (string, error)
	Decrypt(text string) (string, error)
}

type Repository interface {
	Find(ctx context.Context, orgID string) (*Credential, error)
	Save(ctx context.Context, c *Credential) error
}

type repository struct {
	db     *gorm.DB
	cipher Cipher
}

func NewRepository(db *gorm.DB, cipher Cipher) Repository {
	return &repository{db: db, cipher: cipher}
}

// Find returns nil, nil when the organization has no credential.
func (r *repository) Find(ctx context.Context, orgID string) (*Credential, error) {
	var row IntegrationCredential
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND provider = ?", orgID, Provider).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
	}

	access, err := r.cipher.Decrypt(row.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: access token: %w", ErrDecryptionFailed, err)
	}
	var refresh string
	if row.RefreshToken != "" {
		if refresh, err = r.cipher.Decrypt(row.RefreshToken); err != nil {
			return nil, fmt.Errorf("%w: refresh token: %w", ErrDecryptionFailed, err)
		}
	}

	return &Credential{
		OrganizationID: row.OrganizationID,
		Provider:       row.Provider,
		AccessToken:    access,
		RefreshToken:   refresh,
		Email:          row.Email,
		IssuedAt:       row.IssuedAt,
		TTLMinutes:     row.TTLMinutes,
	}, nil
}

// Save inserts or updates the (organization, provider) row. An empty refresh
// token or email leaves the stored value untouched.
func (r *repository) Save(ctx context.Context, c *Credential) error {
	access, err := r.cipher.Encrypt(c.AccessToken)
	if err != nil {
		return fmt.Errorf("encrypt access token: %w", err)
	}
	row := IntegrationCredential{
		OrganizationID: c.OrganizationID,
		Provider:       Provider,
		AccessToken:    access,
		Email:          c.Email,
		IssuedAt:       c.IssuedAt,
		TTLMinutes:     c.TTLMinutes,
	}

	updates := []string{"access_token", "issued_at", "ttl_minutes", "updated_at"}
	if c.RefreshToken != "" {
		if row.RefreshToken, err = r.cipher.Encrypt(c.RefreshToken); err != nil {
			return fmt.Errorf("encrypt refresh token: %w", err)
		}
		updates = append(updates, "refresh_token")
	}
	if c.Email != "" {
		updates = append(updates, "email")
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "organization_id"}, {Name: "provider"}},
			DoUpdates: clause.AssignmentColumns(updates),
		}).Create(&row).Error
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
	}
	return nil
}
