package credential

import "gorm.io/gorm"

type CredentialContainer struct {
	Repo    Repository
	Manager TokenManager
}

func NewCredentialContainer(db *gorm.DB, cipher Cipher, refresher Refresher) *CredentialContainer {
	repo := NewRepository(db, cipher)
	manager := NewTokenManager(repo, refresher)

	return &CredentialContainer{
		Repo:    repo,
		Manager: manager,
	}
}
