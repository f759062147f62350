package repository

import (
	"time"

	"gorm.io/gorm"

	"vpnshop/internal/models"
)

// AccountRepository handles provisioned-account database operations.
type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create persists a newly provisioned account.
func (r *AccountRepository) Create(account *models.Account) error {
	return r.db.Create(account).Error
}

// FindByID returns an account with its panel preloaded.
func (r *AccountRepository) FindByID(id uint) (*models.Account, error) {
	var account models.Account
	if err := r.db.Preload("Panel").Preload("User").First(&account, id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// FindByTelegramID returns all accounts owned by a Telegram user.
func (r *AccountRepository) FindByTelegramID(telegramID int64) ([]models.Account, error) {
	var accounts []models.Account
	err := r.db.Preload("Panel").
		Joins("JOIN users ON users.id = accounts.user_id").
		Where("users.telegram_id = ?", telegramID).
		Find(&accounts).Error
	return accounts, err
}

// UpdateFriendlyName renames an account. The only mutable account field.
func (r *AccountRepository) UpdateFriendlyName(id uint, name string) error {
	return r.db.Model(&models.Account{}).Where("id = ?", id).
		Update("friendly_name", name).Error
}

// FindExpiringBefore returns accounts whose expiry falls between now and
// the deadline, used by the expiry reminder job.
func (r *AccountRepository) FindExpiringBefore(deadline time.Time) ([]models.Account, error) {
	var accounts []models.Account
	err := r.db.Preload("User").Preload("Panel").
		Where("expires_at IS NOT NULL AND expires_at > ? AND expires_at <= ?", time.Now(), deadline).
		Find(&accounts).Error
	return accounts, err
}

// CountAll returns the total number of provisioned accounts.
func (r *AccountRepository) CountAll() (int64, error) {
	var count int64
	err := r.db.Model(&models.Account{}).Count(&count).Error
	return count, err
}
