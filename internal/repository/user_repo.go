package repository

import (
	"errors"

	"gorm.io/gorm"

	"vpnshop/internal/models"
)

// UserRepository handles user database operations.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetOrCreate finds a user by Telegram ID, creating it on first contact.
// Display metadata is refreshed when it changed on Telegram's side.
func (r *UserRepository) GetOrCreate(telegramID int64, firstName, username string) (*models.User, error) {
	var user models.User
	err := r.db.Where("telegram_id = ?", telegramID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{
			TelegramID: telegramID,
			FirstName:  firstName,
			Username:   username,
		}
		if err := r.db.Create(&user).Error; err != nil {
			return nil, err
		}
		return &user, nil
	}
	if err != nil {
		return nil, err
	}

	if user.FirstName != firstName || user.Username != username {
		user.FirstName = firstName
		user.Username = username
		if err := r.db.Model(&user).Updates(map[string]interface{}{
			"first_name": firstName,
			"username":   username,
		}).Error; err != nil {
			return nil, err
		}
	}
	return &user, nil
}

// FindByTelegramID finds a user by Telegram ID.
func (r *UserRepository) FindByTelegramID(telegramID int64) (*models.User, error) {
	var user models.User
	if err := r.db.Where("telegram_id = ?", telegramID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateStep updates the user's conversation state.
func (r *UserRepository) UpdateStep(telegramID int64, step string) error {
	return r.db.Model(&models.User{}).Where("telegram_id = ?", telegramID).
		Update("step", step).Error
}

// FindAll returns all users, used by broadcast and stats.
func (r *UserRepository) FindAll() ([]models.User, error) {
	var users []models.User
	err := r.db.Find(&users).Error
	return users, err
}

// Count returns the total number of users.
func (r *UserRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Count(&count).Error
	return count, err
}
