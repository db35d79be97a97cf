package db

import (
	"time"

	"github.com/dougwhitewolff/vasop-client/internal/models"
	"gorm.io/gorm"
)

type PasswordResetRepository struct {
	database *gorm.DB
}

func NewPasswordResetRepository(database *gorm.DB) *PasswordResetRepository {
	return &PasswordResetRepository{database: database}
}

// Replace drops any outstanding codes for the account and stores the new one.
func (repo *PasswordResetRepository) Replace(reset *models.PasswordReset) error {
	return repo.database.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("account_id = ? AND used_at IS NULL", reset.AccountID).Delete(&models.PasswordReset{}).Error; err != nil {
			return err
		}
		return tx.Create(reset).Error
	})
}

// FindActive returns the newest unused, unexpired code for the account.
func (repo *PasswordResetRepository) FindActive(accountID uint, now time.Time) (models.PasswordReset, error) {
	var reset models.PasswordReset
	if err := repo.database.
		Where("account_id = ? AND used_at IS NULL AND expires_at > ?", accountID, now).
		Order("created_at DESC, id DESC").
		First(&reset).Error; err != nil {
		return models.PasswordReset{}, err
	}
	return reset, nil
}

// ConsumeAndSetPassword marks the code used and stores the new password hash atomically.
func (repo *PasswordResetRepository) ConsumeAndSetPassword(resetID uint, accountID uint, passwordHash string, usedAt time.Time) error {
	return repo.database.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.PasswordReset{}).
			Where("id = ? AND used_at IS NULL", resetID).
			Update("used_at", usedAt)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&models.Account{}).Where("id = ?", accountID).Update("password_hash", passwordHash).Error
	})
}
