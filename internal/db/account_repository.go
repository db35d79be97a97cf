package db

import (
	"github.com/dougwhitewolff/vasop-client/internal/models"
	"gorm.io/gorm"
)

type AccountRepository struct {
	database *gorm.DB
}

func NewAccountRepository(database *gorm.DB) *AccountRepository {
	return &AccountRepository{database: database}
}

func (repo *AccountRepository) Create(account *models.Account) error {
	return repo.database.Create(account).Error
}

func (repo *AccountRepository) FindByPublicID(publicID string) (models.Account, error) {
	var account models.Account
	if err := repo.database.Where("public_id = ?", publicID).First(&account).Error; err != nil {
		return models.Account{}, err
	}
	return account, nil
}

func (repo *AccountRepository) FindByNormalizedEmail(email string) (models.Account, error) {
	var account models.Account
	if err := repo.database.Where("lower(trim(email)) = ?", email).First(&account).Error; err != nil {
		return models.Account{}, err
	}
	return account, nil
}

func (repo *AccountRepository) ExistsByNormalizedEmail(email string) (bool, error) {
	var matched int64
	if err := repo.database.Model(&models.Account{}).
		Where("lower(trim(email)) = ?", email).
		Count(&matched).Error; err != nil {
		return false, err
	}
	return matched > 0, nil
}

func (repo *AccountRepository) UpdatePassword(accountID uint, passwordHash string) error {
	return repo.database.Model(&models.Account{}).Where("id = ?", accountID).Update("password_hash", passwordHash).Error
}
