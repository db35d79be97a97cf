package models

import "time"

// User is the identity returned by the auth service.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// Account is the credential record kept by the reference backend.
type Account struct {
	ID           uint      `gorm:"primaryKey"`
	PublicID     string    `gorm:"uniqueIndex;not null"`
	Name         string    `gorm:"not null"`
	Email        string    `gorm:"uniqueIndex;not null"`
	Phone        string    `gorm:"not null"`
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time
}

func (account Account) Identity() User {
	return User{
		ID:    account.PublicID,
		Name:  account.Name,
		Email: account.Email,
		Phone: account.Phone,
	}
}

type PasswordReset struct {
	ID        uint      `gorm:"primaryKey"`
	AccountID uint      `gorm:"not null;index"`
	CodeHash  string    `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null"`
	UsedAt    *time.Time
	CreatedAt time.Time `gorm:"not null"`
}
