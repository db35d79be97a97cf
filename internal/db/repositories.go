package db

import "gorm.io/gorm"

type Repositories struct {
	Accounts       *AccountRepository
	PasswordResets *PasswordResetRepository
	Submissions    *SubmissionRepository
	Snapshots      *SnapshotRepository
}

func NewRepositories(database *gorm.DB) *Repositories {
	return &Repositories{
		Accounts:       NewAccountRepository(database),
		PasswordResets: NewPasswordResetRepository(database),
		Submissions:    NewSubmissionRepository(database),
		Snapshots:      NewSnapshotRepository(database, DefaultSnapshotTTL),
	}
}
