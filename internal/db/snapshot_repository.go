package db

import (
	"context"
	"errors"
	"time"

	"github.com/dougwhitewolff/vasop-client/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const DefaultSnapshotTTL = 7 * 24 * time.Hour

// SnapshotRepository is the sqlite-backed wizard draft cache.
type SnapshotRepository struct {
	database *gorm.DB
	ttl      time.Duration
	now      func() time.Time
}

func NewSnapshotRepository(database *gorm.DB, ttl time.Duration) *SnapshotRepository {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &SnapshotRepository{database: database, ttl: ttl, now: time.Now}
}

func (repo *SnapshotRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var snapshot models.WizardSnapshot
	err := repo.database.WithContext(ctx).
		Where("snapshot_key = ? AND expires_at > ?", key, repo.now().UTC()).
		First(&snapshot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return snapshot.Payload, true, nil
}

func (repo *SnapshotRepository) Set(ctx context.Context, key string, payload []byte) error {
	now := repo.now().UTC()
	snapshot := models.WizardSnapshot{
		Key:       key,
		Payload:   payload,
		ExpiresAt: now.Add(repo.ttl),
		UpdatedAt: now,
	}
	return repo.database.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "snapshot_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "expires_at", "updated_at"}),
	}).Create(&snapshot).Error
}

func (repo *SnapshotRepository) Delete(ctx context.Context, key string) error {
	return repo.database.WithContext(ctx).Where("snapshot_key = ?", key).Delete(&models.WizardSnapshot{}).Error
}

// PurgeExpired removes stale entries and reports how many were dropped.
func (repo *SnapshotRepository) PurgeExpired(ctx context.Context) (int64, error) {
	result := repo.database.WithContext(ctx).
		Where("expires_at <= ?", repo.now().UTC()).
		Delete(&models.WizardSnapshot{})
	return result.RowsAffected, result.Error
}
