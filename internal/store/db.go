package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Database wraps the GORM DB handle and exposes repository helpers.
type Database struct {
	gorm *gorm.DB
	mu   sync.Mutex
}

// Open initializes the SQLite-backed database at the provided path.
func Open(path string, silent bool) (*Database, error) {
	cfg := &gorm.Config{}
	if silent {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&EstimateRecord{}, &UserProfile{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		logrus.WithError(err).Warn("enable WAL mode")
	}
	if err := db.Exec("PRAGMA synchronous=NORMAL").Error; err != nil {
		logrus.WithError(err).Warn("set synchronous pragma")
	}
	return &Database{gorm: db}, nil
}

// GORM exposes the raw gorm.DB handle.
func (d *Database) GORM() *gorm.DB {
	return d.gorm
}

// Close closes the underlying database connection.
func (d *Database) Close() error {
	if d == nil {
		return nil
	}
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveEstimate appends an estimate audit row.
func (d *Database) SaveEstimate(record *EstimateRecord) error {
	if record == nil {
		return errors.New("estimate record is nil")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Create(record).Error
}

// ListEstimates returns a page of estimate history, newest first.
func (d *Database) ListEstimates(offset, limit int) ([]EstimateRecord, int64, error) {
	if d == nil {
		return nil, 0, errors.New("database is nil")
	}
	var total int64
	if err := d.gorm.Model(&EstimateRecord{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []EstimateRecord
	query := d.gorm.Order("created_at DESC, id DESC").Offset(offset)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// GetUserProfile looks up a profile by email. A missing profile returns
// (nil, nil) so callers can distinguish "unknown user" from storage errors.
func (d *Database) GetUserProfile(email string) (*UserProfile, error) {
	if d == nil {
		return nil, errors.New("database is nil")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil
	}
	var profile UserProfile
	err := d.gorm.Where("email = ?", email).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpsertUserProfile inserts or updates the subscription record for an email.
func (d *Database) UpsertUserProfile(profile *UserProfile) error {
	if profile == nil {
		return errors.New("profile is nil")
	}
	profile.Email = strings.ToLower(strings.TrimSpace(profile.Email))
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"subscribed", "plan", "updated_at"}),
	}).Create(profile).Error
}
