package datatables

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StateRecord is a single persisted state axis.
type StateRecord struct {
	StateKey   string `gorm:"primaryKey;size:191"`
	StateValue string `gorm:"type:text"`
	UpdatedAt  time.Time
}

// TableName returns the table the records are stored in.
func (StateRecord) TableName() string {
	return "datatable_states"
}

// GormStorage persists table state in a SQL table through gorm.
type GormStorage struct {
	tx *gorm.DB
}

// NewGormStorage returns a GormStorage using the given database handle.
func NewGormStorage(tx *gorm.DB) *GormStorage {
	return &GormStorage{tx: tx}
}

// Migrate creates or updates the datatable_states table.
func (s *GormStorage) Migrate() error {
	if s.tx == nil {
		return ErrStorageUnavailable
	}
	return s.tx.AutoMigrate(&StateRecord{})
}

func (s *GormStorage) GetItem(key string) ([]byte, bool, error) {
	if s.tx == nil {
		return nil, false, ErrStorageUnavailable
	}
	var rec StateRecord
	err := s.tx.Where("state_key = ?", key).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(rec.StateValue), true, nil
}

// SetItem inserts the value or replaces the existing one for the key.
func (s *GormStorage) SetItem(key string, value []byte) error {
	if s.tx == nil {
		return ErrStorageUnavailable
	}
	rec := StateRecord{StateKey: key, StateValue: string(value)}
	return s.tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "state_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"state_value", "updated_at"}),
	}).Create(&rec).Error
}
