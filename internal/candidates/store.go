package candidates

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// setRecord is a stored set.
type setRecord struct {
	Name   string `gorm:"primaryKey;type:varchar(255)"`
	Policy string `gorm:"type:varchar(20);not null;default:'contains'"`
}

func (setRecord) TableName() string { return "candidate_sets" }

// entryRecord is one candidate of a stored set.
type entryRecord struct {
	ID          uint   `gorm:"primaryKey"`
	SetName     string `gorm:"type:varchar(255);index:idx_set_position,priority:1;not null"`
	Position    int    `gorm:"index:idx_set_position,priority:2"`
	Text        string `gorm:"type:text"`
	DisplayText string `gorm:"type:text"`
}

func (entryRecord) TableName() string { return "candidate_entries" }

// Store keeps candidate sets in a SQLite database.
type Store struct {
	db *gorm.DB
}

// OpenStore opens or creates the database at path and migrates its schema.
// ":memory:" opens a private in-memory database.
func OpenStore(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open candidate store: %w", err)
	}
	// Every SQLite connection to ":memory:" is a separate database.
	if path == ":memory:" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to open candidate store: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(&setRecord{}, &entryRecord{}); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return &Store{db: db}, nil
}

// Save stores set, replacing any stored set with the same name.
func (s *Store) Save(set *Set) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		rec := setRecord{Name: set.Name(), Policy: set.Policy().String()}
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rec).Error; err != nil {
			return fmt.Errorf("saving set %s: %w", set.Name(), err)
		}
		if err := tx.Where("set_name = ?", set.Name()).Delete(&entryRecord{}).Error; err != nil {
			return fmt.Errorf("clearing set %s: %w", set.Name(), err)
		}
		if set.Len() == 0 {
			return nil
		}

		entries := make([]entryRecord, set.Len())
		for i, c := range set.items {
			entries[i] = entryRecord{SetName: set.Name(), Position: i, Text: c.Text, DisplayText: c.DisplayText}
		}
		if err := tx.CreateInBatches(entries, 500).Error; err != nil {
			return fmt.Errorf("saving entries of %s: %w", set.Name(), err)
		}
		return nil
	})
}

// Delete removes a stored set. Deleting a missing set is not an error.
func (s *Store) Delete(name string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("set_name = ?", name).Delete(&entryRecord{}).Error; err != nil {
			return err
		}
		return tx.Where("name = ?", name).Delete(&setRecord{}).Error
	})
}

// Load returns every stored set, ordered by name.
func (s *Store) Load() ([]*Set, error) {
	var recs []setRecord
	if err := s.db.Order("name").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("loading sets: %w", err)
	}
	var entries []entryRecord
	if err := s.db.Order("set_name, position").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("loading entries: %w", err)
	}

	bySet := make(map[string][]Candidate, len(recs))
	for _, e := range entries {
		bySet[e.SetName] = append(bySet[e.SetName], Candidate{Text: e.Text, DisplayText: e.DisplayText})
	}

	sets := make([]*Set, 0, len(recs))
	for _, r := range recs {
		policy, err := ParsePolicy(r.Policy)
		if err != nil {
			return nil, fmt.Errorf("stored set %s: %w", r.Name, err)
		}
		sets = append(sets, NewSet(r.Name, policy, bySet[r.Name]))
	}
	return sets, nil
}

// Close closes the database.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
