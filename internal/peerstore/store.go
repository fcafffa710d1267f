// Package peerstore records dial attempts in a local sqlite database.
package peerstore

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Record is one dial attempt.
type Record struct {
	ID              uint   `gorm:"primaryKey"`
	PeerID          string `gorm:"index;not null"`
	Address         string `gorm:"not null"`
	RemotePublicKey []byte
	DialledAt       time.Time `gorm:"index"`
	Succeeded       bool
	Error           string
}

type Store struct {
	db *gorm.DB
}

// Open opens or creates the database at path. ":memory:" gives a private
// in-memory store.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		PrepareStmt: true,
		Logger:      logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening peer store: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("opening peer store: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&Record{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// RecordDial stores r. A zero DialledAt is set to the current time.
func (s *Store) RecordDial(ctx context.Context, r Record) (Record, error) {
	r.ID = 0
	if r.DialledAt.IsZero() {
		r.DialledAt = time.Now()
	}
	if err := s.db.WithContext(ctx).Create(&r).Error; err != nil {
		return Record{}, fmt.Errorf("recording dial to %s: %w", r.PeerID, err)
	}
	return r, nil
}

// List returns every record, newest first.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	var records []Record
	err := s.db.WithContext(ctx).Order("dialled_at desc").Order("id desc").Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("listing dials: %w", err)
	}
	return records, nil
}

// ListPeer returns the records for one peer id, newest first.
func (s *Store) ListPeer(ctx context.Context, peerID string) ([]Record, error) {
	var records []Record
	err := s.db.WithContext(ctx).
		Where("peer_id = ?", peerID).
		Order("dialled_at desc").Order("id desc").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("listing dials to %s: %w", peerID, err)
	}
	return records, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
