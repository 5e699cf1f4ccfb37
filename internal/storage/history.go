// Package storage provides persistent data storage for the FinSentinal
// service. It uses BoltDB as the underlying engine for the prediction
// history log and a read-only CSV view for dataset sample lookups.
package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const predictionsBucket = "predictions" // Bucket name for prediction history records

// PredictionRecord is one served prediction as persisted in the history log.
type PredictionRecord struct {
	Ts         time.Time      `json:"timestamp"`
	FDI        float64        `json:"fdi"`
	Risk       string         `json:"risk_level"`
	Confidence float64        `json:"confidence"`
	Payload    map[string]any `json:"input,omitempty"`
}

// HistoryStore keeps an append-only log of served predictions in BoltDB.
// Keys are monotonically increasing sequence numbers, so bucket order is
// insertion order.
type HistoryStore struct {
	db *bbolt.DB
}

// NewHistoryStore opens (or creates) the history database under dataPath.
func NewHistoryStore(dataPath string) (*HistoryStore, error) {
	dbPath := filepath.Join(dataPath, "finsentinal-history.db")

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(predictionsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create predictions bucket: %w", err)
	}

	return &HistoryStore{db: db}, nil
}

// Close closes the database connection gracefully.
func (s *HistoryStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Append persists one prediction record at the end of the log.
func (s *HistoryStore) Append(rec PredictionRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(predictionsBucket))

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal prediction record: %w", err)
		}

		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)

		return b.Put(key, data)
	})
}

// Recent returns up to limit of the most recent records in chronological
// order (oldest of the window first). limit <= 0 returns an empty slice.
func (s *HistoryStore) Recent(limit int) ([]PredictionRecord, error) {
	if limit <= 0 {
		return []PredictionRecord{}, nil
	}

	out := make([]PredictionRecord, 0, limit)
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(predictionsBucket)).Cursor()
		for k, v := c.Last(); k != nil && len(out) < limit; k, v = c.Prev() {
			var rec PredictionRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("unmarshal prediction record: %w", err)
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Walked newest-first, reverse into chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Count returns the number of stored prediction records.
func (s *HistoryStore) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket([]byte(predictionsBucket)).Stats().KeyN
		return nil
	})
	return n, err
}
