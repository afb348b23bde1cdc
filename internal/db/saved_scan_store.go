package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/banshee-data/plastermate/internal/timeutil"
	"github.com/banshee-data/plastermate/internal/wallscan/render"
)

// SavedScan is a named, persisted heatmap.
type SavedScan struct {
	ScanID           string          `json:"scan_id"`
	Name             string          `json:"name"`
	Heatmap          *render.Heatmap `json:"heatmap"`
	CreatedUnixNanos int64           `json:"created_unix_nanos"`
	UpdatedUnixNanos int64           `json:"updated_unix_nanos"`
	Seq              int64           `json:"seq"`
}

// SavedScanStore keeps heatmaps under user-chosen names. Listing follows
// first-save order; saving an existing name replaces its heatmap in place.
type SavedScanStore struct {
	db    *sql.DB
	clock timeutil.Clock
}

// NewSavedScanStore creates a new SavedScanStore stamped by the real clock.
func NewSavedScanStore(db *sql.DB) *SavedScanStore {
	return NewSavedScanStoreWithClock(db, timeutil.RealClock{})
}

// NewSavedScanStoreWithClock creates a SavedScanStore that reads
// timestamps from clock.
func NewSavedScanStoreWithClock(db *sql.DB, clock timeutil.Clock) *SavedScanStore {
	return &SavedScanStore{db: db, clock: clock}
}

// DefaultScanName formats the name used when a save has no name.
func DefaultScanName(n int64) string {
	return fmt.Sprintf("Scan %d", n)
}

// NextDefaultName returns the name an unnamed save would receive now.
func (s *SavedScanStore) NextDefaultName() (string, error) {
	var next int64
	if err := s.db.QueryRow("SELECT next FROM scan_counter WHERE id = 1").Scan(&next); err != nil {
		return "", fmt.Errorf("read scan counter: %w", err)
	}
	return DefaultScanName(next), nil
}

// Save stores hm under name. A blank name resolves to "Scan N" where N is the
// counter; the counter advances on every save, named or not.
func (s *SavedScanStore) Save(name string, hm *render.Heatmap) (*SavedScan, error) {
	if hm == nil {
		return nil, errors.New("save scan: nil heatmap")
	}
	payload, err := json.Marshal(hm)
	if err != nil {
		return nil, fmt.Errorf("encode heatmap: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin save scan: %w", err)
	}
	defer tx.Rollback()

	var counter int64
	if err := tx.QueryRow("SELECT next FROM scan_counter WHERE id = 1").Scan(&counter); err != nil {
		return nil, fmt.Errorf("read scan counter: %w", err)
	}
	if _, err := tx.Exec("UPDATE scan_counter SET next = ? WHERE id = 1", counter+1); err != nil {
		return nil, fmt.Errorf("advance scan counter: %w", err)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultScanName(counter)
	}
	now := s.clock.Now().UnixNano()

	saved := &SavedScan{Name: name, Heatmap: hm, UpdatedUnixNanos: now}
	err = tx.QueryRow("SELECT scan_id, created_unix_nanos, seq FROM saved_scans WHERE name = ?", name).
		Scan(&saved.ScanID, &saved.CreatedUnixNanos, &saved.Seq)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		saved.ScanID = uuid.New().String()
		saved.CreatedUnixNanos = now
		saved.Seq = counter
		_, err = tx.Exec(`
			INSERT INTO saved_scans (scan_id, name, title, heatmap_json, created_unix_nanos, updated_unix_nanos, seq)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, saved.ScanID, name, hm.Title, string(payload), now, now, counter)
		if err != nil {
			return nil, fmt.Errorf("insert saved scan: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("lookup saved scan: %w", err)
	default:
		_, err = tx.Exec(`
			UPDATE saved_scans SET title = ?, heatmap_json = ?, updated_unix_nanos = ?
			WHERE scan_id = ?
		`, hm.Title, string(payload), now, saved.ScanID)
		if err != nil {
			return nil, fmt.Errorf("update saved scan: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit save scan: %w", err)
	}
	return saved, nil
}

// Get returns the scan saved under name, or sql.ErrNoRows.
func (s *SavedScanStore) Get(name string) (*SavedScan, error) {
	row := s.db.QueryRow(`
		SELECT scan_id, name, heatmap_json, created_unix_nanos, updated_unix_nanos, seq
		FROM saved_scans
		WHERE name = ?
	`, name)
	saved, err := scanSavedScan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("get saved scan: %w", err)
	}
	return saved, nil
}

// List returns every saved scan in first-save order.
func (s *SavedScanStore) List() ([]*SavedScan, error) {
	rows, err := s.db.Query(`
		SELECT scan_id, name, heatmap_json, created_unix_nanos, updated_unix_nanos, seq
		FROM saved_scans
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("list saved scans: %w", err)
	}
	defer rows.Close()

	var scans []*SavedScan
	for rows.Next() {
		saved, err := scanSavedScan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan saved scan: %w", err)
		}
		scans = append(scans, saved)
	}
	return scans, rows.Err()
}

// Delete removes the scan saved under name. Returns sql.ErrNoRows if there
// is none.
func (s *SavedScanStore) Delete(name string) error {
	result, err := s.db.Exec("DELETE FROM saved_scans WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("delete saved scan: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete saved scan rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSavedScan(row rowScanner) (*SavedScan, error) {
	var payload string
	saved := &SavedScan{}
	if err := row.Scan(&saved.ScanID, &saved.Name, &payload, &saved.CreatedUnixNanos, &saved.UpdatedUnixNanos, &saved.Seq); err != nil {
		return nil, err
	}
	saved.Heatmap = &render.Heatmap{}
	if err := json.Unmarshal([]byte(payload), saved.Heatmap); err != nil {
		return nil, fmt.Errorf("decode heatmap for %q: %w", saved.Name, err)
	}
	return saved, nil
}
