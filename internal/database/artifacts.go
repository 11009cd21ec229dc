package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"stego-server/internal/logging"
	"stego-server/internal/metrics"
)

// RecordArtifact registers a published result. userID 0 records an
// anonymous artifact.
func (d *Database) RecordArtifact(ctx context.Context, rec ArtifactRecord) (id int64, err error) {
	start := time.Now()
	defer func() { recordQuery("record_artifact", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var userID sql.NullInt64
	if rec.UserID > 0 {
		userID = sql.NullInt64{Int64: rec.UserID, Valid: true}
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	result, err := d.db.ExecContext(ctx,
		"INSERT INTO artifacts (name, kind, carrier, payload_bits, user_id, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		rec.Name, rec.Kind, rec.Carrier, rec.PayloadBits, userID, createdAt.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record artifact: %w", err)
	}
	id, _ = result.LastInsertId()
	return id, nil
}

// ListArtifacts returns a user's artifacts, newest first. limit <= 0 means
// no limit.
func (d *Database) ListArtifacts(ctx context.Context, userID int64, limit int) (records []ArtifactRecord, err error) {
	start := time.Now()
	defer func() { recordQuery("list_artifacts", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if limit <= 0 {
		limit = -1
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, name, kind, carrier, payload_bits, COALESCE(user_id, 0), created_at
		FROM artifacts WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			logging.Warn("failed to close rows: %v", cerr)
		}
	}()

	records = []ArtifactRecord{}
	for rows.Next() {
		var rec ArtifactRecord
		var created int64
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Kind, &rec.Carrier, &rec.PayloadBits, &rec.UserID, &created); err != nil {
			return nil, err
		}
		rec.CreatedAt = time.Unix(created, 0)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// CountArtifacts returns the number of registered artifacts per kind.
func (d *Database) CountArtifacts(ctx context.Context) (counts map[string]int, err error) {
	start := time.Now()
	defer func() { recordQuery("count_artifacts", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, "SELECT kind, COUNT(*) FROM artifacts GROUP BY kind")
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			logging.Warn("failed to close rows: %v", cerr)
		}
	}()

	counts = map[string]int{}
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		counts[kind] = n
	}
	return counts, rows.Err()
}

func (d *Database) countActiveSessions(ctx context.Context) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var n int
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions WHERE expires_at >= ?", time.Now().Unix()).Scan(&n)
	return n, err
}

// GetStats implements metrics.StatsProvider.
func (d *Database) GetStats() (stats metrics.Stats, err error) {
	start := time.Now()
	defer func() { recordQuery("stats", start, err) }()

	ctx := context.Background()

	if stats.Users, err = d.countUsers(ctx); err != nil {
		return stats, err
	}
	if stats.ActiveSessions, err = d.countActiveSessions(ctx); err != nil {
		return stats, err
	}
	counts, err := d.CountArtifacts(ctx)
	if err != nil {
		return stats, err
	}
	stats.ImageArtifacts = counts["image"]
	stats.VideoArtifacts = counts["video"]
	return stats, nil
}
