package db

import (
	"context"

	"cerberus/internal/models"
)

// InsertVerdictEvent records one evaluation for stats and audit.
func (d *DB) InsertVerdictEvent(ctx context.Context, e models.VerdictEvent) error {
	_, err := d.Pool.Exec(ctx, `
		INSERT INTO verdict_events (url, domain, verdict, confidence, source, client_id, processing_time_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.URL, e.Domain, string(e.Verdict), e.Confidence, string(e.Source), e.ClientID, e.ProcessingTimeMs)
	return err
}

// GetStats aggregates the verdict history into the stats payload.
func (d *DB) GetStats(ctx context.Context) (*models.Stats, error) {
	stats := &models.Stats{VerdictCounts: make(map[string]int64)}

	err := d.Pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(AVG(processing_time_ms), 0) FROM verdict_events
	`).Scan(&stats.TotalRequests, &stats.AvgProcessingTimeMs)
	if err != nil {
		return nil, err
	}

	rows, err := d.Pool.Query(ctx, `
		SELECT verdict, COUNT(*) FROM verdict_events GROUP BY verdict
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var verdict string
		var count int64
		if err := rows.Scan(&verdict, &count); err != nil {
			return nil, err
		}
		stats.VerdictCounts[verdict] = count
	}
	return stats, rows.Err()
}
