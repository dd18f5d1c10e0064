package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"cerberus/internal/models"
)

// InsertFeedback stores a user feedback report and returns its generated ID.
func (d *DB) InsertFeedback(ctx context.Context, r models.FeedbackReport) (uuid.UUID, error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	_, err := d.Pool.Exec(ctx, `
		INSERT INTO feedback (id, url, verdict, user_feedback, correct_verdict, client_id)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.ID, r.URL, string(r.Verdict), r.UserFeedback, string(r.CorrectVerdict), r.ClientID)
	if err != nil {
		return uuid.Nil, err
	}
	return r.ID, nil
}

// GetFeedback returns one feedback report by ID.
func (d *DB) GetFeedback(ctx context.Context, id uuid.UUID) (*models.FeedbackReport, error) {
	var r models.FeedbackReport
	var verdict, correct string
	err := d.Pool.QueryRow(ctx, `
		SELECT id, url, verdict, user_feedback, correct_verdict, client_id, created_at
		FROM feedback WHERE id = $1
	`, id).Scan(&r.ID, &r.URL, &verdict, &r.UserFeedback, &correct, &r.ClientID, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFeedbackNotFound
		}
		return nil, err
	}
	r.Verdict = models.Label(verdict)
	r.CorrectVerdict = models.Label(correct)
	return &r, nil
}

// ListRecentFeedback returns the newest feedback reports, capped at limit.
func (d *DB) ListRecentFeedback(ctx context.Context, limit int) ([]models.FeedbackReport, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.Pool.Query(ctx, `
		SELECT id, url, verdict, user_feedback, correct_verdict, client_id, created_at
		FROM feedback ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []models.FeedbackReport
	for rows.Next() {
		var r models.FeedbackReport
		var verdict, correct string
		if err := rows.Scan(&r.ID, &r.URL, &verdict, &r.UserFeedback, &correct, &r.ClientID, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Verdict = models.Label(verdict)
		r.CorrectVerdict = models.Label(correct)
		reports = append(reports, r)
	}
	return reports, rows.Err()
}
