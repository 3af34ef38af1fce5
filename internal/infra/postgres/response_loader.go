package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"medlearn-service/internal/domain"
)

// ResponseLoader reads scored responses from Postgres over a pgx pool.
// This is the leaderboard hot path; the ORDER BY pins encounter order so
// ranking tie-breaks are deterministic.
type ResponseLoader struct {
	pool *pgxpool.Pool
}

func NewResponseLoader(pool *pgxpool.Pool) *ResponseLoader {
	return &ResponseLoader{pool: pool}
}

func (l *ResponseLoader) LoadScoredResponses(ctx context.Context, topicID string) ([]domain.ScoredResponse, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT r.id, r.user_id, r.topic_id, r.question_id, r.selected_answer,
		       r.is_correct, r.score, r.created_at, r.updated_at,
		       u.name, COALESCE(c.name, '')
		  FROM student_mcq_responses r
		  JOIN users u ON u.id = r.user_id
		  LEFT JOIN colleges c ON c.id = u.college_id
		 WHERE r.topic_id = $1
		 ORDER BY r.created_at ASC, r.id ASC`, topicID)
	if err != nil {
		return nil, fmt.Errorf("load responses: %w", err)
	}
	defer rows.Close()

	var out []domain.ScoredResponse
	for rows.Next() {
		var r domain.ScoredResponse
		if err := rows.Scan(
			&r.ID, &r.UserID, &r.TopicID, &r.QuestionID, &r.Selected,
			&r.IsCorrect, &r.Score, &r.CreatedAt, &r.UpdatedAt,
			&r.DisplayName, &r.CollegeName,
		); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load responses: %w", err)
	}
	return out, nil
}
