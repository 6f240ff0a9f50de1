package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"nxt-assess-service/internal/adapter"
	"nxt-assess-service/internal/domain"
)

// QuestionLoader loads question-set JSONB from Postgres. Rows hold the raw
// upstream contract, so decoding goes through the same adapter as the remote
// source.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM question_sets WHERE id=$1`, setID).Scan(&raw)
	if err != nil {
		return domain.QuestionSet{}, fmt.Errorf("load question set: %w", err)
	}
	set, err := adapter.ParseSet(setID, raw)
	if err != nil {
		return domain.QuestionSet{}, fmt.Errorf("parse question set: %w", err)
	}
	return set, nil
}
