package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.AnswerStore = (*AnswerStore)(nil)

// AnswerStore implements driven.AnswerStore using PostgreSQL.
// Answers and their citations are written together and never updated.
type AnswerStore struct {
	db *DB
}

// NewAnswerStore creates a new AnswerStore
func NewAnswerStore(db *DB) *AnswerStore {
	return &AnswerStore{db: db}
}

// Save stores the answer and its citations in one transaction.
// A second answer for the same (prompt, engine) yields ErrAlreadyExists.
func (s *AnswerStore) Save(ctx context.Context, answer *domain.Answer) error {
	mentions := answer.Mentions
	if mentions == nil {
		mentions = []domain.CompetitorMention{}
	}
	mentionsJSON, err := json.Marshal(mentions)
	if err != nil {
		return fmt.Errorf("marshal mentions: %w", err)
	}

	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO answers (id, prompt_id, engine, snippet, highlighted, rank, sentiment, mentions, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
			answer.ID,
			answer.PromptID,
			string(answer.Engine),
			answer.Snippet,
			answer.Highlighted,
			answer.Rank,
			answer.Sentiment,
			mentionsJSON,
			answer.CreatedAt,
		)
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		if err != nil {
			return fmt.Errorf("insert answer: %w", err)
		}

		// position keeps the order the engine cited sources in
		for i, c := range answer.Citations {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO citing_domains (id, answer_id, domain, url, domain_authority, type, freshness, position)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			`,
				c.ID,
				answer.ID,
				c.Domain,
				c.URL,
				c.DomainAuthority,
				string(c.Type),
				c.Freshness,
				i,
			)
			if err != nil {
				return fmt.Errorf("insert citation %s: %w", c.Domain, err)
			}
		}
		return nil
	})
}

// ListByPrompt returns a prompt's answers in engine insertion order
func (s *AnswerStore) ListByPrompt(ctx context.Context, promptID string) ([]*domain.Answer, error) {
	answers, err := s.loadAnswers(ctx, s.db, `
		SELECT a.id, a.prompt_id, a.engine, a.snippet, a.highlighted, a.rank, a.sentiment, a.mentions, a.created_at
		FROM answers a
		WHERE a.prompt_id = $1
		ORDER BY a.created_at ASC, a.id ASC
	`, promptID)
	if err != nil {
		return nil, err
	}
	if err := s.attachCitations(ctx, s.db, answers, `
		SELECT c.id, c.answer_id, c.domain, c.url, c.domain_authority, c.type, c.freshness
		FROM citing_domains c
		JOIN answers a ON a.id = c.answer_id
		WHERE a.prompt_id = $1
		ORDER BY c.answer_id, c.position
	`, promptID); err != nil {
		return nil, err
	}
	return answers, nil
}

// ListByOwner reads the owner's processed prompts, answers and citations
// inside one repeatable-read transaction so the aggregation sees one snapshot.
func (s *AnswerStore) ListByOwner(ctx context.Context, ownerID string) ([]domain.PromptWithAnswers, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin snapshot: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT `+promptColumns+`
		FROM prompts
		WHERE owner_id = $1 AND processed = true
		ORDER BY created_at ASC, id ASC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query prompts: %w", err)
	}
	var result []domain.PromptWithAnswers
	index := make(map[string]int)
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan prompt: %w", err)
		}
		index[p.ID] = len(result)
		result = append(result, domain.PromptWithAnswers{Prompt: p})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prompts: %w", err)
	}
	if len(result) == 0 {
		return nil, nil
	}

	answers, err := s.loadAnswers(ctx, tx, `
		SELECT a.id, a.prompt_id, a.engine, a.snippet, a.highlighted, a.rank, a.sentiment, a.mentions, a.created_at
		FROM answers a
		JOIN prompts p ON p.id = a.prompt_id
		WHERE p.owner_id = $1 AND p.processed = true
		ORDER BY a.created_at ASC, a.id ASC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	if err := s.attachCitations(ctx, tx, answers, `
		SELECT c.id, c.answer_id, c.domain, c.url, c.domain_authority, c.type, c.freshness
		FROM citing_domains c
		JOIN answers a ON a.id = c.answer_id
		JOIN prompts p ON p.id = a.prompt_id
		WHERE p.owner_id = $1 AND p.processed = true
		ORDER BY c.answer_id, c.position
	`, ownerID); err != nil {
		return nil, err
	}

	for _, a := range answers {
		if i, ok := index[a.PromptID]; ok {
			result[i].Answers = append(result[i].Answers, a)
		}
	}
	return result, nil
}

// DeleteByPrompt removes a prompt's answers (citations cascade) and flags
// the prompt unprocessed again.
func (s *AnswerStore) DeleteByPrompt(ctx context.Context, promptID string) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM answers WHERE prompt_id = $1`, promptID); err != nil {
			return fmt.Errorf("delete answers: %w", err)
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE prompts SET processed = false, updated_at = $1 WHERE id = $2`,
			time.Now(), promptID)
		if err != nil {
			return fmt.Errorf("reset prompt: %w", err)
		}
		return nil
	})
}

// queryer is satisfied by *DB and *sql.Tx
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *AnswerStore) loadAnswers(ctx context.Context, q queryer, query string, args ...any) ([]*domain.Answer, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query answers: %w", err)
	}
	defer rows.Close()

	var answers []*domain.Answer
	for rows.Next() {
		var a domain.Answer
		var mentions []byte
		err := rows.Scan(
			&a.ID,
			&a.PromptID,
			&a.Engine,
			&a.Snippet,
			&a.Highlighted,
			&a.Rank,
			&a.Sentiment,
			&mentions,
			&a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		if len(mentions) > 0 {
			if err := json.Unmarshal(mentions, &a.Mentions); err != nil {
				return nil, fmt.Errorf("unmarshal mentions of %s: %w", a.ID, err)
			}
		}
		answers = append(answers, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate answers: %w", err)
	}
	return answers, nil
}

func (s *AnswerStore) attachCitations(ctx context.Context, q queryer, answers []*domain.Answer, query string, args ...any) error {
	if len(answers) == 0 {
		return nil
	}
	byID := make(map[string]*domain.Answer, len(answers))
	for _, a := range answers {
		byID[a.ID] = a
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query citations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.CitingDomain
		err := rows.Scan(
			&c.ID,
			&c.AnswerID,
			&c.Domain,
			&c.URL,
			&c.DomainAuthority,
			&c.Type,
			&c.Freshness,
		)
		if err != nil {
			return fmt.Errorf("scan citation: %w", err)
		}
		if a, ok := byID[c.AnswerID]; ok {
			a.Citations = append(a.Citations, c)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate citations: %w", err)
	}
	return nil
}
