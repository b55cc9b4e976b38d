package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.PromptStore = (*PromptStore)(nil)

const promptColumns = `id, owner_id, text, category, processed, created_at, updated_at`

// PromptStore implements driven.PromptStore using PostgreSQL
type PromptStore struct {
	db *DB
}

// NewPromptStore creates a new PromptStore
func NewPromptStore(db *DB) *PromptStore {
	return &PromptStore{db: db}
}

const insertPrompt = `
	INSERT INTO prompts (` + promptColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (id) DO UPDATE SET
		text = EXCLUDED.text,
		category = EXCLUDED.category,
		processed = EXCLUDED.processed,
		updated_at = EXCLUDED.updated_at
`

// Save creates or updates a prompt
func (s *PromptStore) Save(ctx context.Context, prompt *domain.Prompt) error {
	_, err := s.db.ExecContext(ctx, insertPrompt, promptArgs(prompt)...)
	return err
}

// SaveBatch inserts all prompts in one transaction
func (s *PromptStore) SaveBatch(ctx context.Context, prompts []*domain.Prompt) error {
	if len(prompts) == 0 {
		return nil
	}

	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, insertPrompt)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, p := range prompts {
			if _, err := stmt.ExecContext(ctx, promptArgs(p)...); err != nil {
				return fmt.Errorf("insert prompt %s: %w", p.ID, err)
			}
		}
		return nil
	})
}

func promptArgs(p *domain.Prompt) []any {
	return []any{p.ID, p.OwnerID, p.Text, p.Category, p.Processed, p.CreatedAt, p.UpdatedAt}
}

// Get retrieves a prompt by ID
func (s *PromptStore) Get(ctx context.Context, id string) (*domain.Prompt, error) {
	query := `SELECT ` + promptColumns + ` FROM prompts WHERE id = $1`

	prompt, err := scanPrompt(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return prompt, err
}

// List retrieves the owner's prompts in upload order
func (s *PromptStore) List(ctx context.Context, ownerID string, filter driven.PromptFilter) ([]*domain.Prompt, error) {
	query := `SELECT ` + promptColumns + ` FROM prompts WHERE owner_id = $1`
	args := []any{ownerID}
	argIndex := 2

	if filter.Processed != nil {
		query += fmt.Sprintf(" AND processed = $%d", argIndex)
		args = append(args, *filter.Processed)
		argIndex++
	}

	if filter.Category != "" {
		query += fmt.Sprintf(" AND category = $%d", argIndex)
		args = append(args, filter.Category)
		argIndex++
	}

	query += " ORDER BY created_at ASC, id ASC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filter.Limit)
		argIndex++
	}

	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, filter.Offset)
	}

	return s.query(ctx, query, args...)
}

// ListByIDs returns the owner's prompts among ids. Unknown ids are ignored.
func (s *PromptStore) ListByIDs(ctx context.Context, ownerID string, ids []string) ([]*domain.Prompt, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `
		SELECT ` + promptColumns + `
		FROM prompts
		WHERE owner_id = $1 AND id = ANY($2)
		ORDER BY created_at ASC, id ASC
	`
	return s.query(ctx, query, ownerID, pq.Array(ids))
}

func (s *PromptStore) query(ctx context.Context, query string, args ...any) ([]*domain.Prompt, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query prompts: %w", err)
	}
	defer rows.Close()

	var prompts []*domain.Prompt
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan prompt: %w", err)
		}
		prompts = append(prompts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prompts: %w", err)
	}
	return prompts, nil
}

// MarkProcessed flags the prompt as answered
func (s *PromptStore) MarkProcessed(ctx context.Context, id string) error {
	query := `UPDATE prompts SET processed = true, updated_at = $1 WHERE id = $2`
	result, err := s.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

// Delete removes the prompt; answers and citations cascade
func (s *PromptStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM prompts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func scanPrompt(row scanner) (*domain.Prompt, error) {
	var p domain.Prompt
	err := row.Scan(
		&p.ID,
		&p.OwnerID,
		&p.Text,
		&p.Category,
		&p.Processed,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
