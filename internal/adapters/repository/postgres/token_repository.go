package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/doable/api/internal/core/domain"
	"github.com/doable/api/internal/core/ports"
)

const tokenColumns = `id, user_id, token, type, expires_at, is_used, created_at`

type TokenRepository struct {
	db *sql.DB
}

func NewTokenRepository(db *sql.DB) ports.TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) Store(ctx context.Context, token *domain.VerificationToken) error {
	query := `
		INSERT INTO user_tokens (user_id, token, type, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		token.UserID, token.Token, token.Type, token.ExpiresAt,
	).Scan(&token.ID, &token.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

func (r *TokenRepository) FindByUserAndType(ctx context.Context, userID uuid.UUID, tokenType domain.TokenType) (*domain.VerificationToken, error) {
	query := `SELECT ` + tokenColumns + ` FROM user_tokens WHERE user_id = $1 AND type = $2`
	token, err := scanToken(r.db.QueryRowContext(ctx, query, userID, tokenType))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find token: %w", err)
	}
	return token, nil
}

func (r *TokenRepository) FindExact(ctx context.Context, userID uuid.UUID, tokenType domain.TokenType, token string) (*domain.VerificationToken, error) {
	query := `SELECT ` + tokenColumns + ` FROM user_tokens WHERE user_id = $1 AND type = $2 AND token = $3`
	record, err := scanToken(r.db.QueryRowContext(ctx, query, userID, tokenType, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find token: %w", err)
	}
	return record, nil
}

func (r *TokenRepository) MarkUsed(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE user_tokens SET is_used = TRUE WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to mark token used: %w", err)
	}
	return nil
}

func (r *TokenRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM user_tokens WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

func scanToken(row rowScanner) (*domain.VerificationToken, error) {
	var t domain.VerificationToken
	err := row.Scan(&t.ID, &t.UserID, &t.Token, &t.Type, &t.ExpiresAt, &t.IsUsed, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
