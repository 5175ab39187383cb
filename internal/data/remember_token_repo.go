package data

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/copperline/storefront/internal/data/pgxutil"
	"github.com/copperline/storefront/internal/domain/model"
	apperrors "github.com/copperline/storefront/internal/errors"
)

// RememberTokenRepo provides database operations for remember-me tokens.
type RememberTokenRepo struct {
	DB *sql.DB
}

// NewRememberTokenRepo creates a new RememberTokenRepo.
func NewRememberTokenRepo(db *sql.DB) *RememberTokenRepo {
	return &RememberTokenRepo{DB: db}
}

// FindBySecret retrieves a token record by its raw secret.
func (r *RememberTokenRepo) FindBySecret(ctx context.Context, secret string) (*model.RememberTokenRecord, error) {
	var out model.RememberTokenRecord
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT id, user_id, secret, expires_at, created_at
			FROM remember_tokens
			WHERE secret = $1`, secret)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.RememberTokenRecord])
		return err
	}); err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// Save inserts a new token record for the user.
func (r *RememberTokenRepo) Save(ctx context.Context, userID int64, secret string, expiresAt time.Time) error {
	if _, err := r.DB.ExecContext(ctx, `
		INSERT INTO remember_tokens (user_id, secret, expires_at)
		VALUES ($1, $2, $3)`, userID, secret, expiresAt.UTC()); err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}

// Delete removes the token record; deleting an absent record is not an error.
func (r *RememberTokenRepo) Delete(ctx context.Context, userID int64, secret string) error {
	if _, err := r.DB.ExecContext(ctx, `
		DELETE FROM remember_tokens
		WHERE user_id = $1 AND secret = $2`, userID, secret); err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}

// DeleteExpired purges all records past their expiry. Intended for periodic
// cleanup; normal authentication deletes expired rows lazily as they are seen.
func (r *RememberTokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM remember_tokens
		WHERE expires_at < $1`, now.UTC())
	if err != nil {
		return 0, apperrors.MapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperrors.MapDBError(err)
	}
	return n, nil
}
