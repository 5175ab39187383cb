package data

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"

	"github.com/copperline/storefront/internal/data/pgxutil"
	"github.com/copperline/storefront/internal/domain/model"
	apperrors "github.com/copperline/storefront/internal/errors"
)

const userBaseQuery = `
	SELECT id, email, password_hash, first_name, last_name, created_at
	FROM users`

// UserRepo provides database operations for user accounts and their
// authorization data.
type UserRepo struct {
	DB *sql.DB
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

// FindByEmail retrieves a user by email address with roles and permissions
// loaded. Lookup is case-sensitive as stored.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, userBaseQuery+` WHERE email = $1`, email)
}

// FindByID retrieves a user by primary key with roles and permissions loaded.
func (r *UserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return r.findOne(ctx, userBaseQuery+` WHERE id = $1`, id)
}

func (r *UserRepo) findOne(ctx context.Context, query string, arg any) (*model.User, error) {
	var out model.User
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, arg)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.User])
		if err != nil {
			return err
		}
		if err := loadRoles(ctx, conn, &out); err != nil {
			return err
		}
		return loadPermissions(ctx, conn, &out)
	}); err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

func loadRoles(ctx context.Context, conn *pgx.Conn, u *model.User) error {
	rows, err := conn.Query(ctx, `
		SELECT r.id, r.code
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.id`, u.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	roles, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Role])
	if err != nil {
		return err
	}
	u.Roles = roles
	return nil
}

func loadPermissions(ctx context.Context, conn *pgx.Conn, u *model.User) error {
	rows, err := conn.Query(ctx, `
		SELECT DISTINCT p.code
		FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		JOIN user_roles ur ON ur.role_id = rp.role_id
		WHERE ur.user_id = $1
		ORDER BY p.code`, u.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	perms, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return err
	}
	u.Permissions = perms
	return nil
}
