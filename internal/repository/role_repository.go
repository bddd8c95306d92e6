package repository

import (
	"context"

	"github.com/spec-kit/forum-service/internal/domain"
)

// RoleRepository manages role grants for users. user_roles is the role catalog and
// user_roles_inventory holds the (user_id, role_id) grants.
type RoleRepository interface {
	RolesOf(ctx context.Context, userID domain.UserID) (domain.RoleSet, error)
	Assign(ctx context.Context, assignment domain.RoleAssignment) error
	Revoke(ctx context.Context, assignment domain.RoleAssignment) error
	IsAssigned(ctx context.Context, assignment domain.RoleAssignment) (bool, error)
}

type roleRepository struct {
	db DBTX
}

// NewRoleRepository returns a Postgres-backed implementation.
func NewRoleRepository(db DBTX) RoleRepository {
	return &roleRepository{db: db}
}

// RolesOf returns the names of every role granted to the user. A user with no grants
// yields an empty set.
func (r *roleRepository) RolesOf(ctx context.Context, userID domain.UserID) (domain.RoleSet, error) {
	const query = `
        SELECT roles.name
        FROM user_roles_inventory AS assigned
        INNER JOIN user_roles AS roles ON assigned.role_id = roles.id
        WHERE assigned.user_id=$1`

	rows, err := r.db.Query(ctx, query, int64(userID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := domain.NewRoleSet()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		if name != "" {
			set[name] = struct{}{}
		}
	}
	return set, rows.Err()
}

// Assign grants a role. Callers check IsAssigned first.
func (r *roleRepository) Assign(ctx context.Context, assignment domain.RoleAssignment) error {
	const query = `INSERT INTO user_roles_inventory (user_id, role_id) VALUES ($1, $2)`

	_, err := r.db.Exec(ctx, query, int64(assignment.UserID), assignment.RoleID)
	return err
}

// Revoke removes a grant, returning domain.ErrNotFound when none existed.
func (r *roleRepository) Revoke(ctx context.Context, assignment domain.RoleAssignment) error {
	const query = `DELETE FROM user_roles_inventory WHERE user_id=$1 AND role_id=$2`

	tag, err := r.db.Exec(ctx, query, int64(assignment.UserID), assignment.RoleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *roleRepository) IsAssigned(ctx context.Context, assignment domain.RoleAssignment) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM user_roles_inventory WHERE user_id=$1 AND role_id=$2)`
	var exists bool
	err := r.db.QueryRow(ctx, query, int64(assignment.UserID), assignment.RoleID).Scan(&exists)
	return exists, err
}
