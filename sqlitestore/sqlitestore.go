// Package sqlitestore is a reference PersistenceContext adapter (spec.md
// §6) backed by modernc.org/sqlite. It owns the project_roles,
// role_conflicts, and role_castings schema and implements every
// operation the merge package's applier and role-merge action call
// through, each participating in a caller-supplied transaction.
package sqlitestore

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/castingdb/scriptpipeline/merge"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS project_roles (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	role_name TEXT NOT NULL,
	role_name_normalized TEXT NOT NULL,
	replicas_needed INTEGER NOT NULL DEFAULT 0,
	parent_role_id TEXT,
	source TEXT NOT NULL,
	UNIQUE (project_id, role_name_normalized)
);

CREATE TABLE IF NOT EXISTS role_conflicts (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	role_id_a TEXT NOT NULL,
	role_id_b TEXT NOT NULL,
	warning_type TEXT NOT NULL,
	scene_reference INTEGER,
	UNIQUE (project_id, role_id_a, role_id_b),
	CHECK (role_id_a < role_id_b)
);

CREATE TABLE IF NOT EXISTS role_castings (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	role_id TEXT NOT NULL UNIQUE,
	actor_id TEXT NOT NULL,
	status TEXT NOT NULL
);
`

// Store is a merge.PersistenceContext backed by a *sql.DB opened against
// a modernc.org/sqlite connection. It performs no connection pooling or
// transaction management of its own: callers open a *sql.Tx (or the
// *sql.DB itself for read-only use) and pass it in as Querier.
type Store struct {
	q Querier
}

// Querier is the subset of *sql.DB / *sql.Tx the store needs, letting a
// caller wrap every ApplyBundle call in one transaction (spec.md §4.8:
// "every stage... runs atomically per project").
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New wraps an already-open Querier (a *sql.DB or an in-flight *sql.Tx).
func New(q Querier) *Store {
	return &Store{q: q}
}

// Open opens a modernc.org/sqlite database at path and ensures the
// project_roles/role_conflicts/role_castings schema exists.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite database")
	}
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ensure schema")
	}
	return db, nil
}

func newID() string {
	return uuid.New().String()
}

func (s *Store) GetProjectRoles(ctx context.Context, projectID string) ([]merge.Role, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, project_id, role_name, role_name_normalized, replicas_needed, COALESCE(parent_role_id, ''), source
		FROM project_roles WHERE project_id = ?`, projectID)
	if err != nil {
		return nil, errors.Wrap(err, "query project_roles")
	}
	defer rows.Close()

	var out []merge.Role
	for rows.Next() {
		var r merge.Role
		if err := rows.Scan(&r.ID, &r.ProjectID, &r.RoleName, &r.NormalizedName, &r.ReplicasNeeded, &r.ParentRoleID, &r.Source); err != nil {
			return nil, errors.Wrap(err, "scan project_roles row")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) UpsertRole(ctx context.Context, projectID, roleName, normalized string, replicas int, source string) (string, error) {
	var id string
	err := s.q.QueryRowContext(ctx, `
		SELECT id FROM project_roles WHERE project_id = ? AND role_name_normalized = ?`,
		projectID, normalized).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		id = newID()
		if _, err := s.q.ExecContext(ctx, `
			INSERT INTO project_roles (id, project_id, role_name, role_name_normalized, replicas_needed, source)
			VALUES (?, ?, ?, ?, ?, ?)`,
			id, projectID, roleName, normalized, replicas, source); err != nil {
			return "", errors.Wrap(err, "insert project_roles")
		}
		return id, nil
	case err != nil:
		return "", errors.Wrap(err, "lookup project_roles")
	default:
		if _, err := s.q.ExecContext(ctx, `
			UPDATE project_roles SET role_name = ?, replicas_needed = ?, source = ? WHERE id = ?`,
			roleName, replicas, source, id); err != nil {
			return "", errors.Wrap(err, "update project_roles")
		}
		return id, nil
	}
}

func (s *Store) SetRoleParent(ctx context.Context, roleID, parentID string) error {
	_, err := s.q.ExecContext(ctx, `UPDATE project_roles SET parent_role_id = ? WHERE id = ?`, parentID, roleID)
	return errors.Wrap(err, "set parent_role_id")
}

func (s *Store) GetRoleConflicts(ctx context.Context, projectID string) ([]merge.ConflictRow, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, project_id, role_id_a, role_id_b, warning_type, scene_reference
		FROM role_conflicts WHERE project_id = ?`, projectID)
	if err != nil {
		return nil, errors.Wrap(err, "query role_conflicts")
	}
	defer rows.Close()

	var out []merge.ConflictRow
	for rows.Next() {
		var c merge.ConflictRow
		var sceneRef sql.NullInt64
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.RoleIDA, &c.RoleIDB, &c.WarningType, &sceneRef); err != nil {
			return nil, errors.Wrap(err, "scan role_conflicts row")
		}
		if sceneRef.Valid {
			v := int(sceneRef.Int64)
			c.SceneRef = &v
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) InsertRoleConflict(ctx context.Context, projectID, roleIDA, roleIDB, warningType string, sceneRef *int) error {
	lo, hi := roleIDA, roleIDB
	if hi < lo {
		lo, hi = hi, lo
	}
	var sceneArg any
	if sceneRef != nil {
		sceneArg = *sceneRef
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO role_conflicts (id, project_id, role_id_a, role_id_b, warning_type, scene_reference)
		VALUES (?, ?, ?, ?, ?, ?)`,
		newID(), projectID, lo, hi, warningType, sceneArg)
	return errors.Wrap(err, "insert role_conflicts")
}

func (s *Store) UpdateConflictEndpoint(ctx context.Context, conflictID string, side merge.ConflictSide, newRoleID string) error {
	col := "role_id_a"
	if side == merge.SideB {
		col = "role_id_b"
	}
	_, err := s.q.ExecContext(ctx, `UPDATE role_conflicts SET `+col+` = ? WHERE id = ?`, newRoleID, conflictID)
	return errors.Wrap(err, "update conflict endpoint")
}

func (s *Store) DeleteConflict(ctx context.Context, conflictID string) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM role_conflicts WHERE id = ?`, conflictID)
	return errors.Wrap(err, "delete role_conflicts")
}

func (s *Store) GetRoleCastings(ctx context.Context, roleID string) ([]merge.Casting, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, role_id, actor_id, status FROM role_castings WHERE role_id = ?`, roleID)
	if err != nil {
		return nil, errors.Wrap(err, "query role_castings")
	}
	defer rows.Close()

	var out []merge.Casting
	for rows.Next() {
		var c merge.Casting
		if err := rows.Scan(&c.ID, &c.RoleID, &c.ActorID, &c.Status); err != nil {
			return nil, errors.Wrap(err, "scan role_castings row")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) MoveCasting(ctx context.Context, castingID, newRoleID string) error {
	_, err := s.q.ExecContext(ctx, `UPDATE role_castings SET role_id = ? WHERE id = ?`, newRoleID, castingID)
	return errors.Wrap(err, "move casting")
}

func (s *Store) DeleteCasting(ctx context.Context, castingID string) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM role_castings WHERE id = ?`, castingID)
	return errors.Wrap(err, "delete casting")
}

func (s *Store) DeleteRoles(ctx context.Context, roleIDs []string) error {
	for _, id := range roleIDs {
		if _, err := s.q.ExecContext(ctx, `DELETE FROM project_roles WHERE id = ?`, id); err != nil {
			return errors.Wrapf(err, "delete role %q", id)
		}
	}
	return nil
}

var _ merge.PersistenceContext = (*Store)(nil)
