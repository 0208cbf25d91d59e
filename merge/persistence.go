// Package merge implements the Merge Planner / Applier (spec.md §4.8):
// it reconciles a validated ParseBundle against a project's persisted
// roles and conflicts through the PersistenceContext interface, and
// implements the user-driven role-merge action.
package merge

import "context"

// Role mirrors spec.md §6's project_roles row.
type Role struct {
	ID             string
	ProjectID      string
	RoleName       string
	NormalizedName string
	ReplicasNeeded  int
	ParentRoleID   string // empty when absent
	Source         string
}

// ConflictSide selects which endpoint of a ConflictRow an update targets.
type ConflictSide int

const (
	SideA ConflictSide = iota
	SideB
)

// ConflictRow mirrors spec.md §6's role_conflicts row.
type ConflictRow struct {
	ID          string
	ProjectID   string
	RoleIDA     string
	RoleIDB     string
	WarningType string
	SceneRef    *int
}

// Casting mirrors spec.md §6's role_castings row.
type Casting struct {
	ID      string
	RoleID  string
	ActorID string
	Status  string
}

// PersistenceContext is the storage boundary the applier calls through
// (spec.md §6): the rewriter provides a concrete implementation (see
// sqlitestore for a reference adapter). Every method participates in
// the single transaction the caller opens for one apply_bundle call.
type PersistenceContext interface {
	GetProjectRoles(ctx context.Context, projectID string) ([]Role, error)
	UpsertRole(ctx context.Context, projectID, roleName, normalized string, replicas int, source string) (string, error)
	SetRoleParent(ctx context.Context, roleID, parentID string) error

	GetRoleConflicts(ctx context.Context, projectID string) ([]ConflictRow, error)
	InsertRoleConflict(ctx context.Context, projectID, roleIDA, roleIDB, warningType string, sceneRef *int) error
	UpdateConflictEndpoint(ctx context.Context, conflictID string, side ConflictSide, newRoleID string) error
	DeleteConflict(ctx context.Context, conflictID string) error

	GetRoleCastings(ctx context.Context, roleID string) ([]Casting, error)
	MoveCasting(ctx context.Context, castingID, newRoleID string) error
	DeleteCasting(ctx context.Context, castingID string) error

	DeleteRoles(ctx context.Context, roleIDs []string) error
}

// WarningTypeCastingConflict is the single warning_type this pipeline
// writes; the column exists for forward-compatibility with reconciler
// types the rewriter may add later.
const WarningTypeCastingConflict = "shared_scene"
