package merge

import (
	"context"
	"testing"

	"github.com/castingdb/scriptpipeline/ast"
	"github.com/castingdb/scriptpipeline/schema"
)

// fakeStore is an in-memory PersistenceContext used to exercise
// ApplyBundle and MergeRoles without a real database.
type fakeStore struct {
	roles     map[string]*Role
	conflicts map[string]*ConflictRow
	castings  map[string]*Casting
	nextID    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		roles:     map[string]*Role{},
		conflicts: map[string]*ConflictRow{},
		castings:  map[string]*Casting{},
	}
}

func (s *fakeStore) genID(prefix string) string {
	s.nextID++
	return prefix + string(rune('0'+s.nextID))
}

func (s *fakeStore) GetProjectRoles(ctx context.Context, projectID string) ([]Role, error) {
	var out []Role
	for _, r := range s.roles {
		if r.ProjectID == projectID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *fakeStore) UpsertRole(ctx context.Context, projectID, roleName, normalized string, replicas int, source string) (string, error) {
	for _, r := range s.roles {
		if r.ProjectID == projectID && r.NormalizedName == normalized {
			r.RoleName, r.ReplicasNeeded, r.Source = roleName, replicas, source
			return r.ID, nil
		}
	}
	id := s.genID("role")
	s.roles[id] = &Role{ID: id, ProjectID: projectID, RoleName: roleName, NormalizedName: normalized, ReplicasNeeded: replicas, Source: source}
	return id, nil
}

func (s *fakeStore) SetRoleParent(ctx context.Context, roleID, parentID string) error {
	s.roles[roleID].ParentRoleID = parentID
	return nil
}

func (s *fakeStore) GetRoleConflicts(ctx context.Context, projectID string) ([]ConflictRow, error) {
	var out []ConflictRow
	for _, c := range s.conflicts {
		if c.ProjectID == projectID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *fakeStore) InsertRoleConflict(ctx context.Context, projectID, a, b, warningType string, sceneRef *int) error {
	id := s.genID("conflict")
	s.conflicts[id] = &ConflictRow{ID: id, ProjectID: projectID, RoleIDA: a, RoleIDB: b, WarningType: warningType, SceneRef: sceneRef}
	return nil
}

func (s *fakeStore) UpdateConflictEndpoint(ctx context.Context, conflictID string, side ConflictSide, newRoleID string) error {
	row := s.conflicts[conflictID]
	if side == SideA {
		row.RoleIDA = newRoleID
	} else {
		row.RoleIDB = newRoleID
	}
	return nil
}

func (s *fakeStore) DeleteConflict(ctx context.Context, conflictID string) error {
	delete(s.conflicts, conflictID)
	return nil
}

func (s *fakeStore) GetRoleCastings(ctx context.Context, roleID string) ([]Casting, error) {
	var out []Casting
	for _, c := range s.castings {
		if c.RoleID == roleID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *fakeStore) MoveCasting(ctx context.Context, castingID, newRoleID string) error {
	s.castings[castingID].RoleID = newRoleID
	return nil
}

func (s *fakeStore) DeleteCasting(ctx context.Context, castingID string) error {
	delete(s.castings, castingID)
	return nil
}

func (s *fakeStore) DeleteRoles(ctx context.Context, roleIDs []string) error {
	for _, id := range roleIDs {
		delete(s.roles, id)
	}
	return nil
}

// S1 — applying a minimal bundle inserts both roles and one conflict.
func TestApplyBundleMinimal(t *testing.T) {
	store := newFakeStore()
	bundle := ast.NewParseBundle()
	john := bundle.EnsureCharacter("JOHN")
	john.DisplayName = "JOHN"
	john.ReplicaCount = 1
	john.ScenesPresent[0] = struct{}{}
	mary := bundle.EnsureCharacter("MARY")
	mary.DisplayName = "MARY"
	mary.ReplicaCount = 1
	mary.ScenesPresent[0] = struct{}{}
	bundle.AddConflict("JOHN", "MARY", 0)

	var diags schema.Diagnostics
	if err := ApplyBundle(context.Background(), store, "proj1", bundle, "script", &diags); err != nil {
		t.Fatalf("ApplyBundle failed: %v", err)
	}

	if len(store.roles) != 2 {
		t.Fatalf("expected 2 roles, got %d", len(store.roles))
	}
	if len(store.conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(store.conflicts))
	}
}

// S6 — idempotent apply: applying the same bundle twice inserts no
// extra rows.
func TestApplyBundleIdempotent(t *testing.T) {
	store := newFakeStore()
	bundle := ast.NewParseBundle()
	john := bundle.EnsureCharacter("JOHN")
	john.DisplayName = "JOHN"
	john.ReplicaCount = 2
	john.ScenesPresent[0] = struct{}{}
	mary := bundle.EnsureCharacter("MARY")
	mary.DisplayName = "MARY"
	mary.ReplicaCount = 2
	mary.ScenesPresent[0] = struct{}{}
	bundle.AddConflict("JOHN", "MARY", 0)

	var diags schema.Diagnostics
	if err := ApplyBundle(context.Background(), store, "proj1", bundle, "script", &diags); err != nil {
		t.Fatalf("first apply failed: %v", err)
	}
	if err := ApplyBundle(context.Background(), store, "proj1", bundle, "script", &diags); err != nil {
		t.Fatalf("second apply failed: %v", err)
	}

	if len(store.roles) != 2 {
		t.Fatalf("expected 2 roles after repeat apply, got %d", len(store.roles))
	}
	if len(store.conflicts) != 1 {
		t.Fatalf("expected 1 conflict after repeat apply, got %d", len(store.conflicts))
	}
}

func TestApplyBundleVariantParentLink(t *testing.T) {
	store := newFakeStore()
	bundle := ast.NewParseBundle()
	sarah := bundle.EnsureCharacter("SARAH")
	sarah.DisplayName = "SARAH"
	older := bundle.EnsureCharacter("SARAH OLDER")
	older.DisplayName = "SARAH OLDER"
	older.Kind = ast.VARIANT
	older.ParentNormalizedName = "SARAH"

	var diags schema.Diagnostics
	if err := ApplyBundle(context.Background(), store, "proj1", bundle, "script", &diags); err != nil {
		t.Fatalf("ApplyBundle failed: %v", err)
	}

	var olderRole, sarahRole *Role
	for _, r := range store.roles {
		switch r.NormalizedName {
		case "SARAH OLDER":
			olderRole = r
		case "SARAH":
			sarahRole = r
		}
	}
	if olderRole == nil || sarahRole == nil {
		t.Fatalf("expected both roles to exist")
	}
	if olderRole.ParentRoleID != sarahRole.ID {
		t.Fatalf("expected SARAH OLDER's parent to point at SARAH's id, got %q want %q", olderRole.ParentRoleID, sarahRole.ID)
	}
}

// S5 — merge re-points conflicts.
func TestMergeRolesRepointsConflicts(t *testing.T) {
	store := newFakeStore()
	store.roles["A"] = &Role{ID: "A", ProjectID: "proj1", NormalizedName: "A"}
	store.roles["B"] = &Role{ID: "B", ProjectID: "proj1", NormalizedName: "B"}
	store.roles["C"] = &Role{ID: "C", ProjectID: "proj1", NormalizedName: "C"}
	store.conflicts["c1"] = &ConflictRow{ID: "c1", ProjectID: "proj1", RoleIDA: "A", RoleIDB: "B"}
	store.conflicts["c2"] = &ConflictRow{ID: "c2", ProjectID: "proj1", RoleIDA: "A", RoleIDB: "C"}

	if err := MergeRoles(context.Background(), store, "proj1", "A", []string{"B"}); err != nil {
		t.Fatalf("MergeRoles failed: %v", err)
	}

	if _, ok := store.roles["B"]; ok {
		t.Fatalf("expected B to be deleted")
	}
	if len(store.roles) != 2 {
		t.Fatalf("expected 2 roles remaining, got %d", len(store.roles))
	}
	if len(store.conflicts) != 1 {
		t.Fatalf("expected 1 conflict remaining (self-conflict A-B dropped), got %d", len(store.conflicts))
	}
	for _, c := range store.conflicts {
		if c.RoleIDA != "A" || c.RoleIDB != "C" {
			t.Fatalf("expected surviving conflict (A, C), got (%s, %s)", c.RoleIDA, c.RoleIDB)
		}
	}
}

func TestMergeRolesRefusesDualCastings(t *testing.T) {
	store := newFakeStore()
	store.roles["A"] = &Role{ID: "A", ProjectID: "proj1", NormalizedName: "A"}
	store.roles["B"] = &Role{ID: "B", ProjectID: "proj1", NormalizedName: "B"}
	store.castings["cast-a"] = &Casting{ID: "cast-a", RoleID: "A", ActorID: "actor1"}
	store.castings["cast-b"] = &Casting{ID: "cast-b", RoleID: "B", ActorID: "actor2"}

	err := MergeRoles(context.Background(), store, "proj1", "A", []string{"B"})
	if err != ErrCastingConflict {
		t.Fatalf("expected ErrCastingConflict, got %v", err)
	}
}

func TestMergeRolesMovesSurvivorCasting(t *testing.T) {
	store := newFakeStore()
	store.roles["A"] = &Role{ID: "A", ProjectID: "proj1", NormalizedName: "A"}
	store.roles["B"] = &Role{ID: "B", ProjectID: "proj1", NormalizedName: "B"}
	store.castings["cast-b"] = &Casting{ID: "cast-b", RoleID: "B", ActorID: "actor1"}

	if err := MergeRoles(context.Background(), store, "proj1", "A", []string{"B"}); err != nil {
		t.Fatalf("MergeRoles failed: %v", err)
	}
	if store.castings["cast-b"].RoleID != "A" {
		t.Fatalf("expected casting moved to A, got %q", store.castings["cast-b"].RoleID)
	}
}
