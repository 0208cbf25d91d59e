package merge

import (
	"context"

	"github.com/pkg/errors"

	"github.com/castingdb/scriptpipeline/ast"
	"github.com/castingdb/scriptpipeline/schema"
)

// ApplyBundle runs the role upsert and conflict reconciliation
// algorithms from spec.md §4.8 against one project. The caller is
// expected to have opened a transaction-scoped PersistenceContext;
// ApplyBundle itself performs no transaction management, consistent
// with spec.md §4.8's "atomically per project" requirement living at
// the storage adapter boundary. roleSource is the value stored in each
// upserted role's source column (spec.md §6), typically "script".
func ApplyBundle(ctx context.Context, pc PersistenceContext, projectID string, bundle *ast.ParseBundle, roleSource string, diags *schema.Diagnostics) error {
	roleIDs, err := upsertRoles(ctx, pc, projectID, bundle, roleSource)
	if err != nil {
		return errors.Wrap(err, "upsert roles")
	}
	if err := linkVariantParents(ctx, pc, bundle, roleIDs); err != nil {
		return errors.Wrap(err, "link variant parents")
	}
	if err := reconcileConflicts(ctx, pc, projectID, bundle, roleIDs, diags); err != nil {
		return errors.Wrap(err, "reconcile conflicts")
	}
	return nil
}

// upsertRoles implements spec.md §4.8's role-upsert pass. UpsertRole
// itself carries the update-existing-or-insert-missing semantics
// (spec.md §6: "upsert_role(...) -> RoleId"); this function's job is
// just to call it once per character and build the normalized-name ->
// role id map the rest of ApplyBundle needs.
func upsertRoles(ctx context.Context, pc PersistenceContext, projectID string, bundle *ast.ParseBundle, source string) (map[string]string, error) {
	roleIDs := make(map[string]string, len(bundle.Characters))
	for _, c := range bundle.OrderedCharacters() {
		id, err := pc.UpsertRole(ctx, projectID, c.DisplayName, c.NormalizedName, c.ReplicaCount, source)
		if err != nil {
			return nil, errors.Wrapf(err, "upsert role %q", c.NormalizedName)
		}
		roleIDs[c.NormalizedName] = id
	}
	return roleIDs, nil
}

// linkVariantParents implements spec.md §4.8's second upsert pass: every
// VARIANT character's role gets its parent_role_id set.
func linkVariantParents(ctx context.Context, pc PersistenceContext, bundle *ast.ParseBundle, roleIDs map[string]string) error {
	for _, c := range bundle.OrderedCharacters() {
		if c.Kind != ast.VARIANT {
			continue
		}
		parentID, ok := roleIDs[c.ParentNormalizedName]
		if !ok {
			continue
		}
		childID := roleIDs[c.NormalizedName]
		if err := pc.SetRoleParent(ctx, childID, parentID); err != nil {
			return errors.Wrapf(err, "set parent for %q", c.NormalizedName)
		}
	}
	return nil
}

// reconcileConflicts implements spec.md §4.8's conflict-reconciliation
// pass: map bundle pairs to role ids, canonicalize and dedup, then
// insert only the pairs absent from the project's existing conflicts.
func reconcileConflicts(ctx context.Context, pc PersistenceContext, projectID string, bundle *ast.ParseBundle, roleIDs map[string]string, diags *schema.Diagnostics) error {
	existing, err := pc.GetRoleConflicts(ctx, projectID)
	if err != nil {
		return errors.Wrap(err, "get role conflicts")
	}
	haveIDs := make(map[[2]string]struct{}, len(existing))
	for _, row := range existing {
		haveIDs[canonPair(row.RoleIDA, row.RoleIDB)] = struct{}{}
	}

	seen := map[[2]string]struct{}{}
	for _, pair := range bundle.OrderedConflicts() {
		idA, okA := roleIDs[pair.A]
		idB, okB := roleIDs[pair.B]
		if !okA || !okB {
			if diags != nil {
				diags.Addf(schema.Warning, schema.StageMerge, schema.CodeApplyConflict, nil,
					"conflict pair (%s, %s) dropped: missing role mapping", pair.A, pair.B)
			}
			continue
		}
		key := canonPair(idA, idB)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if _, exists := haveIDs[key]; exists {
			continue
		}
		scenes := pair.SortedScenes()
		var sceneRef *int
		if len(scenes) > 0 {
			sceneRef = &scenes[0]
		}
		if err := pc.InsertRoleConflict(ctx, projectID, key[0], key[1], WarningTypeCastingConflict, sceneRef); err != nil {
			return errors.Wrapf(err, "insert conflict (%s, %s)", key[0], key[1])
		}
	}
	return nil
}

func canonPair(a, b string) [2]string {
	if a <= b {
		return [2]string{a, b}
	}
	return [2]string{b, a}
}
