package merge

import (
	"context"

	"github.com/pkg/errors"
)

// ErrCastingConflict is returned when a role merge is refused because
// both the primary and one of the others already carry castings, or the
// others are cast to more than one distinct actor (spec.md §4.8).
var ErrCastingConflict = errors.New("role merge refused: conflicting castings")

// MergeRoles implements spec.md §4.8's user-driven merge action: fold
// others into primary, re-pointing conflicts and moving at most one
// casting across. All role ids refer to rows already fetched by the
// caller for projectID.
func MergeRoles(ctx context.Context, pc PersistenceContext, projectID, primaryRoleID string, otherRoleIDs []string) error {
	if len(otherRoleIDs) == 0 {
		return nil
	}

	primaryCastings, err := pc.GetRoleCastings(ctx, primaryRoleID)
	if err != nil {
		return errors.Wrap(err, "get primary castings")
	}

	var survivorCasting *Casting
	distinctActors := map[string]struct{}{}
	for _, otherID := range otherRoleIDs {
		castings, err := pc.GetRoleCastings(ctx, otherID)
		if err != nil {
			return errors.Wrapf(err, "get castings for %q", otherID)
		}
		for i := range castings {
			distinctActors[castings[i].ActorID] = struct{}{}
			if survivorCasting == nil {
				survivorCasting = &castings[i]
			}
		}
	}

	if len(primaryCastings) > 0 && survivorCasting != nil {
		return ErrCastingConflict
	}
	if len(distinctActors) > 1 {
		return ErrCastingConflict
	}

	if err := moveOrDropCastings(ctx, pc, primaryRoleID, otherRoleIDs, survivorCasting); err != nil {
		return err
	}
	if err := sumReplicasIntoPrimary(ctx, pc, projectID, primaryRoleID, otherRoleIDs); err != nil {
		return errors.Wrap(err, "sum replicas into primary")
	}
	if err := repointConflicts(ctx, pc, projectID, primaryRoleID, otherRoleIDs); err != nil {
		return errors.Wrap(err, "repoint conflicts")
	}
	if err := pc.DeleteRoles(ctx, otherRoleIDs); err != nil {
		return errors.Wrap(err, "delete merged roles")
	}
	return nil
}

// moveOrDropCastings moves the single survivor casting (if any) onto
// primary and deletes every other casting under the others (spec.md
// §4.8: "move at most one casting from the O-set to P, delete the
// rest").
func moveOrDropCastings(ctx context.Context, pc PersistenceContext, primaryRoleID string, otherRoleIDs []string, survivor *Casting) error {
	for _, otherID := range otherRoleIDs {
		castings, err := pc.GetRoleCastings(ctx, otherID)
		if err != nil {
			return errors.Wrapf(err, "get castings for %q", otherID)
		}
		for i := range castings {
			c := castings[i]
			if survivor != nil && c.ID == survivor.ID {
				if err := pc.MoveCasting(ctx, c.ID, primaryRoleID); err != nil {
					return errors.Wrapf(err, "move casting %q", c.ID)
				}
				continue
			}
			if err := pc.DeleteCasting(ctx, c.ID); err != nil {
				return errors.Wrapf(err, "delete casting %q", c.ID)
			}
		}
	}
	return nil
}

// sumReplicasIntoPrimary implements spec.md §4.8's "sum replicas_needed
// into P" step: the others' replica counts fold into the primary's via
// UpsertRole, which doubles as the update path for an existing role.
func sumReplicasIntoPrimary(ctx context.Context, pc PersistenceContext, projectID, primaryRoleID string, otherRoleIDs []string) error {
	roles, err := pc.GetProjectRoles(ctx, projectID)
	if err != nil {
		return errors.Wrap(err, "get project roles")
	}
	byID := make(map[string]Role, len(roles))
	for _, r := range roles {
		byID[r.ID] = r
	}
	primary, ok := byID[primaryRoleID]
	if !ok {
		return errors.Errorf("primary role %q not found", primaryRoleID)
	}
	total := primary.ReplicasNeeded
	for _, otherID := range otherRoleIDs {
		if other, ok := byID[otherID]; ok {
			total += other.ReplicasNeeded
		}
	}
	if _, err := pc.UpsertRole(ctx, projectID, primary.RoleName, primary.NormalizedName, total, primary.Source); err != nil {
		return errors.Wrapf(err, "update replicas for %q", primaryRoleID)
	}
	return nil
}

// repointConflicts implements spec.md §4.8's conflict re-pointing:
// every conflict touching an id in otherRoleIDs is updated to point at
// primaryRoleID instead, self-conflicts are dropped, and the remaining
// set is renormalized and deduplicated.
func repointConflicts(ctx context.Context, pc PersistenceContext, projectID, primaryRoleID string, otherRoleIDs []string) error {
	others := make(map[string]struct{}, len(otherRoleIDs))
	for _, id := range otherRoleIDs {
		others[id] = struct{}{}
	}

	rows, err := pc.GetRoleConflicts(ctx, projectID)
	if err != nil {
		return errors.Wrap(err, "get role conflicts")
	}

	seen := map[[2]string]struct{}{}
	// Pre-seed with conflicts untouched by the merge so the survivor set
	// stays deduplicated once re-pointed rows join it.
	for _, row := range rows {
		if _, touchedA := others[row.RoleIDA]; touchedA {
			continue
		}
		if _, touchedB := others[row.RoleIDB]; touchedB {
			continue
		}
		seen[canonPair(row.RoleIDA, row.RoleIDB)] = struct{}{}
	}

	for _, row := range rows {
		a, touchedA := remapEndpoint(row.RoleIDA, others, primaryRoleID)
		b, touchedB := remapEndpoint(row.RoleIDB, others, primaryRoleID)
		if !touchedA && !touchedB {
			continue
		}
		if a == b {
			if err := pc.DeleteConflict(ctx, row.ID); err != nil {
				return errors.Wrapf(err, "delete self-conflict %q", row.ID)
			}
			continue
		}
		key := canonPair(a, b)
		if _, dup := seen[key]; dup {
			if err := pc.DeleteConflict(ctx, row.ID); err != nil {
				return errors.Wrapf(err, "delete duplicate conflict %q", row.ID)
			}
			continue
		}
		seen[key] = struct{}{}

		if touchedA {
			if err := pc.UpdateConflictEndpoint(ctx, row.ID, SideA, primaryRoleID); err != nil {
				return errors.Wrapf(err, "update conflict endpoint a %q", row.ID)
			}
		}
		if touchedB {
			if err := pc.UpdateConflictEndpoint(ctx, row.ID, SideB, primaryRoleID); err != nil {
				return errors.Wrapf(err, "update conflict endpoint b %q", row.ID)
			}
		}
		// Renormalize ordering after repointing: if the update flipped
		// which side is smaller, swap so role_id_a < role_id_b holds.
		if key[0] != a {
			if err := pc.UpdateConflictEndpoint(ctx, row.ID, SideA, key[0]); err != nil {
				return errors.Wrapf(err, "renormalize conflict %q", row.ID)
			}
			if err := pc.UpdateConflictEndpoint(ctx, row.ID, SideB, key[1]); err != nil {
				return errors.Wrapf(err, "renormalize conflict %q", row.ID)
			}
		}
	}
	return nil
}

func remapEndpoint(roleID string, others map[string]struct{}, primaryRoleID string) (string, bool) {
	if _, ok := others[roleID]; ok {
		return primaryRoleID, true
	}
	return roleID, false
}
