package roles

import (
	"context"
	"sort"

	logx "pdbot/pkg/logx"
)

// GuildRoleOps is the slice of the platform the reconciler needs.
type GuildRoleOps interface {
	// Roles lists all roles in the guild as name -> id.
	Roles(ctx context.Context) (map[string]string, error)
	// CreateRole creates a role and returns its id.
	CreateRole(ctx context.Context, name string) (string, error)
	// MemberRoleIDs lists the role ids a member currently holds.
	MemberRoleIDs(ctx context.Context, userID string) ([]string, error)
	// SetMemberRoles replaces the member's role set in one call.
	SetMemberRoles(ctx context.Context, userID string, roleIDs []string) error
}

// Reconciler drives trophy roles toward the member's achievements. It is
// edge-triggered from presence updates, never polled, and re-reads current
// state from the platform on every run.
type Reconciler struct {
	ops    GuildRoleOps
	titles *TitleCache
	log    logx.Logger
}

func NewReconciler(ops GuildRoleOps, titles *TitleCache, log logx.Logger) *Reconciler {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Reconciler{ops: ops, titles: titles, log: log}
}

// ExpectedRoleNames maps achievement counts to the trophy role names the
// member should hold. Keys the catalog cannot resolve are skipped.
func (r *Reconciler) ExpectedRoleNames(ctx context.Context, achievements map[string]int) []string {
	var names []string
	for key, count := range achievements {
		if count <= 0 {
			continue
		}
		title, ok := r.titles.Title(ctx, key)
		if !ok {
			r.log.Debug("achievement key not in catalog, skipping", logx.String("key", key))
			continue
		}
		names = append(names, TrophyPrefix+title)
	}
	sort.Strings(names)
	return names
}

// SyncNamedRole adds or removes a single role by name so that membership
// matches want. A role the guild has not created is a no-op; creating the
// role is how a server opts in to the feature.
func (r *Reconciler) SyncNamedRole(ctx context.Context, userID, roleName string, want bool) error {
	guildRoles, err := r.ops.Roles(ctx)
	if err != nil {
		return err
	}
	roleID, ok := guildRoles[roleName]
	if !ok {
		return nil
	}
	heldIDs, err := r.ops.MemberRoleIDs(ctx, userID)
	if err != nil {
		return err
	}
	has := false
	for _, id := range heldIDs {
		if id == roleID {
			has = true
			break
		}
	}
	if has == want {
		return nil
	}
	final := make([]string, 0, len(heldIDs)+1)
	for _, id := range heldIDs {
		if id != roleID {
			final = append(final, id)
		}
	}
	if want {
		final = append(final, roleID)
	}
	return r.ops.SetMemberRoles(ctx, userID, final)
}

// Reconcile converges the member's trophy roles to the achievement counts.
// Returns the applied diff by role name. Idempotent: a second run with the
// same achievements is a no-op.
func (r *Reconciler) Reconcile(ctx context.Context, userID string, achievements map[string]int) (added, removed []string, err error) {
	expected := r.ExpectedRoleNames(ctx, achievements)

	guildRoles, err := r.ops.Roles(ctx)
	if err != nil {
		return nil, nil, err
	}
	idToName := make(map[string]string, len(guildRoles))
	for name, id := range guildRoles {
		idToName[id] = name
	}

	heldIDs, err := r.ops.MemberRoleIDs(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	heldNames := make([]string, 0, len(heldIDs))
	for _, id := range heldIDs {
		if name, ok := idToName[id]; ok {
			heldNames = append(heldNames, name)
		}
	}

	add, remove := Diff(heldNames, expected)
	if len(add) == 0 && len(remove) == 0 {
		return nil, nil, nil
	}

	removeSet := make(map[string]bool, len(remove))
	for _, name := range remove {
		removeSet[name] = true
	}

	// One batched replacement: drop removals first, then append additions.
	final := make([]string, 0, len(heldIDs)+len(add))
	for _, id := range heldIDs {
		if removeSet[idToName[id]] {
			continue
		}
		final = append(final, id)
	}
	for _, name := range add {
		id, ok := guildRoles[name]
		if !ok {
			id, err = r.ops.CreateRole(ctx, name)
			if err != nil {
				return nil, nil, err
			}
			guildRoles[name] = id
		}
		final = append(final, id)
	}

	if err := r.ops.SetMemberRoles(ctx, userID, final); err != nil {
		return nil, nil, err
	}
	r.log.Info("reconciled trophy roles",
		logx.String("user", userID),
		logx.Any("added", add),
		logx.Any("removed", remove))
	return add, remove, nil
}
