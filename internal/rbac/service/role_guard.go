package service

import (
	rbacDomain "github.com/allisson/roleguard/internal/rbac/domain"
)

// Transition is the input of the role-change guard pipeline.
//
// Role is modelled as a finite-state variable and the guard is its transition
// function: guard(current, requested, actorRole, actorIsSelf, adminCount,
// superAdminCount) -> allow | reject(reason). Any state may move to any other.
type Transition struct {
	// TargetExists is false when the target user could not be found.
	TargetExists bool

	ActorRole   rbacDomain.Role
	ActorIsSelf bool

	Current   rbacDomain.Role
	Requested rbacDomain.Role

	// AdminCount and SuperAdminCount are the current holder counts. Only the count
	// named by RoleGuard.CountedRole is consulted.
	AdminCount      int
	SuperAdminCount int
}

// guardFunc is a single pass/reject rule.
type guardFunc func(t Transition) error

type roleGuard struct {
	guards []guardFunc
}

// NewRoleGuard creates the ordered guard pipeline. Every guard must pass for a
// transition to be allowed; the order only decides which rejection is reported.
func NewRoleGuard() RoleGuard {
	return &roleGuard{
		guards: []guardFunc{
			targetExists,
			selfDemotion,
			promotionAuthority,
			superiorProtection,
			scopeOfAuthority,
			lastHolderProtection,
		},
	}
}

// Evaluate runs the guards in order and returns the first rejection.
func (g *roleGuard) Evaluate(t Transition) error {
	if !t.Requested.IsValid() {
		return rbacDomain.ErrInvalidRoleValue
	}
	for _, guard := range g.guards {
		if err := guard(t); err != nil {
			return err
		}
	}
	return nil
}

// CountedRole reports which holder count lastHolderProtection needs.
func (g *roleGuard) CountedRole(current, requested rbacDomain.Role) (rbacDomain.Role, bool) {
	if current.IsPrivileged() && requested != current {
		return current, true
	}
	return 0, false
}

func targetExists(t Transition) error {
	if !t.TargetExists {
		return rbacDomain.ErrTargetNotFound
	}
	return nil
}

// selfDemotion blocks an actor from lowering their own role. Self promotion is left
// to promotionAuthority.
func selfDemotion(t Transition) error {
	if t.ActorIsSelf && t.Requested.Level() < t.ActorRole.Level() {
		return rbacDomain.ErrSelfDemotionDenied
	}
	return nil
}

func promotionAuthority(t Transition) error {
	if t.Requested.IsPrivileged() && t.ActorRole != rbacDomain.RoleSuperAdmin {
		return rbacDomain.ErrInsufficientAuthorityToPromote
	}
	return nil
}

func superiorProtection(t Transition) error {
	if t.Current == rbacDomain.RoleSuperAdmin && t.ActorRole != rbacDomain.RoleSuperAdmin {
		return rbacDomain.ErrCannotModifySuperior
	}
	return nil
}

// scopeOfAuthority limits plain admins to non-self targets holding the lowest role.
func scopeOfAuthority(t Transition) error {
	if t.ActorRole != rbacDomain.RoleAdmin {
		return nil
	}
	if t.ActorIsSelf || t.Current != rbacDomain.LowestRole() {
		return rbacDomain.ErrOutOfScope
	}
	return nil
}

// lastHolderProtection keeps at least one ADMIN and one SUPER_ADMIN once they exist.
func lastHolderProtection(t Transition) error {
	if t.Requested == t.Current {
		return nil
	}
	switch t.Current {
	case rbacDomain.RoleAdmin:
		if t.AdminCount <= 1 {
			return rbacDomain.ErrLastAdminProtected
		}
	case rbacDomain.RoleSuperAdmin:
		if t.SuperAdminCount <= 1 {
			return rbacDomain.ErrLastAdminProtected
		}
	}
	return nil
}
