package usecase

import (
	"context"
	"errors"
	"fmt"

	"repair-desk/internal/domain"
)

// RoleLookup resolves an identity's role through the role cache, falling back
// to the profile store and warming the cache on a hit.
type RoleLookup struct {
	profiles domain.ProfileStore
	cache    domain.RoleCache
}

// NewRoleLookup creates a RoleLookup. cache may be nil.
func NewRoleLookup(profiles domain.ProfileStore, cache domain.RoleCache) *RoleLookup {
	return &RoleLookup{profiles: profiles, cache: cache}
}

// Resolve returns domain.ErrRoleNotFound when the identity has no profile or
// the profile carries no valid role. Store failures are returned as is.
func (l *RoleLookup) Resolve(ctx context.Context, identityID string) (domain.Role, error) {
	if l.cache != nil {
		if role, ok := l.cache.Get(ctx, identityID); ok {
			return role, nil
		}
	}

	profile, err := l.profiles.GetProfile(ctx, identityID)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return "", fmt.Errorf("%w: %w", domain.ErrRoleNotFound, err)
		}
		return "", err
	}
	if !profile.Role.Valid() {
		return "", domain.ErrRoleNotFound
	}

	l.Remember(ctx, identityID, profile.Role)
	return profile.Role, nil
}

// Remember stores role in the cache.
func (l *RoleLookup) Remember(ctx context.Context, identityID string, role domain.Role) {
	if l.cache != nil {
		l.cache.Set(ctx, identityID, role)
	}
}

// Forget evicts identityID from the cache.
func (l *RoleLookup) Forget(ctx context.Context, identityID string) {
	if l.cache != nil {
		l.cache.Delete(ctx, identityID)
	}
}
