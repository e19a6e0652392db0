package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mentoria-app/mentoria-api/internal/models"
	appErrors "github.com/mentoria-app/mentoria-api/pkg/errors"
	"github.com/mentoria-app/mentoria-api/pkg/phone"
)

type phoneRecordFinder interface {
	FindByPhone(ctx context.Context, phone string) ([]models.PersonRecord, error)
}

type identityAccountStore interface {
	FindByID(ctx context.Context, id int) (*models.Account, error)
	UpdateRole(ctx context.Context, id int, role models.Role, entityID int) (*models.Account, error)
}

type roleLookup struct {
	role   models.Role
	finder phoneRecordFinder
}

// IdentityService resolves a bare phone contact to exactly one role-tagged
// record and links the result onto the authenticating account.
type IdentityService struct {
	normalizer *phone.Normalizer
	// lookups is tried in fixed priority order admin -> mentor -> student.
	// The same number can legitimately appear in more than one collection
	// during operational overlap; admin and mentor matches must win over
	// an accidental student match.
	lookups  []roleLookup
	accounts identityAccountStore
	cache    *CacheService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewIdentityService constructs an IdentityService. The finder order is
// fixed by the constructor; callers supply collections, not priorities.
func NewIdentityService(normalizer *phone.Normalizer, admins, mentors, students phoneRecordFinder, accounts identityAccountStore, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *IdentityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdentityService{
		normalizer: normalizer,
		lookups: []roleLookup{
			{role: models.RoleAdmin, finder: admins},
			{role: models.RoleMentor, finder: mentors},
			{role: models.RoleStudent, finder: students},
		},
		accounts: accounts,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Resolve canonicalises the phone and walks the lookup chain. Each
// collection is queried with the normalized variant first, then the bare
// variant; the first collection with a match wins. A fully exhausted chain
// yields a typed NOT_FOUND the caller treats as "new user". Upstream
// failures surface immediately; resolution never retries.
func (s *IdentityService) Resolve(ctx context.Context, rawPhone string) (*models.Resolution, error) {
	contact, err := s.normalizer.Normalize(rawPhone)
	if err != nil {
		return nil, err
	}

	cacheKey := "identity:" + contact.Normalized
	var cached models.Resolution
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	for _, lookup := range s.lookups {
		for _, variant := range contact.Variants() {
			records, err := lookup.finder.FindByPhone(ctx, variant)
			if err != nil {
				return nil, err
			}
			if len(records) == 0 {
				continue
			}
			resolution := &models.Resolution{
				Role:     lookup.role,
				EntityID: records[0].ID,
				Name:     records[0].Name,
				Variant:  variant,
			}
			if err := s.cache.Set(ctx, cacheKey, resolution, s.cacheTTL); err != nil {
				s.logger.Warn("failed to cache resolution", zap.Error(err))
			}
			return resolution, nil
		}
	}

	return nil, appErrors.Clone(appErrors.ErrNotFound, "no record matches this phone number")
}

// Link persists the resolved role and entity onto the account. Linking is
// idempotent: an identical role+entity pair is a no-op success. A
// different existing role is only overwritten when force is set;
// resolution-time auto-link never replaces a manually verified role.
func (s *IdentityService) Link(ctx context.Context, accountID int, role models.Role, entityID int, force bool) (*models.Account, error) {
	if !role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "role must be ADMIN, MENTOR or STUDENT")
	}
	if entityID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "entity_id is required")
	}

	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if account.Role == role && account.LinkedEntityID != nil && *account.LinkedEntityID == entityID {
		return account, nil
	}
	if account.Linked() && !force {
		return nil, appErrors.Clone(appErrors.ErrConflict, "account is already linked to a different role")
	}

	updated, err := s.accounts.UpdateRole(ctx, accountID, role, entityID)
	if err != nil {
		if appErrors.Retryable(err) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersist.Code, appErrors.ErrPersist.Status, "failed to persist role link")
	}

	s.logger.Info("account linked",
		zap.Int("account_id", accountID),
		zap.String("role", string(role)),
		zap.Int("entity_id", entityID))
	return updated, nil
}
