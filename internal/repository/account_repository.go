package repository

import (
	"context"
	"strconv"

	"github.com/mentoria-app/mentoria-api/internal/models"
	"github.com/mentoria-app/mentoria-api/internal/recordstore"
	appErrors "github.com/mentoria-app/mentoria-api/pkg/errors"
)

const collectionAccounts = "accounts"

// AccountRepository reads and updates authenticating accounts.
type AccountRepository struct {
	store *recordstore.Client
}

// NewAccountRepository constructs an AccountRepository.
func NewAccountRepository(store *recordstore.Client) *AccountRepository {
	return &AccountRepository{store: store}
}

// FindByID loads an account by numeric id.
func (r *AccountRepository) FindByID(ctx context.Context, id int) (*models.Account, error) {
	var out []models.Account
	err := r.store.Find(ctx, collectionAccounts, recordstore.Query{
		Filters: map[string]string{"id": strconv.Itoa(id)},
	}, &out)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
	}
	return &out[0], nil
}

// UpdateRole persists the resolved role and linked entity onto the account.
func (r *AccountRepository) UpdateRole(ctx context.Context, id int, role models.Role, entityID int) (*models.Account, error) {
	payload := map[string]interface{}{
		"role":             role,
		"linked_entity_id": entityID,
	}
	var updated models.Account
	if err := r.store.Update(ctx, collectionAccounts, id, payload, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func itoa(v int) string {
	return strconv.Itoa(v)
}
