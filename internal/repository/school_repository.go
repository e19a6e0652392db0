package repository

import (
	"context"

	"github.com/mentoria-app/mentoria-api/internal/models"
	"github.com/mentoria-app/mentoria-api/internal/recordstore"
)

const collectionSchools = "schools"

// SchoolRepository reads and writes school records.
type SchoolRepository struct {
	store *recordstore.Client
}

// NewSchoolRepository constructs a SchoolRepository.
func NewSchoolRepository(store *recordstore.Client) *SchoolRepository {
	return &SchoolRepository{store: store}
}

// FindByName locates a school by exact name. A miss returns (nil, nil) so
// callers can fall through to creation.
func (r *SchoolRepository) FindByName(ctx context.Context, name string) (*models.School, error) {
	var out []models.School
	err := r.store.Find(ctx, collectionSchools, recordstore.Query{
		Filters: map[string]string{"name": name},
	}, &out)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}

// Create inserts a school record.
func (r *SchoolRepository) Create(ctx context.Context, name string) (*models.School, error) {
	var created models.School
	if err := r.store.Create(ctx, collectionSchools, models.School{Name: name}, &created); err != nil {
		return nil, err
	}
	return &created, nil
}
