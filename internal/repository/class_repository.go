package repository

import (
	"context"
	"strconv"

	"github.com/mentoria-app/mentoria-api/internal/models"
	"github.com/mentoria-app/mentoria-api/internal/recordstore"
	appErrors "github.com/mentoria-app/mentoria-api/pkg/errors"
)

const collectionClasses = "classes"

// ClassRepository reads and writes class records.
type ClassRepository struct {
	store *recordstore.Client
}

// NewClassRepository constructs a ClassRepository.
func NewClassRepository(store *recordstore.Client) *ClassRepository {
	return &ClassRepository{store: store}
}

// FindByID looks a class up through the numeric id filter.
func (r *ClassRepository) FindByID(ctx context.Context, id int) (*models.Class, error) {
	return r.findOne(ctx, map[string]string{"id": strconv.Itoa(id)})
}

// FindByDocumentID looks a class up through its stable document identifier.
func (r *ClassRepository) FindByDocumentID(ctx context.Context, documentID string) (*models.Class, error) {
	return r.findOne(ctx, map[string]string{"document_id": documentID})
}

// FindByName locates a class by exact name within a school.
func (r *ClassRepository) FindByName(ctx context.Context, schoolID int, name string) (*models.Class, error) {
	return r.findOne(ctx, map[string]string{
		"name":   name,
		"school": strconv.Itoa(schoolID),
	})
}

// ListAll pages through every class. The store caps page sizes, so the
// full listing walks pages until a short one arrives.
func (r *ClassRepository) ListAll(ctx context.Context) ([]models.Class, error) {
	const pageSize = 100
	var all []models.Class
	for page := 1; ; page++ {
		var chunk []models.Class
		err := r.store.Find(ctx, collectionClasses, recordstore.Query{
			Page:     page,
			PageSize: pageSize,
		}, &chunk)
		if err != nil {
			return nil, err
		}
		all = append(all, chunk...)
		if len(chunk) < pageSize {
			return all, nil
		}
	}
}

// Create inserts a class record.
func (r *ClassRepository) Create(ctx context.Context, class models.Class) (*models.Class, error) {
	var created models.Class
	if err := r.store.Create(ctx, collectionClasses, class, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *ClassRepository) findOne(ctx context.Context, filters map[string]string) (*models.Class, error) {
	var out []models.Class
	err := r.store.Find(ctx, collectionClasses, recordstore.Query{Filters: filters}, &out)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}
	return &out[0], nil
}
