package repository

import (
	"context"

	"github.com/mentoria-app/mentoria-api/internal/models"
	"github.com/mentoria-app/mentoria-api/internal/recordstore"
)

// Collection names of the three disjoint role-tagged record sets.
const (
	collectionAdmins   = "administrators"
	collectionMentors  = "mentors"
	collectionStudents = "students"
)

type peopleRepository struct {
	store      *recordstore.Client
	collection string
}

func (r *peopleRepository) FindByPhone(ctx context.Context, phone string) ([]models.PersonRecord, error) {
	var out []models.PersonRecord
	err := r.store.Find(ctx, r.collection, recordstore.Query{
		Filters: map[string]string{"phone": phone},
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AdminRepository reads the administrator collection.
type AdminRepository struct {
	peopleRepository
}

// NewAdminRepository constructs an AdminRepository.
func NewAdminRepository(store *recordstore.Client) *AdminRepository {
	return &AdminRepository{peopleRepository{store: store, collection: collectionAdmins}}
}

// MentorRepository reads the mentor collection.
type MentorRepository struct {
	peopleRepository
}

// NewMentorRepository constructs a MentorRepository.
func NewMentorRepository(store *recordstore.Client) *MentorRepository {
	return &MentorRepository{peopleRepository{store: store, collection: collectionMentors}}
}

// StudentRepository reads and writes the student collection.
type StudentRepository struct {
	peopleRepository
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(store *recordstore.Client) *StudentRepository {
	return &StudentRepository{peopleRepository{store: store, collection: collectionStudents}}
}

// FindByNameAndSchool locates students by exact name within a school. Used
// by roster imports to keep re-submitted rows idempotent.
func (r *StudentRepository) FindByNameAndSchool(ctx context.Context, name string, schoolID int) ([]models.PersonRecord, error) {
	var out []models.PersonRecord
	err := r.store.Find(ctx, r.collection, recordstore.Query{
		Filters: map[string]string{
			"name":   name,
			"school": itoa(schoolID),
		},
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Create submits a new student record.
func (r *StudentRepository) Create(ctx context.Context, student models.NewStudent) (*models.PersonRecord, error) {
	var created models.PersonRecord
	if err := r.store.Create(ctx, r.collection, student, &created); err != nil {
		return nil, err
	}
	return &created, nil
}
