package repository

import (
	"context"
	"strconv"

	"github.com/mentoria-app/mentoria-api/internal/models"
	"github.com/mentoria-app/mentoria-api/internal/recordstore"
)

const collectionEnrollments = "enrollments"

// EnrollmentRepository reads and mutates enrollment records.
type EnrollmentRepository struct {
	store *recordstore.Client
}

// NewEnrollmentRepository constructs an EnrollmentRepository.
func NewEnrollmentRepository(store *recordstore.Client) *EnrollmentRepository {
	return &EnrollmentRepository{store: store}
}

// ListByClass returns a class roster ordered by enrollment time ascending.
// enrolled_at is the only ordering contract; nothing downstream may
// reorder the result.
func (r *EnrollmentRepository) ListByClass(ctx context.Context, classID int) ([]models.Enrollment, error) {
	var out []models.Enrollment
	err := r.store.Find(ctx, collectionEnrollments, recordstore.Query{
		Filters: map[string]string{"class": strconv.Itoa(classID)},
		Sort:    "enrolled_at",
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListByStudent returns a student's active enrollments.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID int) ([]models.Enrollment, error) {
	var out []models.Enrollment
	err := r.store.Find(ctx, collectionEnrollments, recordstore.Query{
		Filters: map[string]string{"student": strconv.Itoa(studentID)},
		Sort:    "enrolled_at",
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Move reassigns an enrollment from one class to another in a single
// record mutation, so a crash cannot leave the student in zero or two
// classes.
func (r *EnrollmentRepository) Move(ctx context.Context, enrollmentID, fromClassID, toClassID int) (*models.Enrollment, error) {
	payload := map[string]interface{}{
		"class": recordstore.Relation{
			Disconnect: []int{fromClassID},
			Connect:    []int{toClassID},
		},
	}
	var updated models.Enrollment
	if err := r.store.Update(ctx, collectionEnrollments, enrollmentID, payload, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}
