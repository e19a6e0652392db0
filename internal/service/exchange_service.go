package service

import (
	"context"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mentoria-app/mentoria-api/internal/models"
	appErrors "github.com/mentoria-app/mentoria-api/pkg/errors"
)

type exchangeClassStore interface {
	FindByID(ctx context.Context, id int) (*models.Class, error)
	FindByDocumentID(ctx context.Context, documentID string) (*models.Class, error)
	ListAll(ctx context.Context) ([]models.Class, error)
}

type exchangeEnrollmentStore interface {
	ListByClass(ctx context.Context, classID int) ([]models.Enrollment, error)
	ListByStudent(ctx context.Context, studentID int) ([]models.Enrollment, error)
	Move(ctx context.Context, enrollmentID, fromClassID, toClassID int) (*models.Enrollment, error)
}

// ExchangeRequest describes a course-to-course transfer.
type ExchangeRequest struct {
	StudentID   int    `json:"student_id" validate:"required"`
	FromClassID int    `json:"from_class_id" validate:"required"`
	ToClassRef  string `json:"to_class_ref" validate:"required"`
}

// classLookup is one strategy for resolving a class reference. A (nil,
// nil) return means "no match, try the next strategy".
type classLookup func(ctx context.Context, ref string) (*models.Class, error)

// ExchangeService moves a student between classes while honoring the seat
// limit. The capacity re-check and the final mutation are separate network
// calls with no compare-and-swap on the store side, so two concurrent
// exchanges into the same class can both pass the check; the design
// accepts that race (small seat counts, rare concurrent exchanges).
type ExchangeService struct {
	classes     exchangeClassStore
	enrollments exchangeEnrollmentStore
	lookups     []classLookup
	maxSeats    int
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewExchangeService constructs an ExchangeService.
func NewExchangeService(classes exchangeClassStore, enrollments exchangeEnrollmentStore, maxSeats int, validate *validator.Validate, logger *zap.Logger) *ExchangeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ExchangeService{
		classes:     classes,
		enrollments: enrollments,
		maxSeats:    maxSeats,
		validator:   validate,
		logger:      logger,
	}
	// The store does not filter reliably on every identifier type, so the
	// reference is tried as a document identifier, then as a numeric id,
	// then against a full listing.
	s.lookups = []classLookup{s.lookupByDocumentID, s.lookupByNumericID, s.lookupByScan}
	return s
}

// Exchange validates the preconditions in order, each a distinct failure
// mode, then issues the disconnect/connect as one record mutation. The
// mutation is never retried and no compensating action is attempted on
// failure.
func (s *ExchangeService) Exchange(ctx context.Context, req ExchangeRequest) (*models.ExchangeResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exchange payload")
	}

	target, err := s.resolveTarget(ctx, req.ToClassRef)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "target class not found")
	}

	if !target.EnrollmentOpen {
		return nil, appErrors.Clone(appErrors.ErrEnrollmentClosed, "enrollment is closed for the target class")
	}

	// Live roster, not cached: admission is gated on the store's current
	// state at the moment of the check.
	roster, err := s.enrollments.ListByClass(ctx, target.ID)
	if err != nil {
		return nil, err
	}
	enrolled, _ := Partition(roster, s.maxSeats)
	if len(enrolled) >= s.maxSeats {
		return nil, appErrors.Clone(appErrors.ErrCapacityExceeded, "target class is at full capacity")
	}

	current, err := s.enrollments.ListByStudent(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}
	if len(current) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotEnrolled, "student has no active enrollment")
	}
	if len(current) > 1 {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student has more than one active enrollment")
	}
	active := current[0]
	if active.ClassID == target.ID {
		return nil, appErrors.Clone(appErrors.ErrAlreadyEnrolled, "student is already enrolled in the target class")
	}
	if active.ClassID != req.FromClassID {
		return nil, appErrors.Clone(appErrors.ErrNotEnrolled, "student is not enrolled in the source class")
	}

	moved, err := s.enrollments.Move(ctx, active.ID, req.FromClassID, target.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersist.Code, appErrors.ErrPersist.Status, "enrollment move failed")
	}

	result := &models.ExchangeResult{Enrollment: *moved, To: *target}
	if from, err := s.classes.FindByID(ctx, req.FromClassID); err == nil {
		result.From = *from
	} else {
		result.From = models.Class{ID: req.FromClassID}
	}

	s.logger.Info("enrollment exchanged",
		zap.Int("student_id", req.StudentID),
		zap.Int("from_class_id", req.FromClassID),
		zap.Int("to_class_id", target.ID))
	return result, nil
}

func (s *ExchangeService) resolveTarget(ctx context.Context, ref string) (*models.Class, error) {
	for _, lookup := range s.lookups {
		class, err := lookup(ctx, ref)
		if err != nil {
			return nil, err
		}
		if class != nil {
			return class, nil
		}
	}
	return nil, nil
}

func (s *ExchangeService) lookupByDocumentID(ctx context.Context, ref string) (*models.Class, error) {
	class, err := s.classes.FindByDocumentID(ctx, ref)
	if err != nil {
		if appErrors.Is(err, appErrors.ErrNotFound) || appErrors.Is(err, appErrors.ErrValidation) {
			return nil, nil
		}
		return nil, err
	}
	return class, nil
}

func (s *ExchangeService) lookupByNumericID(ctx context.Context, ref string) (*models.Class, error) {
	id, convErr := strconv.Atoi(ref)
	if convErr != nil || id <= 0 {
		return nil, nil
	}
	class, err := s.classes.FindByID(ctx, id)
	if err != nil {
		if appErrors.Is(err, appErrors.ErrNotFound) || appErrors.Is(err, appErrors.ErrValidation) {
			return nil, nil
		}
		return nil, err
	}
	return class, nil
}

func (s *ExchangeService) lookupByScan(ctx context.Context, ref string) (*models.Class, error) {
	classes, err := s.classes.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range classes {
		if classes[i].DocumentID == ref || strconv.Itoa(classes[i].ID) == ref {
			return &classes[i], nil
		}
	}
	return nil, nil
}
