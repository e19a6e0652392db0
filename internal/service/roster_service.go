package service

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/mentoria-app/mentoria-api/internal/models"
)

type rosterClassStore interface {
	FindByID(ctx context.Context, id int) (*models.Class, error)
	ListAll(ctx context.Context) ([]models.Class, error)
}

type rosterEnrollmentStore interface {
	ListByClass(ctx context.Context, classID int) ([]models.Enrollment, error)
}

// Partition splits a roster into the enrolled prefix and the overflow
// suffix. Enrollments are stable-sorted by EnrolledAt ascending, ties kept
// in record order; the first capacity entries are enrolled, the rest
// overflow. The function is pure and deterministic: it is used both to
// gate new admissions and to produce exceeded-roster audit reports, and
// both must agree on the split. The input is never mutated.
func Partition(enrollments []models.Enrollment, capacity int) (enrolled, overflow []models.Enrollment) {
	ordered := make([]models.Enrollment, len(enrollments))
	copy(ordered, enrollments)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].EnrolledAt.Before(ordered[j].EnrolledAt)
	})

	if capacity < 0 {
		capacity = 0
	}
	if capacity > len(ordered) {
		capacity = len(ordered)
	}
	return ordered[:capacity], ordered[capacity:]
}

// RosterService classifies class rosters against the fixed seat limit.
type RosterService struct {
	classes     rosterClassStore
	enrollments rosterEnrollmentStore
	maxSeats    int
	logger      *zap.Logger
}

// NewRosterService constructs a RosterService. maxSeats is explicit
// configuration so the capacity engine stays pure and testable.
func NewRosterService(classes rosterClassStore, enrollments rosterEnrollmentStore, maxSeats int, logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{classes: classes, enrollments: enrollments, maxSeats: maxSeats, logger: logger}
}

// MaxSeats returns the configured per-class seat limit.
func (s *RosterService) MaxSeats() int {
	return s.maxSeats
}

// ClassifyRoster partitions the live roster of one class.
func (s *RosterService) ClassifyRoster(ctx context.Context, classID int) (*models.RosterSplit, error) {
	if _, err := s.classes.FindByID(ctx, classID); err != nil {
		return nil, err
	}

	roster, err := s.enrollments.ListByClass(ctx, classID)
	if err != nil {
		return nil, err
	}

	enrolled, overflow := Partition(roster, s.maxSeats)
	return &models.RosterSplit{
		ClassID:  classID,
		Capacity: s.maxSeats,
		Enrolled: enrolled,
		Overflow: overflow,
	}, nil
}

// OverflowReport scans every class and returns only those whose roster
// exceeds capacity, for after-the-fact auditing.
func (s *RosterService) OverflowReport(ctx context.Context) ([]models.ClassOverflow, error) {
	classes, err := s.classes.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	var report []models.ClassOverflow
	for _, class := range classes {
		roster, err := s.enrollments.ListByClass(ctx, class.ID)
		if err != nil {
			return nil, err
		}
		enrolled, overflow := Partition(roster, s.maxSeats)
		if len(overflow) == 0 {
			continue
		}
		report = append(report, models.ClassOverflow{
			Class:    class,
			Enrolled: len(enrolled),
			Overflow: overflow,
		})
	}

	s.logger.Info("overflow audit completed",
		zap.Int("classes", len(classes)),
		zap.Int("exceeded", len(report)))
	return report, nil
}
