package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mentoria-app/mentoria-api/internal/models"
	"github.com/mentoria-app/mentoria-api/pkg/config"
	appErrors "github.com/mentoria-app/mentoria-api/pkg/errors"
)

type importSchoolStore interface {
	FindByName(ctx context.Context, name string) (*models.School, error)
	Create(ctx context.Context, name string) (*models.School, error)
}

type importClassStore interface {
	FindByName(ctx context.Context, schoolID int, name string) (*models.Class, error)
	Create(ctx context.Context, class models.Class) (*models.Class, error)
}

type importStudentStore interface {
	FindByNameAndSchool(ctx context.Context, name string, schoolID int) ([]models.PersonRecord, error)
	Create(ctx context.Context, student models.NewStudent) (*models.PersonRecord, error)
}

// ImportService drives third-party rosters into the record store in small
// concurrent batches. One invocation processes at most MaxPerRequest rows;
// callers resume with the returned offset, keeping every call inside a
// bounded time budget.
type ImportService struct {
	schools  importSchoolStore
	classes  importClassStore
	students importStudentStore
	cfg      config.ImportConfig
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewImportService constructs an ImportService.
func NewImportService(schools importSchoolStore, classes importClassStore, students importStudentStore, cfg config.ImportConfig, metrics *MetricsService, logger *zap.Logger) *ImportService {
	if cfg.MaxPerRequest <= 0 {
		cfg.MaxPerRequest = 50
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.RowTimeout <= 0 {
		cfg.RowTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{schools: schools, classes: classes, students: students, cfg: cfg, metrics: metrics, logger: logger}
}

type indexedRow struct {
	index int
	row   models.ImportRow
}

type rowResult struct {
	imported bool
	skipped  bool
	err      *models.ImportRowError
}

// Import runs the batch pipeline: validate, dedupe, slice at the offset,
// dispatch fixed-size sub-batches concurrently with an inter-batch delay.
// Row failures accumulate in the report; they never abort the remaining
// sub-batches.
func (s *ImportService) Import(ctx context.Context, rows []models.ImportRow, offset int) (*models.ImportReport, error) {
	if offset < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "offset must not be negative")
	}

	report := &models.ImportReport{ID: uuid.NewString(), State: models.ImportStateValidating}

	valid := make([]indexedRow, 0, len(rows))
	for i, row := range rows {
		if strings.TrimSpace(row.Name) == "" || strings.TrimSpace(row.School) == "" {
			report.Errors = append(report.Errors, models.ImportRowError{
				Index:  i,
				Name:   row.Name,
				Reason: "name and school are required",
			})
			continue
		}
		valid = append(valid, indexedRow{index: i, row: row})
	}

	report.State = models.ImportStateDeduplicating
	seen := make(map[string]struct{}, len(valid))
	deduped := valid[:0]
	for _, entry := range valid {
		key := entry.row.DedupKey()
		if _, dup := seen[key]; dup {
			report.Duplicates++
			continue
		}
		seen[key] = struct{}{}
		deduped = append(deduped, entry)
	}

	if offset >= len(deduped) {
		report.State = s.finalState(report)
		return report, nil
	}

	end := offset + s.cfg.MaxPerRequest
	if end > len(deduped) {
		end = len(deduped)
	}
	window := deduped[offset:end]
	if end < len(deduped) {
		next := end
		report.NextOffset = &next
	}

	report.State = models.ImportStateDispatching
	results := make([]rowResult, len(window))
	for start := 0; start < len(window); start += s.cfg.BatchSize {
		stop := start + s.cfg.BatchSize
		if stop > len(window) {
			stop = len(window)
		}
		batch := window[start:stop]

		g := new(errgroup.Group)
		for i, entry := range batch {
			i, entry := i, entry
			g.Go(func() error {
				results[start+i] = s.importRow(ctx, entry)
				return nil
			})
		}
		_ = g.Wait()

		// backpressure against the record store between sub-batches
		if stop < len(window) {
			select {
			case <-ctx.Done():
			case <-time.After(s.cfg.BatchDelay):
			}
		}
	}

	for _, res := range results {
		switch {
		case res.err != nil:
			report.Errors = append(report.Errors, *res.err)
			s.metrics.RecordImportRow("error")
		case res.skipped:
			report.Skipped++
			s.metrics.RecordImportRow("skipped")
		case res.imported:
			report.Imported++
			s.metrics.RecordImportRow("imported")
		}
	}

	report.State = s.finalState(report)
	s.logger.Info("roster import finished",
		zap.String("import_id", report.ID),
		zap.String("state", string(report.State)),
		zap.Int("imported", report.Imported),
		zap.Int("skipped", report.Skipped),
		zap.Int("duplicates", report.Duplicates),
		zap.Int("errors", len(report.Errors)))
	return report, nil
}

func (s *ImportService) finalState(report *models.ImportReport) models.ImportState {
	if len(report.Errors) > 0 {
		return models.ImportStatePartial
	}
	return models.ImportStateCompleted
}

// importRow submits one row, retrying transient upstream failures with
// linear backoff. Permanent failures are never retried.
func (s *ImportService) importRow(ctx context.Context, entry indexedRow) rowResult {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxRetries; attempt++ {
		rowCtx, cancel := context.WithTimeout(ctx, s.cfg.RowTimeout)
		res, err := s.submitRow(rowCtx, entry.row)
		cancel()
		if err == nil {
			return res
		}
		lastErr = err
		if !appErrors.Retryable(err) {
			break
		}
		if attempt < s.cfg.MaxRetries {
			select {
			case <-ctx.Done():
				attempt = s.cfg.MaxRetries
			case <-time.After(time.Duration(attempt) * s.cfg.RetryDelay):
			}
		}
	}

	return rowResult{err: &models.ImportRowError{
		Index:  entry.index,
		Name:   entry.row.Name,
		Reason: appErrors.FromError(lastErr).Message,
	}}
}

func (s *ImportService) submitRow(ctx context.Context, row models.ImportRow) (rowResult, error) {
	school, err := s.resolveSchool(ctx, row.School)
	if err != nil {
		return rowResult{}, err
	}

	classID := 0
	if strings.TrimSpace(row.Class) != "" {
		class, err := s.resolveClass(ctx, school.ID, row.Class)
		if err != nil {
			return rowResult{}, err
		}
		classID = class.ID
	}

	// re-submitted rows must stay idempotent against the store
	existing, err := s.students.FindByNameAndSchool(ctx, strings.TrimSpace(row.Name), school.ID)
	if err != nil {
		return rowResult{}, err
	}
	if len(existing) > 0 {
		return rowResult{skipped: true}, nil
	}

	_, err = s.students.Create(ctx, models.NewStudent{
		Name:     strings.TrimSpace(row.Name),
		TaxID:    strings.TrimSpace(row.TaxID),
		SchoolID: school.ID,
		ClassID:  classID,
	})
	if err != nil {
		return rowResult{}, err
	}
	return rowResult{imported: true}, nil
}

func (s *ImportService) resolveSchool(ctx context.Context, name string) (*models.School, error) {
	trimmed := strings.TrimSpace(name)
	school, err := s.schools.FindByName(ctx, trimmed)
	if err != nil {
		return nil, err
	}
	if school != nil {
		return school, nil
	}
	return s.schools.Create(ctx, trimmed)
}

func (s *ImportService) resolveClass(ctx context.Context, schoolID int, name string) (*models.Class, error) {
	trimmed := strings.TrimSpace(name)
	class, err := s.classes.FindByName(ctx, schoolID, trimmed)
	if err == nil {
		return class, nil
	}
	if !appErrors.Is(err, appErrors.ErrNotFound) {
		return nil, err
	}
	return s.classes.Create(ctx, models.Class{Name: trimmed, SchoolID: schoolID, EnrollmentOpen: true})
}
