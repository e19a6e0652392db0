package service

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mentoria-app/mentoria-api/internal/models"
	"github.com/mentoria-app/mentoria-api/pkg/config"
	appErrors "github.com/mentoria-app/mentoria-api/pkg/errors"
)

type mockImportStore struct {
	mu          sync.Mutex
	schools     map[string]int
	classesByID map[string]int
	students    map[string]int
	nextID      int
	createCalls map[string]int
	failFirst   map[string]error
}

func newMockImportStore() *mockImportStore {
	return &mockImportStore{
		schools:     make(map[string]int),
		classesByID: make(map[string]int),
		students:    make(map[string]int),
		nextID:      1,
		createCalls: make(map[string]int),
		failFirst:   make(map[string]error),
	}
}

func (m *mockImportStore) FindByName(ctx context.Context, name string) (*models.School, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.schools[name]; ok {
		return &models.School{ID: id, Name: name}, nil
	}
	return nil, nil
}

func (m *mockImportStore) Create(ctx context.Context, name string) (*models.School, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.schools[name] = id
	return &models.School{ID: id, Name: name}, nil
}

type mockImportClassStore struct {
	store *mockImportStore
}

func (m *mockImportClassStore) FindByName(ctx context.Context, schoolID int, name string) (*models.Class, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	key := strconv.Itoa(schoolID) + "/" + name
	if id, ok := m.store.classesByID[key]; ok {
		return &models.Class{ID: id, Name: name, SchoolID: schoolID, EnrollmentOpen: true}, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
}

func (m *mockImportClassStore) Create(ctx context.Context, class models.Class) (*models.Class, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	id := m.store.nextID
	m.store.nextID++
	m.store.classesByID[strconv.Itoa(class.SchoolID)+"/"+class.Name] = id
	class.ID = id
	return &class, nil
}

type mockImportStudentStore struct {
	store *mockImportStore
}

func (m *mockImportStudentStore) FindByNameAndSchool(ctx context.Context, name string, schoolID int) ([]models.PersonRecord, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	key := name + "/" + strconv.Itoa(schoolID)
	if err, ok := m.store.failFirst[key]; ok {
		delete(m.store.failFirst, key)
		return nil, err
	}
	if id, ok := m.store.students[key]; ok {
		return []models.PersonRecord{{ID: id, Name: name}}, nil
	}
	return nil, nil
}

func (m *mockImportStudentStore) Create(ctx context.Context, student models.NewStudent) (*models.PersonRecord, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	key := student.Name + "/" + strconv.Itoa(student.SchoolID)
	m.store.createCalls[key]++
	id := m.store.nextID
	m.store.nextID++
	m.store.students[key] = id
	return &models.PersonRecord{ID: id, Name: student.Name}, nil
}

func importFixture(store *mockImportStore, cfg config.ImportConfig) *ImportService {
	return NewImportService(store, &mockImportClassStore{store: store}, &mockImportStudentStore{store: store}, cfg, nil, zap.NewNop())
}

func fastImportConfig() config.ImportConfig {
	return config.ImportConfig{
		MaxPerRequest: 50,
		BatchSize:     5,
		BatchDelay:    time.Millisecond,
		RowTimeout:    time.Second,
		MaxRetries:    3,
		RetryDelay:    time.Millisecond,
	}
}

func TestImportServiceImportsRows(t *testing.T) {
	store := newMockImportStore()
	svc := importFixture(store, fastImportConfig())

	report, err := svc.Import(context.Background(), []models.ImportRow{
		{Name: "Ana", School: "Escola Azul", Class: "Turma A"},
		{Name: "Bruno", School: "Escola Azul", Class: "Turma A"},
		{Name: "Clara", School: "Escola Verde"},
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, models.ImportStateCompleted, report.State)
	assert.Equal(t, 3, report.Imported)
	assert.Zero(t, report.Skipped)
	assert.Empty(t, report.Errors)
	assert.Nil(t, report.NextOffset)
	assert.Len(t, store.students, 3)
	// both schools resolved or created exactly once each
	assert.Len(t, store.schools, 2)
}

func TestImportServiceDeduplicatesWithinBatch(t *testing.T) {
	store := newMockImportStore()
	svc := importFixture(store, fastImportConfig())

	report, err := svc.Import(context.Background(), []models.ImportRow{
		{Name: "Ana", School: "Escola Azul"},
		{Name: "  ana ", School: "ESCOLA AZUL"},
		{Name: "Ana", School: "Escola Verde"},
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Imported)
	assert.Equal(t, 1, report.Duplicates)
	assert.Len(t, store.students, 2)
}

func TestImportServiceSkipsExistingStudents(t *testing.T) {
	store := newMockImportStore()
	store.schools["Escola Azul"] = 1
	store.students["Ana/1"] = 10
	svc := importFixture(store, fastImportConfig())

	report, err := svc.Import(context.Background(), []models.ImportRow{
		{Name: "Ana", School: "Escola Azul"},
		{Name: "Bruno", School: "Escola Azul"},
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Imported)
	assert.Equal(t, 1, report.Skipped)
	assert.Zero(t, store.createCalls["Ana/1"])
}

func TestImportServiceCollectsRowErrors(t *testing.T) {
	store := newMockImportStore()
	svc := importFixture(store, fastImportConfig())

	report, err := svc.Import(context.Background(), []models.ImportRow{
		{Name: "", School: "Escola Azul"},
		{Name: "Bruno", School: "   "},
		{Name: "Clara", School: "Escola Verde"},
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, models.ImportStatePartial, report.State)
	assert.Equal(t, 1, report.Imported)
	require.Len(t, report.Errors, 2)
	assert.Equal(t, 0, report.Errors[0].Index)
	assert.Equal(t, 1, report.Errors[1].Index)
}

func TestImportServiceRetriesTransientFailures(t *testing.T) {
	store := newMockImportStore()
	store.failFirst["Ana/1"] = appErrors.Clone(appErrors.ErrUpstreamTimeout, "store timed out")
	store.schools["Escola Azul"] = 1
	svc := importFixture(store, fastImportConfig())

	report, err := svc.Import(context.Background(), []models.ImportRow{
		{Name: "Ana", School: "Escola Azul"},
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, models.ImportStateCompleted, report.State)
	assert.Equal(t, 1, report.Imported)
	assert.Empty(t, report.Errors)
}

func TestImportServiceDoesNotRetryPermanentFailures(t *testing.T) {
	store := newMockImportStore()
	store.failFirst["Ana/1"] = appErrors.Clone(appErrors.ErrValidation, "malformed record")
	store.schools["Escola Azul"] = 1
	svc := importFixture(store, fastImportConfig())

	report, err := svc.Import(context.Background(), []models.ImportRow{
		{Name: "Ana", School: "Escola Azul"},
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, models.ImportStatePartial, report.State)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "malformed record", report.Errors[0].Reason)
	// the failed lookup was consumed on the first and only attempt
	assert.Zero(t, store.createCalls["Ana/1"])
}

func TestImportServiceResumesAtOffset(t *testing.T) {
	rows := make([]models.ImportRow, 7)
	for i := range rows {
		rows[i] = models.ImportRow{Name: "Aluno " + strconv.Itoa(i), School: "Escola Azul"}
	}
	cfg := fastImportConfig()
	cfg.MaxPerRequest = 4
	store := newMockImportStore()
	svc := importFixture(store, cfg)

	first, err := svc.Import(context.Background(), rows, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, first.Imported)
	require.NotNil(t, first.NextOffset)
	assert.Equal(t, 4, *first.NextOffset)

	second, err := svc.Import(context.Background(), rows, *first.NextOffset)
	require.NoError(t, err)
	assert.Equal(t, 3, second.Imported)
	assert.Nil(t, second.NextOffset)

	// every row was created exactly once across both invocations
	assert.Len(t, store.students, 7)
	for key, calls := range store.createCalls {
		assert.Equal(t, 1, calls, key)
	}
}

func TestImportServiceOffsetBeyondEnd(t *testing.T) {
	store := newMockImportStore()
	svc := importFixture(store, fastImportConfig())

	report, err := svc.Import(context.Background(), []models.ImportRow{
		{Name: "Ana", School: "Escola Azul"},
	}, 10)
	require.NoError(t, err)
	assert.Equal(t, models.ImportStateCompleted, report.State)
	assert.Zero(t, report.Imported)
	assert.Empty(t, store.students)
}

func TestImportServiceNegativeOffset(t *testing.T) {
	svc := importFixture(newMockImportStore(), fastImportConfig())

	_, err := svc.Import(context.Background(), nil, -1)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
