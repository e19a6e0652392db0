package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mentoria-app/mentoria-api/internal/models"
	"github.com/mentoria-app/mentoria-api/internal/service"
	appErrors "github.com/mentoria-app/mentoria-api/pkg/errors"
)

type fakeClassStore struct {
	classes []models.Class
}

func (f *fakeClassStore) FindByID(ctx context.Context, id int) (*models.Class, error) {
	for i := range f.classes {
		if f.classes[i].ID == id {
			return &f.classes[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
}

func (f *fakeClassStore) ListAll(ctx context.Context) ([]models.Class, error) {
	return f.classes, nil
}

type fakeEnrollmentStore struct {
	byClass map[int][]models.Enrollment
}

func (f *fakeEnrollmentStore) ListByClass(ctx context.Context, classID int) ([]models.Enrollment, error) {
	return f.byClass[classID], nil
}

func rosterFixture(enrolled int) *RosterHandler {
	roster := make([]models.Enrollment, enrolled)
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	for i := range roster {
		roster[i] = models.Enrollment{ID: i + 1, StudentID: 100 + i, ClassID: 1, EnrolledAt: base.Add(time.Duration(i) * time.Minute)}
	}
	classes := &fakeClassStore{classes: []models.Class{{ID: 1, Name: "Turma A", EnrollmentOpen: true}}}
	enrollments := &fakeEnrollmentStore{byClass: map[int][]models.Enrollment{1: roster}}
	svc := service.NewRosterService(classes, enrollments, 15, zap.NewNop())
	return NewRosterHandler(svc, nil, nil)
}

func TestRosterHandlerRejectsBadID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := rosterFixture(0)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/classes/abc/roster", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	handler.Roster(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRosterHandlerSplitsRoster(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := rosterFixture(17)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/classes/1/roster", nil)
	c.Params = gin.Params{{Key: "id", Value: "1"}}

	handler.Roster(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data models.RosterSplit `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data.Enrolled, 15)
	assert.Len(t, envelope.Data.Overflow, 2)
}

func TestRosterHandlerOverflowReportCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := rosterFixture(16)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/classes/overflow-report?format=csv", nil)

	handler.OverflowReport(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "overflow-report.csv")
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	// header plus one overflow row
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Class ID")
}

func TestRosterHandlerOverflowReportRejectsUnknownFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := rosterFixture(0)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/classes/overflow-report?format=xml", nil)

	handler.OverflowReport(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
