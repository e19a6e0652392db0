package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mentoria-app/mentoria-api/internal/middleware"
	"github.com/mentoria-app/mentoria-api/internal/models"
	"github.com/mentoria-app/mentoria-api/internal/service"
	appErrors "github.com/mentoria-app/mentoria-api/pkg/errors"
	"github.com/mentoria-app/mentoria-api/pkg/phone"
)

type fakePhoneFinder struct {
	records map[string][]models.PersonRecord
}

func (f *fakePhoneFinder) FindByPhone(ctx context.Context, number string) ([]models.PersonRecord, error) {
	return f.records[number], nil
}

type fakeAccountStore struct {
	accounts map[int]models.Account
}

func (f *fakeAccountStore) FindByID(ctx context.Context, id int) (*models.Account, error) {
	if a, ok := f.accounts[id]; ok {
		return &a, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
}

func (f *fakeAccountStore) UpdateRole(ctx context.Context, id int, role models.Role, entityID int) (*models.Account, error) {
	a := f.accounts[id]
	a.Role = role
	a.LinkedEntityID = &entityID
	f.accounts[id] = a
	return &a, nil
}

func identityFixture(students *fakePhoneFinder, accounts *fakeAccountStore) *IdentityHandler {
	identity := service.NewIdentityService(
		phone.NewNormalizer("55"),
		&fakePhoneFinder{}, &fakePhoneFinder{}, students,
		accounts, nil, 0, zap.NewNop())
	auth := service.NewAuthService(service.AuthConfig{Secret: "test-secret", Expiration: time.Hour}, zap.NewNop())
	return NewIdentityHandler(identity, auth)
}

func postJSON(c *gin.Context, target string, payload interface{}) {
	body, _ := json.Marshal(payload)
	c.Request = httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
}

func TestIdentityHandlerResolveFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	students := &fakePhoneFinder{records: map[string][]models.PersonRecord{
		"5511912345678": {{ID: 7, Name: "Ana Souza"}},
	}}
	handler := identityFixture(students, &fakeAccountStore{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	postJSON(c, "/identity/resolve", gin.H{"phone": "+55 11 91234-5678"})

	handler.Resolve(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data resolveResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.Found)
	require.NotNil(t, envelope.Data.Resolution)
	assert.Equal(t, models.RoleStudent, envelope.Data.Resolution.Role)
	assert.Equal(t, 7, envelope.Data.Resolution.EntityID)
}

func TestIdentityHandlerResolveNotFoundIsOK(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := identityFixture(&fakePhoneFinder{}, &fakeAccountStore{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	postJSON(c, "/identity/resolve", gin.H{"phone": "11912345678"})

	handler.Resolve(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data resolveResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.False(t, envelope.Data.Found)
	assert.Nil(t, envelope.Data.Resolution)
}

func TestIdentityHandlerResolveInvalidPhone(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := identityFixture(&fakePhoneFinder{}, &fakeAccountStore{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	postJSON(c, "/identity/resolve", gin.H{"phone": "12"})

	handler.Resolve(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIdentityHandlerLinkSelfReissuesToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	accounts := &fakeAccountStore{accounts: map[int]models.Account{
		42: {ID: 42, Role: models.RoleUnassigned},
	}}
	handler := identityFixture(&fakePhoneFinder{}, accounts)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	postJSON(c, "/identity/link", gin.H{"role": "MENTOR", "entity_id": 3})
	c.Set(middleware.ContextUserKey, &models.JWTClaims{AccountID: 42, Role: models.RoleUnassigned})

	handler.Link(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data linkResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Data.Account)
	assert.Equal(t, models.RoleMentor, envelope.Data.Account.Role)
	require.NotNil(t, envelope.Data.Token)
	assert.NotEmpty(t, envelope.Data.Token.AccessToken)
}

func TestIdentityHandlerLinkForceNeedsAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	entity := 9
	accounts := &fakeAccountStore{accounts: map[int]models.Account{
		42: {ID: 42, Role: models.RoleStudent, LinkedEntityID: &entity},
	}}
	handler := identityFixture(&fakePhoneFinder{}, accounts)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	postJSON(c, "/identity/link", gin.H{"role": "MENTOR", "entity_id": 3, "force": true})
	c.Set(middleware.ContextUserKey, &models.JWTClaims{AccountID: 42, Role: models.RoleStudent})

	handler.Link(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestIdentityHandlerLinkOtherAccountNeedsAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	accounts := &fakeAccountStore{accounts: map[int]models.Account{
		42: {ID: 42, Role: models.RoleUnassigned},
		43: {ID: 43, Role: models.RoleUnassigned},
	}}
	handler := identityFixture(&fakePhoneFinder{}, accounts)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	postJSON(c, "/identity/link", gin.H{"account_id": 43, "role": "STUDENT", "entity_id": 5})
	c.Set(middleware.ContextUserKey, &models.JWTClaims{AccountID: 42, Role: models.RoleMentor})

	handler.Link(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
