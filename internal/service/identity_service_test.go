package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mentoria-app/mentoria-api/internal/models"
	appErrors "github.com/mentoria-app/mentoria-api/pkg/errors"
	"github.com/mentoria-app/mentoria-api/pkg/phone"
)

type mockPhoneFinder struct {
	byPhone map[string][]models.PersonRecord
	queried []string
	err     error
}

func (m *mockPhoneFinder) FindByPhone(ctx context.Context, number string) ([]models.PersonRecord, error) {
	m.queried = append(m.queried, number)
	if m.err != nil {
		return nil, m.err
	}
	return m.byPhone[number], nil
}

type mockAccountStore struct {
	accounts map[int]models.Account
	updates  int
	err      error
}

func (m *mockAccountStore) FindByID(ctx context.Context, id int) (*models.Account, error) {
	if a, ok := m.accounts[id]; ok {
		return &a, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
}

func (m *mockAccountStore) UpdateRole(ctx context.Context, id int, role models.Role, entityID int) (*models.Account, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.updates++
	a := m.accounts[id]
	a.Role = role
	a.LinkedEntityID = &entityID
	m.accounts[id] = a
	return &a, nil
}

func newIdentityFixture(admins, mentors, students *mockPhoneFinder, accounts *mockAccountStore) *IdentityService {
	return NewIdentityService(phone.NewNormalizer("55"), admins, mentors, students, accounts, nil, 0, zap.NewNop())
}

func TestIdentityServiceResolveStudent(t *testing.T) {
	students := &mockPhoneFinder{byPhone: map[string][]models.PersonRecord{
		"5511912345678": {{ID: 7, Name: "Ana Souza", Phone: "5511912345678"}},
	}}
	svc := newIdentityFixture(&mockPhoneFinder{}, &mockPhoneFinder{}, students, &mockAccountStore{})

	res, err := svc.Resolve(context.Background(), "+55 (11) 91234-5678")
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, res.Role)
	assert.Equal(t, 7, res.EntityID)
	assert.Equal(t, "Ana Souza", res.Name)
	assert.Equal(t, "5511912345678", res.Variant)
}

func TestIdentityServiceResolvePriority(t *testing.T) {
	// Same number present in two collections; the admin match must win
	// regardless of how many students share the phone.
	admins := &mockPhoneFinder{byPhone: map[string][]models.PersonRecord{
		"5511912345678": {{ID: 1, Name: "Coordenadora"}},
	}}
	students := &mockPhoneFinder{byPhone: map[string][]models.PersonRecord{
		"5511912345678": {{ID: 9, Name: "Aluna"}},
	}}
	svc := newIdentityFixture(admins, &mockPhoneFinder{}, students, &mockAccountStore{})

	res, err := svc.Resolve(context.Background(), "11912345678")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, res.Role)
	assert.Equal(t, 1, res.EntityID)
	assert.Empty(t, students.queried)
}

func TestIdentityServiceResolveBareVariant(t *testing.T) {
	// Legacy records stored without the country code still match through
	// the bare variant.
	mentors := &mockPhoneFinder{byPhone: map[string][]models.PersonRecord{
		"11912345678": {{ID: 3, Name: "Mentor Legado"}},
	}}
	svc := newIdentityFixture(&mockPhoneFinder{}, mentors, &mockPhoneFinder{}, &mockAccountStore{})

	res, err := svc.Resolve(context.Background(), "5511912345678")
	require.NoError(t, err)
	assert.Equal(t, models.RoleMentor, res.Role)
	assert.Equal(t, "11912345678", res.Variant)
	assert.Equal(t, []string{"5511912345678", "11912345678"}, mentors.queried)
}

func TestIdentityServiceResolveNotFound(t *testing.T) {
	svc := newIdentityFixture(&mockPhoneFinder{}, &mockPhoneFinder{}, &mockPhoneFinder{}, &mockAccountStore{})

	_, err := svc.Resolve(context.Background(), "11912345678")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestIdentityServiceResolveUpstreamFailure(t *testing.T) {
	// A failing collection aborts the chain rather than silently
	// degrading to a lower-priority match.
	admins := &mockPhoneFinder{err: appErrors.Clone(appErrors.ErrUpstreamTimeout, "store timed out")}
	students := &mockPhoneFinder{byPhone: map[string][]models.PersonRecord{
		"5511912345678": {{ID: 9, Name: "Aluna"}},
	}}
	svc := newIdentityFixture(admins, &mockPhoneFinder{}, students, &mockAccountStore{})

	_, err := svc.Resolve(context.Background(), "11912345678")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrUpstreamTimeout))
	assert.Empty(t, students.queried)
}

func TestIdentityServiceResolveInvalidPhone(t *testing.T) {
	svc := newIdentityFixture(&mockPhoneFinder{}, &mockPhoneFinder{}, &mockPhoneFinder{}, &mockAccountStore{})

	_, err := svc.Resolve(context.Background(), "123")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidContact))
}

func TestIdentityServiceLink(t *testing.T) {
	accounts := &mockAccountStore{accounts: map[int]models.Account{
		42: {ID: 42, Role: models.RoleUnassigned},
	}}
	svc := newIdentityFixture(&mockPhoneFinder{}, &mockPhoneFinder{}, &mockPhoneFinder{}, accounts)

	linked, err := svc.Link(context.Background(), 42, models.RoleMentor, 3, false)
	require.NoError(t, err)
	assert.Equal(t, models.RoleMentor, linked.Role)
	require.NotNil(t, linked.LinkedEntityID)
	assert.Equal(t, 3, *linked.LinkedEntityID)
}

func TestIdentityServiceLinkIdempotent(t *testing.T) {
	entity := 3
	accounts := &mockAccountStore{accounts: map[int]models.Account{
		42: {ID: 42, Role: models.RoleMentor, LinkedEntityID: &entity},
	}}
	svc := newIdentityFixture(&mockPhoneFinder{}, &mockPhoneFinder{}, &mockPhoneFinder{}, accounts)

	linked, err := svc.Link(context.Background(), 42, models.RoleMentor, 3, false)
	require.NoError(t, err)
	assert.Equal(t, models.RoleMentor, linked.Role)
	assert.Zero(t, accounts.updates)
}

func TestIdentityServiceLinkConflict(t *testing.T) {
	entity := 3
	accounts := &mockAccountStore{accounts: map[int]models.Account{
		42: {ID: 42, Role: models.RoleMentor, LinkedEntityID: &entity},
	}}
	svc := newIdentityFixture(&mockPhoneFinder{}, &mockPhoneFinder{}, &mockPhoneFinder{}, accounts)

	_, err := svc.Link(context.Background(), 42, models.RoleStudent, 9, false)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
	assert.Zero(t, accounts.updates)

	relinked, err := svc.Link(context.Background(), 42, models.RoleStudent, 9, true)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, relinked.Role)
	assert.Equal(t, 1, accounts.updates)
}

func TestIdentityServiceLinkPersistFailure(t *testing.T) {
	accounts := &mockAccountStore{
		accounts: map[int]models.Account{42: {ID: 42, Role: models.RoleUnassigned}},
		err:      appErrors.Clone(appErrors.ErrValidation, "relation rejected"),
	}
	svc := newIdentityFixture(&mockPhoneFinder{}, &mockPhoneFinder{}, &mockPhoneFinder{}, accounts)

	_, err := svc.Link(context.Background(), 42, models.RoleStudent, 9, false)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrPersist))
}
