package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/campus-admissions-api/internal/dto"
	"github.com/noah-isme/campus-admissions-api/internal/models"
	"github.com/noah-isme/campus-admissions-api/internal/repository"
	appErrors "github.com/noah-isme/campus-admissions-api/pkg/errors"
)

type userStoreStub struct {
	users      map[string]*models.User
	createErr  error
	lastFilter models.UserFilter
	updates    int
	auditLogs  []*models.AuditLog
}

func newUserStoreStub(users ...models.User) *userStoreStub {
	stub := &userStoreStub{users: make(map[string]*models.User)}
	for i := range users {
		u := users[i]
		stub.users[u.ID] = &u
	}
	return stub
}

func (s *userStoreStub) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	s.lastFilter = filter
	var out []models.User
	for _, u := range s.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (s *userStoreStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (s *userStoreStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *userStoreStub) Create(ctx context.Context, user *models.User) error {
	if s.createErr != nil {
		return s.createErr
	}
	if user.ID == "" {
		user.ID = "u-new"
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *userStoreStub) Update(ctx context.Context, user *models.User) error {
	if _, ok := s.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	s.updates++
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *userStoreStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	s.auditLogs = append(s.auditLogs, log)
	return nil
}

var superadmin = &models.JWTClaims{UserID: "u-root", Role: models.RoleSuperAdmin, Email: "root@campus.test"}

func newUserFixture(t *testing.T) (*userStoreStub, *UserService) {
	t.Helper()
	store := newUserStoreStub(
		models.User{ID: "u-root", Email: "root@campus.test", FullName: "Root", Role: models.RoleSuperAdmin, Active: true},
		models.User{ID: "u-casey", Email: "casey@campus.test", FullName: "Casey Counselor", Role: models.RoleCounselor, Active: true},
	)
	svc := NewUserService(store, nil, nil)
	svc.hashCost = bcrypt.MinCost
	svc.now = func() time.Time { return time.Date(2024, 9, 1, 9, 0, 0, 0, time.UTC) }
	return store, svc
}

func TestUserServiceCreate(t *testing.T) {
	store, svc := newUserFixture(t)
	ctx := context.Background()
	meta := models.LoginRequest{IP: "10.0.0.1", UserAgent: "test"}

	user, err := svc.Create(ctx, dto.CreateUserRequest{
		Email: "  Rina@Campus.test ", FullName: " Rina Registrar ", Role: models.RoleRegistrar, Password: "s3cretpass",
	}, superadmin, meta)
	require.NoError(t, err)
	assert.Equal(t, "rina@campus.test", user.Email)
	assert.Equal(t, "Rina Registrar", user.FullName)
	assert.True(t, user.Active)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cretpass")))

	require.Len(t, store.auditLogs, 1)
	entry := store.auditLogs[0]
	assert.Equal(t, models.AuditActionUserCreate, entry.Action)
	assert.Equal(t, "u-root", *entry.UserID)
	assert.Equal(t, user.ID, *entry.ResourceID)
	assert.Equal(t, "10.0.0.1", entry.IPAddress)
}

func TestUserServiceCreateRejects(t *testing.T) {
	store, svc := newUserFixture(t)
	ctx := context.Background()
	valid := dto.CreateUserRequest{Email: "new@campus.test", FullName: "New", Role: models.RoleAdmin, Password: "longenough"}

	_, err := svc.Create(ctx, valid, nil, models.LoginRequest{})
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)

	short := valid
	short.Password = "short"
	_, err = svc.Create(ctx, short, superadmin, models.LoginRequest{})
	require.ErrorIs(t, err, appErrors.ErrValidation)

	unknownRole := valid
	unknownRole.Role = "APPLICANT"
	_, err = svc.Create(ctx, unknownRole, superadmin, models.LoginRequest{})
	require.ErrorIs(t, err, appErrors.ErrValidation)

	taken := valid
	taken.Email = "CASEY@campus.test"
	_, err = svc.Create(ctx, taken, superadmin, models.LoginRequest{})
	require.ErrorIs(t, err, appErrors.ErrConflict)

	store.createErr = repository.ErrEmailTaken
	_, err = svc.Create(ctx, valid, superadmin, models.LoginRequest{})
	require.ErrorIs(t, err, appErrors.ErrConflict)

	store.createErr = errors.New("connection reset")
	_, err = svc.Create(ctx, valid, superadmin, models.LoginRequest{})
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.auditLogs)
}

func TestUserServiceUpdateRole(t *testing.T) {
	store, svc := newUserFixture(t)
	ctx := context.Background()
	role := models.RoleAdmin

	user, err := svc.Update(ctx, "u-casey", dto.UpdateUserRequest{Role: &role}, superadmin, models.LoginRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.Equal(t, models.RoleAdmin, store.users["u-casey"].Role)
	assert.Equal(t, svc.now(), store.users["u-casey"].UpdatedAt)

	require.Len(t, store.auditLogs, 1)
	var values map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(store.auditLogs[0].NewValues, &values))
	assert.Equal(t, "COUNSELOR", values["before"]["role"])
	assert.Equal(t, "ADMIN", values["after"]["role"])

	// Same role again is a no-op.
	_, err = svc.Update(ctx, "u-casey", dto.UpdateUserRequest{Role: &role}, superadmin, models.LoginRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, store.updates)
	assert.Len(t, store.auditLogs, 1)

	bogus := models.UserRole("DEAN")
	_, err = svc.Update(ctx, "u-casey", dto.UpdateUserRequest{Role: &bogus}, superadmin, models.LoginRequest{})
	require.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Update(ctx, "missing", dto.UpdateUserRequest{Role: &role}, superadmin, models.LoginRequest{})
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestUserServiceRefusesSelfDemotion(t *testing.T) {
	store, svc := newUserFixture(t)
	ctx := context.Background()
	role := models.RoleCounselor
	inactive := false

	_, err := svc.Update(ctx, "u-root", dto.UpdateUserRequest{Role: &role}, superadmin, models.LoginRequest{})
	require.ErrorIs(t, err, appErrors.ErrForbidden)
	_, err = svc.Update(ctx, "u-root", dto.UpdateUserRequest{Active: &inactive}, superadmin, models.LoginRequest{})
	require.ErrorIs(t, err, appErrors.ErrForbidden)
	_, err = svc.Deactivate(ctx, "u-root", superadmin, models.LoginRequest{})
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	name := "Root Admin"
	user, err := svc.Update(ctx, "u-root", dto.UpdateUserRequest{FullName: &name}, superadmin, models.LoginRequest{})
	require.NoError(t, err)
	assert.Equal(t, "Root Admin", user.FullName)
	assert.Equal(t, models.RoleSuperAdmin, store.users["u-root"].Role)
	assert.True(t, store.users["u-root"].Active)
}

func TestUserServiceDeactivate(t *testing.T) {
	store, svc := newUserFixture(t)
	ctx := context.Background()

	user, err := svc.Deactivate(ctx, "u-casey", superadmin, models.LoginRequest{})
	require.NoError(t, err)
	assert.False(t, user.Active)
	assert.False(t, store.users["u-casey"].Active)
	require.Len(t, store.auditLogs, 1)
	assert.Equal(t, models.AuditActionUserDeactivate, store.auditLogs[0].Action)

	again, err := svc.Deactivate(ctx, "u-casey", superadmin, models.LoginRequest{})
	require.NoError(t, err)
	assert.False(t, again.Active)
	assert.Equal(t, 1, store.updates)
	assert.Len(t, store.auditLogs, 1)

	_, err = svc.Deactivate(ctx, "missing", superadmin, models.LoginRequest{})
	require.ErrorIs(t, err, appErrors.ErrNotFound)
	_, err = svc.Deactivate(ctx, "u-casey", nil, models.LoginRequest{})
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestUserServiceList(t *testing.T) {
	store, svc := newUserFixture(t)
	ctx := context.Background()

	users, page, err := svc.List(ctx, dto.UserQuery{Role: "COUNSELOR", Search: "  casey ", Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, 1, page.TotalCount)
	assert.Equal(t, "casey", store.lastFilter.Search)

	_, _, err = svc.List(ctx, dto.UserQuery{Role: "JANITOR"})
	require.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Get(ctx, "missing")
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}
