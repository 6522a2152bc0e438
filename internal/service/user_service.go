package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/campus-admissions-api/internal/dto"
	"github.com/noah-isme/campus-admissions-api/internal/models"
	"github.com/noah-isme/campus-admissions-api/internal/repository"
	appErrors "github.com/noah-isme/campus-admissions-api/pkg/errors"
)

type userStore interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// UserService manages staff accounts: counselors, registrars and administrators.
type UserService struct {
	repo      userStore
	validator *validator.Validate
	logger    *zap.Logger
	hashCost  int
	now       func() time.Time
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userStore, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{
		repo:      repo,
		validator: validate,
		logger:    logger,
		hashCost:  bcrypt.DefaultCost,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// List returns a page of staff accounts.
func (s *UserService) List(ctx context.Context, query dto.UserQuery) ([]models.User, *models.Pagination, error) {
	filter := models.UserFilter{
		Role:     models.UserRole(query.Role),
		Active:   query.Active,
		Search:   strings.TrimSpace(query.Search),
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list users")
	}
	return users, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a staff account by ID.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Internal(err, "failed to load user")
	}
	return user, nil
}

// Create provisions an active staff account.
func (s *UserService) Create(ctx context.Context, req dto.CreateUserRequest, actor *models.JWTClaims, meta models.LoginRequest) (*models.User, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create user payload")
	}

	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Internal(err, "failed to check email uniqueness")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}

	user := &models.User{
		Email:        req.Email,
		FullName:     req.FullName,
		Role:         req.Role,
		Active:       true,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already exists")
		}
		return nil, appErrors.Internal(err, "failed to create user")
	}

	s.audit(ctx, actor, models.AuditActionUserCreate, user.ID, map[string]interface{}{"email": user.Email, "role": user.Role}, meta)
	return user, nil
}

// Update changes name, role or active flag. An account cannot demote or
// deactivate itself.
func (s *UserService) Update(ctx context.Context, id string, req dto.UpdateUserRequest, actor *models.JWTClaims, meta models.LoginRequest) (*models.User, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if req.FullName != nil {
		trimmed := strings.TrimSpace(*req.FullName)
		req.FullName = &trimmed
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update user payload")
	}
	return s.apply(ctx, id, actor, meta, models.AuditActionUserUpdate, func(u *models.User) {
		if req.FullName != nil {
			u.FullName = *req.FullName
		}
		if req.Role != nil {
			u.Role = *req.Role
		}
		if req.Active != nil {
			u.Active = *req.Active
		}
	})
}

// Deactivate disables the account and revokes its sessions. Deactivating an
// inactive account returns it unchanged.
func (s *UserService) Deactivate(ctx context.Context, id string, actor *models.JWTClaims, meta models.LoginRequest) (*models.User, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	return s.apply(ctx, id, actor, meta, models.AuditActionUserDeactivate, func(u *models.User) {
		u.Active = false
	})
}

func (s *UserService) apply(ctx context.Context, id string, actor *models.JWTClaims, meta models.LoginRequest, action string, change func(*models.User)) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *user
	change(user)

	if user.Role == before.Role && user.Active == before.Active && user.FullName == before.FullName {
		return user, nil
	}
	if actor.UserID == user.ID && (!user.Active || user.Role != before.Role) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you cannot demote or deactivate your own account")
	}

	user.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Internal(err, "failed to update user")
	}

	s.audit(ctx, actor, action, user.ID, map[string]interface{}{
		"before": map[string]interface{}{"full_name": before.FullName, "role": before.Role, "active": before.Active},
		"after":  map[string]interface{}{"full_name": user.FullName, "role": user.Role, "active": user.Active},
	}, meta)
	return user, nil
}

func (s *UserService) audit(ctx context.Context, actor *models.JWTClaims, action, userID string, values map[string]interface{}, meta models.LoginRequest) {
	payload, _ := json.Marshal(values)
	actorID := actor.UserID
	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     action,
		Resource:   "users",
		ResourceID: &userID,
		NewValues:  payload,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record user audit log", zap.String("action", action), zap.Error(err))
	}
}
