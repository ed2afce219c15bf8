package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/otero-ediciones/lms-api/internal/dto"
	"github.com/otero-ediciones/lms-api/internal/models"
	"github.com/otero-ediciones/lms-api/internal/policy"
	appErrors "github.com/otero-ediciones/lms-api/pkg/errors"
)

type userRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	ExistsByEmailOrUsername(ctx context.Context, email, username, excludeID string) (bool, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	ListActiveTeachers(ctx context.Context) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	FindProfile(ctx context.Context, userID string) (*models.Profile, error)
	UpsertProfile(ctx context.Context, profile *models.Profile) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type teacherListingCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// PublicTeachersCacheKey stores the rendered public teacher listing.
const PublicTeachersCacheKey = "public:teachers"

// CreateUserRequest captures fields for creating accounts.
type CreateUserRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Username  string `json:"username" validate:"required,min=3"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role" validate:"required"`
}

// UpdateUserRequest modifies account fields.
type UpdateUserRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Username  string `json:"username" validate:"required,min=3"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role" validate:"required"`
	Active    *bool  `json:"active"`
}

// UpdateProfileRequest modifies the caller's own profile attributes.
type UpdateProfileRequest struct {
	FirstName         *string `json:"first_name"`
	LastName          *string `json:"last_name"`
	Phone             *string `json:"phone"`
	PhotoURL          *string `json:"photo_url"`
	PublicDescription *string `json:"public_description"`
	PublicSubjects    *string `json:"public_subjects"`
}

// UserService handles account administration, the caller's own profile
// and the public teacher listing.
type UserService struct {
	repo           userRepository
	cache          teacherListingCache
	policy         *policy.Engine
	validator      *validator.Validate
	logger         *zap.Logger
	publicCacheTTL time.Duration
}

// NewUserService creates a new user service. The cache may be nil, in
// which case the public listing is always computed from the database.
func NewUserService(repo userRepository, cache teacherListingCache, engine *policy.Engine, validate *validator.Validate, logger *zap.Logger, publicCacheTTL time.Duration) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = policy.NewEngine(policy.Config{})
	}
	if publicCacheTTL <= 0 {
		publicCacheTTL = 10 * time.Minute
	}
	return &UserService{repo: repo, cache: cache, policy: engine, validator: validate, logger: logger, publicCacheTTL: publicCacheTTL}
}

// List returns accounts matching the filter.
func (s *UserService) List(ctx context.Context, p models.Principal, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	if !s.policy.CanManageUsers(p) {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "user management requires admin role")
	}

	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return users, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one account.
func (s *UserService) Get(ctx context.Context, p models.Principal, id string) (*models.User, error) {
	if !s.policy.CanManageUsers(p) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "user management requires admin role")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// Create adds a new account with a hashed initial password.
func (s *UserService) Create(ctx context.Context, p models.Principal, req CreateUserRequest) (*models.User, error) {
	if !s.policy.CanManageUsers(p) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "user management requires admin role")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}

	role := models.UserRole(strings.ToUpper(strings.TrimSpace(req.Role)))
	if !role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "role must be ADMIN, TEACHER or STUDENT")
	}

	exists, err := s.repo.ExistsByEmailOrUsername(ctx, req.Email, req.Username, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check uniqueness")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email or username already in use")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Username:     strings.TrimSpace(req.Username),
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         role,
		Active:       true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	s.auditUserChange(ctx, p.ID, models.AuditActionUserCreate, user.ID)
	s.invalidatePublicTeachers(ctx, role)
	return user, nil
}

// Update modifies an account, including role and active flag.
func (s *UserService) Update(ctx context.Context, p models.Principal, id string, req UpdateUserRequest) (*models.User, error) {
	if !s.policy.CanManageUsers(p) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "user management requires admin role")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}

	role := models.UserRole(strings.ToUpper(strings.TrimSpace(req.Role)))
	if !role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "role must be ADMIN, TEACHER or STUDENT")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	exists, err := s.repo.ExistsByEmailOrUsername(ctx, req.Email, req.Username, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check uniqueness")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email or username already in use")
	}

	touchedTeacher := user.Role == models.RoleTeacher || role == models.RoleTeacher

	user.Email = strings.ToLower(strings.TrimSpace(req.Email))
	user.Username = strings.TrimSpace(req.Username)
	user.FirstName = strings.TrimSpace(req.FirstName)
	user.LastName = strings.TrimSpace(req.LastName)
	user.Role = role
	if req.Active != nil {
		user.Active = *req.Active
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}

	s.auditUserChange(ctx, p.ID, models.AuditActionUserUpdate, user.ID)
	if touchedTeacher {
		s.invalidatePublicTeachers(ctx, models.RoleTeacher)
	}
	return user, nil
}

// Delete deactivates an account. Taught courses keep existing with the
// teacher reference cleared.
func (s *UserService) Delete(ctx context.Context, p models.Principal, id string) error {
	if !s.policy.CanManageUsers(p) {
		return appErrors.Clone(appErrors.ErrForbidden, "user management requires admin role")
	}
	if p.ID == id {
		return appErrors.Clone(appErrors.ErrValidation, "cannot delete own account")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}

	s.auditUserChange(ctx, p.ID, models.AuditActionUserDelete, id)
	s.invalidatePublicTeachers(ctx, user.Role)
	return nil
}

// Me returns the caller's account with its profile.
func (s *UserService) Me(ctx context.Context, p models.Principal) (*dto.CurrentUserView, error) {
	user, err := s.repo.FindByID(ctx, p.ID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	profile, err := s.repo.FindProfile(ctx, p.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}

	view := dto.NewCurrentUserView(user, profile)
	return &view, nil
}

// UpdateMe updates the caller's own names and profile attributes. Role
// and active flag are out of reach here.
func (s *UserService) UpdateMe(ctx context.Context, p models.Principal, req UpdateProfileRequest) (*dto.CurrentUserView, error) {
	user, err := s.repo.FindByID(ctx, p.ID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if req.FirstName != nil || req.LastName != nil {
		if req.FirstName != nil {
			user.FirstName = strings.TrimSpace(*req.FirstName)
		}
		if req.LastName != nil {
			user.LastName = strings.TrimSpace(*req.LastName)
		}
		if err := s.repo.Update(ctx, user); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
		}
	}

	profile, err := s.repo.FindProfile(ctx, p.ID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
		}
		profile = &models.Profile{UserID: p.ID}
	}

	if req.Phone != nil {
		profile.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.PhotoURL != nil {
		profile.PhotoURL = strings.TrimSpace(*req.PhotoURL)
	}
	if req.PublicDescription != nil {
		profile.PublicDescription = *req.PublicDescription
	}
	if req.PublicSubjects != nil {
		profile.PublicSubjects = strings.TrimSpace(*req.PublicSubjects)
	}

	if err := s.repo.UpsertProfile(ctx, profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}

	s.invalidatePublicTeachers(ctx, user.Role)

	view := dto.NewCurrentUserView(user, profile)
	return &view, nil
}

// PublicTeachers returns the unauthenticated teacher listing, served
// from cache when available.
func (s *UserService) PublicTeachers(ctx context.Context) ([]dto.TeacherPublicView, bool, error) {
	if s.cache != nil {
		var cached []dto.TeacherPublicView
		if err := s.cache.Get(ctx, PublicTeachersCacheKey, &cached); err == nil {
			return cached, true, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("public teacher cache read failed", zap.Error(err))
		}
	}

	teachers, err := s.repo.ListActiveTeachers(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}

	views := make([]dto.TeacherPublicView, 0, len(teachers))
	for _, teacher := range teachers {
		profile, err := s.repo.FindProfile(ctx, teacher.ID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher profile")
		}
		views = append(views, dto.NewTeacherPublicView(teacher, profile))
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, PublicTeachersCacheKey, views, s.publicCacheTTL); err != nil {
			s.logger.Warn("public teacher cache write failed", zap.Error(err))
		}
	}
	return views, false, nil
}

func (s *UserService) auditUserChange(ctx context.Context, actorID, action, targetID string) {
	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     action,
		Resource:   "user",
		ResourceID: &targetID,
	}); err != nil {
		s.logger.Warn("failed to record user audit log", zap.Error(err))
	}
}

// invalidatePublicTeachers drops the cached public listing after any
// change that can affect it.
func (s *UserService) invalidatePublicTeachers(ctx context.Context, role models.UserRole) {
	if s.cache == nil || role != models.RoleTeacher {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, PublicTeachersCacheKey); err != nil {
		s.logger.Warn("failed to invalidate public teacher cache", zap.Error(err))
	}
}
