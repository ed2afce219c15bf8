package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otero-ediciones/lms-api/internal/models"
	"github.com/otero-ediciones/lms-api/internal/policy"
	appErrors "github.com/otero-ediciones/lms-api/pkg/errors"
)

type fakeUserRepo struct {
	users     map[string]*models.User
	teachers  []models.User
	profiles  map[string]*models.Profile
	exists    bool
	created   *models.User
	updated   *models.User
	deletedID string
	audits    []*models.AuditLog
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*models.User{}, profiles: map[string]*models.Profile{}}
}

func (f *fakeUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	if user, ok := f.users[id]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) ExistsByEmailOrUsername(context.Context, string, string, string) (bool, error) {
	return f.exists, nil
}

func (f *fakeUserRepo) List(context.Context, models.UserFilter) ([]models.User, int, error) {
	out := make([]models.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (f *fakeUserRepo) ListActiveTeachers(context.Context) ([]models.User, error) {
	return f.teachers, nil
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	f.created = user
	return nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	f.updated = user
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id string) error {
	f.deletedID = id
	return nil
}

func (f *fakeUserRepo) FindProfile(_ context.Context, userID string) (*models.Profile, error) {
	if profile, ok := f.profiles[userID]; ok {
		return profile, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) UpsertProfile(_ context.Context, profile *models.Profile) error {
	f.profiles[profile.UserID] = profile
	return nil
}

func (f *fakeUserRepo) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	f.audits = append(f.audits, log)
	return nil
}

type fakeTeacherCache struct {
	entries    map[string][]byte
	hits       int
	deletions  []string
	setPayload interface{}
}

func newFakeTeacherCache() *fakeTeacherCache {
	return &fakeTeacherCache{entries: map[string][]byte{}}
}

func (f *fakeTeacherCache) Get(_ context.Context, key string, _ interface{}) error {
	if _, ok := f.entries[key]; ok {
		f.hits++
		return nil
	}
	return appErrors.ErrCacheMiss
}

func (f *fakeTeacherCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	f.entries[key] = []byte("set")
	f.setPayload = value
	return nil
}

func (f *fakeTeacherCache) DeleteByPattern(_ context.Context, pattern string) error {
	f.deletions = append(f.deletions, pattern)
	delete(f.entries, pattern)
	return nil
}

func newUserService(repo *fakeUserRepo, cache teacherListingCache) *UserService {
	return NewUserService(repo, cache, policy.NewEngine(policy.Config{}), nil, nil, time.Minute)
}

var adminPrincipal = models.Principal{ID: "adm-1", Role: models.RoleAdmin}

func TestUserCreate_ValidatesRole(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newUserService(repo, nil)

	_, err := svc.Create(context.Background(), adminPrincipal, CreateUserRequest{
		Email:    "new@example.com",
		Username: "newuser",
		Password: "secret123",
		Role:     "SUPERVISOR",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	user, err := svc.Create(context.Background(), adminPrincipal, CreateUserRequest{
		Email:    "New@Example.com",
		Username: "newuser",
		Password: "secret123",
		Role:     "student",
	})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", user.Email)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.True(t, user.Active)
	assert.NotEqual(t, "secret123", user.PasswordHash)
	require.Len(t, repo.audits, 1)
	assert.Equal(t, models.AuditActionUserCreate, repo.audits[0].Action)
}

func TestUserCreate_DuplicateConflict(t *testing.T) {
	repo := newFakeUserRepo()
	repo.exists = true
	svc := newUserService(repo, nil)

	_, err := svc.Create(context.Background(), adminPrincipal, CreateUserRequest{
		Email:    "dup@example.com",
		Username: "dup",
		Password: "secret123",
		Role:     "STUDENT",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUserManagement_NonAdminForbidden(t *testing.T) {
	svc := newUserService(newFakeUserRepo(), nil)

	for _, role := range []models.UserRole{models.RoleTeacher, models.RoleStudent} {
		p := models.Principal{ID: "u-1", Role: role}
		_, _, err := svc.List(context.Background(), p, models.UserFilter{})
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code, "role %s", role)

		_, err = svc.Get(context.Background(), p, "someone")
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code, "role %s", role)
	}
}

func TestUserDelete_CannotDeleteSelf(t *testing.T) {
	repo := newFakeUserRepo()
	repo.users["adm-1"] = &models.User{ID: "adm-1", Role: models.RoleAdmin, Active: true}
	svc := newUserService(repo, nil)

	err := svc.Delete(context.Background(), adminPrincipal, "adm-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.deletedID)
}

func TestUserDelete_InvalidatesTeacherListing(t *testing.T) {
	repo := newFakeUserRepo()
	repo.users["tea-1"] = &models.User{ID: "tea-1", Role: models.RoleTeacher, Active: true}
	cache := newFakeTeacherCache()
	cache.entries[PublicTeachersCacheKey] = []byte("cached")
	svc := newUserService(repo, cache)

	err := svc.Delete(context.Background(), adminPrincipal, "tea-1")
	require.NoError(t, err)
	assert.Equal(t, "tea-1", repo.deletedID)
	assert.Contains(t, cache.deletions, PublicTeachersCacheKey)
}

func TestMe_IncludesProfile(t *testing.T) {
	repo := newFakeUserRepo()
	repo.users["usr-1"] = &models.User{ID: "usr-1", Email: "me@example.com", Username: "me", Role: models.RoleTeacher}
	repo.profiles["usr-1"] = &models.Profile{UserID: "usr-1", Phone: "+34 600 000 000"}
	svc := newUserService(repo, nil)

	view, err := svc.Me(context.Background(), models.Principal{ID: "usr-1", Role: models.RoleTeacher})
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", view.Email)
	assert.Equal(t, "+34 600 000 000", view.Profile.Phone)
}

func TestUpdateMe_PartialUpdate(t *testing.T) {
	repo := newFakeUserRepo()
	repo.users["usr-1"] = &models.User{ID: "usr-1", FirstName: "Old", LastName: "Name", Role: models.RoleStudent}
	repo.profiles["usr-1"] = &models.Profile{UserID: "usr-1", Phone: "123"}
	svc := newUserService(repo, nil)

	first := "New"
	desc := "Hello"
	view, err := svc.UpdateMe(context.Background(), models.Principal{ID: "usr-1", Role: models.RoleStudent}, UpdateProfileRequest{
		FirstName:         &first,
		PublicDescription: &desc,
	})
	require.NoError(t, err)
	assert.Equal(t, "New", view.FirstName)
	assert.Equal(t, "Name", view.LastName)
	assert.Equal(t, "123", view.Profile.Phone)
	assert.Equal(t, "Hello", view.Profile.PublicDescription)
}

func TestPublicTeachers_CacheRoundTrip(t *testing.T) {
	repo := newFakeUserRepo()
	repo.teachers = []models.User{
		{ID: "tea-1", FirstName: "Ana", LastName: "Otero", Username: "aotero", Role: models.RoleTeacher, Active: true},
		{ID: "tea-2", Username: "mcurie", Role: models.RoleTeacher, Active: true},
	}
	repo.profiles["tea-1"] = &models.Profile{UserID: "tea-1", Phone: "hidden", PublicDescription: "Math teacher"}
	cache := newFakeTeacherCache()
	svc := newUserService(repo, cache)

	views, hit, err := svc.PublicTeachers(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, views, 2)
	assert.Equal(t, "Ana Otero", views[0].Name)
	assert.Equal(t, "mcurie", views[1].Name)
	assert.Equal(t, "Math teacher", views[0].Profile.PublicDescription)
	// The phone never leaves through the public projection.
	assert.Empty(t, views[0].Profile.Phone)

	_, hit, err = svc.PublicTeachers(context.Background())
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, cache.hits)
}
