package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsmedika/consent-api/internal/model"
	"github.com/rsmedika/consent-api/internal/repository"
	apperrors "github.com/rsmedika/consent-api/pkg/errors"
	"github.com/rsmedika/consent-api/pkg/security"
)

type fakeUserRepo struct {
	users map[string]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if _, ok := f.users[user.Username]; ok {
		return repository.ErrDuplicate
	}
	clone := *user
	f.users[user.Username] = &clone
	return nil
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	user, ok := f.users[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (f *fakeUserRepo) List(_ context.Context) ([]*model.User, error) {
	out := make([]*model.User, 0, len(f.users))
	for _, u := range f.users {
		clone := *u
		clone.PasswordHash = ""
		out = append(out, &clone)
	}
	return out, nil
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, username, hash string) error {
	user, ok := f.users[username]
	if !ok {
		return repository.ErrNotFound
	}
	user.PasswordHash = hash
	return nil
}

func (f *fakeUserRepo) SetActive(_ context.Context, username string, active bool) error {
	user, ok := f.users[username]
	if !ok {
		return repository.ErrNotFound
	}
	user.IsActive = active
	return nil
}

func newTestService() (*Service, *fakeUserRepo) {
	repo := newFakeUserRepo()
	return NewService(repo, security.NewBcryptHasher(4)), repo
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok, "expected AppError, got %T: %v", err, err)
	return appErr.StatusCode()
}

func TestCreateUser(t *testing.T) {
	svc, repo := newTestService()

	created, err := svc.Create(context.Background(), &model.CreateUserRequest{
		Username: "sari",
		Password: "rahasia1",
		Role:     model.RoleAdminPOC,
	})
	require.NoError(t, err)

	assert.Equal(t, "sari", created.Username)
	assert.Equal(t, model.RoleAdminPOC, created.Role)
	assert.True(t, created.IsActive)
	assert.Empty(t, created.PasswordHash, "response must not carry the hash")
	assert.Equal(t, model.PermissionsForRole(model.RoleAdminPOC), created.Permissions)

	stored := repo.users["sari"]
	require.NotNil(t, stored)
	assert.NotEmpty(t, stored.PasswordHash)
	assert.NotEqual(t, "rahasia1", stored.PasswordHash)
}

func TestCreateUserInvalidRole(t *testing.T) {
	svc, repo := newTestService()

	_, err := svc.Create(context.Background(), &model.CreateUserRequest{
		Username: "sari",
		Password: "rahasia1",
		Role:     "root",
	})
	require.Error(t, err)
	assert.Equal(t, 400, statusOf(t, err))
	assert.Empty(t, repo.users)
}

func TestCreateUserWeakPassword(t *testing.T) {
	svc, repo := newTestService()

	// Five characters is rejected
	_, err := svc.Create(context.Background(), &model.CreateUserRequest{
		Username: "sari",
		Password: "lima5",
		Role:     model.RoleExporter,
	})
	require.Error(t, err)
	assert.Equal(t, 400, statusOf(t, err))
	assert.Empty(t, repo.users)

	// Six characters is accepted
	_, err = svc.Create(context.Background(), &model.CreateUserRequest{
		Username: "sari",
		Password: "enam66",
		Role:     model.RoleExporter,
	})
	assert.NoError(t, err)
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	svc, repo := newTestService()

	_, err := svc.Create(context.Background(), &model.CreateUserRequest{
		Username: "sari", Password: "rahasia1", Role: model.RoleAdmin,
	})
	require.NoError(t, err)
	before := *repo.users["sari"]

	_, err = svc.Create(context.Background(), &model.CreateUserRequest{
		Username: "sari", Password: "lainnya2", Role: model.RoleExporter,
	})
	require.Error(t, err)
	assert.Equal(t, 409, statusOf(t, err))
	assert.Equal(t, before, *repo.users["sari"], "failed create must not mutate the store")
}

func TestChangePassword(t *testing.T) {
	svc, repo := newTestService()

	_, err := svc.Create(context.Background(), &model.CreateUserRequest{
		Username: "sari", Password: "rahasia1", Role: model.RoleAdmin,
	})
	require.NoError(t, err)
	oldHash := repo.users["sari"].PasswordHash

	require.NoError(t, svc.ChangePassword(context.Background(), "sari", "barubaru"))
	assert.NotEqual(t, oldHash, repo.users["sari"].PasswordHash)

	err = svc.ChangePassword(context.Background(), "sari", "lima5")
	require.Error(t, err)
	assert.Equal(t, 400, statusOf(t, err))

	err = svc.ChangePassword(context.Background(), "tidak-ada", "barubaru")
	require.Error(t, err)
	assert.Equal(t, 404, statusOf(t, err))
}

func TestSetActive(t *testing.T) {
	svc, repo := newTestService()

	_, err := svc.Create(context.Background(), &model.CreateUserRequest{
		Username: "sari", Password: "rahasia1", Role: model.RoleAdmin,
	})
	require.NoError(t, err)

	require.NoError(t, svc.SetActive(context.Background(), "admin", "sari", false))
	assert.False(t, repo.users["sari"].IsActive)

	require.NoError(t, svc.SetActive(context.Background(), "admin", "sari", true))
	assert.True(t, repo.users["sari"].IsActive)

	err = svc.SetActive(context.Background(), "admin", "tidak-ada", false)
	require.Error(t, err)
	assert.Equal(t, 404, statusOf(t, err))
}

func TestSetActiveSelfDeactivationRejected(t *testing.T) {
	svc, repo := newTestService()

	_, err := svc.Create(context.Background(), &model.CreateUserRequest{
		Username: "admin", Password: "rahasia1", Role: model.RoleAdmin,
	})
	require.NoError(t, err)

	err = svc.SetActive(context.Background(), "admin", "admin", false)
	require.Error(t, err)
	assert.Equal(t, 400, statusOf(t, err))
	assert.True(t, repo.users["admin"].IsActive)

	// Reactivating oneself is allowed; only self-deactivation is blocked
	assert.NoError(t, svc.SetActive(context.Background(), "admin", "admin", true))
}
