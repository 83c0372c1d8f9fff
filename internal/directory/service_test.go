package directory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/campus-atrium/atrium/internal/roles"
	"github.com/campus-atrium/atrium/internal/shared"
)

type mockRepository struct {
	users  map[int64]*User
	hashes map[int64]string
	nextID int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{users: make(map[int64]*User), hashes: make(map[int64]string), nextID: 1}
}

func (m *mockRepository) add(username string, role roles.Role, active bool) *User {
	u := &User{
		ID:        m.nextID,
		Username:  username,
		Email:     username + "@campus.test",
		Role:      role,
		IsActive:  active,
		CreatedAt: time.Now().Add(-time.Duration(m.nextID) * time.Minute),
		UpdatedAt: time.Now(),
	}
	m.users[u.ID] = u
	m.nextID++
	return u
}

func (m *mockRepository) ListByRoles(ctx context.Context, visible []roles.Role) ([]User, error) {
	set := make(map[roles.Role]struct{}, len(visible))
	for _, r := range visible {
		set[r] = struct{}{}
	}
	out := []User{}
	for _, u := range m.users {
		if _, ok := set[u.Role]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *mockRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *mockRepository) SetActive(ctx context.Context, id int64, active bool) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	u.IsActive = active
	copied := *u
	return &copied, nil
}

func (m *mockRepository) SetRole(ctx context.Context, id int64, role roles.Role) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	u.Role = role
	copied := *u
	return &copied, nil
}

func (m *mockRepository) Create(ctx context.Context, params CreateParams) (*User, error) {
	for _, u := range m.users {
		if u.Email == params.Email || u.Username == params.Username {
			return nil, shared.BadRequestf("A user with that email or username already exists")
		}
	}
	u := m.add(params.Username, params.Role, true)
	u.Email = params.Email
	m.hashes[u.ID] = params.PasswordHash
	return u, nil
}

func identityOf(u *User) shared.Identity {
	return ToIdentity(u)
}

func TestListVisiblePerRole(t *testing.T) {
	repo := newMockRepository()
	admin := repo.add("root", roles.RoleAdmin, true)
	prof := repo.add("prof", roles.RoleFaculty, true)
	clerk := repo.add("clerk", roles.RoleStaff, true)
	pupil := repo.add("pupil", roles.RoleStudent, true)
	svc := NewService(repo)

	cases := []struct {
		actor *User
		want  map[string]bool
	}{
		{admin, map[string]bool{"root": true, "prof": true, "clerk": true, "pupil": true}},
		{prof, map[string]bool{"prof": true, "clerk": true, "pupil": true}},
		{clerk, map[string]bool{"prof": true}},
		{pupil, map[string]bool{"prof": true, "pupil": true}},
	}
	for _, tc := range cases {
		got, err := svc.ListVisible(context.Background(), identityOf(tc.actor), "")
		require.NoError(t, err)
		require.Len(t, got, len(tc.want), "actor %s", tc.actor.Username)
		for _, u := range got {
			assert.True(t, tc.want[u.Username], "actor %s should not see %s", tc.actor.Username, u.Username)
		}
	}
}

func TestListVisibleIncludesSelfWhenRoleVisible(t *testing.T) {
	repo := newMockRepository()
	prof := repo.add("prof", roles.RoleFaculty, true)
	clerk := repo.add("clerk", roles.RoleStaff, true)
	svc := NewService(repo)

	got, err := svc.ListVisible(context.Background(), identityOf(prof), "")
	require.NoError(t, err)
	names := usernames(got)
	assert.Contains(t, names, "prof")

	// Staff cannot see staff, including themselves.
	got, err = svc.ListVisible(context.Background(), identityOf(clerk), "")
	require.NoError(t, err)
	assert.NotContains(t, usernames(got), "clerk")
}

func TestListVisibleRoleFilter(t *testing.T) {
	repo := newMockRepository()
	admin := repo.add("root", roles.RoleAdmin, true)
	repo.add("prof", roles.RoleFaculty, true)
	pupil := repo.add("pupil", roles.RoleStudent, true)
	svc := NewService(repo)

	got, err := svc.ListVisible(context.Background(), identityOf(admin), "faculty")
	require.NoError(t, err)
	require.Equal(t, []string{"prof"}, usernames(got))

	// A student filtering by staff gets nothing: staff is outside their
	// visible set even though the value is a valid role.
	got, err = svc.ListVisible(context.Background(), identityOf(pupil), "staff")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = svc.ListVisible(context.Background(), identityOf(admin), "warden")
	require.ErrorIs(t, err, shared.ErrBadRequest)
}

func TestToggleStatusRoundTrip(t *testing.T) {
	repo := newMockRepository()
	admin := repo.add("root", roles.RoleAdmin, true)
	pupil := repo.add("pupil", roles.RoleStudent, true)
	svc := NewService(repo)
	actor := identityOf(admin)

	updated, message, err := svc.ToggleStatus(context.Background(), actor, pupil.ID)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, "User pupil has been deactivated", message)
	assert.Equal(t, pupil.Role, updated.Role)
	assert.Equal(t, pupil.Username, updated.Username)

	updated, message, err = svc.ToggleStatus(context.Background(), actor, pupil.ID)
	require.NoError(t, err)
	assert.True(t, updated.IsActive, "double toggle should restore the original state")
	assert.Equal(t, "User pupil has been activated", message)
}

func TestToggleStatusDenials(t *testing.T) {
	repo := newMockRepository()
	admin := repo.add("root", roles.RoleAdmin, true)
	prof := repo.add("prof", roles.RoleFaculty, true)
	clerk := repo.add("clerk", roles.RoleStaff, true)
	svc := NewService(repo)

	_, _, err := svc.ToggleStatus(context.Background(), identityOf(admin), admin.ID)
	require.ErrorIs(t, err, shared.ErrForbidden)
	assert.Equal(t, "Cannot change your own status", shared.Reason(err))

	_, _, err = svc.ToggleStatus(context.Background(), identityOf(prof), clerk.ID)
	require.ErrorIs(t, err, shared.ErrForbidden)
	assert.Equal(t, "Faculty can only deactivate students", shared.Reason(err))

	_, _, err = svc.ToggleStatus(context.Background(), identityOf(clerk), prof.ID)
	require.ErrorIs(t, err, shared.ErrForbidden)
	assert.Equal(t, "Insufficient permissions to change user status", shared.Reason(err))

	_, _, err = svc.ToggleStatus(context.Background(), identityOf(admin), 999)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestChangeRole(t *testing.T) {
	repo := newMockRepository()
	admin := repo.add("root", roles.RoleAdmin, true)
	pupil := repo.add("pupil", roles.RoleStudent, true)
	svc := NewService(repo)
	actor := identityOf(admin)

	updated, message, err := svc.ChangeRole(context.Background(), actor, pupil.ID, "staff")
	require.NoError(t, err)
	assert.Equal(t, roles.RoleStaff, updated.Role)
	assert.Equal(t, "User pupil role changed to staff", message)
	assert.Equal(t, pupil.Username, updated.Username)
	assert.Equal(t, pupil.IsActive, updated.IsActive)

	// Visibility follows the new role: faculty actors see staff, student
	// actors do not.
	facultyView, err := svc.ListVisible(context.Background(), shared.Identity{ID: 98, Role: roles.RoleFaculty}, "")
	require.NoError(t, err)
	assert.Contains(t, usernames(facultyView), "pupil")

	studentView, err := svc.ListVisible(context.Background(), shared.Identity{ID: 99, Role: roles.RoleStudent}, "")
	require.NoError(t, err)
	assert.NotContains(t, usernames(studentView), "pupil")
}

func TestChangeRoleDenials(t *testing.T) {
	repo := newMockRepository()
	admin := repo.add("root", roles.RoleAdmin, true)
	prof := repo.add("prof", roles.RoleFaculty, true)
	pupil := repo.add("pupil", roles.RoleStudent, true)
	svc := NewService(repo)

	_, _, err := svc.ChangeRole(context.Background(), identityOf(prof), pupil.ID, "staff")
	require.ErrorIs(t, err, shared.ErrForbidden)
	assert.Equal(t, "Admin access required", shared.Reason(err))

	_, _, err = svc.ChangeRole(context.Background(), identityOf(admin), admin.ID, "student")
	require.ErrorIs(t, err, shared.ErrForbidden)
	assert.Equal(t, "Cannot change your own role", shared.Reason(err))

	_, _, err = svc.ChangeRole(context.Background(), identityOf(admin), pupil.ID, "")
	require.ErrorIs(t, err, shared.ErrBadRequest)
	assert.Equal(t, "Role is required", shared.Reason(err))

	_, _, err = svc.ChangeRole(context.Background(), identityOf(admin), pupil.ID, "principal")
	require.ErrorIs(t, err, shared.ErrBadRequest)
	assert.Equal(t, "Invalid role", shared.Reason(err))

	_, _, err = svc.ChangeRole(context.Background(), identityOf(admin), 404, "staff")
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRegister(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	user, err := svc.Register(context.Background(), RegisterInput{
		Username:        "newbie",
		Email:           "newbie@campus.test",
		Password:        "hunter2hunter2",
		PasswordConfirm: "hunter2hunter2",
	})
	require.NoError(t, err)
	assert.Equal(t, roles.RoleStudent, user.Role)
	assert.True(t, user.IsActive)

	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.hashes[user.ID]), []byte("hunter2hunter2")))

	_, err = svc.Register(context.Background(), RegisterInput{
		Username:        "newbie2",
		Email:           "x@campus.test",
		Password:        "hunter2hunter2",
		PasswordConfirm: "different",
	})
	require.ErrorIs(t, err, shared.ErrBadRequest)
	assert.Equal(t, "Passwords do not match", shared.Reason(err))

	_, err = svc.Register(context.Background(), RegisterInput{
		Username:        "newbie3",
		Email:           "y@campus.test",
		Password:        "hunter2hunter2",
		PasswordConfirm: "hunter2hunter2",
		Role:            "chancellor",
	})
	require.ErrorIs(t, err, shared.ErrBadRequest)

	elevated, err := svc.Register(context.Background(), RegisterInput{
		Username:        "newprof",
		Email:           "newprof@campus.test",
		Password:        "hunter2hunter2",
		PasswordConfirm: "hunter2hunter2",
		Role:            "faculty",
	})
	require.NoError(t, err)
	assert.Equal(t, roles.RoleFaculty, elevated.Role)
}

func usernames(users []User) []string {
	names := make([]string, len(users))
	for i, u := range users {
		names[i] = u.Username
	}
	return names
}
