package client

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// User mirrors the server's directory record shape.
type User struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	IsActive    bool      `json:"is_active"`
	IsSuperuser bool      `json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RoleOption is a role choice with its display label.
type RoleOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// LoginResult carries a successful authentication response.
type LoginResult struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	User    User   `json:"user"`
}

// Login authenticates and stores the returned token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var result LoginResult
	err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &result)
	if err != nil {
		return nil, err
	}
	c.token = result.Token
	return &result, nil
}

// Logout revokes the current token server-side and clears it locally.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil); err != nil {
		return err
	}
	c.token = ""
	return nil
}

// Profile returns the caller's own record.
func (c *Client) Profile(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/auth/profile", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ChangePassword replaces the caller's password after verifying the
// current one server-side.
func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword, confirm string) error {
	return c.do(ctx, http.MethodPost, "/auth/change-password", map[string]string{
		"old_password":         oldPassword,
		"new_password":         newPassword,
		"new_password_confirm": confirm,
	}, nil)
}

// RegisterInput carries a public registration request.
type RegisterInput struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	Role            string `json:"role,omitempty"`
}

// Register creates a new account. No authentication required.
func (c *Client) Register(ctx context.Context, input RegisterInput) (*User, error) {
	var result struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/users", input, &result); err != nil {
		return nil, err
	}
	return &result.User, nil
}

// ListUsers returns the users visible to the caller, optionally
// narrowed to one role.
func (c *Client) ListUsers(ctx context.Context, roleFilter string) ([]User, error) {
	path := "/users"
	if roleFilter != "" {
		path += "?role=" + roleFilter
	}
	var result struct {
		Users []User `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result.Users, nil
}

type mutationResponse struct {
	Message string `json:"message"`
	User    User   `json:"user"`
}

// ToggleUserStatus flips the target's active flag.
func (c *Client) ToggleUserStatus(ctx context.Context, userID int64) (*User, string, error) {
	var result mutationResponse
	path := fmt.Sprintf("/users/%d/toggle-status", userID)
	if err := c.do(ctx, http.MethodPatch, path, nil, &result); err != nil {
		return nil, "", err
	}
	return &result.User, result.Message, nil
}

// ChangeUserRole assigns a new role to the target.
func (c *Client) ChangeUserRole(ctx context.Context, userID int64, role string) (*User, string, error) {
	var result mutationResponse
	path := fmt.Sprintf("/users/%d/change-role", userID)
	if err := c.do(ctx, http.MethodPatch, path, map[string]string{"role": role}, &result); err != nil {
		return nil, "", err
	}
	return &result.User, result.Message, nil
}

// AssignableRoles returns the roles the caller may hand out.
func (c *Client) AssignableRoles(ctx context.Context) ([]RoleOption, error) {
	var result struct {
		Roles []RoleOption `json:"roles"`
	}
	if err := c.do(ctx, http.MethodGet, "/roles", nil, &result); err != nil {
		return nil, err
	}
	return result.Roles, nil
}

// FilterRoles returns the caller's list-filter options, starting with
// the synthetic "All Roles" entry.
func (c *Client) FilterRoles(ctx context.Context) ([]RoleOption, error) {
	var result struct {
		FilterRoles []RoleOption `json:"filter_roles"`
	}
	if err := c.do(ctx, http.MethodGet, "/filter-roles", nil, &result); err != nil {
		return nil, err
	}
	return result.FilterRoles, nil
}
