package directory

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/campus-atrium/atrium/internal/roles"
	"github.com/campus-atrium/atrium/internal/shared"
)

// Service applies the authorization engine to directory operations. It
// is the sole translator of engine denials into the error taxonomy.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListVisible returns the users the actor may see, per the visibility
// table. The actor appears in their own listing whenever their role is
// in their visible set. An optional role filter narrows the listing;
// filtering by a role outside the visible set returns nothing.
func (s *Service) ListVisible(ctx context.Context, actor shared.Identity, filterRole string) ([]User, error) {
	visible := roles.VisibleRoles(actor.Role)
	if filterRole != "" {
		requested, ok := roles.Parse(filterRole)
		if !ok {
			return nil, shared.BadRequestf("Invalid role")
		}
		narrowed := []roles.Role{}
		for _, r := range visible {
			if r == requested {
				narrowed = append(narrowed, r)
			}
		}
		visible = narrowed
	}
	return s.repo.ListByRoles(ctx, visible)
}

// ToggleStatus flips the target's active flag. Exactly one field
// changes: the returned record differs from the previous one only in
// IsActive. The accompanying message names the applied action.
func (s *Service) ToggleStatus(ctx context.Context, actor shared.Identity, targetID int64) (*User, string, error) {
	target, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return nil, "", err
	}
	if !roles.CanToggleStatus(actor.Role, actor.ID, target.ID, target.Role) {
		return nil, "", shared.Forbiddenf("%s", roles.ToggleStatusDenialReason(actor.Role, actor.ID, target.ID))
	}
	updated, err := s.repo.SetActive(ctx, target.ID, !target.IsActive)
	if err != nil {
		return nil, "", err
	}
	action := "deactivated"
	if updated.IsActive {
		action = "activated"
	}
	return updated, fmt.Sprintf("User %s has been %s", updated.Username, action), nil
}

// ChangeRole assigns a new role to the target. Invalid role values are
// input errors; the permission decision only runs on valid input.
func (s *Service) ChangeRole(ctx context.Context, actor shared.Identity, targetID int64, requested string) (*User, string, error) {
	target, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return nil, "", err
	}
	if requested == "" {
		return nil, "", shared.BadRequestf("Role is required")
	}
	newRole, ok := roles.Parse(requested)
	if !ok {
		return nil, "", shared.BadRequestf("Invalid role")
	}
	if !roles.CanChangeRole(actor.Role, actor.ID, target.ID) {
		return nil, "", shared.Forbiddenf("%s", roles.ChangeRoleDenialReason(actor.Role, actor.ID, target.ID))
	}
	updated, err := s.repo.SetRole(ctx, target.ID, newRole)
	if err != nil {
		return nil, "", err
	}
	return updated, fmt.Sprintf("User %s role changed to %s", updated.Username, newRole), nil
}

// RegisterInput carries a public registration request.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
	Role            string
}

// Register creates a new account. Registration is public; the role
// defaults to student when omitted.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*User, error) {
	if input.Password != input.PasswordConfirm {
		return nil, shared.BadRequestf("Passwords do not match")
	}
	role := roles.Default
	if input.Role != "" {
		parsed, ok := roles.Parse(input.Role)
		if !ok {
			return nil, shared.BadRequestf("Invalid role")
		}
		role = parsed
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("directory: hash password: %w", err)
	}
	return s.repo.Create(ctx, CreateParams{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hash),
		Role:         role,
	})
}

// Get returns a single record by ID.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}
