// Package household manages households and their members.
package household

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/pantry/internal/access"
	"github.com/dukerupert/pantry/internal/apperr"
	"github.com/dukerupert/pantry/internal/model"
)

type Store interface {
	Create(ctx context.Context, h *model.Household) error
	GetByID(ctx context.Context, id string) (*model.Household, error)
	ListForUser(ctx context.Context, userID string) ([]*model.Household, error)
	Save(ctx context.Context, h *model.Household) error
}

type Service struct {
	households Store
	logger     *slog.Logger
	now        func() time.Time
}

func NewService(households Store, logger *slog.Logger) *Service {
	return &Service{
		households: households,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) load(ctx context.Context, id string) (*model.Household, error) {
	h, err := s.households.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, apperr.NotFound("household %s not found", id)
	}
	return h, nil
}

func (s *Service) save(ctx context.Context, h *model.Household) error {
	h.UpdatedAt = s.now()
	if err := s.households.Save(ctx, h); err != nil {
		return fmt.Errorf("save household %s: %w", h.ID, err)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, actor, name string) (*model.Household, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	now := s.now()
	h := &model.Household{
		ID:        uuid.NewString(),
		Name:      name,
		AdminID:   actor,
		Members:   []model.Member{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.households.Create(ctx, h); err != nil {
		return nil, fmt.Errorf("create household: %w", err)
	}
	s.logger.Info("household created", "household_id", h.ID, "admin", actor)
	return h, nil
}

// Get returns the household if actor is its admin or a member.
func (s *Service) Get(ctx context.Context, actor, id string) (*model.Household, error) {
	h, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !h.Belongs(actor) {
		return nil, apperr.Forbidden("you are not a member of this household")
	}
	return h, nil
}

func (s *Service) ListForUser(ctx context.Context, actor string) ([]*model.Household, error) {
	return s.households.ListForUser(ctx, actor)
}

// memberGrant parses a role and optional permission tokens. Without tokens
// the role's defaults apply. A blank role means member.
func memberGrant(role string, tokens []string) (model.Role, model.PermissionSet, error) {
	if strings.TrimSpace(role) == "" {
		role = string(model.RoleMember)
	}
	r, err := model.ParseRole(role)
	if err != nil {
		return "", 0, apperr.Validation("role must be member or co-admin")
	}
	if tokens == nil {
		return r, r.DefaultPermissions(), nil
	}
	perms, err := model.ParsePermissions(tokens)
	if err != nil {
		return "", 0, apperr.Validation("%v", err)
	}
	return r, perms, nil
}

type Invitation struct {
	UserID      string
	Role        string
	Permissions []string
}

func (s *Service) Invite(ctx context.Context, actor, id string, inv Invitation) (*model.Household, error) {
	userID := strings.TrimSpace(inv.UserID)
	if userID == "" {
		return nil, apperr.Validation("user_id is required")
	}
	role, perms, err := memberGrant(inv.Role, inv.Permissions)
	if err != nil {
		return nil, err
	}
	h, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanManageMembers(actor, h, model.PermInviteMembers) {
		return nil, apperr.Forbidden("you cannot invite members to this household")
	}
	if err := checkDelegation(h, actor, role, perms); err != nil {
		return nil, err
	}

	err = h.AddMember(model.Member{UserID: userID, Role: role, Permissions: perms, JoinedAt: s.now()})
	switch {
	case errors.Is(err, model.ErrMemberIsAdmin):
		return nil, apperr.Conflict("%s is the household admin", userID)
	case errors.Is(err, model.ErrAlreadyMember):
		return nil, apperr.Conflict("%s is already a member", userID)
	case err != nil:
		return nil, err
	}
	if err := s.save(ctx, h); err != nil {
		return nil, err
	}
	s.logger.Info("member invited", "household_id", id, "user_id", userID, "role", role, "by", actor)
	return h, nil
}

// checkDelegation keeps inviters other than the admin from granting more
// than they hold: they may add plain members with a subset of their tokens.
func checkDelegation(h *model.Household, actor string, role model.Role, perms model.PermissionSet) error {
	if h.IsAdmin(actor) {
		return nil
	}
	if role != model.RoleMember {
		return apperr.Forbidden("only the household admin can invite a %s", role)
	}
	m, ok := h.Member(actor)
	if !ok || !m.Permissions.Covers(perms) {
		return apperr.Forbidden("you cannot grant permissions you do not hold")
	}
	return nil
}

func (s *Service) RemoveMember(ctx context.Context, actor, id, userID string) (*model.Household, error) {
	h, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanManageMembers(actor, h, model.PermRemoveMembers) {
		return nil, apperr.Forbidden("you cannot remove members from this household")
	}
	if h.IsAdmin(userID) {
		return nil, apperr.Validation("the household admin cannot be removed")
	}
	if err := h.RemoveMember(userID); err != nil {
		return nil, apperr.NotFound("%s is not a member", userID)
	}
	if err := s.save(ctx, h); err != nil {
		return nil, err
	}
	s.logger.Info("member removed", "household_id", id, "user_id", userID, "by", actor)
	return h, nil
}

type MemberPatch struct {
	Role        *string
	Permissions []string
}

// UpdateMember changes a member's role or tokens. Only the admin may do this.
// A role change without tokens resets the tokens to the new role's defaults.
func (s *Service) UpdateMember(ctx context.Context, actor, id, userID string, p MemberPatch) (*model.Household, error) {
	h, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !h.IsAdmin(actor) {
		return nil, apperr.Forbidden("only the household admin can change member permissions")
	}
	m, ok := h.Member(userID)
	if !ok {
		return nil, apperr.NotFound("%s is not a member", userID)
	}

	role := string(m.Role)
	if p.Role != nil {
		role = *p.Role
	}
	tokens := p.Permissions
	if tokens == nil && p.Role == nil {
		tokens = m.Permissions.Tokens()
	}
	r, perms, err := memberGrant(role, tokens)
	if err != nil {
		return nil, err
	}
	m.Role, m.Permissions = r, perms
	if err := s.save(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}
