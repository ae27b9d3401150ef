// Package grocery implements shared shopping lists.
package grocery

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/pantry/internal/access"
	"github.com/dukerupert/pantry/internal/apperr"
	"github.com/dukerupert/pantry/internal/metrics"
	"github.com/dukerupert/pantry/internal/model"
)

type ListStore interface {
	GetByID(ctx context.Context, id string) (*model.GroceryList, error)
	ListOwned(ctx context.Context, userID string, f model.ListFilter) ([]*model.GroceryList, error)
	ListByHousehold(ctx context.Context, householdID string, f model.ListFilter) ([]*model.GroceryList, error)
	ListSharedWith(ctx context.Context, userID string) ([]*model.GroceryList, error)
	Create(ctx context.Context, l *model.GroceryList) error
	Save(ctx context.Context, l *model.GroceryList) error
	Delete(ctx context.Context, id string) error
}

type Service struct {
	lists      ListStore
	households access.HouseholdGetter
	resolver   *access.Resolver
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

func NewService(lists ListStore, households access.HouseholdGetter, resolver *access.Resolver, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		lists:      lists,
		households: households,
		resolver:   resolver,
		metrics:    m,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// load fetches list id and checks that actor holds want on it.
func (s *Service) load(ctx context.Context, actor, id string, want access.Capability) (*model.GroceryList, access.Capabilities, error) {
	l, err := s.lists.GetByID(ctx, id)
	if err != nil {
		return nil, access.Capabilities{}, err
	}
	if l == nil {
		return nil, access.Capabilities{}, apperr.NotFound("list %s not found", id)
	}
	caps := s.resolver.Resolve(ctx, actor, access.ListResource(l))
	if !caps.Allows(want) {
		s.metrics.AccessDenied(access.KindList.String(), string(want))
		return nil, caps, apperr.Forbidden("you do not have %s access to this list", want)
	}
	return l, caps, nil
}

func (s *Service) save(ctx context.Context, l *model.GroceryList) error {
	l.UpdatedAt = s.now()
	if err := s.lists.Save(ctx, l); err != nil {
		return fmt.Errorf("save list %s: %w", l.ID, err)
	}
	return nil
}

type ListDraft struct {
	Name        string
	Description string
	Type        string
	HouseholdID string
	TotalBudget float64
}

func (s *Service) Create(ctx context.Context, actor string, d ListDraft) (*model.GroceryList, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	if d.TotalBudget < 0 {
		return nil, apperr.Validation("total budget must not be negative")
	}
	listType, err := model.ParseListType(d.Type)
	if err != nil {
		return nil, apperr.Validation("%v", err)
	}
	householdID := strings.TrimSpace(d.HouseholdID)
	if err := s.checkHousehold(ctx, actor, householdID); err != nil {
		return nil, err
	}

	now := s.now()
	l := &model.GroceryList{
		ID:          uuid.NewString(),
		OwnerID:     actor,
		HouseholdID: householdID,
		Name:        name,
		Description: strings.TrimSpace(d.Description),
		Type:        listType,
		Status:      model.ListActive,
		TotalBudget: d.TotalBudget,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.lists.Create(ctx, l); err != nil {
		return nil, fmt.Errorf("create list: %w", err)
	}
	s.logger.Info("list created", "list_id", l.ID, "owner", actor, "household_id", householdID, "type", listType)
	return l, nil
}

// checkHousehold requires actor to belong to householdID. Blank passes.
func (s *Service) checkHousehold(ctx context.Context, actor, householdID string) error {
	if householdID == "" {
		return nil
	}
	h, err := s.households.GetByID(ctx, householdID)
	if err != nil {
		return err
	}
	if h == nil {
		return apperr.NotFound("household %s not found", householdID)
	}
	if !h.Belongs(actor) {
		return apperr.Forbidden("you are not a member of this household")
	}
	return nil
}

// Get returns the list and what actor may do with it.
func (s *Service) Get(ctx context.Context, actor, id string) (*model.GroceryList, access.Capabilities, error) {
	return s.load(ctx, actor, id, access.View)
}

// ListOwned returns actor's lists narrowed by f. With f.HouseholdID set it
// returns every list in that household actor can view, whoever owns it.
func (s *Service) ListOwned(ctx context.Context, actor string, f model.ListFilter) ([]*model.GroceryList, error) {
	if f.HouseholdID == "" {
		return s.lists.ListOwned(ctx, actor, f)
	}
	h, err := s.households.GetByID(ctx, f.HouseholdID)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, apperr.NotFound("household %s not found", f.HouseholdID)
	}
	lists, err := s.lists.ListByHousehold(ctx, f.HouseholdID, f)
	if err != nil {
		return nil, err
	}
	visible := lists[:0]
	for _, l := range lists {
		if access.Evaluate(actor, access.ListResource(l), h).Allows(access.View) {
			visible = append(visible, l)
		}
	}
	return visible, nil
}

// ListTemplates returns actor's template lists by name.
func (s *Service) ListTemplates(ctx context.Context, actor string) ([]*model.GroceryList, error) {
	lists, err := s.lists.ListOwned(ctx, actor, model.ListFilter{Type: model.ListTemplate})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(lists, func(i, j int) bool { return lists[i].Name < lists[j].Name })
	return lists, nil
}

type FromTemplateDraft struct {
	Name        string
	HouseholdID string
}

// CreateFromTemplate copies a template the actor owns into a new active list.
// Items are unchecked and re-attributed to actor.
func (s *Service) CreateFromTemplate(ctx context.Context, actor, templateID string, d FromTemplateDraft) (*model.GroceryList, error) {
	tmpl, err := s.lists.GetByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if tmpl == nil || tmpl.Type != model.ListTemplate {
		return nil, apperr.NotFound("template %s not found", templateID)
	}
	if tmpl.OwnerID != actor {
		s.metrics.AccessDenied(access.KindList.String(), "use_template")
		return nil, apperr.Forbidden("only the owner can use this template")
	}

	householdID := strings.TrimSpace(d.HouseholdID)
	if householdID == "" {
		householdID = tmpl.HouseholdID
	}
	if err := s.checkHousehold(ctx, actor, householdID); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(d.Name)
	if name == "" {
		name = tmpl.Name + " (Copy)"
	}

	now := s.now()
	l := &model.GroceryList{
		ID:          uuid.NewString(),
		OwnerID:     actor,
		HouseholdID: householdID,
		Name:        name,
		Description: tmpl.Description,
		Type:        model.ListRegular,
		Status:      model.ListActive,
		TotalBudget: tmpl.TotalBudget,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, src := range tmpl.Items.All() {
		item := *src
		item.ID = uuid.NewString()
		item.Check = nil
		item.AddedBy = actor
		item.AddedAt = now
		l.Items.Put(item.ID, &item)
	}
	l.RecomputeTotal()
	if err := s.lists.Create(ctx, l); err != nil {
		return nil, fmt.Errorf("create list from template: %w", err)
	}
	s.logger.Info("list created from template", "list_id", l.ID, "template_id", templateID, "owner", actor, "items", l.Items.Len())
	return l, nil
}

func (s *Service) ListShared(ctx context.Context, actor string) ([]*model.GroceryList, error) {
	return s.lists.ListSharedWith(ctx, actor)
}

type ListPatch struct {
	Name        *string
	Description *string
	TotalBudget *float64
}

func (s *Service) Update(ctx context.Context, actor, id string, p ListPatch) (*model.GroceryList, error) {
	l, _, err := s.load(ctx, actor, id, access.Edit)
	if err != nil {
		return nil, err
	}
	name, description, budget := l.Name, l.Description, l.TotalBudget
	if p.Name != nil {
		name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		description = strings.TrimSpace(*p.Description)
	}
	if p.TotalBudget != nil {
		budget = *p.TotalBudget
	}
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	if budget < 0 {
		return nil, apperr.Validation("total budget must not be negative")
	}
	l.Name, l.Description, l.TotalBudget = name, description, budget
	if err := s.save(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *Service) Delete(ctx context.Context, actor, id string) error {
	if _, _, err := s.load(ctx, actor, id, access.Delete); err != nil {
		return err
	}
	if err := s.lists.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("list deleted", "list_id", id, "actor", actor)
	return nil
}

func (s *Service) SetStatus(ctx context.Context, actor, id, status string) (*model.GroceryList, error) {
	st, err := model.ParseListStatus(status)
	if err != nil {
		return nil, apperr.Validation("%v", err)
	}
	l, _, err := s.load(ctx, actor, id, access.Edit)
	if err != nil {
		return nil, err
	}
	l.Status = st
	if st == model.ListCompleted {
		now := s.now()
		l.CompletedAt = &now
	} else {
		l.CompletedAt = nil
	}
	if err := s.save(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// --- Items ---

func (s *Service) AddItem(ctx context.Context, actor, id string, d ItemDraft) (*model.GroceryList, *model.GroceryListItem, error) {
	item, err := NewItem(d, actor, s.now())
	if err != nil {
		return nil, nil, err
	}
	l, _, err := s.load(ctx, actor, id, access.Edit)
	if err != nil {
		return nil, nil, err
	}
	l.Items.Put(item.ID, item)
	l.RecomputeTotal()
	if err := s.save(ctx, l); err != nil {
		return nil, nil, err
	}
	return l, item, nil
}

// AddIfMissing appends d unless the list already holds a matching entry (see
// FindMatch). It reports whether an entry was added. Access to the list is
// not checked here: the caller authorized the target when it was configured,
// and actor is only recorded as AddedBy.
func (s *Service) AddIfMissing(ctx context.Context, actor, id string, d ItemDraft) (bool, error) {
	l, err := s.lists.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if l == nil {
		return false, apperr.NotFound("list %s not found", id)
	}
	if _, ok := FindMatch(l, d.ProductID, d.Name); ok {
		return false, nil
	}
	item, err := NewItem(d, actor, s.now())
	if err != nil {
		return false, err
	}
	l.Items.Put(item.ID, item)
	l.RecomputeTotal()
	if err := s.save(ctx, l); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) UpdateItem(ctx context.Context, actor, id, itemID string, p ItemPatch) (*model.GroceryList, error) {
	l, _, err := s.load(ctx, actor, id, access.Edit)
	if err != nil {
		return nil, err
	}
	item, ok := l.Items.Get(itemID)
	if !ok {
		return nil, apperr.NotFound("item %s not found", itemID)
	}
	next, err := p.Apply(item)
	if err != nil {
		return nil, err
	}
	l.Items.Put(itemID, next)
	l.RecomputeTotal()
	if err := s.save(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *Service) RemoveItem(ctx context.Context, actor, id, itemID string) (*model.GroceryList, error) {
	l, _, err := s.load(ctx, actor, id, access.Edit)
	if err != nil {
		return nil, err
	}
	if !l.Items.Remove(itemID) {
		return nil, apperr.NotFound("item %s not found", itemID)
	}
	l.RecomputeTotal()
	if err := s.save(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// SetChecked marks or clears an item. The checker and time are recorded
// together and cleared together.
func (s *Service) SetChecked(ctx context.Context, actor, id, itemID string, checked bool) (*model.GroceryList, error) {
	l, _, err := s.load(ctx, actor, id, access.Edit)
	if err != nil {
		return nil, err
	}
	item, ok := l.Items.Get(itemID)
	if !ok {
		return nil, apperr.NotFound("item %s not found", itemID)
	}
	if checked {
		item.Check = &model.CheckMark{By: actor, At: s.now()}
	} else {
		item.Check = nil
	}
	if err := s.save(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// ClearChecked removes every checked item and returns how many went.
func (s *Service) ClearChecked(ctx context.Context, actor, id string) (int, error) {
	l, _, err := s.load(ctx, actor, id, access.Edit)
	if err != nil {
		return 0, err
	}
	n := l.Items.RemoveFunc(func(item *model.GroceryListItem) bool { return item.Checked() })
	if n == 0 {
		return 0, nil
	}
	l.RecomputeTotal()
	if err := s.save(ctx, l); err != nil {
		return 0, err
	}
	return n, nil
}

// --- Sharing ---

func (s *Service) Share(ctx context.Context, actor, id, userID, permission string) (*model.GroceryList, error) {
	perm, err := model.ParseSharePermission(permission)
	if err != nil {
		return nil, apperr.Validation("permission must be view or edit")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperr.Validation("user_id is required")
	}
	l, _, err := s.load(ctx, actor, id, access.Share)
	if err != nil {
		return nil, err
	}
	if userID == l.OwnerID {
		return nil, apperr.Validation("cannot share a list with its owner")
	}
	if _, ok := l.Share(userID); ok {
		return nil, apperr.Conflict("list is already shared with %s", userID)
	}
	l.Shares = append(l.Shares, model.ShareGrant{UserID: userID, Permission: perm, SharedAt: s.now()})
	if err := s.save(ctx, l); err != nil {
		return nil, err
	}
	s.logger.Info("list shared", "list_id", id, "user_id", userID, "permission", perm)
	return l, nil
}

func (s *Service) UpdateShare(ctx context.Context, actor, id, userID, permission string) (*model.GroceryList, error) {
	perm, err := model.ParseSharePermission(permission)
	if err != nil {
		return nil, apperr.Validation("permission must be view or edit")
	}
	l, _, err := s.load(ctx, actor, id, access.Share)
	if err != nil {
		return nil, err
	}
	grant, ok := l.Share(userID)
	if !ok {
		return nil, apperr.NotFound("list is not shared with %s", userID)
	}
	grant.Permission = perm
	if err := s.save(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *Service) Unshare(ctx context.Context, actor, id, userID string) (*model.GroceryList, error) {
	l, _, err := s.load(ctx, actor, id, access.Share)
	if err != nil {
		return nil, err
	}
	kept := l.Shares[:0]
	found := false
	for _, g := range l.Shares {
		if g.UserID == userID {
			found = true
			continue
		}
		kept = append(kept, g)
	}
	if !found {
		return nil, apperr.NotFound("list is not shared with %s", userID)
	}
	l.Shares = kept
	if err := s.save(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}
