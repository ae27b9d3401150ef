package model

import (
	"fmt"
	"strings"
	"time"
)

type ListStatus string

const (
	ListActive    ListStatus = "active"
	ListShopping  ListStatus = "shopping"
	ListCompleted ListStatus = "completed"
	ListArchived  ListStatus = "archived"
)

func ParseListStatus(s string) (ListStatus, error) {
	switch st := ListStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case ListActive, ListShopping, ListCompleted, ListArchived:
		return st, nil
	}
	return "", fmt.Errorf("unknown list status %q", s)
}

// ListType separates shopping lists from reusable templates. Smart and
// recipe-based lists behave like regular lists.
type ListType string

const (
	ListRegular     ListType = "regular"
	ListTemplate    ListType = "template"
	ListSmart       ListType = "smart"
	ListRecipeBased ListType = "recipe-based"
)

// ParseListType maps s onto a list type. Blank means regular.
func ParseListType(s string) (ListType, error) {
	switch t := ListType(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return ListRegular, nil
	case ListRegular, ListTemplate, ListSmart, ListRecipeBased:
		return t, nil
	}
	return "", fmt.Errorf("unknown list type %q", s)
}

// ListFilter narrows list queries. Zero fields match everything.
type ListFilter struct {
	Status      ListStatus
	Type        ListType
	HouseholdID string
}

type GroceryList struct {
	ID           string                 `json:"id"`
	OwnerID      string                 `json:"owner_id"`
	HouseholdID  string                 `json:"household_id,omitempty"`
	Name         string                 `json:"name"`
	Description  string                 `json:"description"`
	Type         ListType               `json:"type"`
	Items        Arena[GroceryListItem] `json:"items"`
	Shares       []ShareGrant           `json:"shares"`
	Status       ListStatus             `json:"status"`
	TotalBudget  float64                `json:"total_budget"`
	CurrentTotal float64                `json:"current_total"`
	CompletedAt  *time.Time             `json:"completed_at,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// Share returns the grant for userID, if any.
func (l *GroceryList) Share(userID string) (*ShareGrant, bool) {
	for i := range l.Shares {
		if l.Shares[i].UserID == userID {
			return &l.Shares[i], true
		}
	}
	return nil, false
}

// RecomputeTotal sets CurrentTotal to the sum of price × quantity.
func (l *GroceryList) RecomputeTotal() {
	var total float64
	for _, item := range l.Items.All() {
		total += item.Price * item.Quantity
	}
	l.CurrentTotal = total
}

// CheckMark records who checked an item and when. Both are set or neither.
type CheckMark struct {
	By string    `json:"by"`
	At time.Time `json:"at"`
}

type GroceryListItem struct {
	ID        string     `json:"id"`
	ProductID string     `json:"product_id,omitempty"`
	Name      string     `json:"name"`
	Category  string     `json:"category"`
	Quantity  float64    `json:"quantity"`
	Unit      string     `json:"unit"`
	Price     float64    `json:"price"`
	Notes     string     `json:"notes"`
	Check     *CheckMark `json:"check,omitempty"`
	AddedBy   string     `json:"added_by"`
	AddedAt   time.Time  `json:"added_at"`
}

func (i *GroceryListItem) Checked() bool { return i.Check != nil }

type ShareGrant struct {
	UserID     string          `json:"user_id"`
	Permission SharePermission `json:"permission"`
	SharedAt   time.Time       `json:"shared_at"`
}
