package model

import (
	"errors"
	"time"
)

var (
	ErrMemberIsAdmin  = errors.New("user is the household admin")
	ErrAlreadyMember  = errors.New("user is already a member")
	ErrMemberNotFound = errors.New("member not found")
)

type Household struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	AdminID   string    `json:"admin_id"`
	Members   []Member  `json:"members"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Member struct {
	UserID      string        `json:"user_id"`
	Role        Role          `json:"role"`
	Permissions PermissionSet `json:"permissions"`
	JoinedAt    time.Time     `json:"joined_at"`
}

// Member returns the membership record for userID, if any.
func (h *Household) Member(userID string) (*Member, bool) {
	for i := range h.Members {
		if h.Members[i].UserID == userID {
			return &h.Members[i], true
		}
	}
	return nil, false
}

func (h *Household) IsAdmin(userID string) bool {
	return userID != "" && h.AdminID == userID
}

// Belongs reports whether userID is the admin or a member.
func (h *Household) Belongs(userID string) bool {
	if h.IsAdmin(userID) {
		return true
	}
	_, ok := h.Member(userID)
	return ok
}

// AddMember appends m, keeping the admin out of Members and each user unique.
func (h *Household) AddMember(m Member) error {
	if h.IsAdmin(m.UserID) {
		return ErrMemberIsAdmin
	}
	if _, ok := h.Member(m.UserID); ok {
		return ErrAlreadyMember
	}
	h.Members = append(h.Members, m)
	return nil
}

func (h *Household) RemoveMember(userID string) error {
	for i := range h.Members {
		if h.Members[i].UserID == userID {
			h.Members = append(h.Members[:i], h.Members[i+1:]...)
			return nil
		}
	}
	return ErrMemberNotFound
}
