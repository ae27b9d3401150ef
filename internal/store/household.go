package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/pantry/internal/database"
	"github.com/dukerupert/pantry/internal/model"
)

type HouseholdStore struct {
	db *database.DB
}

func NewHouseholdStore(db *database.DB) *HouseholdStore {
	return &HouseholdStore{db: db}
}

const householdCols = `id, name, admin_id, created_at, updated_at`

func scanHousehold(scanner interface{ Scan(...any) error }) (*model.Household, error) {
	var h model.Household
	if err := scanner.Scan(&h.ID, &h.Name, &h.AdminID, &h.CreatedAt, &h.UpdatedAt); err != nil {
		return nil, err
	}
	return &h, nil
}

const memberCols = `user_id, role, permissions, joined_at`

func scanMember(scanner interface{ Scan(...any) error }) (*model.Member, error) {
	var m model.Member
	var role, perms string
	if err := scanner.Scan(&m.UserID, &role, &perms, &m.JoinedAt); err != nil {
		return nil, err
	}
	r, err := model.ParseRole(role)
	if err != nil {
		return nil, err
	}
	set, err := model.ParsePermissionString(perms)
	if err != nil {
		return nil, err
	}
	m.Role = r
	m.Permissions = set
	return &m, nil
}

// Create inserts a new household with its members.
func (s *HouseholdStore) Create(ctx context.Context, h *model.Household) error {
	return s.db.WithTx(ctx, func(tx *database.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO households (`+householdCols+`) VALUES (?, ?, ?, ?, ?)`,
			h.ID, h.Name, h.AdminID, h.CreatedAt, h.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert household: %w", err)
		}
		return insertMembers(ctx, tx, h)
	})
}

// GetByID returns the household with members, or (nil, nil) if absent.
func (s *HouseholdStore) GetByID(ctx context.Context, id string) (*model.Household, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+householdCols+` FROM households WHERE id = ?`, id)
	h, err := scanHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+memberCols+` FROM household_members WHERE household_id = ? ORDER BY position ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		h.Members = append(h.Members, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return h, nil
}

// ListForUser returns households where userID is the admin or a member.
func (s *HouseholdStore) ListForUser(ctx context.Context, userID string) ([]*model.Household, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM households WHERE admin_id = ?
		 UNION
		 SELECT household_id FROM household_members WHERE user_id = ?`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list households: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan household id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list households: %w", err)
	}

	households := make([]*model.Household, 0, len(ids))
	for _, id := range ids {
		h, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if h != nil {
			households = append(households, h)
		}
	}
	return households, nil
}

// Save writes the household row and replaces its member set in one
// transaction.
func (s *HouseholdStore) Save(ctx context.Context, h *model.Household) error {
	return s.db.WithTx(ctx, func(tx *database.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE households SET name = ?, admin_id = ?, updated_at = ? WHERE id = ?`,
			h.Name, h.AdminID, h.UpdatedAt, h.ID,
		)
		if err != nil {
			return fmt.Errorf("update household: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("update household %s: %w", h.ID, sql.ErrNoRows)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM household_members WHERE household_id = ?`, h.ID); err != nil {
			return fmt.Errorf("clear members: %w", err)
		}
		return insertMembers(ctx, tx, h)
	})
}

func insertMembers(ctx context.Context, tx *database.Tx, h *model.Household) error {
	for i, m := range h.Members {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO household_members (household_id, `+memberCols+`, position) VALUES (?, ?, ?, ?, ?, ?)`,
			h.ID, m.UserID, string(m.Role), m.Permissions.String(), m.JoinedAt, i,
		)
		if err != nil {
			return fmt.Errorf("insert member: %w", err)
		}
	}
	return nil
}
