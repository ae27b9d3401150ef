package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dukerupert/pantry/internal/database"
	"github.com/dukerupert/pantry/internal/model"
)

type GroceryStore struct {
	db *database.DB
}

func NewGroceryStore(db *database.DB) *GroceryStore {
	return &GroceryStore{db: db}
}

// --- List methods ---

const listCols = `id, owner_id, household_id, name, description, list_type, status, total_budget, current_total,
	completed_at, created_at, updated_at`

func scanList(scanner interface{ Scan(...any) error }) (*model.GroceryList, error) {
	var l model.GroceryList
	var householdID sql.NullString
	var listType, status string
	var completedAt sql.NullTime
	err := scanner.Scan(
		&l.ID, &l.OwnerID, &householdID, &l.Name, &l.Description, &listType, &status,
		&l.TotalBudget, &l.CurrentTotal, &completedAt, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.HouseholdID = householdID.String
	l.Type = model.ListType(listType)
	l.Status = model.ListStatus(status)
	if completedAt.Valid {
		l.CompletedAt = &completedAt.Time
	}
	return &l, nil
}

// GetByID loads a list with its items and shares, or (nil, nil) if absent.
func (s *GroceryStore) GetByID(ctx context.Context, id string) (*model.GroceryList, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+listCols+` FROM grocery_lists WHERE id = ?`, id)
	l, err := scanList(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get list: %w", err)
	}
	if err := s.loadChildren(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// ListOwned returns lists owned by userID that match f, newest first.
func (s *GroceryStore) ListOwned(ctx context.Context, userID string, f model.ListFilter) ([]*model.GroceryList, error) {
	where, args := filterClause([]string{`owner_id = ?`}, []any{userID}, f)
	return s.listWhere(ctx, where, args...)
}

// ListByHousehold returns every list attached to householdID that matches f,
// whoever owns it. Callers decide which of them the actor may see.
func (s *GroceryStore) ListByHousehold(ctx context.Context, householdID string, f model.ListFilter) ([]*model.GroceryList, error) {
	f.HouseholdID = ""
	where, args := filterClause([]string{`household_id = ?`}, []any{householdID}, f)
	return s.listWhere(ctx, where, args...)
}

func filterClause(conds []string, args []any, f model.ListFilter) (string, []any) {
	if f.Status != "" {
		conds = append(conds, `status = ?`)
		args = append(args, string(f.Status))
	}
	if f.Type != "" {
		conds = append(conds, `list_type = ?`)
		args = append(args, string(f.Type))
	}
	if f.HouseholdID != "" {
		conds = append(conds, `household_id = ?`)
		args = append(args, f.HouseholdID)
	}
	return strings.Join(conds, ` AND `), args
}

// ListSharedWith returns lists with a direct share grant for userID.
func (s *GroceryStore) ListSharedWith(ctx context.Context, userID string) ([]*model.GroceryList, error) {
	return s.listWhere(ctx, `id IN (SELECT list_id FROM grocery_list_shares WHERE user_id = ?)`, userID)
}

func (s *GroceryStore) listWhere(ctx context.Context, where string, args ...any) ([]*model.GroceryList, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+listCols+` FROM grocery_lists WHERE `+where+` ORDER BY updated_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}
	var lists []*model.GroceryList
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan list: %w", err)
		}
		lists = append(lists, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}

	for _, l := range lists {
		if err := s.loadChildren(ctx, l); err != nil {
			return nil, err
		}
	}
	return lists, nil
}

// --- Item and share methods ---

const listItemCols = `id, product_id, name, category, quantity, unit, price, notes, checked_by, checked_at, added_by, added_at`

func scanListItem(scanner interface{ Scan(...any) error }) (*model.GroceryListItem, error) {
	var item model.GroceryListItem
	var productID, checkedBy sql.NullString
	var checkedAt sql.NullTime
	err := scanner.Scan(
		&item.ID, &productID, &item.Name, &item.Category, &item.Quantity, &item.Unit,
		&item.Price, &item.Notes, &checkedBy, &checkedAt, &item.AddedBy, &item.AddedAt,
	)
	if err != nil {
		return nil, err
	}
	item.ProductID = productID.String
	if checkedBy.Valid && checkedAt.Valid {
		item.Check = &model.CheckMark{By: checkedBy.String, At: checkedAt.Time}
	}
	return &item, nil
}

const shareCols = `user_id, permission, shared_at`

func scanShare(scanner interface{ Scan(...any) error }) (*model.ShareGrant, error) {
	var g model.ShareGrant
	var perm string
	if err := scanner.Scan(&g.UserID, &perm, &g.SharedAt); err != nil {
		return nil, err
	}
	p, err := model.ParseSharePermission(perm)
	if err != nil {
		return nil, err
	}
	g.Permission = p
	return &g, nil
}

func (s *GroceryStore) loadChildren(ctx context.Context, l *model.GroceryList) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+listItemCols+` FROM grocery_list_items WHERE list_id = ? ORDER BY position ASC`, l.ID)
	if err != nil {
		return fmt.Errorf("list items: %w", err)
	}
	for rows.Next() {
		item, err := scanListItem(rows)
		if err != nil {
			rows.Close()
			return fmt.Errorf("scan item: %w", err)
		}
		l.Items.Put(item.ID, item)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("list items: %w", err)
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT `+shareCols+` FROM grocery_list_shares WHERE list_id = ? ORDER BY shared_at ASC`, l.ID)
	if err != nil {
		return fmt.Errorf("list shares: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		g, err := scanShare(rows)
		if err != nil {
			return fmt.Errorf("scan share: %w", err)
		}
		l.Shares = append(l.Shares, *g)
	}
	return rows.Err()
}

// Create inserts a new list with any items and shares it already holds.
func (s *GroceryStore) Create(ctx context.Context, l *model.GroceryList) error {
	return s.db.WithTx(ctx, func(tx *database.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO grocery_lists (`+listCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			l.ID, l.OwnerID, nullString(l.HouseholdID), l.Name, l.Description, string(listTypeOrRegular(l.Type)), string(l.Status),
			l.TotalBudget, l.CurrentTotal, nullTime(l.CompletedAt), l.CreatedAt, l.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert list: %w", err)
		}
		return writeListChildren(ctx, tx, l)
	})
}

// Save writes the list row and replaces its items and shares in one
// transaction.
func (s *GroceryStore) Save(ctx context.Context, l *model.GroceryList) error {
	return s.db.WithTx(ctx, func(tx *database.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE grocery_lists SET name = ?, description = ?, list_type = ?, status = ?, total_budget = ?,
				current_total = ?, completed_at = ?, updated_at = ?
			 WHERE id = ?`,
			l.Name, l.Description, string(listTypeOrRegular(l.Type)), string(l.Status), l.TotalBudget, l.CurrentTotal,
			nullTime(l.CompletedAt), l.UpdatedAt, l.ID,
		)
		if err != nil {
			return fmt.Errorf("update list: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("update list %s: %w", l.ID, sql.ErrNoRows)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM grocery_list_items WHERE list_id = ?`, l.ID); err != nil {
			return fmt.Errorf("clear items: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM grocery_list_shares WHERE list_id = ?`, l.ID); err != nil {
			return fmt.Errorf("clear shares: %w", err)
		}
		return writeListChildren(ctx, tx, l)
	})
}

func (s *GroceryStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM grocery_lists WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete list: %w", err)
	}
	return nil
}

func listTypeOrRegular(t model.ListType) model.ListType {
	if t == "" {
		return model.ListRegular
	}
	return t
}

func writeListChildren(ctx context.Context, tx *database.Tx, l *model.GroceryList) error {
	for i, item := range l.Items.All() {
		var checkedBy sql.NullString
		var checkedAt sql.NullTime
		if item.Check != nil {
			checkedBy = sql.NullString{String: item.Check.By, Valid: true}
			checkedAt = sql.NullTime{Time: item.Check.At, Valid: true}
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO grocery_list_items (list_id, position, `+listItemCols+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			l.ID, i, item.ID, nullString(item.ProductID), item.Name, item.Category, item.Quantity, item.Unit,
			item.Price, item.Notes, checkedBy, checkedAt, item.AddedBy, item.AddedAt,
		)
		if err != nil {
			return fmt.Errorf("insert item: %w", err)
		}
	}
	for _, g := range l.Shares {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO grocery_list_shares (list_id, `+shareCols+`) VALUES (?, ?, ?, ?)`,
			l.ID, g.UserID, string(g.Permission), g.SharedAt,
		)
		if err != nil {
			return fmt.Errorf("insert share: %w", err)
		}
	}
	return nil
}
