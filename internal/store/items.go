package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/najdeno/internal/model"
)

const itemColumns = `i.id, i.type, i.title, i.description, i.category, i.location, i.date,
	i.images, i.status, i.verification_questions, i.is_suspicious, i.user_id, i.created_at, i.updated_at`

func scanItem(row interface{ Scan(...any) error }, item *model.Item, extra ...any) error {
	var images, questions string
	dest := []any{&item.ID, &item.Type, &item.Title, &item.Description, &item.Category, &item.Location, &item.Date,
		&images, &item.Status, &questions, &item.IsSuspicious, &item.UserID, &item.CreatedAt, &item.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return err
	}

	var err error
	if item.Images, err = decodeJSON[string](images); err != nil {
		return err
	}
	if item.VerificationQuestions, err = decodeJSON[string](questions); err != nil {
		return err
	}
	return nil
}

// CreateItem inserts a new OPEN item owned by item.UserID.
func CreateItem(ctx context.Context, db *sql.DB, item *model.Item) (*model.Item, error) {
	images, err := encodeJSON(item.Images)
	if err != nil {
		return nil, err
	}
	questions, err := encodeJSON(item.VerificationQuestions)
	if err != nil {
		return nil, err
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO items (type, title, description, category, location, date, images, status, verification_questions, user_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.Type, item.Title, item.Description, item.Category, item.Location, item.Date,
		images, model.ItemStatusOpen, questions, item.UserID,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	item := &model.Item{}
	err := scanItem(db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items i WHERE i.id = ?`, id,
	), item)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// GetItemWithOwner returns an item with its reporter's name and e-mail joined.
func GetItemWithOwner(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	item := &model.Item{}
	owner := &model.PublicUser{}
	err := scanItem(db.QueryRowContext(ctx,
		`SELECT `+itemColumns+`, u.id, u.name, u.email
		 FROM items i
		 JOIN users u ON u.id = i.user_id
		 WHERE i.id = ?`, id,
	), item, &owner.ID, &owner.Name, &owner.Email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	item.User = owner
	return item, nil
}

// ItemFilter narrows ListItems. Zero values mean "any".
type ItemFilter struct {
	Keyword  string
	Type     model.ItemType
	Status   model.ItemStatus
	Category string
	UserID   int64
	Limit    int
	Offset   int
}

func (f ItemFilter) where() (string, []any) {
	clauses := []string{"1=1"}
	var args []any

	if f.Keyword != "" {
		clauses = append(clauses, `i.title LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(f.Keyword)+"%")
	}
	if f.Type != "" {
		clauses = append(clauses, "i.type = ?")
		args = append(args, f.Type)
	}
	if f.Status != "" {
		clauses = append(clauses, "i.status = ?")
		args = append(args, f.Status)
	}
	if f.Category != "" {
		clauses = append(clauses, "i.category = ?")
		args = append(args, f.Category)
	}
	if f.UserID > 0 {
		clauses = append(clauses, "i.user_id = ?")
		args = append(args, f.UserID)
	}
	return strings.Join(clauses, " AND "), args
}

// ListItems returns items matching the filter, newest first, together with
// the total number of matching items (ignoring Limit/Offset).
func ListItems(ctx context.Context, db *sql.DB, f ItemFilter) ([]model.Item, int, error) {
	where, args := f.where()

	var total int
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM items i WHERE `+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting items: %w", err)
	}

	query := `SELECT ` + itemColumns + ` FROM items i WHERE ` + where + ` ORDER BY i.created_at DESC, i.id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var item model.Item
		if err := scanItem(rows, &item); err != nil {
			return nil, 0, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, item)
	}
	return items, total, rows.Err()
}

// ListMatchCandidates returns OPEN items of the given type and category.
// Relevance scoring is left to the caller.
func ListMatchCandidates(ctx context.Context, db *sql.DB, typ model.ItemType, category string, excludeID int64) ([]model.Item, error) {
	items, _, err := ListItems(ctx, db, ItemFilter{
		Type:     typ,
		Status:   model.ItemStatusOpen,
		Category: category,
	})
	if err != nil {
		return nil, fmt.Errorf("listing match candidates: %w", err)
	}

	out := items[:0]
	for _, it := range items {
		if it.ID != excludeID {
			out = append(out, it)
		}
	}
	return out, nil
}

// UpdateItem writes an item's mutable fields. Type and owner are never
// changed. The status is written only when from is non-empty, and only if the
// stored status still equals from; otherwise model.ErrConflict is returned
// and nothing is written.
func UpdateItem(ctx context.Context, db *sql.DB, item *model.Item, from model.ItemStatus) error {
	images, err := encodeJSON(item.Images)
	if err != nil {
		return err
	}
	questions, err := encodeJSON(item.VerificationQuestions)
	if err != nil {
		return err
	}

	query := `UPDATE items SET title = ?, description = ?, category = ?, location = ?, date = ?,
	        images = ?, verification_questions = ?, updated_at = CURRENT_TIMESTAMP`
	args := []any{item.Title, item.Description, item.Category, item.Location, item.Date, images, questions}
	if from != "" {
		query += `, status = ?`
		args = append(args, item.Status)
	}
	query += ` WHERE id = ?`
	args = append(args, item.ID)
	if from != "" {
		query += ` AND status = ?`
		args = append(args, from)
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	if from == "" {
		return nil
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("item status changed since it was read: %w", model.ErrConflict)
	}
	return nil
}

// ToggleItemSuspicious flips the moderation flag and returns the updated
// item, or nil if it does not exist.
func ToggleItemSuspicious(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET is_suspicious = NOT is_suspicious, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("toggling item suspicious flag: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, nil
	}
	return GetItem(ctx, db, id)
}

// DeleteItem hard-deletes an item. Its claims go with it (ON DELETE CASCADE).
// Returns false if there was no such item.
func DeleteItem(ctx context.Context, db *sql.DB, id int64) (bool, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting item: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting item: %w", err)
	}
	return n > 0, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
