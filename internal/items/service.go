// Package items manages lost and found reports on behalf of their owners and
// administrators.
package items

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/store"
)

// PageSize is the number of items per listing page.
const PageSize = 10

// Notifier delivers a short message to a user's live connections.
type Notifier interface {
	Notify(userID int64, message string) int
}

// Invalidator is told whenever an item is written.
type Invalidator interface {
	Invalidate()
}

// Requester is the authenticated caller of a mutating operation.
type Requester struct {
	ID   int64
	Role model.Role
}

// CanModify reports whether the requester may edit or delete item.
func (r Requester) CanModify(item *model.Item) bool {
	return item.OwnedBy(r.ID) || model.RoleAtLeast(r.Role, model.RoleAdmin)
}

// Service implements item CRUD. Notifier and Matching may be nil.
type Service struct {
	DB       *sql.DB
	Notifier Notifier
	Matching Invalidator
}

// Input holds the fields of a new item.
type Input struct {
	Type                  string   `json:"type"`
	Title                 string   `json:"title"`
	Description           string   `json:"description"`
	Category              string   `json:"category"`
	Location              string   `json:"location"`
	Date                  string   `json:"date"`
	Images                []string `json:"images"`
	VerificationQuestions []string `json:"verificationQuestions"`
}

// Patch holds a partial update. Empty strings and nil slices keep the
// current value.
type Patch struct {
	Type                  string   `json:"type"`
	Title                 string   `json:"title"`
	Description           string   `json:"description"`
	Category              string   `json:"category"`
	Location              string   `json:"location"`
	Date                  string   `json:"date"`
	Status                string   `json:"status"`
	Images                []string `json:"images"`
	VerificationQuestions []string `json:"verificationQuestions"`
}

// Query selects a page of items.
type Query struct {
	Keyword  string
	Page     int
	Type     string
	Status   string
	Category string
}

// Page is one page of a listing.
type Page struct {
	Items []model.Item `json:"items"`
	Page  int          `json:"page"`
	Pages int          `json:"pages"`
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), model.ErrInvalidOperation)
}

// ParseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Time{}, invalid("invalid date %q", s)
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Create stores a new OPEN item owned by ownerID.
func (s *Service) Create(ctx context.Context, ownerID int64, in Input) (*model.Item, error) {
	typ, err := model.ParseItemType(strings.ToUpper(strings.TrimSpace(in.Type)))
	if err != nil {
		return nil, invalid("%v", err)
	}

	item := &model.Item{
		Type:        typ,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Location:    strings.TrimSpace(in.Location),
		Images:      cleanList(in.Images),
		UserID:      ownerID,
	}
	for _, f := range []struct{ name, value string }{
		{"title", item.Title},
		{"description", item.Description},
		{"category", item.Category},
		{"location", item.Location},
		{"date", in.Date},
	} {
		if strings.TrimSpace(f.value) == "" {
			return nil, invalid("%s required", f.name)
		}
	}
	if item.Date, err = ParseDate(in.Date); err != nil {
		return nil, err
	}
	// Only finders ask verification questions.
	if typ == model.ItemTypeFound {
		item.VerificationQuestions = cleanList(in.VerificationQuestions)
	}

	created, err := store.CreateItem(ctx, s.DB, item)
	if err != nil {
		return nil, err
	}
	s.invalidate()
	slog.Info("item created", "item", created.ID, "type", created.Type, "user", ownerID)
	return created, nil
}

// Get returns an item with its owner's public fields.
func (s *Service) Get(ctx context.Context, id int64) (*model.Item, error) {
	item, err := store.GetItemWithOwner(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item not found: %w", model.ErrNotFound)
	}
	return item, nil
}

// List returns one page of items, newest first. Page numbers start at 1.
func (s *Service) List(ctx context.Context, q Query) (*Page, error) {
	f := store.ItemFilter{
		Keyword:  strings.TrimSpace(q.Keyword),
		Category: strings.TrimSpace(q.Category),
		Limit:    PageSize,
	}
	if q.Type != "" {
		typ, err := model.ParseItemType(strings.ToUpper(q.Type))
		if err != nil {
			return nil, invalid("%v", err)
		}
		f.Type = typ
	}
	if q.Status != "" {
		st, err := model.ParseItemStatus(strings.ToUpper(q.Status))
		if err != nil {
			return nil, invalid("%v", err)
		}
		f.Status = st
	}

	page := max(q.Page, 1)
	f.Offset = (page - 1) * PageSize

	items, total, err := store.ListItems(ctx, s.DB, f)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Item{}
	}
	return &Page{Items: items, Page: page, Pages: (total + PageSize - 1) / PageSize}, nil
}

// Mine returns every item reported by userID.
func (s *Service) Mine(ctx context.Context, userID int64) ([]model.Item, error) {
	items, _, err := store.ListItems(ctx, s.DB, store.ItemFilter{UserID: userID})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

// Update applies a partial update. Only the owner or an admin may update;
// the type and owner never change.
func (s *Service) Update(ctx context.Context, id int64, req Requester, p Patch) (*model.Item, error) {
	item, err := store.GetItem(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item not found: %w", model.ErrNotFound)
	}
	if !req.CanModify(item) {
		return nil, fmt.Errorf("not authorized to update this item: %w", model.ErrUnauthorized)
	}

	if p.Type != "" && model.ItemType(strings.ToUpper(p.Type)) != item.Type {
		return nil, invalid("item type cannot be changed")
	}
	for dst, v := range map[*string]string{
		&item.Title: p.Title, &item.Description: p.Description,
		&item.Category: p.Category, &item.Location: p.Location,
	} {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	if p.Date != "" {
		if item.Date, err = ParseDate(p.Date); err != nil {
			return nil, err
		}
	}
	if p.Images != nil {
		item.Images = cleanList(p.Images)
	}
	if p.VerificationQuestions != nil && item.Type == model.ItemTypeFound {
		item.VerificationQuestions = cleanList(p.VerificationQuestions)
	}
	// Status is only written when asked for, and then only over the status
	// read above, so a concurrent claim approval is never undone.
	var from model.ItemStatus
	if p.Status != "" {
		target, err := model.ParseItemStatus(strings.ToUpper(p.Status))
		if err != nil {
			return nil, invalid("%v", err)
		}
		from = item.Status
		if item.Status, err = model.NextItemStatus(item.Status, model.ItemActionEdit, target); err != nil {
			return nil, err
		}
	}

	if err := store.UpdateItem(ctx, s.DB, item, from); err != nil {
		return nil, err
	}
	s.invalidate()
	slog.Info("item updated", "item", id, "user", req.ID)
	return s.Get(ctx, id)
}

// Delete removes an item on behalf of its owner or an admin.
func (s *Service) Delete(ctx context.Context, id int64, req Requester) error {
	item, err := store.GetItem(ctx, s.DB, id)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("item not found: %w", model.ErrNotFound)
	}
	if !req.CanModify(item) {
		return fmt.Errorf("not authorized to delete this item: %w", model.ErrUnauthorized)
	}
	return s.Remove(ctx, id)
}

// Remove hard-deletes an item without any ownership check. Its claims are
// deleted with it and every claimant is told.
func (s *Service) Remove(ctx context.Context, id int64) error {
	item, err := store.GetItem(ctx, s.DB, id)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("item not found: %w", model.ErrNotFound)
	}

	claimants, err := store.ListClaimantIDs(ctx, s.DB, id)
	if err != nil {
		return err
	}

	deleted, err := store.DeleteItem(ctx, s.DB, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("item not found: %w", model.ErrNotFound)
	}
	s.invalidate()
	slog.Info("item deleted", "item", id, "claims", len(claimants))

	if s.Notifier != nil {
		msg := fmt.Sprintf("The item %q you claimed has been removed", item.Title)
		for _, uid := range claimants {
			s.Notifier.Notify(uid, msg)
		}
	}
	return nil
}

// ToggleSuspicious flips the moderation flag. Status and category are left
// as they are.
func (s *Service) ToggleSuspicious(ctx context.Context, id int64) (*model.Item, error) {
	item, err := store.ToggleItemSuspicious(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item not found: %w", model.ErrNotFound)
	}
	s.invalidate()
	slog.Info("item suspicious flag toggled", "item", id, "suspicious", item.IsSuspicious)
	return item, nil
}

func (s *Service) invalidate() {
	if s.Matching != nil {
		s.Matching.Invalidate()
	}
}
