// Package moderation holds administrator-only operations. They bypass item
// ownership checks; callers must have verified the ADMIN role.
package moderation

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/erazemk/najdeno/internal/items"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/store"
)

// Service performs moderation on users and items.
type Service struct {
	DB    *sql.DB
	Items *items.Service
}

// ListUsers returns every account.
func (s *Service) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := store.ListUsers(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

// ToggleBlock flips userID's blocked flag. The user's items and claims are
// left alone. Admins cannot block themselves.
func (s *Service) ToggleBlock(ctx context.Context, adminID, userID int64) (*model.User, error) {
	if adminID == userID {
		return nil, fmt.Errorf("cannot block yourself: %w", model.ErrInvalidOperation)
	}

	u, err := store.ToggleUserBlocked(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user not found: %w", model.ErrNotFound)
	}

	slog.Info("user block toggled", "user", userID, "blocked", u.IsBlocked, "admin", adminID)
	return u, nil
}

// DeleteItem removes any item regardless of owner.
func (s *Service) DeleteItem(ctx context.Context, adminID, itemID int64) error {
	if err := s.Items.Remove(ctx, itemID); err != nil {
		return err
	}
	slog.Info("item removed by admin", "item", itemID, "admin", adminID)
	return nil
}

// ToggleSuspicious flips an item's suspicious flag.
func (s *Service) ToggleSuspicious(ctx context.Context, itemID int64) (*model.Item, error) {
	return s.Items.ToggleSuspicious(ctx, itemID)
}
