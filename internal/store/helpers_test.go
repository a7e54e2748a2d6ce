package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/erazemk/najdeno/internal/model"
)

func mustUser(t *testing.T, database *sql.DB, email string) *model.User {
	t.Helper()
	u, err := CreateUser(context.Background(), database, email, email, "hash", model.RoleMember)
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", email, err)
	}
	return u
}

func mustItem(t *testing.T, database *sql.DB, owner int64, typ model.ItemType, title, category string, questions ...string) *model.Item {
	t.Helper()
	item, err := CreateItem(context.Background(), database, &model.Item{
		Type:                  typ,
		Title:                 title,
		Description:           title + " description",
		Category:              category,
		Location:              "Ljubljana",
		Date:                  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		VerificationQuestions: questions,
		UserID:                owner,
	})
	if err != nil {
		t.Fatalf("CreateItem(%s): %v", title, err)
	}
	return item
}
