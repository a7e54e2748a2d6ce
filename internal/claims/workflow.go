// Package claims implements the claim lifecycle: submission, listing and the
// owner's approve or reject decision.
package claims

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/store"
)

// Notifier delivers a short message to a user's live connections.
type Notifier interface {
	Notify(userID int64, message string) int
}

// Invalidator is told when an item's status may have changed.
type Invalidator interface {
	Invalidate()
}

// Workflow creates and transitions claims. Notifier and Matching may be nil.
type Workflow struct {
	DB       *sql.DB
	Notifier Notifier
	Matching Invalidator

	// RequireOpenItem rejects claims on FOUND items that are no longer OPEN.
	RequireOpenItem bool
}

// Submission is a claimant's request to claim a FOUND item.
type Submission struct {
	ItemID      int64         `json:"itemId"`
	Answers     []AnswerInput `json:"answers"`
	ProofImages []string      `json:"proofImages"`
}

// Submit creates a PENDING claim by claimerID.
func (w *Workflow) Submit(ctx context.Context, claimerID int64, sub Submission) (*model.Claim, error) {
	item, err := store.GetItem(ctx, w.DB, sub.ItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item not found: %w", model.ErrNotFound)
	}
	if item.Type != model.ItemTypeFound {
		return nil, fmt.Errorf("can only claim found items: %w", model.ErrInvalidOperation)
	}
	if item.OwnedBy(claimerID) {
		return nil, fmt.Errorf("cannot claim your own item: %w", model.ErrInvalidOperation)
	}

	// A repeated claim is a conflict even once the item has moved on.
	exists, err := store.HasClaim(ctx, w.DB, item.ID, claimerID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("you have already submitted a claim for this item: %w", model.ErrConflict)
	}
	if w.RequireOpenItem && item.Status != model.ItemStatusOpen {
		return nil, fmt.Errorf("item is %s and no longer accepts claims: %w", item.Status, model.ErrInvalidOperation)
	}

	answers := NormalizeAnswers(item.VerificationQuestions, sub.Answers)
	claim, err := store.CreateClaim(ctx, w.DB, item.ID, claimerID, answers, sub.ProofImages)
	if err != nil {
		return nil, err
	}

	slog.Info("claim submitted", "claim", claim.ID, "item", item.ID, "user", claimerID)
	w.notify(item.UserID, fmt.Sprintf("New claim received for your item %q", item.Title))
	return claim, nil
}

// ListMine returns claimerID's claims with their items attached.
func (w *Workflow) ListMine(ctx context.Context, claimerID int64) ([]model.Claim, error) {
	claims, err := store.ListClaimsByClaimer(ctx, w.DB, claimerID)
	if err != nil {
		return nil, err
	}
	if claims == nil {
		claims = []model.Claim{}
	}
	return claims, nil
}

// ListForItem returns the claims on itemID. Only the item's owner may list them.
func (w *Workflow) ListForItem(ctx context.Context, itemID, requesterID int64) ([]model.Claim, error) {
	item, err := store.GetItem(ctx, w.DB, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item not found: %w", model.ErrNotFound)
	}
	if !item.OwnedBy(requesterID) {
		return nil, fmt.Errorf("not authorized to view claims for this item: %w", model.ErrUnauthorized)
	}

	claims, err := store.ListClaimsByItem(ctx, w.DB, itemID)
	if err != nil {
		return nil, err
	}
	if claims == nil {
		claims = []model.Claim{}
	}
	return claims, nil
}

// Decision is the item owner's verdict on a claim.
type Decision struct {
	Status   string `json:"status"`
	Feedback string `json:"feedback"`
}

// Decide approves or rejects a PENDING claim. Only the owner of the claimed
// item may decide. Approval also marks the item MATCHED in the same
// transaction; rejection leaves the item untouched.
func (w *Workflow) Decide(ctx context.Context, claimID, requesterID int64, d Decision) (*model.Claim, error) {
	action, err := model.ParseDecision(d.Status)
	if err != nil {
		return nil, err
	}

	claim, err := store.GetClaim(ctx, w.DB, claimID)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, fmt.Errorf("claim not found: %w", model.ErrNotFound)
	}

	item, err := store.GetItem(ctx, w.DB, claim.ItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item not found: %w", model.ErrNotFound)
	}
	if !item.OwnedBy(requesterID) {
		return nil, fmt.Errorf("not authorized to update this claim: %w", model.ErrUnauthorized)
	}

	next, err := model.NextClaimStatus(claim.Status, action)
	if err != nil {
		return nil, err
	}

	approve := next == model.ClaimStatusApproved
	if err := store.DecideClaim(ctx, w.DB, claim.ID, next, d.Feedback, approve); err != nil {
		return nil, err
	}
	if approve && w.Matching != nil {
		w.Matching.Invalidate()
	}

	updated, err := store.GetClaim(ctx, w.DB, claim.ID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("claim not found: %w", model.ErrNotFound)
	}

	slog.Info("claim decided", "claim", claim.ID, "item", item.ID, "status", next, "user", requesterID)
	w.notify(claim.ClaimerID, fmt.Sprintf("Your claim for %q was %s", item.Title, decisionWord(next)))
	return updated, nil
}

func decisionWord(s model.ClaimStatus) string {
	if s == model.ClaimStatusApproved {
		return "approved"
	}
	return "rejected"
}

func (w *Workflow) notify(userID int64, message string) {
	if w.Notifier == nil {
		return
	}
	if n := w.Notifier.Notify(userID, message); n == 0 {
		slog.Debug("notification not delivered", "user", userID)
	}
}
