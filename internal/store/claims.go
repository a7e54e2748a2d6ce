package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/najdeno/internal/model"
)

const claimColumns = `c.id, c.item_id, c.claimer_id, c.answers, c.status, c.proof_images, c.finder_feedback, c.created_at, c.updated_at`

func scanClaim(row interface{ Scan(...any) error }, c *model.Claim, extra ...any) error {
	var answers, proof string
	var feedback sql.NullString
	dest := []any{&c.ID, &c.ItemID, &c.ClaimerID, &answers, &c.Status, &proof, &feedback, &c.CreatedAt, &c.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	c.FinderFeedback = feedback.String

	var err error
	if c.Answers, err = decodeJSON[model.Answer](answers); err != nil {
		return err
	}
	if c.ProofImages, err = decodeJSON[string](proof); err != nil {
		return err
	}
	return nil
}

// CreateClaim inserts a PENDING claim. The (item, claimer) pair is unique in
// the schema, so a concurrent or repeated submission returns model.ErrConflict.
func CreateClaim(ctx context.Context, db *sql.DB, itemID, claimerID int64, answers []model.Answer, proofImages []string) (*model.Claim, error) {
	answersJSON, err := encodeJSON(answers)
	if err != nil {
		return nil, err
	}
	proofJSON, err := encodeJSON(proofImages)
	if err != nil {
		return nil, err
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO claims (item_id, claimer_id, answers, status, proof_images) VALUES (?, ?, ?, ?, ?)`,
		itemID, claimerID, answersJSON, model.ClaimStatusPending, proofJSON,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("you have already submitted a claim for this item: %w", model.ErrConflict)
		}
		return nil, fmt.Errorf("creating claim: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting claim id: %w", err)
	}

	return GetClaim(ctx, db, id)
}

// GetClaim returns a claim by ID.
func GetClaim(ctx context.Context, db *sql.DB, id int64) (*model.Claim, error) {
	c := &model.Claim{}
	err := scanClaim(db.QueryRowContext(ctx,
		`SELECT `+claimColumns+` FROM claims c WHERE c.id = ?`, id,
	), c)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting claim: %w", err)
	}
	return c, nil
}

// HasClaim reports whether claimerID already holds a claim on itemID.
func HasClaim(ctx context.Context, db *sql.DB, itemID, claimerID int64) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM claims WHERE item_id = ? AND claimer_id = ?)`, itemID, claimerID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking existing claim: %w", err)
	}
	return exists, nil
}

// ListClaimsByClaimer returns a user's claims, each with its item attached.
func ListClaimsByClaimer(ctx context.Context, db *sql.DB, claimerID int64) ([]model.Claim, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+claimColumns+`, `+itemColumns+`
		 FROM claims c
		 JOIN items i ON i.id = c.item_id
		 WHERE c.claimer_id = ?
		 ORDER BY c.created_at DESC, c.id DESC`, claimerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing claims by claimer: %w", err)
	}
	defer rows.Close()

	var claims []model.Claim
	for rows.Next() {
		var c model.Claim
		var answers, proof, images, questions string
		var feedback sql.NullString
		item := &model.Item{}
		if err := rows.Scan(&c.ID, &c.ItemID, &c.ClaimerID, &answers, &c.Status, &proof, &feedback, &c.CreatedAt, &c.UpdatedAt,
			&item.ID, &item.Type, &item.Title, &item.Description, &item.Category, &item.Location, &item.Date,
			&images, &item.Status, &questions, &item.IsSuspicious, &item.UserID, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning claim: %w", err)
		}
		c.FinderFeedback = feedback.String
		if c.Answers, err = decodeJSON[model.Answer](answers); err != nil {
			return nil, err
		}
		if c.ProofImages, err = decodeJSON[string](proof); err != nil {
			return nil, err
		}
		if item.Images, err = decodeJSON[string](images); err != nil {
			return nil, err
		}
		if item.VerificationQuestions, err = decodeJSON[string](questions); err != nil {
			return nil, err
		}
		c.Item = item
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

// ListClaimsByItem returns the claims on an item with the claimant's name,
// e-mail and reputation attached.
func ListClaimsByItem(ctx context.Context, db *sql.DB, itemID int64) ([]model.Claim, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+claimColumns+`, u.id, u.name, u.email, u.reputation_score
		 FROM claims c
		 JOIN users u ON u.id = c.claimer_id
		 WHERE c.item_id = ?
		 ORDER BY c.created_at, c.id`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing claims by item: %w", err)
	}
	defer rows.Close()

	var claims []model.Claim
	for rows.Next() {
		var c model.Claim
		claimer := &model.PublicUser{}
		if err := scanClaim(rows, &c, &claimer.ID, &claimer.Name, &claimer.Email, &claimer.ReputationScore); err != nil {
			return nil, fmt.Errorf("scanning claim: %w", err)
		}
		c.Claimer = claimer
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

// ListClaimantIDs returns the distinct users holding claims on an item.
func ListClaimantIDs(ctx context.Context, db *sql.DB, itemID int64) ([]int64, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT DISTINCT claimer_id FROM claims WHERE item_id = ? ORDER BY claimer_id`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing claimants: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning claimant: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DecideClaim moves a PENDING claim to next in one transaction. The claim row
// is written first and only if it is still PENDING; when matchItem is set the
// parent item is then escalated to MATCHED. If the claim was decided
// concurrently, or the item cannot be matched, nothing is written and the
// error wraps model.ErrInvalidOperation.
func DecideClaim(ctx context.Context, db *sql.DB, claimID int64, next model.ClaimStatus, feedback string, matchItem bool) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var itemID int64
	err = tx.QueryRowContext(ctx,
		`UPDATE claims SET status = ?, finder_feedback = COALESCE(NULLIF(?, ''), finder_feedback), updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = ?
		 RETURNING item_id`,
		next, feedback, claimID, model.ClaimStatusPending,
	).Scan(&itemID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("claim has already been decided: %w", model.ErrInvalidOperation)
	}
	if err != nil {
		return fmt.Errorf("updating claim status: %w", err)
	}

	if matchItem {
		var current model.ItemStatus
		if err := tx.QueryRowContext(ctx,
			`SELECT status FROM items WHERE id = ?`, itemID,
		).Scan(&current); err != nil {
			return fmt.Errorf("reading item status: %w", err)
		}

		status, err := model.NextItemStatus(current, model.ItemActionMatch, model.ItemStatusMatched)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE items SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			status, itemID,
		); err != nil {
			return fmt.Errorf("updating item status: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing claim decision: %w", err)
	}
	return nil
}
