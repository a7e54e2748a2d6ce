package model

import (
	"fmt"
	"time"
)

// Claim is a claimant's assertion of ownership over a FOUND item.
type Claim struct {
	ID             int64       `json:"id"`
	ItemID         int64       `json:"itemId"`
	ClaimerID      int64       `json:"claimerId"`
	Answers        []Answer    `json:"answers"`
	Status         ClaimStatus `json:"status"`
	ProofImages    []string    `json:"proofImages"`
	FinderFeedback string      `json:"finderFeedback,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`

	// Joined fields (not always populated).
	Item    *Item       `json:"item,omitempty"`
	Claimer *PublicUser `json:"claimer,omitempty"`
}

// Answer pairs a verification question with the claimant's response.
type Answer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ClaimStatus is the state of a claim. APPROVED and REJECTED are terminal.
type ClaimStatus string

// Claim statuses.
const (
	ClaimStatusPending  ClaimStatus = "PENDING"
	ClaimStatusApproved ClaimStatus = "APPROVED"
	ClaimStatusRejected ClaimStatus = "REJECTED"
)

// Terminal reports whether no further transition is possible.
func (s ClaimStatus) Terminal() bool {
	return s == ClaimStatusApproved || s == ClaimStatusRejected
}

// ClaimAction is a finder's decision on a claim.
type ClaimAction string

// Claim actions.
const (
	ClaimActionApprove ClaimAction = "approve"
	ClaimActionReject  ClaimAction = "reject"
)

// ParseDecision maps a requested status (APPROVED or REJECTED) to an action.
func ParseDecision(status string) (ClaimAction, error) {
	switch ClaimStatus(status) {
	case ClaimStatusApproved:
		return ClaimActionApprove, nil
	case ClaimStatusRejected:
		return ClaimActionReject, nil
	}
	return "", fmt.Errorf("status must be %s or %s: %w", ClaimStatusApproved, ClaimStatusRejected, ErrInvalidOperation)
}

type claimTransition struct {
	from   ClaimStatus
	action ClaimAction
}

var claimTransitions = map[claimTransition]ClaimStatus{
	{ClaimStatusPending, ClaimActionApprove}: ClaimStatusApproved,
	{ClaimStatusPending, ClaimActionReject}:  ClaimStatusRejected,
}

// NextClaimStatus applies action to current. Anything not in the table,
// including every action on a terminal claim, fails with ErrInvalidOperation.
func NextClaimStatus(current ClaimStatus, action ClaimAction) (ClaimStatus, error) {
	next, ok := claimTransitions[claimTransition{current, action}]
	if !ok {
		if current.Terminal() {
			return "", fmt.Errorf("claim is already %s: %w", current, ErrInvalidOperation)
		}
		return "", fmt.Errorf("cannot %s a %s claim: %w", action, current, ErrInvalidOperation)
	}
	return next, nil
}
