package model

import (
	"fmt"
	"time"
)

// Item is a lost or found object report.
type Item struct {
	ID                    int64      `json:"id"`
	Type                  ItemType   `json:"type"`
	Title                 string     `json:"title"`
	Description           string     `json:"description"`
	Category              string     `json:"category"`
	Location              string     `json:"location"`
	Date                  time.Time  `json:"date"`
	Images                []string   `json:"images"`
	Status                ItemStatus `json:"status"`
	VerificationQuestions []string   `json:"verificationQuestions"`
	IsSuspicious          bool       `json:"isSuspicious"`
	UserID                int64      `json:"userId"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`

	// Joined owner fields (not always populated).
	User *PublicUser `json:"user,omitempty"`
}

// OwnedBy reports whether userID reported the item.
func (i *Item) OwnedBy(userID int64) bool {
	return i.UserID == userID
}

// ItemType says whether an item was lost or found. Immutable after creation.
type ItemType string

// Item types.
const (
	ItemTypeLost  ItemType = "LOST"
	ItemTypeFound ItemType = "FOUND"
)

// ParseItemType validates an item type.
func ParseItemType(s string) (ItemType, error) {
	switch t := ItemType(s); t {
	case ItemTypeLost, ItemTypeFound:
		return t, nil
	}
	return "", fmt.Errorf("invalid item type %q", s)
}

// Opposite returns the counterpart type used for matching.
func (t ItemType) Opposite() ItemType {
	if t == ItemTypeLost {
		return ItemTypeFound
	}
	return ItemTypeLost
}

// ItemStatus is the stored lifecycle state of an item. CLOSED is the only
// terminal name; RESOLVED is not accepted.
type ItemStatus string

// Item statuses.
const (
	ItemStatusOpen    ItemStatus = "OPEN"
	ItemStatusMatched ItemStatus = "MATCHED"
	ItemStatusClosed  ItemStatus = "CLOSED"
)

// ParseItemStatus validates an item status.
func ParseItemStatus(s string) (ItemStatus, error) {
	switch st := ItemStatus(s); st {
	case ItemStatusOpen, ItemStatusMatched, ItemStatusClosed:
		return st, nil
	}
	return "", fmt.Errorf("invalid item status %q", s)
}

// ItemAction is something that moves an item between statuses.
type ItemAction int

// Item actions.
const (
	// ItemActionMatch is applied by the claim workflow when a claim is approved.
	ItemActionMatch ItemAction = iota
	// ItemActionEdit is an explicit owner or admin edit to a chosen status.
	ItemActionEdit
)

func (a ItemAction) String() string {
	switch a {
	case ItemActionMatch:
		return "match"
	case ItemActionEdit:
		return "edit"
	}
	return fmt.Sprintf("ItemAction(%d)", int(a))
}

type itemTransition struct {
	from   ItemStatus
	action ItemAction
}

// itemTransitions lists the statuses reachable from (status, action). The
// workflow may only escalate towards closure; explicit edits may go anywhere.
var itemTransitions = map[itemTransition][]ItemStatus{
	{ItemStatusOpen, ItemActionMatch}:    {ItemStatusMatched},
	{ItemStatusMatched, ItemActionMatch}: {ItemStatusMatched},

	{ItemStatusOpen, ItemActionEdit}:    {ItemStatusOpen, ItemStatusMatched, ItemStatusClosed},
	{ItemStatusMatched, ItemActionEdit}: {ItemStatusOpen, ItemStatusMatched, ItemStatusClosed},
	{ItemStatusClosed, ItemActionEdit}:  {ItemStatusOpen, ItemStatusMatched, ItemStatusClosed},
}

// NextItemStatus returns the status that results from applying action to
// current with the requested target. Transitions missing from the table fail
// with ErrInvalidOperation.
func NextItemStatus(current ItemStatus, action ItemAction, target ItemStatus) (ItemStatus, error) {
	for _, s := range itemTransitions[itemTransition{current, action}] {
		if s == target {
			return s, nil
		}
	}
	return "", fmt.Errorf("item cannot %s from %s to %s: %w", action, current, target, ErrInvalidOperation)
}
