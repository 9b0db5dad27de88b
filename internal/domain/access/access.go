// Package access decides whether an actor may mutate a business's billing data.
package access

import (
	"context"
	"fmt"
	"strings"

	"github.com/rpggio/probill/internal/domain/errkind"
)

// ErrForbidden indicates the actor has no admin or owner capability on the business.
var ErrForbidden = errkind.New(errkind.ErrForbidden, "admin or owner capability required")

// Actor is the caller of a billing operation, always paired with the business it acts in.
type Actor struct {
	ID         string `json:"id"`
	BusinessID string `json:"business_id"`
}

// Checker answers capability questions.
type Checker interface {
	HasAdminCapability(ctx context.Context, actorID, businessID string) (bool, error)
}

// OwnerLookup resolves the owner of a business. Used by jobs that run
// without an interactive caller.
type OwnerLookup interface {
	OwnerOf(ctx context.Context, businessID string) (string, error)
}

// Require returns ErrForbidden unless actor holds the admin capability.
func Require(ctx context.Context, checker Checker, actor Actor) error {
	if strings.TrimSpace(actor.ID) == "" || strings.TrimSpace(actor.BusinessID) == "" {
		return ErrForbidden
	}
	ok, err := checker.HasAdminCapability(ctx, actor.ID, actor.BusinessID)
	if err != nil {
		return fmt.Errorf("checking capability: %w", err)
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}
