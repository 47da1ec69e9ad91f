package members

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/grace-connect/backend/internal/models"
)

// MinLookupLen is the minimum phone length before a store lookup is
// attempted. Shorter inputs short-circuit so lookup-as-you-type does
// not hit the store on every keystroke.
const MinLookupLen = 10

// ErrNotFound is returned when no member matches the phone number.
// It is an expected outcome of lookup, not a fault.
var ErrNotFound = errors.New("member not found")

// PhoneFinder is the member-store read the lookup service needs.
type PhoneFinder interface {
	FindByPhone(ctx context.Context, phone string) ([]*models.Member, error)
}

// Lookup resolves phone numbers against the member store. Read-only
// and idempotent: two calls with the same phone and unchanged store
// state return the same member.
type Lookup struct {
	store  PhoneFinder
	logger *zap.Logger
}

// NewLookup creates a member lookup service.
func NewLookup(store PhoneFinder, logger *zap.Logger) *Lookup {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lookup{store: store, logger: logger}
}

// FindMemberByPhone returns the member whose primary or whatsapp
// number exactly equals phone. When duplicate phone numbers exist the
// most recently created member wins. Returns ErrNotFound for zero
// matches and for inputs shorter than MinLookupLen (short-circuited
// without touching the store).
func (l *Lookup) FindMemberByPhone(ctx context.Context, phone string) (*models.Member, error) {
	if len(phone) < MinLookupLen {
		return nil, ErrNotFound
	}
	candidates, err := l.store.FindByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("find member by phone: %w", err)
	}
	if len(candidates) == 0 {
		return nil, ErrNotFound
	}
	if len(candidates) > 1 {
		l.logger.Warn("duplicate phone number in member store, newest record wins",
			zap.String("phone", phone), zap.Int("matches", len(candidates)))
	}
	return candidates[0], nil
}
