// Package requestcontext provides transport-independent context accessors for
// request-scoped values.
//
// Hosts set these values once per unit of work; the submission services read
// them without depending on how the work arrived.
//
// Usage in services (read values):
//
//	now := requestcontext.Now(ctx)
//	owner := requestcontext.OwnershipFrom(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithOwnership(ctx, requestcontext.Ownership{PractitionerID: "pr-1"})
package requestcontext

import (
	"context"
	"time"
)

// Context key types (unexported for encapsulation).
type (
	requestIDKey   struct{}
	requestTimeKey struct{}
	ownershipKey   struct{}
)

// Ownership identifies who owns the records produced by a unit of work.
type Ownership struct {
	OrganizationIDs []string
	PractitionerID  string
}

// IsZero reports whether no owner is set.
func (o Ownership) IsZero() bool {
	return len(o.OrganizationIDs) == 0 && o.PractitionerID == ""
}

// -----------------------------------------------------------------------------
// Request metadata
// -----------------------------------------------------------------------------

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// -----------------------------------------------------------------------------
// Request time
// -----------------------------------------------------------------------------

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for tests and for
// workers that need one timestamp across a batch.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}

// -----------------------------------------------------------------------------
// Ownership
// -----------------------------------------------------------------------------

// OwnershipFrom retrieves the record owner from the context.
// Returns the zero value if not set.
func OwnershipFrom(ctx context.Context) Ownership {
	if o, ok := ctx.Value(ownershipKey{}).(Ownership); ok {
		return o
	}
	return Ownership{}
}

// WithOwnership injects the record owner into the context.
func WithOwnership(ctx context.Context, o Ownership) context.Context {
	return context.WithValue(ctx, ownershipKey{}, o)
}
