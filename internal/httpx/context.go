package httpx

import (
	"context"
	"net/http"
)

type contextKey string

const (
	staffIDKey   contextKey = "staffID"
	roleKey      contextKey = "role"
	requestIDKey contextKey = "requestID"
	staffSlotKey contextKey = "staffSlot"
)

// staffSlot lets an outer middleware see who authenticated further down the chain.
type staffSlot struct {
	staffID string
}

// StaffIDFrom retrieves the authenticated staff id from the request context.
func StaffIDFrom(r *http.Request) string {
	if v, ok := r.Context().Value(staffIDKey).(string); ok {
		return v
	}
	return ""
}

// RoleFrom retrieves the staff role from the request context.
func RoleFrom(r *http.Request) string {
	if v, ok := r.Context().Value(roleKey).(string); ok {
		return v
	}
	return ""
}

// ContextWithStaff returns a new context with the staff id and role. The id is
// also recorded in the slot installed by AccessLogMiddleware, if any.
func ContextWithStaff(ctx context.Context, staffID, role string) context.Context {
	if slot, ok := ctx.Value(staffSlotKey).(*staffSlot); ok {
		slot.staffID = staffID
	}
	ctx = context.WithValue(ctx, staffIDKey, staffID)
	return context.WithValue(ctx, roleKey, role)
}

// RequestIDFrom retrieves the request id set by RequestIDMiddleware.
func RequestIDFrom(r *http.Request) string {
	if v, ok := r.Context().Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func contextWithStaffSlot(ctx context.Context) (context.Context, *staffSlot) {
	slot := &staffSlot{}
	return context.WithValue(ctx, staffSlotKey, slot), slot
}
