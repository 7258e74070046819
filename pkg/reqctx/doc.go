// Package reqctx provides centralized request context management.
//
// This package is the single source of truth for request-scoped data:
// request metadata and the calling staff member.
//
// # Context Keys
//
// All context keys are private unexported types to prevent collisions.
// Access is provided through type-safe getter and setter functions.
//
// # Usage
//
// Setting values (typically in middleware):
//
//	ctx = reqctx.WithRequestMeta(ctx, &reqctx.RequestMeta{
//	    RequestID:   "abc-123",
//	    ClientIP:    "192.168.1.1",
//	    UserAgent:   "Mozilla/5.0",
//	    RequestedAt: time.Now(),
//	})
//
//	ctx = reqctx.WithStaff(ctx, &reqctx.Staff{ID: "tech-7", Role: "technician"})
//
// Getting values (in handlers, services, etc.):
//
//	meta, ok := reqctx.RequestMetaFromContext(ctx)
//	staff := reqctx.StaffFromContext(ctx)
//
// Logging with request identity:
//
//	log.With(reqctx.LogAttrs(ctx)...).Info("appointment created")
//
// # Contracts
//
//   - RequestMeta is always set by HTTP middleware for all requests
//   - Staff is set only when the caller identified itself
package reqctx
