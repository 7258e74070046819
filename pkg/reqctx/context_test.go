package reqctx

import (
	"context"
	"reflect"
	"testing"
	"time"
)

func TestRequestMeta(t *testing.T) {
	ctx := context.Background()
	if _, ok := RequestMetaFromContext(ctx); ok {
		t.Fatal("empty context reported request meta")
	}
	if got := RequestIDFromContext(ctx); got != "" {
		t.Errorf("RequestIDFromContext(empty) = %q", got)
	}

	ctx = WithRequestMeta(ctx, &RequestMeta{RequestID: "req-1", ClientIP: "10.0.0.1", RequestedAt: time.Now()})
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Errorf("RequestIDFromContext = %q, want req-1", got)
	}
	if meta, ok := RequestMetaFromContext(ctx); !ok || meta.ClientIP != "10.0.0.1" {
		t.Errorf("RequestMetaFromContext = %+v, %v", meta, ok)
	}
}

func TestStaff(t *testing.T) {
	ctx := context.Background()
	if StaffFromContext(ctx) != nil || StaffIDFromContext(ctx) != "" {
		t.Fatal("empty context reported a staff member")
	}

	ctx = WithStaff(ctx, &Staff{ID: "tech-7", Role: "technician"})
	s := StaffFromContext(ctx)
	if s == nil || s.ID != "tech-7" || s.Role != "technician" {
		t.Errorf("StaffFromContext = %+v", s)
	}
	if got := StaffIDFromContext(ctx); got != "tech-7" {
		t.Errorf("StaffIDFromContext = %q, want tech-7", got)
	}
}

func TestLogAttrs(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		want []any
	}{
		{"empty", context.Background(), nil},
		{
			"request only",
			WithRequestMeta(context.Background(), &RequestMeta{RequestID: "req-1", ClientIP: "10.0.0.1"}),
			[]any{"request_id", "req-1", "client_ip", "10.0.0.1"},
		},
		{
			"request and staff",
			WithStaff(
				WithRequestMeta(context.Background(), &RequestMeta{RequestID: "req-2", ClientIP: "10.0.0.2"}),
				&Staff{ID: "recep-1", Role: "receptionist"},
			),
			[]any{"request_id", "req-2", "client_ip", "10.0.0.2", "staff_id", "recep-1", "staff_role", "receptionist"},
		},
		{"anonymous staff", WithStaff(context.Background(), &Staff{}), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LogAttrs(tt.ctx); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("LogAttrs = %v, want %v", got, tt.want)
			}
		})
	}
}
