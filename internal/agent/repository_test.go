package agent

import (
	"context"
	"errors"
	"testing"
)

func TestCreateAndGet(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	created, err := svc.Create(ctx, "ws1", "Sales Bot", "+15550100", "nova", "pitch the q3 plan")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Fatalf("created = %+v", created)
	}

	got, ok, err := svc.Get(ctx, "ws1", created.ID)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got.CallerNumber != "+15550100" {
		t.Fatalf("caller number = %s", got.CallerNumber)
	}

	// Workspace isolation.
	if _, ok, err := svc.Get(ctx, "ws2", created.ID); err != nil || ok {
		t.Fatalf("cross-workspace get: ok=%v err=%v", ok, err)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	cases := []struct{ ws, name, number string }{
		{"", "a", "+1"},
		{"ws1", "", "+1"},
		{"ws1", "a", ""},
	}
	for i, tc := range cases {
		if _, err := svc.Create(ctx, tc.ws, tc.name, tc.number, "", ""); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("case %d: err = %v, want ErrInvalidArgument", i, err)
		}
	}
}

func TestListScopedToWorkspace(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	if _, err := svc.Create(ctx, "ws1", "a", "+1", "", ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, "ws1", "b", "+2", "", ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, "ws2", "c", "+3", "", ""); err != nil {
		t.Fatalf("Create: %v", err)
	}

	list, err := svc.List(ctx, "ws1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
}
