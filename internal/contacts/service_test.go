package contacts

import (
	"context"
	"errors"
	"testing"

	"brandbuzz/internal/providers"
)

type fakeAuditor struct{ deleted []string }

func (f *fakeAuditor) LogContactDeleted(ctx context.Context, userID, contactID string) error {
	f.deleted = append(f.deleted, contactID)
	return nil
}

func TestCreateNormalisesAndValidates(t *testing.T) {
	svc := NewService(NewMemoryRepo(), nil)
	ctx := context.Background()

	c, err := svc.Create(ctx, "u1", Input{Name: " Asha ", Phone: "+91 98765-43210", Email: " Asha@Example.com "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Name != "Asha" || c.Phone != "+919876543210" || c.Email != "asha@example.com" {
		t.Fatalf("unexpected normalisation: %+v", c)
	}
	if c.Status != StatusActive || c.ID.IsZero() {
		t.Fatalf("expected active contact with id, got %+v", c)
	}

	if _, err := svc.Create(ctx, "u1", Input{Name: "NoAddress"}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid argument without phone or email, got %v", err)
	}
	if _, err := svc.Create(ctx, "u1", Input{Phone: "9876543210"}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid argument without name, got %v", err)
	}
	if _, err := svc.Create(ctx, "u1", Input{Name: "A", Email: "not-an-email"}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid email error, got %v", err)
	}
}

func TestImportSkipsBadRows(t *testing.T) {
	svc := NewService(NewMemoryRepo(), nil)
	res, err := svc.Import(context.Background(), "u1", []Input{
		{Name: "A", Phone: "9876543210"},
		{Name: "", Phone: "9876543211"},
		{Name: "C", Mobile: "9876543212"},
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(res.Created) != 2 || len(res.Skipped) != 1 || res.Skipped[0].Index != 1 {
		t.Fatalf("unexpected import result: %+v", res)
	}
	if res.Created[1].Phone != "9876543212" {
		t.Fatalf("expected mobile to be used as phone, got %q", res.Created[1].Phone)
	}
}

func TestSoftDeleteHidesContact(t *testing.T) {
	aud := &fakeAuditor{}
	svc := NewService(NewMemoryRepo(), aud)
	ctx := context.Background()

	a, _ := svc.Create(ctx, "u1", Input{Name: "A", Phone: "9876543210"})
	_, _ = svc.Create(ctx, "u1", Input{Name: "B", Phone: "9876543211"})

	if err := svc.Delete(ctx, "u1", a.ID.Hex()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	page, err := svc.List(ctx, ListQuery{UserID: "u1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 1 || len(page.Contacts) != 1 || page.Contacts[0].Name != "B" {
		t.Fatalf("expected only B listed, got %+v", page)
	}
	if err := svc.Delete(ctx, "u1", a.ID.Hex()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	if len(aud.deleted) != 1 || aud.deleted[0] != a.ID.Hex() {
		t.Fatalf("expected one audited deletion, got %v", aud.deleted)
	}
}

func TestDeleteIsOwnerScoped(t *testing.T) {
	svc := NewService(NewMemoryRepo(), nil)
	ctx := context.Background()
	a, _ := svc.Create(ctx, "u1", Input{Name: "A", Phone: "9876543210"})

	if err := svc.Delete(ctx, "u2", a.ID.Hex()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for other owner, got %v", err)
	}
}

func TestListSearchAndPagination(t *testing.T) {
	svc := NewService(NewMemoryRepo(), nil)
	ctx := context.Background()
	for _, n := range []string{"Asha", "Ravi", "Asif"} {
		if _, err := svc.Create(ctx, "u1", Input{Name: n, Phone: "9876543210", Group: "vip"}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	page, err := svc.List(ctx, ListQuery{UserID: "u1", Search: "as"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("expected 2 matches, got %d", page.Total)
	}

	page, err = svc.List(ctx, ListQuery{UserID: "u1", Group: "vip", Page: 2, Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 3 || len(page.Contacts) != 1 || page.TotalPages != 2 {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestResolveFiltersByChannelAddress(t *testing.T) {
	svc := NewService(NewMemoryRepo(), nil)
	ctx := context.Background()

	phoneOnly, _ := svc.Create(ctx, "u1", Input{Name: "P", Phone: "9876543210"})
	emailOnly, _ := svc.Create(ctx, "u1", Input{Name: "E", Email: "e@example.com"})
	other, _ := svc.Create(ctx, "u2", Input{Name: "O", Phone: "9876543211"})
	ids := []string{phoneOnly.ID.Hex(), emailOnly.ID.Hex(), other.ID.Hex(), "bogus"}

	sms, err := svc.Resolve(ctx, "u1", ids, "", providers.ChannelSMS)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(sms) != 1 || sms[0].ContactID != phoneOnly.ID.Hex() || sms[0].Address != "9876543210" {
		t.Fatalf("unexpected sms recipients: %+v", sms)
	}

	email, err := svc.Resolve(ctx, "u1", ids, "", providers.ChannelEmail)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(email) != 1 || email[0].Address != "e@example.com" {
		t.Fatalf("unexpected email recipients: %+v", email)
	}

	if _, err := svc.Resolve(ctx, "u1", nil, "", providers.ChannelSMS); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid argument without ids or group, got %v", err)
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"+91 98765 43210": "+919876543210",
		"(987) 654-3210":  "9876543210",
		"98+76":           "9876",
		"+":               "",
	}
	for in, want := range cases {
		if got := NormalizePhone(in); got != want {
			t.Fatalf("NormalizePhone(%q) = %q, want %q", in, got, want)
		}
	}
}
