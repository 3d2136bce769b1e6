package registration

import (
	"errors"
	"testing"
	"time"

	"github.com/cradlehealth/cradle/internal/model"
)

type fakeCatalog struct {
	defaults []model.Vaccine
	err      error
}

func (c *fakeCatalog) ListDefaults() ([]model.Vaccine, error) {
	return c.defaults, c.err
}

type fakeRecords struct {
	inserted  []model.ChildVaccine
	insertErr error
	deleted   int
}

func (r *fakeRecords) BulkInsert(records []model.ChildVaccine) (int, error) {
	if r.insertErr != nil {
		return 0, r.insertErr
	}
	r.inserted = append(r.inserted, records...)
	return len(records), nil
}

func (r *fakeRecords) CountByChild(userID int64, babyName string) (int, error) {
	count := 0
	for _, rec := range r.inserted {
		if rec.UserID == userID && rec.BabyName == babyName {
			count++
		}
	}
	return count, nil
}

// ReplaceByChild mirrors the store's atomicity: on error nothing is touched.
func (r *fakeRecords) ReplaceByChild(userID int64, babyName string, records []model.ChildVaccine) (int, error) {
	if r.insertErr != nil {
		return 0, r.insertErr
	}
	var kept []model.ChildVaccine
	for _, rec := range r.inserted {
		if rec.UserID == userID && rec.BabyName == babyName {
			r.deleted++
			continue
		}
		kept = append(kept, rec)
	}
	r.inserted = append(kept, records...)
	return len(records), nil
}

func testCatalog() *fakeCatalog {
	return &fakeCatalog{defaults: []model.Vaccine{
		{ID: 1, Name: "BCG", AgeInWeeks: 0, IsDefault: true},
		{ID: 2, Name: "DPT-1", AgeInWeeks: 6, IsDefault: true},
	}}
}

func TestRegisterChild(t *testing.T) {
	records := &fakeRecords{}
	svc := NewService(testCatalog(), records, PolicyAppend)

	res, err := svc.RegisterChild(10, "Asha", "2024-01-15")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if res.BabyName != "Asha" {
		t.Errorf("BabyName = %q, want %q", res.BabyName, "Asha")
	}
	if res.VaccinesCount != 2 {
		t.Errorf("VaccinesCount = %d, want 2", res.VaccinesCount)
	}
	if len(records.inserted) != 2 {
		t.Fatalf("inserted %d records, want 2", len(records.inserted))
	}

	bcg := records.inserted[0]
	if bcg.UserID != 10 || bcg.BabyName != "Asha" {
		t.Errorf("ownership not stamped: %+v", bcg)
	}
	if bcg.Status != model.StatusPending {
		t.Errorf("status = %q, want Pending", bcg.Status)
	}
	if want := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC); !bcg.ScheduledDate.Equal(want) {
		t.Errorf("BCG scheduled %v, want %v", bcg.ScheduledDate, want)
	}
	dpt := records.inserted[1]
	if want := time.Date(2024, time.February, 26, 0, 0, 0, 0, time.UTC); !dpt.ScheduledDate.Equal(want) {
		t.Errorf("DPT-1 scheduled %v, want %v", dpt.ScheduledDate, want)
	}
}

func TestRegisterChildMissingFields(t *testing.T) {
	records := &fakeRecords{}
	svc := NewService(testCatalog(), records, PolicyAppend)

	cases := []struct{ babyName, dob string }{
		{"", "2024-01-15"},
		{"Asha", ""},
		{"   ", "2024-01-15"},
		{"", ""},
	}
	for _, tc := range cases {
		if _, err := svc.RegisterChild(1, tc.babyName, tc.dob); !errors.Is(err, ErrMissingFields) {
			t.Errorf("RegisterChild(%q, %q): got %v, want ErrMissingFields", tc.babyName, tc.dob, err)
		}
	}
	if len(records.inserted) != 0 {
		t.Errorf("expected zero persisted records, got %d", len(records.inserted))
	}
}

func TestRegisterChildInvalidDate(t *testing.T) {
	records := &fakeRecords{}
	svc := NewService(testCatalog(), records, PolicyAppend)

	for _, dob := range []string{"15-01-2024", "2024/01/15", "2024-13-01", "yesterday", "2024-02-30"} {
		if _, err := svc.RegisterChild(1, "Asha", dob); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("RegisterChild(dob=%q): got %v, want ErrInvalidDate", dob, err)
		}
	}
	if len(records.inserted) != 0 {
		t.Errorf("expected zero persisted records, got %d", len(records.inserted))
	}
}

func TestRegisterChildEmptyCatalog(t *testing.T) {
	records := &fakeRecords{}
	svc := NewService(&fakeCatalog{}, records, PolicyAppend)

	res, err := svc.RegisterChild(1, "Asha", "2024-01-15")
	if err != nil {
		t.Fatalf("register with empty catalog: %v", err)
	}
	if res.VaccinesCount != 0 {
		t.Errorf("VaccinesCount = %d, want 0", res.VaccinesCount)
	}
}

func TestAppendPolicyDoublesRecords(t *testing.T) {
	records := &fakeRecords{}
	svc := NewService(testCatalog(), records, PolicyAppend)

	if _, err := svc.RegisterChild(1, "Asha", "2024-01-15"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.RegisterChild(1, "Asha", "2024-01-15"); err != nil {
		t.Fatalf("second register: %v", err)
	}
	if len(records.inserted) != 4 {
		t.Errorf("inserted %d records, want 4 (two full schedules)", len(records.inserted))
	}
}

func TestRejectPolicy(t *testing.T) {
	records := &fakeRecords{}
	svc := NewService(testCatalog(), records, PolicyReject)

	if _, err := svc.RegisterChild(1, "Asha", "2024-01-15"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.RegisterChild(1, "Asha", "2024-01-15"); !errors.Is(err, ErrDuplicateChild) {
		t.Fatalf("second register: got %v, want ErrDuplicateChild", err)
	}
	if len(records.inserted) != 2 {
		t.Errorf("inserted %d records, want 2", len(records.inserted))
	}

	// A different child under the same account is fine.
	if _, err := svc.RegisterChild(1, "Ravi", "2024-03-01"); err != nil {
		t.Fatalf("register second child: %v", err)
	}
}

func TestReplacePolicy(t *testing.T) {
	records := &fakeRecords{}
	svc := NewService(testCatalog(), records, PolicyReplace)

	if _, err := svc.RegisterChild(1, "Asha", "2024-01-15"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.RegisterChild(1, "Asha", "2024-02-01"); err != nil {
		t.Fatalf("second register: %v", err)
	}
	if len(records.inserted) != 2 {
		t.Fatalf("inserted %d records after replace, want 2", len(records.inserted))
	}
	if records.deleted != 2 {
		t.Errorf("deleted %d records, want 2", records.deleted)
	}
	want := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	if !records.inserted[0].DateOfBirth.Equal(want) {
		t.Errorf("DateOfBirth = %v, want %v (new registration)", records.inserted[0].DateOfBirth, want)
	}
}

func TestReplacePolicyKeepsScheduleWhenCatalogFails(t *testing.T) {
	catalog := testCatalog()
	records := &fakeRecords{}
	svc := NewService(catalog, records, PolicyReplace)

	if _, err := svc.RegisterChild(1, "Asha", "2024-01-15"); err != nil {
		t.Fatalf("first register: %v", err)
	}

	catalog.err = errors.New("catalog unavailable")
	if _, err := svc.RegisterChild(1, "Asha", "2024-02-01"); err == nil {
		t.Fatal("expected error from failed catalog load")
	}

	if len(records.inserted) != 2 {
		t.Fatalf("child has %d records after failed re-registration, want the original 2", len(records.inserted))
	}
	want := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	if !records.inserted[0].DateOfBirth.Equal(want) {
		t.Errorf("DateOfBirth = %v, want %v (original schedule intact)", records.inserted[0].DateOfBirth, want)
	}
}

func TestReplacePolicyKeepsScheduleWhenPersistFails(t *testing.T) {
	records := &fakeRecords{}
	svc := NewService(testCatalog(), records, PolicyReplace)

	if _, err := svc.RegisterChild(1, "Asha", "2024-01-15"); err != nil {
		t.Fatalf("first register: %v", err)
	}

	records.insertErr = errors.New("disk full")
	if _, err := svc.RegisterChild(1, "Asha", "2024-02-01"); err == nil {
		t.Fatal("expected error from failed persist")
	}

	if len(records.inserted) != 2 {
		t.Fatalf("child has %d records after failed re-registration, want the original 2", len(records.inserted))
	}
}

func TestPersistFailure(t *testing.T) {
	records := &fakeRecords{insertErr: errors.New("disk full")}
	svc := NewService(testCatalog(), records, PolicyAppend)

	if _, err := svc.RegisterChild(1, "Asha", "2024-01-15"); err == nil {
		t.Fatal("expected error from failed bulk insert")
	}
}

func TestParsePolicy(t *testing.T) {
	cases := []struct {
		in      string
		want    DuplicatePolicy
		wantErr bool
	}{
		{"", PolicyAppend, false},
		{"append", PolicyAppend, false},
		{"REJECT", PolicyReject, false},
		{" replace ", PolicyReplace, false},
		{"upsert", "", true},
	}
	for _, tc := range cases {
		got, err := ParsePolicy(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParsePolicy(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParsePolicy(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParsePolicy(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
