package registration

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cradlehealth/cradle/internal/model"
	"github.com/cradlehealth/cradle/internal/schedule"
)

// Sentinel errors the handler maps onto HTTP responses.
var (
	ErrMissingFields  = errors.New("babyName and dateOfBirth are required")
	ErrInvalidDate    = errors.New("dateOfBirth must be a valid date in YYYY-MM-DD format")
	ErrDuplicateChild = errors.New("a child with this name is already registered")
)

// DuplicatePolicy controls what happens when a child is registered twice
// under the same account.
type DuplicatePolicy string

const (
	// PolicyAppend inserts a second full schedule alongside the first.
	PolicyAppend DuplicatePolicy = "append"
	// PolicyReject refuses the registration.
	PolicyReject DuplicatePolicy = "reject"
	// PolicyReplace deletes the child's existing schedule first.
	PolicyReplace DuplicatePolicy = "replace"
)

// ParsePolicy validates a policy string, defaulting to append when empty.
func ParsePolicy(s string) (DuplicatePolicy, error) {
	switch DuplicatePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return PolicyAppend, nil
	case PolicyAppend:
		return PolicyAppend, nil
	case PolicyReject:
		return PolicyReject, nil
	case PolicyReplace:
		return PolicyReplace, nil
	}
	return "", fmt.Errorf("unknown duplicate-child policy %q", s)
}

// Catalog supplies the default vaccine definitions.
type Catalog interface {
	ListDefaults() ([]model.Vaccine, error)
}

// RecordStore is the persistence boundary for child vaccine records.
// ReplaceByChild must be atomic: either the new schedule fully supplants the
// old one, or the old one survives untouched.
type RecordStore interface {
	BulkInsert(records []model.ChildVaccine) (int, error)
	CountByChild(userID int64, babyName string) (int, error)
	ReplaceByChild(userID int64, babyName string, records []model.ChildVaccine) (int, error)
}

// Service registers children: it derives a schedule from the catalog and the
// date of birth, then persists it in one bulk insert.
type Service struct {
	catalog Catalog
	records RecordStore
	policy  DuplicatePolicy
}

func NewService(catalog Catalog, records RecordStore, policy DuplicatePolicy) *Service {
	if policy == "" {
		policy = PolicyAppend
	}
	return &Service{catalog: catalog, records: records, policy: policy}
}

// Result echoes what the API returns after a registration.
type Result struct {
	BabyName      string
	VaccinesCount int
}

// RegisterChild validates input, applies the duplicate policy, generates the
// schedule, and persists it. An empty default catalog is a valid outcome
// with zero scheduled vaccines.
func (s *Service) RegisterChild(userID int64, babyName, dateOfBirth string) (*Result, error) {
	babyName = strings.TrimSpace(babyName)
	dateOfBirth = strings.TrimSpace(dateOfBirth)
	if babyName == "" || dateOfBirth == "" {
		return nil, ErrMissingFields
	}

	dob, err := time.Parse("2006-01-02", dateOfBirth)
	if err != nil {
		return nil, ErrInvalidDate
	}

	if s.policy == PolicyReject {
		count, err := s.records.CountByChild(userID, babyName)
		if err != nil {
			return nil, fmt.Errorf("check existing records: %w", err)
		}
		if count > 0 {
			return nil, ErrDuplicateChild
		}
	}

	// Build the full replacement schedule before touching existing rows, so
	// a catalog or persistence failure cannot leave the child with nothing.
	defaults, err := s.catalog.ListDefaults()
	if err != nil {
		return nil, fmt.Errorf("load default vaccines: %w", err)
	}

	records := schedule.Generate(defaults, dob)
	for i := range records {
		records[i].UserID = userID
		records[i].BabyName = babyName
	}

	var count int
	if s.policy == PolicyReplace {
		count, err = s.records.ReplaceByChild(userID, babyName, records)
	} else {
		count, err = s.records.BulkInsert(records)
	}
	if err != nil {
		return nil, fmt.Errorf("persist schedule: %w", err)
	}

	return &Result{BabyName: babyName, VaccinesCount: count}, nil
}
