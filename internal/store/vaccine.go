package store

import (
	"database/sql"
	"fmt"

	"github.com/cradlehealth/cradle/internal/model"
)

type VaccineStore struct {
	db *sql.DB
}

func NewVaccineStore(db *sql.DB) *VaccineStore {
	return &VaccineStore{db: db}
}

func scanVaccine(scanner interface{ Scan(...any) error }) (*model.Vaccine, error) {
	var v model.Vaccine
	err := scanner.Scan(&v.ID, &v.Name, &v.AgeInWeeks, &v.IsDefault, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

const vaccineCols = `id, name, age_in_weeks, is_default, created_at, updated_at`

func (s *VaccineStore) List() ([]model.Vaccine, error) {
	rows, err := s.db.Query(`SELECT ` + vaccineCols + ` FROM vaccines ORDER BY age_in_weeks, name`)
	if err != nil {
		return nil, fmt.Errorf("query vaccines: %w", err)
	}
	defer rows.Close()

	var vaccines []model.Vaccine
	for rows.Next() {
		v, err := scanVaccine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vaccine: %w", err)
		}
		vaccines = append(vaccines, *v)
	}
	return vaccines, rows.Err()
}

// ListDefaults returns the catalog entries that make up a newborn's default
// schedule.
func (s *VaccineStore) ListDefaults() ([]model.Vaccine, error) {
	rows, err := s.db.Query(`SELECT ` + vaccineCols + ` FROM vaccines WHERE is_default = 1 ORDER BY age_in_weeks, name`)
	if err != nil {
		return nil, fmt.Errorf("query default vaccines: %w", err)
	}
	defer rows.Close()

	var vaccines []model.Vaccine
	for rows.Next() {
		v, err := scanVaccine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vaccine: %w", err)
		}
		vaccines = append(vaccines, *v)
	}
	return vaccines, rows.Err()
}

func (s *VaccineStore) GetByID(id int64) (*model.Vaccine, error) {
	row := s.db.QueryRow(`SELECT `+vaccineCols+` FROM vaccines WHERE id = ?`, id)
	v, err := scanVaccine(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get vaccine: %w", err)
	}
	return v, nil
}

func (s *VaccineStore) Create(name string, ageInWeeks int, isDefault bool) (*model.Vaccine, error) {
	result, err := s.db.Exec(
		`INSERT INTO vaccines (name, age_in_weeks, is_default) VALUES (?, ?, ?)`,
		name, ageInWeeks, isDefault,
	)
	if err != nil {
		return nil, fmt.Errorf("insert vaccine: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *VaccineStore) Update(id int64, name string, ageInWeeks int, isDefault bool) (*model.Vaccine, error) {
	_, err := s.db.Exec(
		`UPDATE vaccines SET name = ?, age_in_weeks = ?, is_default = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, ageInWeeks, isDefault, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update vaccine: %w", err)
	}
	return s.GetByID(id)
}

func (s *VaccineStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM vaccines WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete vaccine: %w", err)
	}
	return nil
}

// Referenced reports whether any child schedule references the vaccine.
// Referenced catalog entries must not be deleted; schedules would lose their
// metadata join.
func (s *VaccineStore) Referenced(id int64) (bool, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM child_vaccines WHERE vaccine_id = ?`, id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check vaccine references: %w", err)
	}
	return count > 0, nil
}

// ReplaceDefaults swaps the default catalog for the given set in one
// transaction. Used by the seeding tool.
func (s *VaccineStore) ReplaceDefaults(vaccines []model.Vaccine) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM vaccines WHERE is_default = 1 AND id NOT IN (SELECT vaccine_id FROM child_vaccines)`); err != nil {
		return fmt.Errorf("delete default vaccines: %w", err)
	}
	// Referenced entries stay but drop out of the default set.
	if _, err := tx.Exec(`UPDATE vaccines SET is_default = 0, updated_at = CURRENT_TIMESTAMP WHERE is_default = 1`); err != nil {
		return fmt.Errorf("demote default vaccines: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO vaccines (name, age_in_weeks, is_default) VALUES (?, ?, 1)`)
	if err != nil {
		return fmt.Errorf("prepare stmt: %w", err)
	}
	defer stmt.Close()

	for _, v := range vaccines {
		if _, err := stmt.Exec(v.Name, v.AgeInWeeks); err != nil {
			return fmt.Errorf("insert vaccine %q: %w", v.Name, err)
		}
	}

	return tx.Commit()
}
