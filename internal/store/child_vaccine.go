package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/cradlehealth/cradle/internal/model"
)

type ChildVaccineStore struct {
	db *sql.DB
}

func NewChildVaccineStore(db *sql.DB) *ChildVaccineStore {
	return &ChildVaccineStore{db: db}
}

const childVaccineJoinedCols = `cv.id, cv.user_id, cv.baby_name, cv.date_of_birth, cv.vaccine_id, cv.scheduled_date, cv.status, cv.created_at, cv.updated_at,
	v.id, v.name, v.age_in_weeks, v.is_default, v.created_at, v.updated_at`

func scanChildVaccineJoined(scanner interface{ Scan(...any) error }) (*model.ChildVaccine, error) {
	var cv model.ChildVaccine
	var v model.Vaccine
	err := scanner.Scan(
		&cv.ID, &cv.UserID, &cv.BabyName, &cv.DateOfBirth, &cv.VaccineID, &cv.ScheduledDate, &cv.Status, &cv.CreatedAt, &cv.UpdatedAt,
		&v.ID, &v.Name, &v.AgeInWeeks, &v.IsDefault, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	cv.Vaccine = &v
	return &cv, nil
}

// BulkInsert persists all records in a single transaction so a child's
// schedule lands all-or-nothing. Returns the number of inserted rows.
func (s *ChildVaccineStore) BulkInsert(records []model.ChildVaccine) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO child_vaccines (user_id, baby_name, date_of_birth, vaccine_id, scheduled_date, status) VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("prepare stmt: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.Exec(rec.UserID, rec.BabyName, rec.DateOfBirth, rec.VaccineID, rec.ScheduledDate, rec.Status); err != nil {
			return 0, fmt.Errorf("insert child vaccine: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return len(records), nil
}

// ListChildren returns the distinct baby names registered by the user.
func (s *ChildVaccineStore) ListChildren(userID int64) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT DISTINCT baby_name FROM child_vaccines WHERE user_id = ? ORDER BY baby_name`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query children: %w", err)
	}
	defer rows.Close()

	var children []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan child name: %w", err)
		}
		children = append(children, name)
	}
	return children, rows.Err()
}

// ListByChild returns the child's schedule joined with vaccine metadata,
// sorted ascending by scheduled date.
func (s *ChildVaccineStore) ListByChild(userID int64, babyName string) ([]model.ChildVaccine, error) {
	rows, err := s.db.Query(
		`SELECT `+childVaccineJoinedCols+`
		 FROM child_vaccines cv
		 JOIN vaccines v ON v.id = cv.vaccine_id
		 WHERE cv.user_id = ? AND cv.baby_name = ?
		 ORDER BY cv.scheduled_date, cv.id`,
		userID, babyName,
	)
	if err != nil {
		return nil, fmt.Errorf("query child vaccines: %w", err)
	}
	defer rows.Close()

	var records []model.ChildVaccine
	for rows.Next() {
		cv, err := scanChildVaccineJoined(rows)
		if err != nil {
			return nil, fmt.Errorf("scan child vaccine: %w", err)
		}
		records = append(records, *cv)
	}
	return records, rows.Err()
}

func (s *ChildVaccineStore) GetByID(id, userID int64) (*model.ChildVaccine, error) {
	row := s.db.QueryRow(
		`SELECT `+childVaccineJoinedCols+`
		 FROM child_vaccines cv
		 JOIN vaccines v ON v.id = cv.vaccine_id
		 WHERE cv.id = ? AND cv.user_id = ?`,
		id, userID,
	)
	cv, err := scanChildVaccineJoined(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get child vaccine: %w", err)
	}
	return cv, nil
}

// MarkDone transitions an owned record from Pending to Done. Returns nil if
// the record does not exist or belongs to another user.
func (s *ChildVaccineStore) MarkDone(id, userID int64) (*model.ChildVaccine, error) {
	result, err := s.db.Exec(
		`UPDATE child_vaccines SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND user_id = ?`,
		model.StatusDone, id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("mark done: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}
	return s.GetByID(id, userID)
}

func (s *ChildVaccineStore) CountByChild(userID int64, babyName string) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM child_vaccines WHERE user_id = ? AND baby_name = ?`,
		userID, babyName,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count child vaccines: %w", err)
	}
	return count, nil
}

// DeleteByChild removes all of a child's records.
func (s *ChildVaccineStore) DeleteByChild(userID int64, babyName string) (int64, error) {
	result, err := s.db.Exec(
		`DELETE FROM child_vaccines WHERE user_id = ? AND baby_name = ?`,
		userID, babyName,
	)
	if err != nil {
		return 0, fmt.Errorf("delete child vaccines: %w", err)
	}
	return result.RowsAffected()
}

// ReplaceByChild swaps a child's schedule for the given records in one
// transaction; a failure rolls back the delete, so the existing schedule
// survives a failed re-registration. Used by the replace
// duplicate-registration policy. Returns the number of inserted rows.
func (s *ChildVaccineStore) ReplaceByChild(userID int64, babyName string, records []model.ChildVaccine) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`DELETE FROM child_vaccines WHERE user_id = ? AND baby_name = ?`,
		userID, babyName,
	); err != nil {
		return 0, fmt.Errorf("delete child vaccines: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO child_vaccines (user_id, baby_name, date_of_birth, vaccine_id, scheduled_date, status) VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("prepare stmt: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.Exec(rec.UserID, rec.BabyName, rec.DateOfBirth, rec.VaccineID, rec.ScheduledDate, rec.Status); err != nil {
			return 0, fmt.Errorf("insert child vaccine: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return len(records), nil
}

// ListPendingBetween returns Pending records scheduled in [start, end),
// joined with vaccine metadata. The reminder scheduler uses this to find
// doses coming due.
func (s *ChildVaccineStore) ListPendingBetween(start, end time.Time) ([]model.ChildVaccine, error) {
	rows, err := s.db.Query(
		`SELECT `+childVaccineJoinedCols+`
		 FROM child_vaccines cv
		 JOIN vaccines v ON v.id = cv.vaccine_id
		 WHERE cv.status = ? AND cv.scheduled_date >= ? AND cv.scheduled_date < ?
		 ORDER BY cv.user_id, cv.scheduled_date`,
		model.StatusPending, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("query pending vaccines: %w", err)
	}
	defer rows.Close()

	var records []model.ChildVaccine
	for rows.Next() {
		cv, err := scanChildVaccineJoined(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pending vaccine: %w", err)
		}
		records = append(records, *cv)
	}
	return records, rows.Err()
}
