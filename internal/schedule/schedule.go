package schedule

import (
	"time"

	"github.com/cradlehealth/cradle/internal/model"
)

// DateOnly normalizes t to midnight UTC. Scheduling works on calendar days;
// the clock portion of a parsed date must not shift vaccine dates across
// timezones.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Generate maps the default vaccine catalog onto a child's date of birth,
// producing one draft record per catalog entry with
//
//	scheduledDate = dateOfBirth + ageInWeeks*7 days
//
// and status Pending. The caller stamps ownership (user, baby name) before
// persisting. An empty catalog yields an empty schedule; Generate never
// fails.
func Generate(defaults []model.Vaccine, dateOfBirth time.Time) []model.ChildVaccine {
	dob := DateOnly(dateOfBirth)

	records := make([]model.ChildVaccine, 0, len(defaults))
	for _, v := range defaults {
		records = append(records, model.ChildVaccine{
			DateOfBirth:   dob,
			VaccineID:     v.ID,
			ScheduledDate: dob.AddDate(0, 0, v.AgeInWeeks*7),
			Status:        model.StatusPending,
		})
	}
	return records
}
