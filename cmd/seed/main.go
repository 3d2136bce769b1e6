package main

import (
	"fmt"
	"log"
	"os"

	"github.com/cradlehealth/cradle/internal/database"
	"github.com/cradlehealth/cradle/internal/model"
	"github.com/cradlehealth/cradle/internal/store"
)

// defaultCatalog is the standard infant immunization schedule, offsets in
// weeks from the date of birth.
var defaultCatalog = []model.Vaccine{
	{Name: "BCG", AgeInWeeks: 0},
	{Name: "Hepatitis B - Birth Dose", AgeInWeeks: 0},
	{Name: "OPV-0", AgeInWeeks: 0},
	{Name: "DPT-1", AgeInWeeks: 6},
	{Name: "OPV-1", AgeInWeeks: 6},
	{Name: "Hepatitis B - 2", AgeInWeeks: 6},
	{Name: "Rotavirus-1", AgeInWeeks: 6},
	{Name: "PCV-1", AgeInWeeks: 6},
	{Name: "DPT-2", AgeInWeeks: 10},
	{Name: "OPV-2", AgeInWeeks: 10},
	{Name: "Rotavirus-2", AgeInWeeks: 10},
	{Name: "DPT-3", AgeInWeeks: 14},
	{Name: "OPV-3", AgeInWeeks: 14},
	{Name: "Rotavirus-3", AgeInWeeks: 14},
	{Name: "PCV-2", AgeInWeeks: 14},
	{Name: "Measles-1", AgeInWeeks: 39},
	{Name: "Vitamin A - 1", AgeInWeeks: 39},
	{Name: "MMR-1", AgeInWeeks: 39},
	{Name: "PCV Booster", AgeInWeeks: 52},
	{Name: "DPT Booster-1", AgeInWeeks: 68},
	{Name: "Measles-2", AgeInWeeks: 68},
	{Name: "OPV Booster", AgeInWeeks: 68},
}

// Re-seeds the default vaccine catalog. Entries referenced by existing child
// schedules are kept but demoted out of the default set.
func main() {
	dbPath := os.Getenv("CRADLE_DB_PATH")
	if dbPath == "" {
		dbPath = "cradle.db"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := store.NewVaccineStore(db).ReplaceDefaults(defaultCatalog); err != nil {
		log.Fatalf("seed vaccines: %v", err)
	}

	fmt.Printf("Seeded %d default vaccines into %s\n", len(defaultCatalog), dbPath)
}
