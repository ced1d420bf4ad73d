package models

import (
	"log"

	"github.com/amand4priscil4/DetectaBB-Backend-3/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&AnalysisJob{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
