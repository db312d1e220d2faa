package database

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"stagepass/models"
)

func TestSeedDatabase(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := SeedDatabase(db); err != nil {
			t.Fatalf("SeedDatabase run %d failed: %v", i+1, err)
		}
	}

	var stage models.Stage
	if err := db.Where("join_code = ?", DemoJoinCode).First(&stage).Error; err != nil {
		t.Fatalf("Expected demo stage: %v", err)
	}

	var songs []models.Song
	db.Where("stage_id = ?", stage.ID).Order("created_at ASC").Find(&songs)
	if len(songs) != 3 || songs[0].Title != "Imagine" {
		t.Errorf("Expected 3 demo songs starting with Imagine, got %d", len(songs))
	}

	var stages int64
	db.Model(&models.Stage{}).Count(&stages)
	if stages != 1 {
		t.Errorf("Expected seeding to be idempotent, got %d stages", stages)
	}
}
