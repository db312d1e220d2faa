package database

import (
	"log"
	"time"

	"gorm.io/gorm"
	"stagepass/models"
)

// DemoJoinCode is the join code of the stage created by SeedDatabase.
const DemoJoinCode = "123456"

// SeedDatabase creates a demo stage with a host user, a long-lived session
// and a few queued songs.
func SeedDatabase(db *gorm.DB) error {
	log.Println("Seeding database with sample data...")

	var stageCount int64
	db.Model(&models.Stage{}).Where("join_code = ?", DemoJoinCode).Count(&stageCount)
	if stageCount > 0 {
		log.Println("Database already seeded, skipping...")
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		stage := models.Stage{Name: "Demo Night", JoinCode: DemoJoinCode, MaxCapacity: 10}
		if err := tx.Create(&stage).Error; err != nil {
			log.Printf("Failed to create demo stage: %v", err)
			return err
		}

		host := models.User{Name: "Demo Host", Email: "host@stagepass.local", StageID: &stage.ID}
		if err := tx.Create(&host).Error; err != nil {
			return err
		}

		session := models.Session{
			Token:     "demo-session-token",
			UserID:    host.ID,
			ExpiresAt: time.Now().AddDate(1, 0, 0),
		}
		if err := tx.Create(&session).Error; err != nil {
			return err
		}

		songs := []models.Song{
			{StageID: stage.ID, Title: "Imagine", Artist: "John Lennon", RequestedBy: host.Name},
			{StageID: stage.ID, Title: "Bohemian Rhapsody", Artist: "Queen", RequestedBy: host.Name},
			{StageID: stage.ID, Title: "Dancing Queen", Artist: "ABBA", RequestedBy: host.Name},
		}
		base := time.Now()
		for i := range songs {
			songs[i].CreatedAt = base.Add(time.Duration(i) * time.Millisecond)
			if err := tx.Create(&songs[i]).Error; err != nil {
				log.Printf("Failed to create song %s: %v", songs[i].Title, err)
				return err
			}
		}

		log.Printf("Seeded demo stage %s (join code %s) with %d songs", stage.ID, DemoJoinCode, len(songs))
		return nil
	})
}
