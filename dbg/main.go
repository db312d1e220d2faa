package main

import (
	"fmt"
	"log"

	"stagepass/database"
	"stagepass/models"
)

func main() {
	db, err := database.InitDB()
	if err != nil {
		log.Fatal("Failed to connect:", err)
	}
	defer database.ShutdownDB()

	var stages []models.Stage
	result := db.Where("is_terminated = ?", false).Order("created_at DESC").Limit(20).Find(&stages)

	fmt.Printf("Found %d active stages\n", result.RowsAffected)
	for _, stage := range stages {
		var participants int64
		db.Model(&models.User{}).Where("stage_id = ?", stage.ID).Count(&participants)

		fmt.Printf("\n=== %s (code=%s, %d/%d participants) ===\n",
			stage.Name, stage.JoinCode, participants, stage.MaxCapacity)

		var songs []models.Song
		db.Where("stage_id = ?", stage.ID).Order("created_at ASC").Limit(20).Find(&songs)
		for i, song := range songs {
			fmt.Printf("%2d. ID=%s Title='%s' Artist='%s' VideoID='%s' By='%s'\n",
				i+1, song.ID, song.Title, song.Artist, song.VideoID, song.RequestedBy)
		}
	}
}
