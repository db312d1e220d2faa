package main

import (
	"context"
	"fmt"
	"log"

	"stagepass/config"
	"stagepass/database"
	"stagepass/models"
	"stagepass/youtube"
)

// Backfills karaoke video ids for queued songs on active stages so that
// rooms opened later do not have to resolve them one at a time.
func main() {
	db, err := database.InitDB()
	if err != nil {
		log.Fatal("Failed to connect:", err)
	}
	defer database.ShutdownDB()

	client := youtube.NewClient(config.YouTube, nil)
	if !client.IsConfigured() {
		log.Fatal("YOUTUBE_API_KEY is not set")
	}

	var songs []models.Song
	result := db.
		Joins("JOIN stages ON stages.id = songs.stage_id").
		Where("stages.is_terminated = ?", false).
		Where("songs.video_id = ? OR songs.video_id IS NULL", "").
		Order("songs.created_at ASC").
		Find(&songs)
	if result.Error != nil {
		log.Fatal("Failed to list songs:", result.Error)
	}
	fmt.Printf("Found %d songs without a video\n", result.RowsAffected)

	ctx := context.Background()
	updated, missing := 0, 0
	for _, song := range songs {
		fmt.Printf("\nProcessing: %s - %s (stage %s)\n", song.Artist, song.Title, song.StageID)

		videoID, err := client.ResolveKaraoke(ctx, song.Title, song.Artist)
		if err != nil {
			fmt.Printf("  ERROR resolving: %v\n", err)
			continue
		}
		if videoID == "" {
			fmt.Printf("  No karaoke video found\n")
			missing++
			continue
		}

		if err := db.Model(&song).Update("video_id", videoID).Error; err != nil {
			fmt.Printf("  ERROR saving %s: %v\n", videoID, err)
			continue
		}
		fmt.Printf("  -> %s\n", videoID)
		updated++
	}

	fmt.Printf("\n=== SUMMARY ===\n")
	fmt.Printf("Updated %d songs, %d without a match\n", updated, missing)
	fmt.Printf("YouTube requests left this minute: %d\n", client.GetRateLimitRemaining())
}
