package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"stagepass/utils"
	"stagepass/youtube"

	"github.com/gin-gonic/gin"
)

const minSearchQueryLength = 3

type VideoSearcher interface {
	SearchGeneral(ctx context.Context, query string, maxResults int) ([]youtube.Video, error)
}

type YouTubeController struct {
	searcher VideoSearcher
	suffix   string
}

// NewYouTubeController serves search suggestions for the add-song sheet.
// suffix is appended to every query.
func NewYouTubeController(searcher VideoSearcher, suffix string) *YouTubeController {
	return &YouTubeController{searcher: searcher, suffix: strings.TrimSpace(suffix)}
}

func (c *YouTubeController) Search(ctx *gin.Context) {
	query := strings.TrimSpace(ctx.Query("q"))
	if utf8.RuneCountInString(query) < minSearchQueryLength {
		utils.ValidationError(ctx, "q must be at least 3 characters")
		return
	}

	maxResults := youtube.DefaultSuggestions
	if raw := ctx.Query("max"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			utils.ValidationError(ctx, "max must be an integer")
			return
		}
		maxResults = youtube.ClampResults(n)
	}

	if c.suffix != "" {
		query += " " + c.suffix
	}

	videos, err := c.searcher.SearchGeneral(ctx.Request.Context(), query, maxResults)
	if errors.Is(err, youtube.ErrNotConfigured) {
		utils.ServiceUnavailable(ctx, "YouTube search is not configured")
		return
	}
	if err != nil {
		log.Printf("YT: suggestion search failed: %v", err)
		utils.BadGateway(ctx, "YouTube search failed")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"query": query, "results": videos})
}
