package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/keepsake/content"
	"github.com/cppla/keepsake/utils"
)

// ContentController exposes the content catalog.
type ContentController struct {
	library *content.Library
}

// NewContentController creates a ContentController.
func NewContentController(library *content.Library) *ContentController {
	if library == nil {
		library = &content.Library{}
	}
	return &ContentController{library: library}
}

// Pools returns the catalog with its pool sizes.
func (c *ContentController) Pools(ctx *gin.Context) {
	utils.Success(ctx, gin.H{
		"sizes": gin.H{
			"photos":    len(c.library.Photos),
			"messages":  len(c.library.Messages),
			"minigames": len(c.library.Minigames),
		},
		"photos":      c.library.Photos,
		"messages":    c.library.Messages,
		"minigames":   c.library.Minigames,
		"specialDays": c.library.SpecialDays,
	})
}
