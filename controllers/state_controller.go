package controllers

import (
	"errors"
	"math/rand"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/keepsake/content"
	"github.com/cppla/keepsake/engagement"
	"github.com/cppla/keepsake/middleware"
	"github.com/cppla/keepsake/services"
	"github.com/cppla/keepsake/utils"
)

// StateController serves the engagement record of the signed-in visitor.
type StateController struct {
	store   *services.StateStore
	library *content.Library
	loc     *time.Location
	now     func() time.Time
	newRand func() engagement.Rand
}

// NewStateController creates a StateController. loc decides where a calendar
// day starts for streaks and daily content.
func NewStateController(store *services.StateStore, library *content.Library, loc *time.Location) *StateController {
	if loc == nil {
		loc = time.UTC
	}
	return &StateController{
		store:   store,
		library: library,
		loc:     loc,
		now:     time.Now,
		newRand: func() engagement.Rand { return rand.New(rand.NewSource(time.Now().UnixNano())) },
	}
}

// Get returns the full record, creating the default one on first access.
func (s *StateController) Get(ctx *gin.Context) {
	identity, _ := middleware.Identity(ctx)
	st, err := s.store.Get(ctx.Request.Context(), identity)
	if err != nil {
		logError(ctx, "load state failed", err)
		utils.Error(ctx, http.StatusInternalServerError, 50020, "server_error")
		return
	}
	utils.Success(ctx, st)
}

// Update merges a partial record and returns the committed result.
func (s *StateController) Update(ctx *gin.Context) {
	identity, _ := middleware.Identity(ctx)
	var patch engagement.Patch
	if err := ctx.ShouldBindJSON(&patch); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid_payload")
		return
	}
	sanitizePatch(&patch)

	st, err := s.store.Merge(ctx.Request.Context(), identity, patch)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			utils.Error(ctx, http.StatusBadRequest, 40021, "invalid_state")
			return
		}
		logError(ctx, "merge state failed", err)
		utils.Error(ctx, http.StatusInternalServerError, 50021, "server_error")
		return
	}
	utils.Success(ctx, st)
}

// Visit counts today's visit and assigns today's content.
func (s *StateController) Visit(ctx *gin.Context) {
	identity, _ := middleware.Identity(ctx)
	today := engagement.Today(s.now(), s.loc)
	st, err := s.store.Visit(ctx.Request.Context(), identity, today, s.library.Pools(), s.newRand())
	if err != nil {
		logError(ctx, "visit failed", err)
		utils.Error(ctx, http.StatusInternalServerError, 50022, "server_error")
		return
	}
	utils.Success(ctx, st)
}

// sanitizePatch strips markup from free-form labels before they are stored.
func sanitizePatch(p *engagement.Patch) {
	if p.MoodReactions.Set {
		clean := make(map[string]string, len(p.MoodReactions.Value))
		for k, v := range p.MoodReactions.Value {
			clean[utils.SanitizeLabel(k)] = utils.SanitizeLabel(v)
		}
		p.MoodReactions.Value = clean
	}
	for _, set := range []*engagement.Opt[[]string]{&p.CollectedBadges, &p.CollectedTickets} {
		if !set.Set {
			continue
		}
		for i, v := range set.Value {
			set.Value[i] = utils.SanitizeLabel(v)
		}
	}
}
