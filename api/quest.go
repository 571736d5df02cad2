package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/uxpromo/limboquest-api/db"
	"github.com/uxpromo/limboquest-api/util"
)

type QuestRequest struct {
	Title            string     `json:"title" binding:"required"`
	Subtitle         string     `json:"subtitle"`
	Playtime         string     `json:"playtime"`
	PlayersMin       *int       `json:"players_min"`
	PlayersMax       *int       `json:"players_max"`
	PricingRuleID    uuid.UUID  `json:"pricing_rule_id" binding:"required"`
	LocationID       *uuid.UUID `json:"location_id"`
	ShortDescription string     `json:"short_description"`
	FullDescription  string     `json:"full_description"`
	AdditionalInfo   string     `json:"additional_info"`
	AgeRating        string     `json:"age_rating"`
	IsVisible        *bool      `json:"is_visible"`
	IsInDev          *bool      `json:"is_in_dev"`
	OpeningDateText  string     `json:"opening_date_text"`

	// Statistics trio. Each manual value only sticks when its is_auto flag
	// is turned off, otherwise the background recompute overwrites it.
	AverageTime       *int  `json:"average_time"`
	IsAutoAverageTime *bool `json:"is_auto_average_time"`
	Passability       *int  `json:"passability"`
	IsAutoPassability *bool `json:"is_auto_passability"`
	BestTime          *int  `json:"best_time"`
	IsAutoBestTime    *bool `json:"is_auto_best_time"`

	DifficultyLevel *int  `json:"difficulty_level"`
	ScarinessLevel  *int  `json:"scariness_level"`
	IsBookable      *bool `json:"is_bookable"`
	Sort            *int  `json:"sort"`
}

// Shared validation for create and update
func (server *Server) validateQuestRequest(ctx *gin.Context, req *QuestRequest) bool {
	if req.PlayersMin != nil && req.PlayersMax != nil && *req.PlayersMin > *req.PlayersMax {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"players_min cannot exceed players_max"})
		return false
	}

	if _, err := server.queries.GetPricingRuleByID(ctx, req.PricingRuleID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ctx.JSON(http.StatusBadRequest, ErrorResponse{"Unknown pricing rule"})
			return false
		}
		util.LOGGER.Error("quest request validation: failed to get pricing rule", "id", req.PricingRuleID, "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return false
	}

	if req.LocationID != nil {
		if _, err := server.queries.GetLocation(ctx, *req.LocationID); err != nil {
			if errors.Is(err, db.ErrNotFound) {
				ctx.JSON(http.StatusBadRequest, ErrorResponse{"Unknown location"})
				return false
			}
			util.LOGGER.Error("quest request validation: failed to get location", "id", *req.LocationID, "error", err)
			ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
			return false
		}
	}

	return true
}

// ListQuests godoc
// @Summary      List quest rooms
// @Tags         Quests
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} db.Quest "All quests, soft-deleted ones excluded"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/v1/admin/quests [get]
func (server *Server) ListQuests(ctx *gin.Context) {
	quests, err := server.queries.ListQuests(ctx)
	if err != nil {
		util.LOGGER.Error("GET /api/v1/admin/quests: failed to list quests", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, quests)
}

// CreateQuest godoc
// @Summary      Create a quest room
// @Description  The URL slug is derived from the title and must be unique.
// @Tags         Quests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body QuestRequest true "Quest attributes"
// @Success      200 {object} db.Quest "Created quest"
// @Failure      400 {object} ErrorResponse "Invalid request body | Unknown pricing rule | Unknown location | A quest with this title already exists"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/v1/admin/quests [post]
func (server *Server) CreateQuest(ctx *gin.Context) {
	var req QuestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.LOGGER.Warn("POST /api/v1/admin/quests: failed to bind request body", "error", err)
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	if !server.validateQuestRequest(ctx, &req) {
		return
	}

	slug := util.GenerateSlug(req.Title)
	if _, err := server.queries.GetQuestBySlug(ctx, slug); err == nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"A quest with this title already exists"})
		return
	} else if !errors.Is(err, db.ErrNotFound) {
		util.LOGGER.Error("POST /api/v1/admin/quests: failed to check slug uniqueness", "slug", slug, "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	quest := &db.Quest{
		Model:             db.NewModel(),
		AuthorID:          server.authorizedUser(ctx).ID,
		Slug:              slug,
		Title:             req.Title,
		Subtitle:          req.Subtitle,
		Playtime:          req.Playtime,
		PlayersMin:        req.PlayersMin,
		PlayersMax:        req.PlayersMax,
		PricingRuleID:     req.PricingRuleID,
		LocationID:        req.LocationID,
		ShortDescription:  req.ShortDescription,
		FullDescription:   req.FullDescription,
		AdditionalInfo:    req.AdditionalInfo,
		AgeRating:         req.AgeRating,
		OpeningDateText:   req.OpeningDateText,
		AverageTime:       req.AverageTime,
		IsAutoAverageTime: true,
		Passability:       req.Passability,
		IsAutoPassability: true,
		BestTime:          req.BestTime,
		IsAutoBestTime:    true,
		DifficultyLevel:   req.DifficultyLevel,
		ScarinessLevel:    req.ScarinessLevel,
		IsBookable:        true,
		Sort:              999,
	}
	applyQuestFlags(quest, &req)

	if err := server.queries.CreateQuest(ctx, quest); err != nil {
		util.LOGGER.Error("POST /api/v1/admin/quests: failed to create quest", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, quest)
}

// Optional flags shared between create and update: only apply what the
// client actually sent
func applyQuestFlags(quest *db.Quest, req *QuestRequest) {
	if req.IsVisible != nil {
		quest.IsVisible = *req.IsVisible
	}
	if req.IsInDev != nil {
		quest.IsInDev = *req.IsInDev
	}
	if req.IsAutoAverageTime != nil {
		quest.IsAutoAverageTime = *req.IsAutoAverageTime
	}
	if req.IsAutoPassability != nil {
		quest.IsAutoPassability = *req.IsAutoPassability
	}
	if req.IsAutoBestTime != nil {
		quest.IsAutoBestTime = *req.IsAutoBestTime
	}
	if req.IsBookable != nil {
		quest.IsBookable = *req.IsBookable
	}
	if req.Sort != nil {
		quest.Sort = *req.Sort
	}
}

// GetQuest godoc
// @Summary      Get a quest room
// @Tags         Quests
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Quest ID"
// @Success      200 {object} db.Quest "Quest"
// @Failure      400 {object} ErrorResponse "Invalid id"
// @Failure      404 {object} ErrorResponse "No quest with such ID"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/v1/admin/quests/{id} [get]
func (server *Server) GetQuest(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	quest, err := server.queries.GetQuestByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{"No quest with such ID"})
			return
		}
		util.LOGGER.Error("GET /api/v1/admin/quests/{id}: failed to get quest", "id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, quest)
}

// UpdateQuest godoc
// @Summary      Update a quest room
// @Description  Renaming the quest regenerates its slug, which must stay unique.
// @Tags         Quests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Quest ID"
// @Param        request body QuestRequest true "Quest attributes"
// @Success      200 {object} db.Quest "Updated quest"
// @Failure      400 {object} ErrorResponse "Invalid id | Invalid request body | Unknown pricing rule | Unknown location | A quest with this title already exists"
// @Failure      404 {object} ErrorResponse "No quest with such ID"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/v1/admin/quests/{id} [put]
func (server *Server) UpdateQuest(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	var req QuestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.LOGGER.Warn("PUT /api/v1/admin/quests/{id}: failed to bind request body", "error", err)
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	if !server.validateQuestRequest(ctx, &req) {
		return
	}

	quest, err := server.queries.GetQuestByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{"No quest with such ID"})
			return
		}
		util.LOGGER.Error("PUT /api/v1/admin/quests/{id}: failed to get quest", "id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	// A rename means a new slug, which must not collide with another quest
	if req.Title != quest.Title {
		slug := util.GenerateSlug(req.Title)
		if existing, err := server.queries.GetQuestBySlug(ctx, slug); err == nil && existing.ID != quest.ID {
			ctx.JSON(http.StatusBadRequest, ErrorResponse{"A quest with this title already exists"})
			return
		} else if err != nil && !errors.Is(err, db.ErrNotFound) {
			util.LOGGER.Error("PUT /api/v1/admin/quests/{id}: failed to check slug uniqueness", "slug", slug, "error", err)
			ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
			return
		}
		quest.Slug = slug
	}

	quest.Title = req.Title
	quest.Subtitle = req.Subtitle
	quest.Playtime = req.Playtime
	quest.PlayersMin = req.PlayersMin
	quest.PlayersMax = req.PlayersMax
	quest.PricingRuleID = req.PricingRuleID
	quest.LocationID = req.LocationID
	quest.ShortDescription = req.ShortDescription
	quest.FullDescription = req.FullDescription
	quest.AdditionalInfo = req.AdditionalInfo
	quest.AgeRating = req.AgeRating
	quest.OpeningDateText = req.OpeningDateText
	quest.AverageTime = req.AverageTime
	quest.Passability = req.Passability
	quest.BestTime = req.BestTime
	quest.DifficultyLevel = req.DifficultyLevel
	quest.ScarinessLevel = req.ScarinessLevel
	applyQuestFlags(quest, &req)

	if err := server.queries.UpdateQuest(ctx, quest); err != nil {
		util.LOGGER.Error("PUT /api/v1/admin/quests/{id}: failed to update quest", "id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, quest)
}

// DeleteQuest godoc
// @Summary      Delete a quest room (soft)
// @Tags         Quests
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Quest ID"
// @Success      200 {object} SuccessMessage "Quest deleted"
// @Failure      400 {object} ErrorResponse "Invalid id"
// @Failure      404 {object} ErrorResponse "No quest with such ID"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/v1/admin/quests/{id} [delete]
func (server *Server) DeleteQuest(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	if err := server.queries.DeleteQuest(ctx, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{"No quest with such ID"})
			return
		}
		util.LOGGER.Error("DELETE /api/v1/admin/quests/{id}: failed to delete quest", "id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, SuccessMessage{"Quest deleted"})
}

// GetQuestStats godoc
// @Summary      Play statistics for a quest
// @Description  Aggregates completed bookings: games played, games won, average play time and best winning time.
// @Tags         Quests
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Quest ID"
// @Success      200 {object} db.QuestStats "Aggregated statistics"
// @Failure      400 {object} ErrorResponse "Invalid id"
// @Failure      404 {object} ErrorResponse "No quest with such ID"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/v1/admin/quests/{id}/stats [get]
func (server *Server) GetQuestStats(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	if _, err := server.queries.GetQuestByID(ctx, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{"No quest with such ID"})
			return
		}
		util.LOGGER.Error("GET /api/v1/admin/quests/{id}/stats: failed to get quest", "id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	stats, err := server.queries.GetQuestStats(ctx, id)
	if err != nil {
		util.LOGGER.Error("GET /api/v1/admin/quests/{id}/stats: failed to aggregate stats", "id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, stats)
}
