package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/uxpromo/limboquest-api/db"
	"github.com/uxpromo/limboquest-api/util"
)

type PricingRuleRequest struct {
	Name           string `json:"name" binding:"required"`
	Description    string `json:"description"`
	IsForQuests    bool   `json:"is_for_quests"`
	IsForGiftCards bool   `json:"is_for_gift_cards"`
	BasePrice      int    `json:"base_price" binding:"min=0"`

	// Player-based mode: both set. Flat mode: both null.
	BasePlayersCount   *int `json:"base_players_count"`
	SurchargePerPlayer *int `json:"surcharge_per_player"`

	IsActive *bool `json:"is_active"`
}

// Player-based fields come in pairs; one without the other leaves the rule
// in neither mode
func (req *PricingRuleRequest) validate(ctx *gin.Context) bool {
	if (req.BasePlayersCount == nil) != (req.SurchargePerPlayer == nil) {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"base_players_count and surcharge_per_player must be set together"})
		return false
	}
	if req.BasePlayersCount != nil && *req.BasePlayersCount < 1 {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"base_players_count must be at least 1"})
		return false
	}
	if req.SurchargePerPlayer != nil && *req.SurchargePerPlayer < 0 {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"surcharge_per_player cannot be negative"})
		return false
	}
	return true
}

// ListPricingRules godoc
// @Summary      List pricing rules
// @Tags         PricingRules
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} db.PricingRule "All rules, soft-deleted ones excluded"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/v1/admin/pricing-rules [get]
func (server *Server) ListPricingRules(ctx *gin.Context) {
	rules, err := server.queries.ListPricingRules(ctx)
	if err != nil {
		util.LOGGER.Error("GET /api/v1/admin/pricing-rules: failed to list pricing rules", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, rules)
}

// CreatePricingRule godoc
// @Summary      Create a pricing rule
// @Description  Player-based rules set base_players_count and surcharge_per_player together; flat rules leave both null.
// @Tags         PricingRules
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body PricingRuleRequest true "Rule attributes"
// @Success      200 {object} db.PricingRule "Created rule"
// @Failure      400 {object} ErrorResponse "Invalid request body | base_players_count and surcharge_per_player must be set together"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/v1/admin/pricing-rules [post]
func (server *Server) CreatePricingRule(ctx *gin.Context) {
	var req PricingRuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.LOGGER.Warn("POST /api/v1/admin/pricing-rules: failed to bind request body", "error", err)
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	if !req.validate(ctx) {
		return
	}

	rule := &db.PricingRule{
		Model:              db.NewModel(),
		Name:               req.Name,
		Description:        req.Description,
		IsForQuests:        req.IsForQuests,
		IsForGiftCards:     req.IsForGiftCards,
		BasePrice:          req.BasePrice,
		BasePlayersCount:   req.BasePlayersCount,
		SurchargePerPlayer: req.SurchargePerPlayer,
		IsActive:           true,
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}

	if err := server.queries.CreatePricingRule(ctx, rule); err != nil {
		util.LOGGER.Error("POST /api/v1/admin/pricing-rules: failed to create pricing rule", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, rule)
}

// GetPricingRule godoc
// @Summary      Get a pricing rule
// @Tags         PricingRules
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Rule ID"
// @Success      200 {object} db.PricingRule "Rule"
// @Failure      400 {object} ErrorResponse "Invalid id"
// @Failure      404 {object} ErrorResponse "No pricing rule with such ID"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/v1/admin/pricing-rules/{id} [get]
func (server *Server) GetPricingRule(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	rule, err := server.queries.GetPricingRuleByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{"No pricing rule with such ID"})
			return
		}
		util.LOGGER.Error("GET /api/v1/admin/pricing-rules/{id}: failed to get pricing rule", "id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, rule)
}

// UpdatePricingRule godoc
// @Summary      Update a pricing rule
// @Description  Edits change only future bookings: existing bookings keep the snapshot frozen at admission.
// @Tags         PricingRules
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Rule ID"
// @Param        request body PricingRuleRequest true "Rule attributes"
// @Success      200 {object} db.PricingRule "Updated rule"
// @Failure      400 {object} ErrorResponse "Invalid id | Invalid request body | base_players_count and surcharge_per_player must be set together"
// @Failure      404 {object} ErrorResponse "No pricing rule with such ID"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/v1/admin/pricing-rules/{id} [put]
func (server *Server) UpdatePricingRule(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	var req PricingRuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.LOGGER.Warn("PUT /api/v1/admin/pricing-rules/{id}: failed to bind request body", "error", err)
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	if !req.validate(ctx) {
		return
	}

	rule, err := server.queries.GetPricingRuleByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{"No pricing rule with such ID"})
			return
		}
		util.LOGGER.Error("PUT /api/v1/admin/pricing-rules/{id}: failed to get pricing rule", "id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	rule.Name = req.Name
	rule.Description = req.Description
	rule.IsForQuests = req.IsForQuests
	rule.IsForGiftCards = req.IsForGiftCards
	rule.BasePrice = req.BasePrice
	rule.BasePlayersCount = req.BasePlayersCount
	rule.SurchargePerPlayer = req.SurchargePerPlayer
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}

	if err := server.queries.UpdatePricingRule(ctx, rule); err != nil {
		util.LOGGER.Error("PUT /api/v1/admin/pricing-rules/{id}: failed to update pricing rule", "id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, rule)
}

// DeletePricingRule godoc
// @Summary      Delete a pricing rule (soft)
// @Description  Soft delete keeps the row readable for historical snapshots that reference it.
// @Tags         PricingRules
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Rule ID"
// @Success      200 {object} SuccessMessage "Pricing rule deleted"
// @Failure      400 {object} ErrorResponse "Invalid id"
// @Failure      404 {object} ErrorResponse "No pricing rule with such ID"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/v1/admin/pricing-rules/{id} [delete]
func (server *Server) DeletePricingRule(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	if err := server.queries.DeletePricingRule(ctx, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{"No pricing rule with such ID"})
			return
		}
		util.LOGGER.Error("DELETE /api/v1/admin/pricing-rules/{id}: failed to delete pricing rule", "id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, SuccessMessage{"Pricing rule deleted"})
}
