package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/uxpromo/limboquest-api/db"
	"github.com/uxpromo/limboquest-api/util"
)

type SessionRequest struct {
	QuestID        uuid.UUID  `json:"quest_id" binding:"required"`
	StartsAt       time.Time  `json:"starts_at" binding:"required"`
	Duration       *int       `json:"duration"`
	PricingRuleID  *uuid.UUID `json:"pricing_rule_id"` // defaults to the quest's rule
	PrepaymentOnly *bool      `json:"prepayment_only"`
	Notes          string     `json:"notes"`
}

// Session plus its slot occupancy, so the schedule view doesn't need a
// second request per timeslot
type SessionResponse struct {
	db.QuestSession
	IsBooked bool `json:"is_booked"`
}

func sessionResponse(session db.QuestSession) SessionResponse {
	booked := false
	for i := range session.Bookings {
		if session.Bookings[i].IsActive() {
			booked = true
			break
		}
	}
	return SessionResponse{QuestSession: session, IsBooked: booked}
}

// ListSessions godoc
// @Summary      List quest sessions
// @Description  Sessions within a date range, optionally filtered by quest. Defaults to the next 7 days.
// @Tags         Sessions
// @Produce      json
// @Security     BearerAuth
// @Param        quest_id query string false "Quest ID filter"
// @Param        from     query string false "Range start, RFC 3339 or YYYY-MM-DD"
// @Param        to       query string false "Range end, RFC 3339 or YYYY-MM-DD"
// @Success      200 {array} SessionResponse "Sessions with occupancy"
// @Failure      400 {object} ErrorResponse "Invalid quest_id | Invalid from | Invalid to"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/v1/admin/quest-sessions [get]
func (server *Server) ListSessions(ctx *gin.Context) {
	var questID *uuid.UUID
	if raw := ctx.Query("quest_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid quest_id"})
			return
		}
		questID = &id
	}

	from := time.Now().Truncate(24 * time.Hour)
	if raw := ctx.Query("from"); raw != "" {
		parsed, err := parseTimeParam(raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid from"})
			return
		}
		from = parsed
	}

	to := from.AddDate(0, 0, 7)
	if raw := ctx.Query("to"); raw != "" {
		parsed, err := parseTimeParam(raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid to"})
			return
		}
		to = parsed
	}

	sessions, err := server.queries.ListSessions(ctx, questID, from, to)
	if err != nil {
		util.LOGGER.Error("GET /api/v1/admin/quest-sessions: failed to list sessions", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	resp := make([]SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		resp = append(resp, sessionResponse(session))
	}

	ctx.JSON(http.StatusOK, resp)
}

// Accept both full timestamps and bare dates in range parameters
func parseTimeParam(raw string) (time.Time, error) {
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed, nil
	}
	return time.Parse("2006-01-02", raw)
}

// CreateSession godoc
// @Summary      Create a quest session
// @Description  Schedules a timeslot for a quest. The pricing rule defaults to the quest's own rule when omitted.
// @Tags         Sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body SessionRequest true "Session attributes"
// @Success      200 {object} db.QuestSession "Created session"
// @Failure      400 {object} ErrorResponse "Invalid request body | Unknown quest | Unknown pricing rule"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/v1/admin/quest-sessions [post]
func (server *Server) CreateSession(ctx *gin.Context) {
	var req SessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.LOGGER.Warn("POST /api/v1/admin/quest-sessions: failed to bind request body", "error", err)
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	quest, err := server.queries.GetQuestByID(ctx, req.QuestID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ctx.JSON(http.StatusBadRequest, ErrorResponse{"Unknown quest"})
			return
		}
		util.LOGGER.Error("POST /api/v1/admin/quest-sessions: failed to get quest", "id", req.QuestID, "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ruleID := quest.PricingRuleID
	if req.PricingRuleID != nil {
		if _, err := server.queries.GetPricingRuleByID(ctx, *req.PricingRuleID); err != nil {
			if errors.Is(err, db.ErrNotFound) {
				ctx.JSON(http.StatusBadRequest, ErrorResponse{"Unknown pricing rule"})
				return
			}
			util.LOGGER.Error("POST /api/v1/admin/quest-sessions: failed to get pricing rule", "id", *req.PricingRuleID, "error", err)
			ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
			return
		}
		ruleID = *req.PricingRuleID
	}

	session := &db.QuestSession{
		Model:         db.NewModel(),
		AuthorID:      server.authorizedUser(ctx).ID,
		QuestID:       quest.ID,
		StartsAt:      req.StartsAt,
		Duration:      req.Duration,
		PricingRuleID: ruleID,
		Notes:         req.Notes,
	}
	if req.PrepaymentOnly != nil {
		session.PrepaymentOnly = *req.PrepaymentOnly
	}

	if err := server.queries.CreateSession(ctx, session); err != nil {
		util.LOGGER.Error("POST /api/v1/admin/quest-sessions: failed to create session", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, session)
}

// GetSession godoc
// @Summary      Get a quest session
// @Tags         Sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Session ID"
// @Success      200 {object} SessionResponse "Session with occupancy"
// @Failure      400 {object} ErrorResponse "Invalid id"
// @Failure      404 {object} ErrorResponse "No session with such ID"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/v1/admin/quest-sessions/{id} [get]
func (server *Server) GetSession(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	session, err := server.queries.GetSessionByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{"No session with such ID"})
			return
		}
		util.LOGGER.Error("GET /api/v1/admin/quest-sessions/{id}: failed to get session", "id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, sessionResponse(*session))
}

// UpdateSession godoc
// @Summary      Update a quest session
// @Tags         Sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Session ID"
// @Param        request body SessionRequest true "Session attributes"
// @Success      200 {object} db.QuestSession "Updated session"
// @Failure      400 {object} ErrorResponse "Invalid id | Invalid request body | Unknown quest | Unknown pricing rule"
// @Failure      404 {object} ErrorResponse "No session with such ID"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/v1/admin/quest-sessions/{id} [put]
func (server *Server) UpdateSession(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	var req SessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.LOGGER.Warn("PUT /api/v1/admin/quest-sessions/{id}: failed to bind request body", "error", err)
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	session, err := server.queries.GetSessionByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{"No session with such ID"})
			return
		}
		util.LOGGER.Error("PUT /api/v1/admin/quest-sessions/{id}: failed to get session", "id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	quest, err := server.queries.GetQuestByID(ctx, req.QuestID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ctx.JSON(http.StatusBadRequest, ErrorResponse{"Unknown quest"})
			return
		}
		util.LOGGER.Error("PUT /api/v1/admin/quest-sessions/{id}: failed to get quest", "id", req.QuestID, "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ruleID := quest.PricingRuleID
	if req.PricingRuleID != nil {
		if _, err := server.queries.GetPricingRuleByID(ctx, *req.PricingRuleID); err != nil {
			if errors.Is(err, db.ErrNotFound) {
				ctx.JSON(http.StatusBadRequest, ErrorResponse{"Unknown pricing rule"})
				return
			}
			util.LOGGER.Error("PUT /api/v1/admin/quest-sessions/{id}: failed to get pricing rule", "id", *req.PricingRuleID, "error", err)
			ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
			return
		}
		ruleID = *req.PricingRuleID
	}

	session.QuestID = quest.ID
	session.StartsAt = req.StartsAt
	session.Duration = req.Duration
	session.PricingRuleID = ruleID
	session.Notes = req.Notes
	if req.PrepaymentOnly != nil {
		session.PrepaymentOnly = *req.PrepaymentOnly
	}

	// Changing the session never touches existing bookings: their pricing
	// snapshot was frozen at admission
	session.Bookings = nil
	if err := server.queries.UpdateSession(ctx, session); err != nil {
		util.LOGGER.Error("PUT /api/v1/admin/quest-sessions/{id}: failed to update session", "id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, session)
}

// DeleteSession godoc
// @Summary      Delete a quest session
// @Description  Refused while the session still holds a pending or confirmed booking.
// @Tags         Sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Session ID"
// @Success      200 {object} SuccessMessage "Session deleted"
// @Failure      400 {object} ErrorResponse "Invalid id | Session has an active booking"
// @Failure      404 {object} ErrorResponse "No session with such ID"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/v1/admin/quest-sessions/{id} [delete]
func (server *Server) DeleteSession(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	session, err := server.queries.GetSessionByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{"No session with such ID"})
			return
		}
		util.LOGGER.Error("DELETE /api/v1/admin/quest-sessions/{id}: failed to get session", "id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	// Cancel or move the booking first, then delete the slot
	for i := range session.Bookings {
		if session.Bookings[i].IsActive() {
			ctx.JSON(http.StatusBadRequest, ErrorResponse{"Session has an active booking"})
			return
		}
	}

	if err := server.queries.DeleteSession(ctx, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{"No session with such ID"})
			return
		}
		util.LOGGER.Error("DELETE /api/v1/admin/quest-sessions/{id}: failed to delete session", "id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, SuccessMessage{"Session deleted"})
}
