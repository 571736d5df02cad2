package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/uxpromo/limboquest-api/db"
	"github.com/uxpromo/limboquest-api/service/booking"
	"github.com/uxpromo/limboquest-api/service/worker"
	"github.com/uxpromo/limboquest-api/util"
)

// Map the booking engine's error kinds onto HTTP. The engine itself never
// knows about status codes.
func coreError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, booking.ErrSessionNotFound):
		ctx.JSON(http.StatusNotFound, ErrorResponse{"No session with such ID"})
	case errors.Is(err, booking.ErrBookingNotFound):
		ctx.JSON(http.StatusNotFound, ErrorResponse{"No booking with such ID"})
	case errors.Is(err, booking.ErrSessionUnavailable):
		ctx.JSON(http.StatusConflict, ErrorResponse{"Session is not available"})
	case errors.Is(err, booking.ErrConcurrentModification):
		ctx.JSON(http.StatusConflict, ErrorResponse{"Booking changed concurrently, reload and retry"})
	case errors.Is(err, booking.ErrRuleInactive):
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Pricing rule is inactive"})
	case errors.Is(err, booking.ErrPlayerCountOutOfRange):
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Player count out of range"})
	case errors.Is(err, booking.ErrInvalidTransition):
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid status change"})
	case errors.Is(err, booking.ErrInvalidDiscount):
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid discount"})
	default:
		util.LOGGER.Error("booking core error", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
	}
}

// ListBookings godoc
// @Summary      List bookings
// @Tags         Bookings
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} db.Booking "All bookings, newest first"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/v1/admin/bookings [get]
func (server *Server) ListBookings(ctx *gin.Context) {
	bookings, err := server.queries.ListBookings(ctx)
	if err != nil {
		util.LOGGER.Error("GET /api/v1/admin/bookings: failed to list bookings", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, bookings)
}

// LookupBooking godoc
// @Summary      Find a booking by its code
// @Description  Front desk lookup: resolves a scanned or spoken booking code to the booking.
// @Tags         Bookings
// @Produce      json
// @Security     BearerAuth
// @Param        code query string true "Booking code, e.g. LQ-7KF2M9QH"
// @Success      200 {object} db.Booking "Booking"
// @Failure      400 {object} ErrorResponse "Code cannot be empty"
// @Failure      404 {object} ErrorResponse "No booking with this code"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/v1/admin/bookings/lookup [get]
func (server *Server) LookupBooking(ctx *gin.Context) {
	code := strings.TrimSpace(ctx.Query("code"))
	if code == "" {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Code cannot be empty"})
		return
	}

	record, err := server.queries.GetBookingByCode(ctx, code)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{"No booking with this code"})
			return
		}
		util.LOGGER.Error("GET /api/v1/admin/bookings/lookup: failed to get booking by code", "code", code, "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, record)
}

type CreateBookingRequest struct {
	QuestSessionID uuid.UUID  `json:"quest_session_id" binding:"required"`
	Name           string     `json:"name" binding:"required"`
	Phone          string     `json:"phone" binding:"required"`
	Email          string     `json:"email" binding:"omitempty,email"`
	PlayersCount   int        `json:"players_count" binding:"required,min=1"`
	UserID         *uuid.UUID `json:"user_id"`
	SourceID       string     `json:"source_id"`
	Notes          string     `json:"notes"`
}

// CreateBooking godoc
// @Summary      Create a booking
// @Description  Admits a booking onto a session: the slot must be free and in the future, the player count within
// @Description  the quest's bounds. The price is computed from the session's pricing rule and frozen into the booking.
// @Tags         Bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateBookingRequest true "Booking attributes"
// @Success      200 {object} db.Booking "Created booking, status pending"
// @Failure      400 {object} ErrorResponse "Invalid request body | Player count out of range | Pricing rule is inactive"
// @Failure      404 {object} ErrorResponse "No session with such ID"
// @Failure      409 {object} ErrorResponse "Session is not available"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/v1/admin/bookings [post]
func (server *Server) CreateBooking(ctx *gin.Context) {
	var req CreateBookingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.LOGGER.Warn("POST /api/v1/admin/bookings: failed to bind request body", "error", err)
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	admitted, err := server.engine.Admit(ctx, booking.AdmitRequest{
		SessionID:    req.QuestSessionID,
		PlayersCount: req.PlayersCount,
		Name:         req.Name,
		Phone:        req.Phone,
		Email:        req.Email,
		UserID:       req.UserID,
		SourceID:     req.SourceID,
		Notes:        req.Notes,
	})
	if err != nil {
		coreError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, admitted)
}

// GetBooking godoc
// @Summary      Get a booking
// @Tags         Bookings
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Booking ID"
// @Success      200 {object} db.Booking "Booking"
// @Failure      400 {object} ErrorResponse "Invalid id"
// @Failure      404 {object} ErrorResponse "No booking with such ID"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/v1/admin/bookings/{id} [get]
func (server *Server) GetBooking(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	record, err := server.queries.GetBookingByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{"No booking with such ID"})
			return
		}
		util.LOGGER.Error("GET /api/v1/admin/bookings/{id}: failed to get booking", "id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, record)
}

type UpdateBookingContactRequest struct {
	Name       string `json:"name" binding:"required"`
	Phone      string `json:"phone" binding:"required"`
	Email      string `json:"email" binding:"omitempty,email"`
	SourceID   string `json:"source_id"`
	PaidAmount *int   `json:"paid_amount" binding:"omitempty,min=0"`
	Notes      string `json:"notes"`
}

// UpdateBookingContact godoc
// @Summary      Update booking contact details
// @Description  Edits contact data, payment received and notes. Status, price and discount go through
// @Description  their own endpoints; the pricing snapshot cannot be edited at all.
// @Tags         Bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Booking ID"
// @Param        request body UpdateBookingContactRequest true "Contact attributes"
// @Success      200 {object} db.Booking "Updated booking"
// @Failure      400 {object} ErrorResponse "Invalid id | Invalid request body"
// @Failure      404 {object} ErrorResponse "No booking with such ID"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/v1/admin/bookings/{id} [put]
func (server *Server) UpdateBookingContact(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	var req UpdateBookingContactRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.LOGGER.Warn("PUT /api/v1/admin/bookings/{id}: failed to bind request body", "error", err)
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	record, err := server.queries.GetBookingByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{"No booking with such ID"})
			return
		}
		util.LOGGER.Error("PUT /api/v1/admin/bookings/{id}: failed to get booking", "id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	record.Name = req.Name
	record.Phone = req.Phone
	record.Email = req.Email
	if req.SourceID != "" {
		record.SourceID = req.SourceID
	}
	if req.PaidAmount != nil {
		record.PaidAmount = *req.PaidAmount
	}
	record.Notes = req.Notes

	if err := server.queries.UpdateBookingContact(ctx, record); err != nil {
		util.LOGGER.Error("PUT /api/v1/admin/bookings/{id}: failed to update booking", "id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, record)
}

// DeleteBooking godoc
// @Summary      Delete a booking
// @Description  Hard delete for bookings created in error. Regular flow uses the cancelled status instead.
// @Tags         Bookings
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Booking ID"
// @Success      200 {object} SuccessMessage "Booking deleted"
// @Failure      400 {object} ErrorResponse "Invalid id"
// @Failure      404 {object} ErrorResponse "No booking with such ID"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/v1/admin/bookings/{id} [delete]
func (server *Server) DeleteBooking(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	if err := server.queries.DeleteBooking(ctx, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{"No booking with such ID"})
			return
		}
		util.LOGGER.Error("DELETE /api/v1/admin/bookings/{id}: failed to delete booking", "id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, SuccessMessage{"Booking deleted"})
}

type BookingStatusRequest struct {
	Status db.BookingStatus `json:"status" binding:"required"`

	// Post-session numbers, accepted with the completed status
	PlayTime *int  `json:"play_time"`
	Winners  *bool `json:"winners"`
	Hints    *int  `json:"hints"`
}

// ChangeBookingStatus godoc
// @Summary      Change a booking's status
// @Description  Moves the booking along pending → confirmed → completed/cancelled/absent. Completed and absent
// @Description  require the session to have started. Confirming emails the guest; completed and absent trigger a
// @Description  recompute of the quest's statistics.
// @Tags         Bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Booking ID"
// @Param        request body BookingStatusRequest true "Target status and optional play statistics"
// @Success      200 {object} db.Booking "Booking after the transition"
// @Failure      400 {object} ErrorResponse "Invalid id | Invalid request body | Invalid status change"
// @Failure      404 {object} ErrorResponse "No booking with such ID"
// @Failure      409 {object} ErrorResponse "Booking changed concurrently, reload and retry"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/v1/admin/bookings/{id}/status [post]
func (server *Server) ChangeBookingStatus(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	var req BookingStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.LOGGER.Warn("POST /api/v1/admin/bookings/{id}/status: failed to bind request body", "error", err)
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	record, err := server.engine.Transition(ctx, id, req.Status, &booking.PlayStats{
		PlayTime: req.PlayTime,
		Winners:  req.Winners,
		Hints:    req.Hints,
	})
	if err != nil {
		coreError(ctx, err)
		return
	}

	server.afterTransition(ctx, record)

	ctx.JSON(http.StatusOK, record)
}

// Background follow-ups after a successful transition. Failures here never
// fail the request: the transition is already committed.
func (server *Server) afterTransition(ctx *gin.Context, record *db.Booking) {
	switch record.Status {
	case db.BookingConfirmed:
		if record.Email == "" {
			return
		}

		session, err := server.queries.GetSessionByID(ctx, record.QuestSessionID)
		if err != nil {
			util.LOGGER.Error("booking confirmation: failed to get session", "id", record.QuestSessionID, "error", err)
			return
		}
		quest, err := server.queries.GetQuestByID(ctx, session.QuestID)
		if err != nil {
			util.LOGGER.Error("booking confirmation: failed to get quest", "id", session.QuestID, "error", err)
			return
		}

		err = server.distributor.DistributeTask(ctx, worker.SendBookingConfirmation, worker.SendBookingConfirmationPayload{
			Email:       record.Email,
			Name:        record.Name,
			QuestTitle:  quest.Title,
			StartsAt:    session.StartsAt,
			BookingCode: record.BookingCode,
			TotalPrice:  record.TotalPrice,
		}, asynq.Queue(worker.MEDIUM_IMPACT), asynq.MaxRetry(5))
		if err != nil {
			util.LOGGER.Error("booking confirmation: failed to distribute task", "task", worker.SendBookingConfirmation, "error", err)
		}

	case db.BookingCompleted, db.BookingAbsent:
		session, err := server.queries.GetSessionByID(ctx, record.QuestSessionID)
		if err != nil {
			util.LOGGER.Error("stats recompute: failed to get session", "id", record.QuestSessionID, "error", err)
			return
		}

		err = server.distributor.DistributeTask(ctx, worker.RecomputeQuestStats, worker.RecomputeQuestStatsPayload{
			QuestID: session.QuestID,
		}, asynq.Queue(worker.LOW_IMPACT), asynq.MaxRetry(3))
		if err != nil {
			util.LOGGER.Error("stats recompute: failed to distribute task", "task", worker.RecomputeQuestStats, "error", err)
		}
	}
}

type BookingDiscountRequest struct {
	Discount int    `json:"discount" binding:"min=0"`
	Reason   string `json:"reason"`
}

// ApplyBookingDiscount godoc
// @Summary      Apply a manual discount
// @Description  Sets a discount on an active booking. The discount comes off the frozen snapshot price and may not exceed it.
// @Tags         Bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Booking ID"
// @Param        request body BookingDiscountRequest true "Discount in minor currency units with a reason"
// @Success      200 {object} db.Booking "Booking with the discount applied"
// @Failure      400 {object} ErrorResponse "Invalid id | Invalid request body | Invalid discount | Invalid status change"
// @Failure      404 {object} ErrorResponse "No booking with such ID"
// @Failure      409 {object} ErrorResponse "Booking changed concurrently, reload and retry"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/v1/admin/bookings/{id}/discount [post]
func (server *Server) ApplyBookingDiscount(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	var req BookingDiscountRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.LOGGER.Warn("POST /api/v1/admin/bookings/{id}/discount: failed to bind request body", "error", err)
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	record, err := server.engine.ApplyDiscount(ctx, id, req.Discount, req.Reason)
	if err != nil {
		coreError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, record)
}

// GetBookingQR godoc
// @Summary      Booking code as a QR image
// @Description  PNG QR code of the booking code, for printing or scanning at the front desk.
// @Tags         Bookings
// @Produce      png
// @Security     BearerAuth
// @Param        id path string true "Booking ID"
// @Success      200 {string} binary "PNG image"
// @Failure      400 {object} ErrorResponse "Invalid id"
// @Failure      404 {object} ErrorResponse "No booking with such ID"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/v1/admin/bookings/{id}/qr [get]
func (server *Server) GetBookingQR(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	record, err := server.queries.GetBookingByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{"No booking with such ID"})
			return
		}
		util.LOGGER.Error("GET /api/v1/admin/bookings/{id}/qr: failed to get booking", "id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	png, err := util.GenerateQR(record.BookingCode)
	if err != nil {
		util.LOGGER.Error("GET /api/v1/admin/bookings/{id}/qr: failed to generate QR", "id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.Data(http.StatusOK, "image/png", png)
}
