package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/uxpromo/limboquest-api/db"
	"github.com/uxpromo/limboquest-api/util"
)

type LocationRequest struct {
	ShortAddress string   `json:"short_address"`
	Address      string   `json:"address" binding:"required"`
	Description  string   `json:"description"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	IsActive     *bool    `json:"is_active"`
	WorkingHours string   `json:"working_hours"`
}

// ListLocations godoc
// @Summary      List venues
// @Tags         Locations
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} db.Location "All venues, soft-deleted ones excluded"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/v1/admin/locations [get]
func (server *Server) ListLocations(ctx *gin.Context) {
	locations, err := server.queries.ListLocations(ctx)
	if err != nil {
		util.LOGGER.Error("GET /api/v1/admin/locations: failed to list locations", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, locations)
}

// CreateLocation godoc
// @Summary      Create a venue
// @Tags         Locations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body LocationRequest true "Venue attributes"
// @Success      200 {object} db.Location "Created venue"
// @Failure      400 {object} ErrorResponse "Invalid request body"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/v1/admin/locations [post]
func (server *Server) CreateLocation(ctx *gin.Context) {
	var req LocationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.LOGGER.Warn("POST /api/v1/admin/locations: failed to bind request body", "error", err)
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	location := &db.Location{
		Model:        db.NewModel(),
		AuthorID:     server.authorizedUser(ctx).ID,
		ShortAddress: req.ShortAddress,
		Address:      req.Address,
		Description:  req.Description,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		IsActive:     true,
		WorkingHours: req.WorkingHours,
	}
	if req.IsActive != nil {
		location.IsActive = *req.IsActive
	}

	if err := server.queries.CreateLocation(ctx, location); err != nil {
		util.LOGGER.Error("POST /api/v1/admin/locations: failed to create location", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, location)
}

// GetLocation godoc
// @Summary      Get a venue
// @Tags         Locations
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Venue ID"
// @Success      200 {object} db.Location "Venue"
// @Failure      400 {object} ErrorResponse "Invalid id"
// @Failure      404 {object} ErrorResponse "No venue with such ID"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/v1/admin/locations/{id} [get]
func (server *Server) GetLocation(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	location, err := server.queries.GetLocation(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{"No venue with such ID"})
			return
		}
		util.LOGGER.Error("GET /api/v1/admin/locations/{id}: failed to get location", "id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, location)
}

// UpdateLocation godoc
// @Summary      Update a venue
// @Tags         Locations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Venue ID"
// @Param        request body LocationRequest true "Venue attributes"
// @Success      200 {object} db.Location "Updated venue"
// @Failure      400 {object} ErrorResponse "Invalid id | Invalid request body"
// @Failure      404 {object} ErrorResponse "No venue with such ID"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/v1/admin/locations/{id} [put]
func (server *Server) UpdateLocation(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	var req LocationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.LOGGER.Warn("PUT /api/v1/admin/locations/{id}: failed to bind request body", "error", err)
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	location, err := server.queries.GetLocation(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{"No venue with such ID"})
			return
		}
		util.LOGGER.Error("PUT /api/v1/admin/locations/{id}: failed to get location", "id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	location.ShortAddress = req.ShortAddress
	location.Address = req.Address
	location.Description = req.Description
	location.Latitude = req.Latitude
	location.Longitude = req.Longitude
	location.WorkingHours = req.WorkingHours
	if req.IsActive != nil {
		location.IsActive = *req.IsActive
	}

	if err := server.queries.UpdateLocation(ctx, location); err != nil {
		util.LOGGER.Error("PUT /api/v1/admin/locations/{id}: failed to update location", "id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, location)
}

// DeleteLocation godoc
// @Summary      Delete a venue (soft)
// @Tags         Locations
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Venue ID"
// @Success      200 {object} SuccessMessage "Venue deleted"
// @Failure      400 {object} ErrorResponse "Invalid id"
// @Failure      404 {object} ErrorResponse "No venue with such ID"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/v1/admin/locations/{id} [delete]
func (server *Server) DeleteLocation(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	if err := server.queries.DeleteLocation(ctx, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{"No venue with such ID"})
			return
		}
		util.LOGGER.Error("DELETE /api/v1/admin/locations/{id}: failed to delete location", "id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, SuccessMessage{"Venue deleted"})
}
