package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/uxpromo/limboquest-api/db"
	"github.com/uxpromo/limboquest-api/service/booking"
	"github.com/uxpromo/limboquest-api/service/security"
	"github.com/uxpromo/limboquest-api/service/worker"
	"github.com/uxpromo/limboquest-api/util"
)

// Server struct, holds the router, dependencies and system config
type Server struct {
	// API router
	router *gin.Engine

	// Queries
	queries *db.Queries

	// Dependencies
	engine      *booking.Engine
	jwtService  *security.JWTService
	distributor worker.TaskDistributor
	config      *util.Config
}

// Constructor method for server struct
func NewServer(
	queries *db.Queries,
	engine *booking.Engine,
	jwtService *security.JWTService,
	distributor worker.TaskDistributor,
	config *util.Config,
) *Server {
	return &Server{
		router:      gin.Default(),
		queries:     queries,
		engine:      engine,
		jwtService:  jwtService,
		distributor: distributor,
		config:      config,
	}
}

// Helper method to register handler for API
func (server *Server) RegisterHandler() {
	server.router.Use(server.CORSMiddleware())

	server.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Admin API routes
	api := server.router.Group("/api/v1/admin")
	{
		api.GET("/", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"message": "limboquest admin API"})
		})

		api.POST("/auth/login", server.Login)
		api.POST("/auth/refresh", server.RefreshToken)
		api.POST("/auth/password_request", server.SendResetPasswordRequest)
		api.POST("/auth/password_reset/:token", server.ResetPassword)
	}

	// Everything below requires a valid admin access token
	authorized := api.Group("", server.AuthMiddleware())
	{
		authorized.GET("/auth/user", server.GetAuthUser)

		authorized.GET("/locations", server.ListLocations)
		authorized.POST("/locations", server.CreateLocation)
		authorized.GET("/locations/:id", server.GetLocation)
		authorized.PUT("/locations/:id", server.UpdateLocation)
		authorized.DELETE("/locations/:id", server.DeleteLocation)

		authorized.GET("/quests", server.ListQuests)
		authorized.POST("/quests", server.CreateQuest)
		authorized.GET("/quests/:id", server.GetQuest)
		authorized.PUT("/quests/:id", server.UpdateQuest)
		authorized.DELETE("/quests/:id", server.DeleteQuest)
		authorized.GET("/quests/:id/stats", server.GetQuestStats)

		authorized.GET("/quest-sessions", server.ListSessions)
		authorized.POST("/quest-sessions", server.CreateSession)
		authorized.GET("/quest-sessions/:id", server.GetSession)
		authorized.PUT("/quest-sessions/:id", server.UpdateSession)
		authorized.DELETE("/quest-sessions/:id", server.DeleteSession)

		authorized.GET("/pricing-rules", server.ListPricingRules)
		authorized.POST("/pricing-rules", server.CreatePricingRule)
		authorized.GET("/pricing-rules/:id", server.GetPricingRule)
		authorized.PUT("/pricing-rules/:id", server.UpdatePricingRule)
		authorized.DELETE("/pricing-rules/:id", server.DeletePricingRule)

		authorized.GET("/bookings", server.ListBookings)
		authorized.POST("/bookings", server.CreateBooking)
		authorized.GET("/bookings/lookup", server.LookupBooking)
		authorized.GET("/bookings/:id", server.GetBooking)
		authorized.PUT("/bookings/:id", server.UpdateBookingContact)
		authorized.DELETE("/bookings/:id", server.DeleteBooking)
		authorized.POST("/bookings/:id/status", server.ChangeBookingStatus)
		authorized.POST("/bookings/:id/discount", server.ApplyBookingDiscount)
		authorized.GET("/bookings/:id/qr", server.GetBookingQR)
	}
}

// Start server
func (server *Server) Start() error {
	server.RegisterHandler()
	return server.router.Run(server.config.ServerAddr)
}

// Error response struct
type ErrorResponse struct {
	Message string `json:"error"`
}

// Helper to parse the uuid path parameter shared by every entity route.
// Writes the 400 response itself so handlers can just bail out.
func parseID(ctx *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

// Success response struct, for endpoints with no entity to return
type SuccessMessage struct {
	Message string `json:"message"`
}
