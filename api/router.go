package api

import (
	"rifa/application"
	"rifa/domain/interfaces"

	"github.com/gin-gonic/gin"
)

// Handler serves the raffle over HTTP. ledger may be nil.
type Handler struct {
	sessions *application.SessionManager
	ledger   interfaces.PurchaseLedgerRepository
}

// NewHandler creates a new Handler
func NewHandler(sessions *application.SessionManager, ledger interfaces.PurchaseLedgerRepository) *Handler {
	return &Handler{
		sessions: sessions,
		ledger:   ledger,
	}
}

// NewRouter returns a gin.Engine with every route registered
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	h.RegisterRoutes(router)
	return router
}

// RegisterRoutes registers all the application routes
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.Health)

	debug := router.Group("/debug")
	debug.GET("/sessions", h.ListSessions)
	debug.GET("/purchases", h.ListLedgerPurchases)

	api := router.Group("/api", requireSession(h.sessions))

	api.GET("/raffle", h.GetRaffle)
	api.PATCH("/raffle/config", h.UpdateConfig)
	api.GET("/raffle/numbers", h.GetNumbers)

	api.GET("/selection", h.GetSelection)
	api.POST("/selection/toggle", h.ToggleNumber)
	api.POST("/selection/random", h.SelectRandom)
	api.POST("/selection/manual", h.AddManual)
	api.DELETE("/selection", h.ClearSelection)

	api.POST("/purchases", h.CreatePurchase)
	api.GET("/purchases", h.GetHistory)
	api.GET("/purchases/current", h.GetCurrentPurchase)
	api.POST("/purchases/current/payment", h.StartPayment)
	api.POST("/purchases/current/confirm", h.ConfirmPayment)
	api.DELETE("/purchases/current", h.CancelPurchase)
}
