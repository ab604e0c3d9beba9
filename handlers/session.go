package handlers

import (
	"net/http"

	sessionRepo "babyspa/database/repository/session"
	"babyspa/models"
	"babyspa/services/checkout"
	"babyspa/services/scheduling"

	"github.com/gin-gonic/gin"
)

// SessionHandler exposes session start, product, checkout and evaluation
// endpoints.
type SessionHandler struct {
	Booking  scheduling.BookingManager
	Settler  checkout.Settler
	Sessions sessionRepo.Repository
}

func NewSessionHandler(booking scheduling.BookingManager, settler checkout.Settler, sessions sessionRepo.Repository) *SessionHandler {
	return &SessionHandler{Booking: booking, Settler: settler, Sessions: sessions}
}

// Start opens the session for an appointment and moves it to IN_PROGRESS.
func (h *SessionHandler) Start(c *gin.Context) {
	var input struct {
		TherapistID       string `json:"therapist_id" binding:"required"`
		PackagePurchaseID string `json:"package_purchase_id"`
		PackageID         string `json:"package_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	session, err := h.Booking.StartSession(c.Request.Context(), c.Param("id"),
		input.TherapistID, input.PackagePurchaseID, input.PackageID, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *SessionHandler) Get(c *gin.Context) {
	session, err := h.Sessions.GetByID(c.Request.Context(), c.Param("id"))
	if err == sessionRepo.ErrSessionNotFound {
		respondError(c, checkout.NewError(checkout.CodeSessionNotFound, "session %s not found", c.Param("id")))
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// AddProduct attaches a product line to a pending session.
func (h *SessionHandler) AddProduct(c *gin.Context) {
	var input struct {
		ProductID  string `json:"product_id" binding:"required"`
		Quantity   int    `json:"quantity" binding:"required"`
		Chargeable *bool  `json:"chargeable"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	chargeable := true
	if input.Chargeable != nil {
		chargeable = *input.Chargeable
	}
	session, err := h.Settler.AddProduct(c.Request.Context(), c.Param("id"),
		input.ProductID, input.Quantity, chargeable)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// Complete settles the session: package deduction, pricing, discounts,
// advance netting and the ledger write.
func (h *SessionHandler) Complete(c *gin.Context) {
	var input models.SettlementInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	input.Actor = actor(c)
	result, err := h.Settler.CompleteSession(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Evaluate attaches therapist notes to a completed session.
func (h *SessionHandler) Evaluate(c *gin.Context) {
	var input struct {
		Notes string `json:"notes" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if err := h.Settler.EvaluateSession(c.Request.Context(), c.Param("id"), input.Notes); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "evaluated"})
}
