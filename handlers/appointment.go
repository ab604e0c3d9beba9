package handlers

import (
	"net/http"

	"babyspa/models"
	"babyspa/services/scheduling"

	"github.com/gin-gonic/gin"
)

// AppointmentHandler exposes booking and availability endpoints.
type AppointmentHandler struct {
	Booking      scheduling.BookingManager
	Availability *scheduling.AvailabilityService
	Cfg          models.ScheduleConfig
}

func NewAppointmentHandler(booking scheduling.BookingManager, availability *scheduling.AvailabilityService, cfg models.ScheduleConfig) *AppointmentHandler {
	return &AppointmentHandler{Booking: booking, Availability: availability, Cfg: cfg}
}

func (h *AppointmentHandler) capacityFor(c *gin.Context) int {
	if portalChannel(c) {
		return h.Cfg.PortalCapacity
	}
	return h.Cfg.StaffCapacity
}

// CheckAvailability is the advisory pre-flight capacity check shown in
// booking UIs. The commit path re-validates inside its own transaction.
func (h *AppointmentHandler) CheckAvailability(c *gin.Context) {
	date := c.Query("date")
	start := c.Query("start")
	if date == "" || start == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date and start are required"})
		return
	}
	result, err := h.Availability.CheckAvailability(c.Request.Context(),
		date, start, c.Query("end"), h.capacityFor(c), c.Query("exclude"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// DayGrid returns the sub-slot occupancy grid for one calendar day.
func (h *AppointmentHandler) DayGrid(c *gin.Context) {
	grid, err := h.Availability.DayGrid(c.Request.Context(), c.Param("date"), h.capacityFor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": c.Param("date"), "slots": grid})
}

func (h *AppointmentHandler) Create(c *gin.Context) {
	var input struct {
		Client    models.ClientRef `json:"client" binding:"required"`
		Date      string           `json:"date" binding:"required"`
		StartTime string           `json:"start_time" binding:"required"`
		EndTime   string           `json:"end_time"`
		Notes     string           `json:"notes"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	apt, err := h.Booking.CreateAppointment(c.Request.Context(), scheduling.CreateInput{
		Client:         input.Client,
		Date:           input.Date,
		StartTime:      input.StartTime,
		EndTime:        input.EndTime,
		Notes:          input.Notes,
		Capacity:       h.capacityFor(c),
		RequireAdvance: portalChannel(c),
		Actor:          actor(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, apt)
}

func (h *AppointmentHandler) Get(c *gin.Context) {
	apt, err := h.Booking.GetAppointment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apt)
}

func (h *AppointmentHandler) History(c *gin.Context) {
	history, err := h.Booking.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

// Update handles reschedules and cancellation.
func (h *AppointmentHandler) Update(c *gin.Context) {
	var input struct {
		Date         string                   `json:"date"`
		StartTime    string                   `json:"start_time"`
		EndTime      string                   `json:"end_time"`
		Status       models.AppointmentStatus `json:"status"`
		CancelReason string                   `json:"cancel_reason"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	apt, err := h.Booking.UpdateAppointment(c.Request.Context(), c.Param("id"), scheduling.UpdateInput{
		Date:         input.Date,
		StartTime:    input.StartTime,
		EndTime:      input.EndTime,
		Status:       input.Status,
		CancelReason: input.CancelReason,
		Actor:        actor(c),
	}, h.capacityFor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apt)
}

func (h *AppointmentHandler) MarkNoShow(c *gin.Context) {
	apt, err := h.Booking.MarkNoShow(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apt)
}

// RecordAdvance collects a prepayment; a PENDING_PAYMENT appointment moves
// to SCHEDULED.
func (h *AppointmentHandler) RecordAdvance(c *gin.Context) {
	var input struct {
		Amount float64 `json:"amount" binding:"required"`
		Method string  `json:"method" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	apt, err := h.Booking.RecordAdvance(c.Request.Context(), c.Param("id"), input.Amount, input.Method, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apt)
}
