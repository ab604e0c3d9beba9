package handlers

import (
	"net/http"
	"time"

	catalogRepo "babyspa/database/repository/catalog"
	clientRepo "babyspa/database/repository/client"
	purchaseRepo "babyspa/database/repository/purchase"
	"babyspa/models"
	"babyspa/services/scheduling"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ClientHandler covers parent/baby registration and the catalog listing.
type ClientHandler struct {
	Clients   clientRepo.Repository
	Purchases purchaseRepo.Repository
	Catalog   catalogRepo.Repository
}

func NewClientHandler(clients clientRepo.Repository, purchases purchaseRepo.Repository, catalog catalogRepo.Repository) *ClientHandler {
	return &ClientHandler{Clients: clients, Purchases: purchases, Catalog: catalog}
}

func (h *ClientHandler) RegisterParent(c *gin.Context) {
	var input struct {
		Name  string `json:"name" binding:"required"`
		Phone string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	now := time.Now()
	parent := &models.Parent{
		ID:        uuid.New().String(),
		Name:      input.Name,
		Phone:     input.Phone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Clients.CreateParent(c.Request.Context(), parent); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, parent)
}

func (h *ClientHandler) RegisterBaby(c *gin.Context) {
	var input struct {
		Name      string `json:"name" binding:"required"`
		ParentID  string `json:"parent_id" binding:"required"`
		BirthDate string `json:"birth_date"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if _, err := h.Clients.GetParent(c.Request.Context(), input.ParentID); err == clientRepo.ErrParentNotFound {
		respondError(c, scheduling.NewError(scheduling.CodeParentNotFound, "parent %s not found", input.ParentID))
		return
	} else if err != nil {
		respondError(c, err)
		return
	}
	now := time.Now()
	baby := &models.Baby{
		ID:        uuid.New().String(),
		Name:      input.Name,
		ParentID:  input.ParentID,
		BirthDate: input.BirthDate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Clients.CreateBaby(c.Request.Context(), baby); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, baby)
}

func (h *ClientHandler) GetParent(c *gin.Context) {
	parent, err := h.Clients.GetParent(c.Request.Context(), c.Param("id"))
	if err == clientRepo.ErrParentNotFound {
		respondError(c, scheduling.NewError(scheduling.CodeParentNotFound, "parent %s not found", c.Param("id")))
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, parent)
}

// ListPurchases returns a client's package purchases with their remaining
// session balances.
func (h *ClientHandler) ListPurchases(c *gin.Context) {
	ref := models.ClientRef{
		Kind: models.ClientKind(c.Query("kind")),
		ID:   c.Param("id"),
	}
	if ref.Kind != models.ClientBaby && ref.Kind != models.ClientParent {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be BABY or PARENT"})
		return
	}
	purchases, err := h.Purchases.ListForClient(c.Request.Context(), ref)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"purchases": purchases})
}

func (h *ClientHandler) ListPackages(c *gin.Context) {
	packages, err := h.Catalog.ListActivePackages(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"packages": packages})
}
