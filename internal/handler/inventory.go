package handler

import (
	"net/http"

	"github.com/xalleer/kitchen-os-backend/internal/dto"
	"github.com/xalleer/kitchen-os-backend/internal/middleware"
	"github.com/xalleer/kitchen-os-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type InventoryHandler struct{ svc service.InventoryService }

func NewInventoryHandler(svc service.InventoryService) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

func (h *InventoryHandler) List(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context(), middleware.GetIdentity(c).FamilyID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InventoryHandler) Add(c *gin.Context) {
	var req dto.AddInventoryRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Add(c.Request.Context(), middleware.GetIdentity(c).FamilyID, service.AddInventoryInput{
		ProductID:        uuid.MustParse(req.ProductID),
		Quantity:         req.Quantity,
		ExpiryDate:       parseOptionalDate(req.ExpiryDate),
		DeductFromBudget: req.DeductFromBudget,
		PurchasePrice:    req.PurchasePrice,
		Retailer:         req.Retailer,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *InventoryHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateInventoryRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), middleware.GetIdentity(c).FamilyID, id, service.UpdateInventoryInput{
		Quantity:         req.Quantity,
		ExpiryDate:       parseOptionalDate(req.ExpiryDate),
		ClearExpiry:      req.ClearExpiry,
		DeductFromBudget: req.DeductFromBudget,
		PurchasePrice:    req.PurchasePrice,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InventoryHandler) Remove(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.RemoveInventoryRequest
	if !bindAndValidate(c, &req) {
		return
	}
	item, err := h.svc.Remove(c.Request.Context(), middleware.GetIdentity(c).FamilyID, id, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": item == nil, "item": item})
}

func (h *InventoryHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.GetIdentity(c).FamilyID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *InventoryHandler) Deduct(c *gin.Context) {
	var req dto.DeductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	reqs := make([]service.DeductRequest, len(req.Items))
	for i, it := range req.Items {
		reqs[i] = service.DeductRequest{ProductID: uuid.MustParse(it.ProductID), Quantity: it.Quantity}
	}
	resp, err := h.svc.Deduct(c.Request.Context(), middleware.GetIdentity(c).FamilyID, reqs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": resp})
}

func (h *InventoryHandler) Availability(c *gin.Context) {
	var q dto.AvailabilityQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.CheckAvailability(c.Request.Context(), middleware.GetIdentity(c).FamilyID, uuid.MustParse(q.ProductID), q.Required)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InventoryHandler) Expiring(c *gin.Context) {
	var q dto.ExpiringQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.Expiring(c.Request.Context(), middleware.GetIdentity(c).FamilyID, q.Days)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
