package handler

import (
	"net/http"

	"github.com/xalleer/kitchen-os-backend/internal/dto"
	"github.com/xalleer/kitchen-os-backend/internal/middleware"
	"github.com/xalleer/kitchen-os-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ShoppingListHandler struct{ svc service.ShoppingListService }

func NewShoppingListHandler(svc service.ShoppingListService) *ShoppingListHandler {
	return &ShoppingListHandler{svc: svc}
}

func (h *ShoppingListHandler) List(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context(), middleware.GetIdentity(c).FamilyID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ShoppingListHandler) Generate(c *gin.Context) {
	var req dto.GenerateShoppingListRequest
	if c.Request.ContentLength != 0 && !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Generate(c.Request.Context(), middleware.GetIdentity(c).FamilyID,
		parseOptionalDate(req.From), parseOptionalDate(req.To))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ShoppingListHandler) AddItems(c *gin.Context) {
	var req dto.AddShoppingItemsRequest
	if !bindAndValidate(c, &req) {
		return
	}
	items := make([]service.ManualItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = service.ManualItem{ProductID: uuid.MustParse(it.ProductID), Quantity: it.Quantity, Note: it.Note}
	}
	resp, err := h.svc.AddManual(c.Request.Context(), middleware.GetIdentity(c).FamilyID, items)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"items": resp})
}

func (h *ShoppingListHandler) UpdateItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateShoppingItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), middleware.GetIdentity(c).FamilyID, id, req.Quantity, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ShoppingListHandler) MarkBought(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.MarkBoughtRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.MarkBought(c.Request.Context(), middleware.GetIdentity(c).FamilyID, id, *req.Bought, req.ActualPrice)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ShoppingListHandler) DeleteItem(c *gin.Context) {
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

func (h *ShoppingListHandler) Clear(c *gin.Context) {
	if err := h.svc.Clear(c.Request.Context(), middleware.GetIdentity(c).FamilyID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ShoppingListHandler) Complete(c *gin.Context) {
	resp, err := h.svc.Complete(c.Request.Context(), middleware.GetIdentity(c).FamilyID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
