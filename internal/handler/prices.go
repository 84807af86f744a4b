package handler

import (
	"net/http"

	"github.com/xalleer/kitchen-os-backend/internal/dto"
	"github.com/xalleer/kitchen-os-backend/internal/middleware"
	"github.com/xalleer/kitchen-os-backend/internal/service"

	"github.com/gin-gonic/gin"
)

type PricesHandler struct{ svc service.PriceService }

func NewPricesHandler(svc service.PriceService) *PricesHandler {
	return &PricesHandler{svc: svc}
}

func (h *PricesHandler) Record(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.RecordPriceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Record(c.Request.Context(), middleware.GetIdentity(c).FamilyID, id, req.Price, req.Retailer)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *PricesHandler) History(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var q dto.PriceHistoryQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.History(c.Request.Context(), id, q.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"observations": resp})
}
