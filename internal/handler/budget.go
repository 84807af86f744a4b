package handler

import (
	"net/http"

	"github.com/xalleer/kitchen-os-backend/internal/apierror"
	"github.com/xalleer/kitchen-os-backend/internal/dto"
	"github.com/xalleer/kitchen-os-backend/internal/middleware"
	"github.com/xalleer/kitchen-os-backend/internal/service"

	"github.com/gin-gonic/gin"
)

type BudgetHandler struct{ svc service.WeeklyBudgetService }

func NewBudgetHandler(svc service.WeeklyBudgetService) *BudgetHandler {
	return &BudgetHandler{svc: svc}
}

func (h *BudgetHandler) Current(c *gin.Context) {
	resp, err := h.svc.CurrentWeek(c.Request.Context(), middleware.GetIdentity(c).FamilyID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BudgetHandler) Period(c *gin.Context) {
	var q dto.BudgetPeriodQuery
	if !bindQuery(c, &q) {
		return
	}
	start, end := parseDate(q.Start), parseDate(q.End)
	if end.Before(start) {
		c.JSON(http.StatusBadRequest, apierror.New("end must not be before start"))
		return
	}
	resp, err := h.svc.ForPeriod(c.Request.Context(), middleware.GetIdentity(c).FamilyID, start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BudgetHandler) SetLimit(c *gin.Context) {
	var req dto.SetBudgetLimitRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SetLimit(c.Request.Context(), middleware.GetIdentity(c).FamilyID, req.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
