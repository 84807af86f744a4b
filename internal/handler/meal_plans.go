package handler

import (
	"net/http"

	"github.com/xalleer/kitchen-os-backend/internal/dto"
	"github.com/xalleer/kitchen-os-backend/internal/middleware"
	"github.com/xalleer/kitchen-os-backend/internal/service"

	"github.com/gin-gonic/gin"
)

type MealPlansHandler struct{ svc service.MealPlanService }

func NewMealPlansHandler(svc service.MealPlanService) *MealPlansHandler {
	return &MealPlansHandler{svc: svc}
}

func (h *MealPlansHandler) List(c *gin.Context) {
	var q dto.DateRangeQuery
	if !bindQuery(c, &q) {
		return
	}
	who := middleware.GetIdentity(c)
	resp, err := h.svc.List(c.Request.Context(), who.FamilyID, parseOptionalDate(&q.From), parseOptionalDate(&q.To))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *MealPlansHandler) Generate(c *gin.Context) {
	var req dto.GenerateMealPlanRequest
	if c.Request.ContentLength != 0 && !bindAndValidate(c, &req) {
		return
	}
	who := middleware.GetIdentity(c)
	resp, err := h.svc.Generate(c.Request.Context(), who.FamilyID, service.GenerateInput{
		Days: req.Days,
		Date: parseOptionalDate(req.Date),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *MealPlansHandler) GenerateAsync(c *gin.Context) {
	var req dto.GenerateAsyncRequest
	if c.Request.ContentLength != 0 && !bindAndValidate(c, &req) {
		return
	}
	who := middleware.GetIdentity(c)
	resp, err := h.svc.GenerateAsync(c.Request.Context(), who.FamilyID, who.UserID, req.Days)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

func (h *MealPlansHandler) GetJob(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetJob(c.Request.Context(), middleware.GetIdentity(c).FamilyID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *MealPlansHandler) Current(c *gin.Context) {
	who := middleware.GetIdentity(c)
	resp, err := h.svc.CurrentMeal(c.Request.Context(), who.FamilyID, who.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *MealPlansHandler) RegenerateDay(c *gin.Context) {
	var req dto.RegenerateDayRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegenerateDay(c.Request.Context(), middleware.GetIdentity(c).FamilyID, parseDate(req.Date))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *MealPlansHandler) DeleteAll(c *gin.Context) {
	if err := h.svc.DeleteAll(c.Request.Context(), middleware.GetIdentity(c).FamilyID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *MealPlansHandler) RegenerateMeal(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.RegenerateMeal(c.Request.Context(), middleware.GetIdentity(c).FamilyID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *MealPlansHandler) Cook(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.CookRequest
	// an empty body means the defaults
	if c.Request.ContentLength != 0 && !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Cook(c.Request.Context(), middleware.GetIdentity(c).FamilyID, id, service.CookInput{
		IgnoreMissing:     req.IgnoreMissing,
		AddToShoppingList: req.AddToShoppingList,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *MealPlansHandler) Skip(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Skip(c.Request.Context(), middleware.GetIdentity(c).FamilyID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *MealPlansHandler) SaveRecipe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.SaveRecipeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.SaveRecipe(c.Request.Context(), middleware.GetIdentity(c).FamilyID, id, *req.Saved); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
