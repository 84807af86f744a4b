package handler

import (
	"net/http"

	"github.com/xalleer/kitchen-os-backend/internal/dto"
	"github.com/xalleer/kitchen-os-backend/internal/middleware"
	"github.com/xalleer/kitchen-os-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RecipesHandler struct{ svc service.RecipeService }

func NewRecipesHandler(svc service.RecipeService) *RecipesHandler {
	return &RecipesHandler{svc: svc}
}

func ingredientInputs(list []dto.RecipeIngredientRequest) []service.IngredientInput {
	out := make([]service.IngredientInput, len(list))
	for i, ing := range list {
		out[i] = service.IngredientInput{ProductID: uuid.MustParse(ing.ProductID), Amount: ing.Amount}
	}
	return out
}

func (h *RecipesHandler) List(c *gin.Context) {
	resp, err := h.svc.ListSaved(c.Request.Context(), middleware.GetIdentity(c).FamilyID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": resp})
}

func (h *RecipesHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), middleware.GetIdentity(c).FamilyID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RecipesHandler) Create(c *gin.Context) {
	var req dto.CreateRecipeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), middleware.GetIdentity(c).FamilyID, service.NewRecipeInput{
		Name:         req.Name,
		Description:  req.Description,
		Instructions: req.Instructions,
		CookingTime:  req.CookingTime,
		Servings:     req.Servings,
		Calories:     req.Calories,
		Category:     req.Category,
		Ingredients:  ingredientInputs(req.Ingredients),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *RecipesHandler) Delete(c *gin.Context) {
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

func (h *RecipesHandler) CookPreview(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.CookPreview(c.Request.Context(), middleware.GetIdentity(c).FamilyID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RecipesHandler) Cook(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.CookRequest
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

func (h *RecipesHandler) CookIngredients(c *gin.Context) {
	var req dto.CookIngredientsRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CookIngredients(c.Request.Context(), middleware.GetIdentity(c).FamilyID, req.Name, ingredientInputs(req.Ingredients), service.CookInput{
		IgnoreMissing:     req.IgnoreMissing,
		AddToShoppingList: req.AddToShoppingList,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RecipesHandler) SuggestFromExpiring(c *gin.Context) {
	var q dto.SuggestRecipeQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.SuggestFromExpiring(c.Request.Context(), middleware.GetIdentity(c).FamilyID, service.SuggestInput{
		DaysAhead: q.Days,
		Portions:  q.Portions,
		Save:      q.Save,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if q.Save && resp.Recipe != nil {
		status = http.StatusCreated
	}
	c.JSON(status, resp)
}
