package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/karthikosa11/smartcal-nutrition-tracker/models"
	"github.com/karthikosa11/smartcal-nutrition-tracker/nutrition"
)

// NutritionController exposes the quantity classifier and calculator to
// clients that do not carry their own copy.
type NutritionController struct {
	Table *nutrition.Table
}

func NewNutritionController(t *nutrition.Table) *NutritionController {
	if t == nil {
		t = nutrition.DefaultTable()
	}
	return &NutritionController{Table: t}
}

// POST /nutrition/seed  { "items": [FoodItem...] }
func (h *NutritionController) Seed(c *gin.Context) {
	var req struct {
		Items []models.FoodItem `json:"items"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	if len(req.Items) == 0 {
		badRequest(c, "At least one food item is required")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": h.Table.SeedAll(nutrition.Sanitize(req.Items))})
}

type recalculateRequest struct {
	// Items mid-edit may still be incomplete, so FoodItem rules are skipped.
	Item nutrition.EditableItem `json:"item" binding:"-"`
	// Quantity is the raw text typed by the user ("150", "200g").
	Quantity *string `json:"quantity"`
	// Field and Value describe a manual nutrient edit.
	Field  nutrition.Nutrient   `json:"field"`
	Value  *float64             `json:"value"`
	Values *nutrition.Nutrients `json:"values"`
}

// POST /nutrition/recalculate applies one edit to an item being edited:
// a quantity change, a single nutrient edit, or a wholesale replacement.
func (h *NutritionController) Recalculate(c *gin.Context) {
	var req recalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	item := req.Item
	switch {
	case req.Values != nil:
		item = nutrition.ReplaceNutrition(item, *req.Values)
	case req.Field != "":
		if !req.Field.Valid() || req.Value == nil {
			badRequest(c, "field must be one of calories, protein, carbs, fat and value is required")
			return
		}
		item = nutrition.EditNutrient(item, req.Field, *req.Value)
	case req.Quantity != nil:
		item = nutrition.ApplyQuantity(item, *req.Quantity)
	default:
		badRequest(c, "One of quantity, field or values is required")
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}
