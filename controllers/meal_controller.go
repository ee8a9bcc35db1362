package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/karthikosa11/smartcal-nutrition-tracker/services"
)

const mealNotFound = "Meal log not found"

type MealController struct {
	Svc *services.MealService
}

func NewMealController(svc *services.MealService) *MealController {
	return &MealController{Svc: svc}
}

// GET /meals
func (h *MealController) List(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		unauthorized(c)
		return
	}
	logs, err := h.Svc.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, mealNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// GET /meals/by-date?startDate=YYYY-MM-DD&endDate=YYYY-MM-DD
func (h *MealController) ListByDate(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		unauthorized(c)
		return
	}
	logs, err := h.Svc.ListByDate(c.Request.Context(), userID, c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		respondError(c, err, mealNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// GET /meals/:id
func (h *MealController) Get(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		unauthorized(c)
		return
	}
	log, err := h.Svc.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err, mealNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"log": log})
}

// POST /meals
func (h *MealController) Create(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		unauthorized(c)
		return
	}
	var input services.MealInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err, "Invalid meal log data")
		return
	}

	log, err := h.Svc.Create(c.Request.Context(), userID, input)
	if err != nil {
		respondError(c, err, mealNotFound)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"log": log})
}

// PUT /meals/:id updates only the fields present in the body.
func (h *MealController) Update(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		unauthorized(c)
		return
	}
	var patch services.MealPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		bindError(c, err, "Invalid meal log data")
		return
	}

	log, err := h.Svc.Update(c.Request.Context(), userID, c.Param("id"), patch)
	if err != nil {
		respondError(c, err, mealNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"log": log})
}

// DELETE /meals/:id
func (h *MealController) Delete(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		unauthorized(c)
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err, mealNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Meal log deleted successfully"})
}

// GET /meals/stats/weekly
func (h *MealController) WeeklyStats(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		unauthorized(c)
		return
	}
	stats, err := h.Svc.WeeklyLive(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, mealNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
