package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/karthikosa11/smartcal-nutrition-tracker/services"
)

type StatsController struct {
	Svc *services.StatsService
}

func NewStatsController(svc *services.StatsService) *StatsController {
	return &StatsController{Svc: svc}
}

// GET /stats/daily?startDate&endDate
func (h *StatsController) Daily(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		unauthorized(c)
		return
	}
	stats, err := h.Svc.Daily(c.Request.Context(), userID, c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		respondError(c, err, "Stats not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// GET /stats/weekly?startWeek&endWeek
func (h *StatsController) Weekly(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		unauthorized(c)
		return
	}
	stats, err := h.Svc.Weekly(c.Request.Context(), userID, c.Query("startWeek"), c.Query("endWeek"))
	if err != nil {
		respondError(c, err, "Stats not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// GET /stats/overview?date=YYYY-MM-DD
func (h *StatsController) Overview(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		unauthorized(c)
		return
	}
	out, err := h.Svc.Overview(c.Request.Context(), userID, c.Query("date"))
	if err != nil {
		respondError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, out)
}

// POST /stats/update refreshes the caller's rollups.
func (h *StatsController) Update(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		unauthorized(c)
		return
	}
	if err := h.Svc.Refresh(c.Request.Context(), userID); err != nil {
		respondError(c, err, "Stats not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Stats updated successfully"})
}

// POST /admin/stats/rebuild runs the full ETL for every user.
func (h *StatsController) Rebuild(c *gin.Context) {
	ctx := c.Request.Context()
	days, err := h.Svc.UpdateDailyStats(ctx, "")
	if err != nil {
		respondError(c, err, "Stats not found")
		return
	}
	weeks, err := h.Svc.UpdateWeeklyStats(ctx, "")
	if err != nil {
		respondError(c, err, "Stats not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     "Stats rebuilt successfully",
		"daily_rows":  days,
		"weekly_rows": weeks,
	})
}
