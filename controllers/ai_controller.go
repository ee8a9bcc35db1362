package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/karthikosa11/smartcal-nutrition-tracker/services"
)

type AIController struct {
	Estimator *services.EstimationService
	Tips      *services.InsightsService
}

func NewAIController(est *services.EstimationService, ins *services.InsightsService) *AIController {
	return &AIController{Estimator: est, Tips: ins}
}

// POST /ai/parse-text  { "text": "I had 2 eggs and 100g rice" }
func (h *AIController) ParseText(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	out, err := h.Estimator.ParseText(c.Request.Context(), req.Text)
	if err != nil {
		respondError(c, err, "Not found")
		return
	}
	c.JSON(http.StatusOK, out)
}

// POST /ai/analyze-image  { "image": "data:image/jpeg;base64,..." }
func (h *AIController) AnalyzeImage(c *gin.Context) {
	var req struct {
		Image string `json:"image"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	out, err := h.Estimator.AnalyzeImage(c.Request.Context(), req.Image)
	if err != nil {
		respondError(c, err, "Not found")
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /ai/insights
func (h *AIController) Insights(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		unauthorized(c)
		return
	}
	out, err := h.Tips.Tip(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Not found")
		return
	}
	c.JSON(http.StatusOK, out)
}
