package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/karthikosa11/smartcal-nutrition-tracker/logger"
	"github.com/karthikosa11/smartcal-nutrition-tracker/models"
)

const (
	insightsWindow  = 10
	insightsContext = 5
)

type Insight = models.Insight

// InsightsService writes a short dietary tip from a user's recent meals.
type InsightsService struct {
	meals *MealService
	gen   TextGenerator
}

func NewInsightsService(meals *MealService, gen TextGenerator) *InsightsService {
	return &InsightsService{meals: meals, gen: gen}
}

func (s *InsightsService) Tip(ctx context.Context, userID string) (*Insight, error) {
	logs, err := s.meals.Recent(ctx, userID, insightsWindow)
	if err != nil {
		return nil, fmt.Errorf("load recent meals: %w", err)
	}

	if len(logs) > 0 && s.gen != nil && s.gen.Enabled() {
		tip, err := s.modelTip(ctx, logs)
		if err == nil {
			return &Insight{Tip: tip, Source: SourceGemini}, nil
		}
		logger.Warn("gemini insights failed, using rules", zap.Error(err))
	}
	return &Insight{Tip: BasicInsight(logs), Source: SourceFallback}, nil
}

func (s *InsightsService) modelTip(ctx context.Context, logs []models.MealLog) (string, error) {
	if len(logs) > insightsContext {
		logs = logs[:insightsContext]
	}
	type entry struct {
		Date          string            `json:"date"`
		MealType      models.MealType   `json:"mealType"`
		FoodItems     []models.FoodItem `json:"foodItems"`
		TotalCalories int               `json:"totalCalories"`
	}
	ctxLogs := make([]entry, len(logs))
	for i, l := range logs {
		ctxLogs[i] = entry{l.Date, l.MealType, l.FoodItems, l.TotalCalories}
	}
	data, err := json.Marshal(ctxLogs)
	if err != nil {
		return "", err
	}
	prompt := fmt.Sprintf("Here are my recent food logs: %s. Give me a 2-sentence health tip based on this data. Address the user directly.", data)
	return s.gen.GenerateText(ctx, prompt)
}

// BasicInsight is the rule-based tip used without a model. Averages are
// per meal and rounded.
func BasicInsight(logs []models.MealLog) string {
	if len(logs) == 0 {
		return "Add some meal logs to get personalized insights!"
	}

	var calories, protein float64
	for i := range logs {
		calories += float64(logs[i].TotalCalories)
		_, p, _, _ := logs[i].Totals()
		protein += p
	}
	n := float64(len(logs))
	avgCalories := int(math.Round(calories / n))
	avgProtein := int(math.Round(protein / n))

	switch {
	case avgCalories > 2500:
		return fmt.Sprintf("You're averaging %d calories per meal. Consider balancing your portions and including more vegetables for better nutrition.", avgCalories)
	case avgProtein < 20:
		return fmt.Sprintf("Your average protein intake is %dg per meal. Try adding lean proteins like chicken, fish, or legumes to support muscle health.", avgProtein)
	default:
		return fmt.Sprintf("Great job tracking your meals! You're averaging %d calories with %dg of protein per meal. Keep up the consistency!", avgCalories, avgProtein)
	}
}
