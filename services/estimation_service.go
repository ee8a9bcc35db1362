package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/karthikosa11/smartcal-nutrition-tracker/logger"
	"github.com/karthikosa11/smartcal-nutrition-tracker/models"
	"github.com/karthikosa11/smartcal-nutrition-tracker/nutrition"
	"github.com/karthikosa11/smartcal-nutrition-tracker/utils"
)

// TextGenerator is a generative model endpoint.
type TextGenerator interface {
	Enabled() bool
	GenerateText(ctx context.Context, prompt string) (string, error)
	GenerateWithImage(ctx context.Context, prompt, mimeType string, image []byte) (string, error)
}

// LabelDetector names the objects seen in an image.
type LabelDetector interface {
	DetectLabels(ctx context.Context, image []byte) ([]string, error)
}

const (
	SourceGemini      = models.SourceGemini
	SourceRekognition = models.SourceRekognition
	SourceParser      = models.SourceParser
	SourceFallback    = models.SourceFallback
)

type (
	TextEstimate  = models.TextEstimate
	ImageEstimate = models.ImageEstimate
)

// EstimationService turns free text or a photo into food items. Each path
// degrades to a local estimate when the remote model is unavailable.
type EstimationService struct {
	gen    TextGenerator
	labels LabelDetector
	parser *nutrition.Parser
	table  *nutrition.Table
}

// NewEstimationService accepts nil for gen and labels.
func NewEstimationService(gen TextGenerator, labels LabelDetector, table *nutrition.Table) *EstimationService {
	if table == nil {
		table = nutrition.DefaultTable()
	}
	return &EstimationService{gen: gen, labels: labels, parser: nutrition.NewParser(table), table: table}
}

func (s *EstimationService) genEnabled() bool { return s.gen != nil && s.gen.Enabled() }

const parseTextPrompt = `Extract nutritional information from this text: %q. ` +
	`If multiple food items are mentioned (e.g. "chicken and rice", "100g chicken and 100g rice"), return one entry per item. ` +
	`Respond with only a JSON array: [{"name": "food name", "calories": number, "protein": number, "carbs": number, "fat": number}]. ` +
	`Protein, carbs and fat are grams.`

func (s *EstimationService) ParseText(ctx context.Context, text string) (*TextEstimate, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.Invalid("Text is required")
	}

	if s.genEnabled() {
		items, err := s.parseWithModel(ctx, text)
		if err == nil && len(items) > 0 {
			return &TextEstimate{Items: nutrition.Sanitize(items), Source: SourceGemini}, nil
		}
		logger.Warn("gemini text parse failed, using local parser", zap.Error(err))
	}
	return &TextEstimate{Items: nutrition.Sanitize(s.parser.Parse(text)), Source: SourceParser}, nil
}

func (s *EstimationService) parseWithModel(ctx context.Context, text string) ([]models.FoodItem, error) {
	out, err := s.gen.GenerateText(ctx, fmt.Sprintf(parseTextPrompt, text))
	if err != nil {
		return nil, err
	}
	return decodeItems(out)
}

// decodeItems accepts either a JSON array of items or a single object.
func decodeItems(out string) ([]models.FoodItem, error) {
	raw, ok := extractJSON(out)
	if !ok {
		return nil, fmt.Errorf("no JSON in model output")
	}
	if strings.HasPrefix(raw, "[") {
		var items []models.FoodItem
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			return nil, fmt.Errorf("decode items: %w", err)
		}
		return items, nil
	}
	var item models.FoodItem
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}
	return []models.FoodItem{item}, nil
}

const analyzeImagePrompt = `Identify the food in this image. Return a JSON object with the food name, estimated calories, ` +
	`and macros (protein, carbs, fat in grams) for the portion shown. If there are several items, sum them up. ` +
	`Format: {"name": "food name", "calories": number, "protein": number, "carbs": number, "fat": number, "confidence": number}`

// decodeImage accepts a data URI or bare base64 (assumed JPEG).
func decodeImage(raw string) (string, []byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil, models.Invalid("Image is required")
	}
	if strings.HasPrefix(raw, "data:") {
		img, err := utils.ParseDataURI(raw)
		if err != nil {
			return "", nil, models.Invalid("Invalid image: %v", err)
		}
		return img.ContentType, img.Data, nil
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return "", nil, models.Invalid("Invalid image encoding")
	}
	return "image/jpeg", data, nil
}

func placeholder(note string) *ImageEstimate {
	return &ImageEstimate{
		FoodItem:   models.FoodItem{Name: "Food Item"},
		Confidence: 0,
		Note:       note,
		Source:     SourceFallback,
	}
}

func (s *EstimationService) AnalyzeImage(ctx context.Context, image string) (*ImageEstimate, error) {
	mimeType, data, err := decodeImage(image)
	if err != nil {
		return nil, err
	}

	if s.genEnabled() {
		est, err := s.analyzeWithModel(ctx, mimeType, data)
		if err == nil {
			return est, nil
		}
		logger.Warn("gemini image analysis failed", zap.Error(err))
	}

	if s.labels != nil {
		est, err := s.analyzeWithLabels(ctx, data)
		if err == nil {
			return est, nil
		}
		logger.Warn("label detection failed", zap.Error(err))
	}

	if !s.genEnabled() && s.labels == nil {
		return placeholder("Please enter nutritional information manually. API key not configured."), nil
	}
	return placeholder("Image recognition unavailable. Please enter nutritional information manually."), nil
}

func (s *EstimationService) analyzeWithModel(ctx context.Context, mimeType string, data []byte) (*ImageEstimate, error) {
	out, err := s.gen.GenerateWithImage(ctx, analyzeImagePrompt, mimeType, data)
	if err != nil {
		return nil, err
	}
	raw, ok := extractJSON(out)
	if !ok {
		return nil, fmt.Errorf("no JSON in model output")
	}

	var est ImageEstimate
	if strings.HasPrefix(raw, "[") {
		items, err := decodeItems(raw)
		if err != nil {
			return nil, err
		}
		est.FoodItem = sumItems(items)
		est.Confidence = 0.5
	} else if err := json.Unmarshal([]byte(raw), &est); err != nil {
		return nil, fmt.Errorf("decode image estimate: %w", err)
	}
	est.FoodItem = nutrition.Sanitize([]models.FoodItem{est.FoodItem})[0]
	if est.Confidence < 0 || est.Confidence > 1 {
		est.Confidence = 0
	}
	est.Source = SourceGemini
	return &est, nil
}

// analyzeWithLabels estimates from the first detected label the food table
// knows. One default-sized portion is assumed.
func (s *EstimationService) analyzeWithLabels(ctx context.Context, data []byte) (*ImageEstimate, error) {
	labels, err := s.labels.DetectLabels(ctx, data)
	if err != nil {
		return nil, err
	}
	for _, l := range labels {
		if _, ok := s.table.Match(l); ok {
			return &ImageEstimate{
				FoodItem:   s.parser.ParseSegment(l),
				Confidence: 0.75,
				Note:       "Estimated for a single standard portion. Adjust the quantity if needed.",
				Source:     SourceRekognition,
			}, nil
		}
	}
	est := placeholder("Could not estimate nutrition for this image. Please enter it manually.")
	if len(labels) > 0 {
		est.Name = labels[0]
		est.Source = SourceRekognition
	}
	return est, nil
}

func sumItems(items []models.FoodItem) models.FoodItem {
	var out models.FoodItem
	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.Name)
		out.Calories += it.Calories
		out.Protein += it.Protein
		out.Carbs += it.Carbs
		out.Fat += it.Fat
	}
	out.Name = strings.Join(names, ", ")
	return out
}
