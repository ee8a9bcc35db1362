package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/karthikosa11/smartcal-nutrition-tracker/models"
	"github.com/karthikosa11/smartcal-nutrition-tracker/utils"
)

type MealService struct {
	db     *gorm.DB
	images *ImageService
	events EventPublisher
	now    func() time.Time
}

func NewMealService(db *gorm.DB, images *ImageService, events EventPublisher) *MealService {
	if events == nil {
		events = nopPublisher{}
	}
	return &MealService{db: db, images: images, events: events, now: time.Now}
}

type (
	MealInput = models.MealInput
	MealPatch = models.MealPatch
)

// DayTotals is one row of the live weekly view.
type DayTotals struct {
	Date     string  `json:"date"`
	Calories int     `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// maxTotalCalories keeps stored totals inside a 32-bit INT column.
const maxTotalCalories = math.MaxInt32

// trimItems copies items with trimmed names so blank names fail validation.
func trimItems(items []models.FoodItem) []models.FoodItem {
	if items == nil {
		return nil
	}
	out := make([]models.FoodItem, len(items))
	for i, it := range items {
		it.Name = strings.TrimSpace(it.Name)
		out[i] = it
	}
	return out
}

func roundCalories(v float64) (int, error) {
	r := math.Round(v)
	if math.IsNaN(r) || r < 0 || r > maxTotalCalories {
		return 0, models.Invalid("Total calories must be a non-negative number no larger than %d", maxTotalCalories)
	}
	return int(r), nil
}

func totalCalories(explicit *float64, items []models.FoodItem) (int, error) {
	if explicit != nil && *explicit != 0 {
		return roundCalories(*explicit)
	}
	var sum float64
	for _, it := range items {
		sum += it.Calories
	}
	return roundCalories(sum)
}

func optionalText(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := *s
	return &v
}

func (s *MealService) storeImage(ctx context.Context, userID string, url *string) *string {
	url = optionalText(url)
	if url == nil {
		return nil
	}
	stored := s.images.Store(ctx, userID, *url)
	return &stored
}

func (s *MealService) Create(ctx context.Context, userID string, in MealInput) (*models.MealLog, error) {
	in.Date = strings.TrimSpace(in.Date)
	in.FoodItems = trimItems(in.FoodItems)
	if err := utils.Validate(in); err != nil {
		return nil, err
	}
	date, err := utils.NormalizeDate(in.Date)
	if err != nil {
		return nil, err
	}
	total, err := totalCalories(in.TotalCalories, in.FoodItems)
	if err != nil {
		return nil, err
	}

	log := &models.MealLog{
		UserID:        userID,
		Date:          date,
		MealType:      in.MealType,
		FoodItems:     in.FoodItems,
		TotalCalories: total,
		ImageURL:      s.storeImage(ctx, userID, in.ImageURL),
		Notes:         optionalText(in.Notes),
		Timestamp:     s.now().UnixMilli(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(log).Error; err != nil {
			return err
		}
		return tx.First(log, "id = ?", log.ID).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create meal log: %w", err)
	}

	s.events.Publish(userID, EventMealCreated, log)
	return log, nil
}

// List returns every log of the user, most recent first.
func (s *MealService) List(ctx context.Context, userID string) ([]models.MealLog, error) {
	return s.ListByDate(ctx, userID, "", "")
}

// ListByDate filters by inclusive YYYY-MM-DD bounds; empty bounds are open.
func (s *MealService) ListByDate(ctx context.Context, userID, start, end string) ([]models.MealLog, error) {
	start, err := utils.OptionalDate(start)
	if err != nil {
		return nil, err
	}
	end, err = utils.OptionalDate(end)
	if err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if start != "" {
		q = q.Where("date >= ?", start)
	}
	if end != "" {
		q = q.Where("date <= ?", end)
	}

	logs := []models.MealLog{}
	if err := q.Order("timestamp DESC").Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list meal logs: %w", err)
	}
	return logs, nil
}

// Recent returns at most limit logs, newest first.
func (s *MealService) Recent(ctx context.Context, userID string, limit int) ([]models.MealLog, error) {
	if limit <= 0 {
		limit = 10
	}
	logs := []models.MealLog{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

func (s *MealService) Get(ctx context.Context, userID, id string) (*models.MealLog, error) {
	var log models.MealLog
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&log).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &log, nil
}

// Update applies a partial change to a log the user owns. Concurrent
// updates are not merged; the last one wins.
func (s *MealService) Update(ctx context.Context, userID, id string, p MealPatch) (*models.MealLog, error) {
	if p.Empty() {
		return nil, models.Invalid("No fields to update")
	}
	if p.FoodItems != nil {
		items := trimItems(*p.FoodItems)
		p.FoodItems = &items
	}
	if err := utils.Validate(p); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if p.Date != nil {
		date, err := utils.NormalizeDate(*p.Date)
		if err != nil {
			return nil, err
		}
		updates["date"] = date
	}
	if p.MealType != nil {
		updates["meal_type"] = *p.MealType
	}
	if p.FoodItems != nil {
		updates["food_items"] = datatypes.JSONSlice[models.FoodItem](*p.FoodItems)
	}
	if p.TotalCalories != nil {
		total, err := roundCalories(*p.TotalCalories)
		if err != nil {
			return nil, err
		}
		updates["total_calories"] = total
	}
	if p.Notes != nil {
		updates["notes"] = optionalText(p.Notes)
	}

	// Ownership is checked before any image leaves the process.
	err := s.db.WithContext(ctx).Select("id").Where("id = ? AND user_id = ?", id, userID).First(&models.MealLog{}).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update meal log: %w", err)
	}
	if p.ImageURL != nil {
		updates["image_url"] = s.storeImage(ctx, userID, p.ImageURL)
	}

	var log models.MealLog
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&log).Error; err != nil {
			return err
		}
		if err := tx.Model(&log).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&log, "id = ?", id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update meal log: %w", err)
	}

	s.events.Publish(userID, EventMealUpdated, &log)
	return &log, nil
}

func (s *MealService) Delete(ctx context.Context, userID, id string) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.MealLog{})
	if res.Error != nil {
		return fmt.Errorf("delete meal log: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	s.events.Publish(userID, EventMealDeleted, map[string]string{"id": id})
	return nil
}

// WeeklyLive totals the logs dated within the last seven days, computed
// straight from meal logs, oldest day first.
func (s *MealService) WeeklyLive(ctx context.Context, userID string) ([]DayTotals, error) {
	since := utils.FormatDate(utils.DayStart(s.now()).AddDate(0, 0, -7))

	var logs []models.MealLog
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND date >= ?", userID, since).
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("weekly stats: %w", err)
	}

	byDate := map[string]*DayTotals{}
	for i := range logs {
		l := &logs[i]
		d := byDate[l.Date]
		if d == nil {
			d = &DayTotals{Date: l.Date}
			byDate[l.Date] = d
		}
		_, p, c, f := l.Totals()
		d.Calories += l.TotalCalories
		d.Protein += p
		d.Carbs += c
		d.Fat += f
	}

	out := make([]DayTotals, 0, len(byDate))
	for _, d := range byDate {
		d.Protein, d.Carbs, d.Fat = round1(d.Protein), round1(d.Carbs), round1(d.Fat)
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
