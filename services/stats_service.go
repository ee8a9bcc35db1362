package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/karthikosa11/smartcal-nutrition-tracker/models"
	"github.com/karthikosa11/smartcal-nutrition-tracker/utils"
)

const (
	dailyWindowDays  = 7
	weeklyWindowDays = 28
)

// StatsService maintains the daily_stats and weekly_stats rollups and
// serves reads from them.
type StatsService struct {
	db     *gorm.DB
	events EventPublisher
	now    func() time.Time
}

func NewStatsService(db *gorm.DB, events EventPublisher) *StatsService {
	if events == nil {
		events = nopPublisher{}
	}
	return &StatsService{db: db, events: events, now: time.Now}
}

// ---------- ETL ----------

type dayKey struct{ user, date string }

// UpdateDailyStats recomputes the per-day rollup from meal logs dated in
// the last seven days. An empty userID refreshes every user. Returns the
// number of rows written.
func (s *StatsService) UpdateDailyStats(ctx context.Context, userID string) (int, error) {
	since := utils.FormatDate(utils.DayStart(s.now()).AddDate(0, 0, -dailyWindowDays))

	var written int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("date >= ?", since)
		if userID != "" {
			q = q.Where("user_id = ?", userID)
		}
		var logs []models.MealLog
		if err := q.Find(&logs).Error; err != nil {
			return err
		}

		acc := map[dayKey]*models.DailyStat{}
		for i := range logs {
			l := &logs[i]
			k := dayKey{l.UserID, l.Date}
			row := acc[k]
			if row == nil {
				row = &models.DailyStat{UserID: l.UserID, Date: l.Date}
				acc[k] = row
			}
			_, p, c, f := l.Totals()
			row.TotalCalories += l.TotalCalories
			row.TotalProtein += p
			row.TotalCarbs += c
			row.TotalFat += f
			row.MealCount++
		}
		if len(acc) == 0 {
			return nil
		}

		rows := make([]models.DailyStat, 0, len(acc))
		for _, r := range acc {
			r.TotalProtein, r.TotalCarbs, r.TotalFat = round2(r.TotalProtein), round2(r.TotalCarbs), round2(r.TotalFat)
			rows = append(rows, *r)
		}
		sort.Slice(rows, func(i, j int) bool {
			if rows[i].UserID != rows[j].UserID {
				return rows[i].UserID < rows[j].UserID
			}
			return rows[i].Date < rows[j].Date
		})

		written = len(rows)
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"total_calories", "total_protein", "total_carbs", "total_fat", "meal_count", "updated_at",
			}),
		}).Create(&rows).Error
	})
	if err != nil {
		return 0, fmt.Errorf("update daily stats: %w", err)
	}
	return written, nil
}

type weekKey struct{ user, start string }

// UpdateWeeklyStats folds daily_stats of roughly the last four weeks into
// Monday-based weeks. The window starts on a Monday so every week it
// touches is complete.
func (s *StatsService) UpdateWeeklyStats(ctx context.Context, userID string) (int, error) {
	since := utils.FormatDate(utils.StartOfWeek(s.now().AddDate(0, 0, -weeklyWindowDays)))

	var written int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("date >= ?", since)
		if userID != "" {
			q = q.Where("user_id = ?", userID)
		}
		var days []models.DailyStat
		if err := q.Find(&days).Error; err != nil {
			return err
		}

		type weekAcc struct {
			row  models.WeeklyStat
			days int
		}
		acc := map[weekKey]*weekAcc{}
		for _, d := range days {
			start, end, err := utils.WeekBounds(d.Date)
			if err != nil {
				return fmt.Errorf("daily stat %s has bad date %q: %w", d.ID, d.Date, err)
			}
			k := weekKey{d.UserID, start}
			w := acc[k]
			if w == nil {
				w = &weekAcc{row: models.WeeklyStat{UserID: d.UserID, WeekStartDate: start, WeekEndDate: end}}
				acc[k] = w
			}
			w.days++
			w.row.TotalCalories += d.TotalCalories
			w.row.TotalProtein += d.TotalProtein
			w.row.TotalCarbs += d.TotalCarbs
			w.row.TotalFat += d.TotalFat
			w.row.MealCount += d.MealCount
		}
		if len(acc) == 0 {
			return nil
		}

		rows := make([]models.WeeklyStat, 0, len(acc))
		for _, w := range acc {
			r := w.row
			r.AvgDailyCalories = avg(float64(r.TotalCalories), w.days)
			r.TotalProtein, r.TotalCarbs, r.TotalFat = round2(r.TotalProtein), round2(r.TotalCarbs), round2(r.TotalFat)
			rows = append(rows, r)
		}
		sort.Slice(rows, func(i, j int) bool {
			if rows[i].UserID != rows[j].UserID {
				return rows[i].UserID < rows[j].UserID
			}
			return rows[i].WeekStartDate < rows[j].WeekStartDate
		})

		written = len(rows)
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "week_start_date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"week_end_date", "total_calories", "avg_daily_calories",
				"total_protein", "total_carbs", "total_fat", "meal_count", "updated_at",
			}),
		}).Create(&rows).Error
	})
	if err != nil {
		return 0, fmt.Errorf("update weekly stats: %w", err)
	}
	return written, nil
}

// Refresh runs both passes for one user and notifies their sockets.
func (s *StatsService) Refresh(ctx context.Context, userID string) error {
	if _, err := s.UpdateDailyStats(ctx, userID); err != nil {
		return err
	}
	if _, err := s.UpdateWeeklyStats(ctx, userID); err != nil {
		return err
	}
	s.events.Publish(userID, EventStatsUpdated, nil)
	return nil
}

// ---------- Reads ----------

// Daily returns rollup rows with optional inclusive date bounds, newest
// first.
func (s *StatsService) Daily(ctx context.Context, userID, start, end string) ([]models.DailyStat, error) {
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
	rows := []models.DailyStat{}
	if err := q.Order("date DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Weekly returns weeks starting on or after startWeek and ending on or
// before endWeek, newest first.
func (s *StatsService) Weekly(ctx context.Context, userID, startWeek, endWeek string) ([]models.WeeklyStat, error) {
	startWeek, err := utils.OptionalDate(startWeek)
	if err != nil {
		return nil, err
	}
	endWeek, err = utils.OptionalDate(endWeek)
	if err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if startWeek != "" {
		q = q.Where("week_start_date >= ?", startWeek)
	}
	if endWeek != "" {
		q = q.Where("week_end_date <= ?", endWeek)
	}
	rows := []models.WeeklyStat{}
	if err := q.Order("week_start_date DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ---------- Weekly Overview ----------

type DayProgress struct {
	Date     string  `json:"date"`
	Calories int     `json:"calories"`
	Target   int     `json:"target"`
	Percent  float64 `json:"percent"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

type WeeklyOverview struct {
	WeekStart string        `json:"week_start"`
	WeekEnd   string        `json:"week_end"`
	Days      []DayProgress `json:"days"`
}

// Overview lays the rollup of the week containing day out as seven days,
// each compared to the user's daily calorie target. Missing days are zero.
func (s *StatsService) Overview(ctx context.Context, userID, day string) (*WeeklyOverview, error) {
	if day == "" {
		day = utils.FormatDate(s.now())
	}
	day, err := utils.NormalizeDate(day)
	if err != nil {
		return nil, err
	}
	start, end, err := utils.WeekBounds(day)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.WithContext(ctx).Select("id", "daily_calorie_target").First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}

	var rows []models.DailyStat
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND date BETWEEN ? AND ?", userID, start, end).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	idx := map[string]models.DailyStat{}
	for _, r := range rows {
		idx[r.Date] = r
	}

	from, _ := time.Parse(utils.DateLayout, start)
	out := &WeeklyOverview{WeekStart: start, WeekEnd: end}
	for i := 0; i < 7; i++ {
		key := utils.FormatDate(from.AddDate(0, 0, i))
		ds := idx[key]
		out.Days = append(out.Days, DayProgress{
			Date:     key,
			Calories: ds.TotalCalories,
			Target:   user.DailyCalorieTarget,
			Percent:  pct(float64(ds.TotalCalories), float64(user.DailyCalorieTarget)),
			Protein:  ds.TotalProtein,
			Carbs:    ds.TotalCarbs,
			Fat:      ds.TotalFat,
		})
	}
	return out, nil
}

// ---------- internals ----------

func pct(actual, goal float64) float64 {
	if goal <= 0 {
		if actual <= 0 {
			return 0
		}
		return 100
	}
	return round2((actual / goal) * 100.0)
}

func avg(sum float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	return round2(sum / float64(n))
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
