package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/karthikosa11/smartcal-nutrition-tracker/logger"
	"github.com/karthikosa11/smartcal-nutrition-tracker/models"
	"github.com/karthikosa11/smartcal-nutrition-tracker/utils"
)

type Mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// DigestService mails each user the summary of the last completed week.
// A week is mailed at most once per process.
type DigestService struct {
	db     *gorm.DB
	mailer Mailer
	now    func() time.Time

	mu       sync.Mutex
	lastSent string
}

func NewDigestService(db *gorm.DB, mailer Mailer) *DigestService {
	return &DigestService{db: db, mailer: mailer, now: time.Now}
}

func (d *DigestService) Enabled() bool { return d != nil && d.mailer != nil }

// SendWeekly mails last week's rollup to every user that has one. It
// returns how many messages went out.
func (d *DigestService) SendWeekly(ctx context.Context) (int, error) {
	if !d.Enabled() {
		return 0, nil
	}
	week := utils.FormatDate(utils.StartOfWeek(d.now()).AddDate(0, 0, -7))

	d.mu.Lock()
	if d.lastSent == week {
		d.mu.Unlock()
		return 0, nil
	}
	d.mu.Unlock()

	type row struct {
		models.WeeklyStat
		Email    string
		Username string
		Target   int
	}
	var rows []row
	err := d.db.WithContext(ctx).
		Table("weekly_stats ws").
		Select("ws.*, u.email AS email, u.username AS username, u.daily_calorie_target AS target").
		Joins("JOIN users u ON u.id = ws.user_id").
		Where("ws.week_start_date = ?", week).
		Scan(&rows).Error
	if err != nil {
		return 0, fmt.Errorf("load weekly digest rows: %w", err)
	}

	sent := 0
	for _, r := range rows {
		subject := fmt.Sprintf("Your SmartCal week of %s", r.WeekStartDate)
		if err := d.mailer.SendEmail(ctx, r.Email, subject, digestBody(r.Username, r.Target, r.WeeklyStat)); err != nil {
			logger.Warn("digest: send failed", zap.String("userID", r.UserID), zap.Error(err))
			continue
		}
		sent++
	}

	d.mu.Lock()
	d.lastSent = week
	d.mu.Unlock()
	logger.Info("digest: weekly summaries sent", zap.String("week", week), zap.Int("sent", sent))
	return sent, nil
}

func digestBody(username string, target int, w models.WeeklyStat) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", username)
	fmt.Fprintf(&b, "Here is your summary for %s to %s.\n\n", w.WeekStartDate, w.WeekEndDate)
	fmt.Fprintf(&b, "Meals logged: %d\n", w.MealCount)
	fmt.Fprintf(&b, "Total calories: %d\n", w.TotalCalories)
	fmt.Fprintf(&b, "Average per logged day: %.0f kcal (target %d)\n", w.AvgDailyCalories, target)
	fmt.Fprintf(&b, "Protein: %.1fg  Carbs: %.1fg  Fat: %.1fg\n", w.TotalProtein, w.TotalCarbs, w.TotalFat)
	return b.String()
}
