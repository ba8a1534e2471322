package sweeper

import (
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultCronExpr — расписание по умолчанию: каждые 5 минут.
const DefaultCronExpr = "*/5 * * * *"

// cronParser — парсер стандартных 5-польных cron-выражений.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// CronExpr возвращает расписание из переменной окружения SWEEP_CRON.
func CronExpr() string {
	if v := os.Getenv("SWEEP_CRON"); v != "" {
		return v
	}
	return DefaultCronExpr
}

// NextDue вычисляет следующее время запуска по cron-выражению.
func NextDue(cronExpr string, from time.Time) (time.Time, error) {
	schedule, err := cronParser.Parse(cronExpr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cron expression %q: %w", cronExpr, err)
	}
	return schedule.Next(from).UTC(), nil
}

// ValidateCronExpr проверяет валидность cron-выражения.
func ValidateCronExpr(cronExpr string) error {
	if _, err := cronParser.Parse(cronExpr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}
	return nil
}
