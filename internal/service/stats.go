package service

import (
	"context"
	"sort"
	"time"

	"github.com/RMBLOGG/StreamFliix/pkg/models"
	"github.com/shopspring/decimal"
)

const (
	recentPaymentsLimit = 10
	paymentStatsDays    = 7
)

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func startOfMonth(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
}

// Totals returns the headline counters
func (s *Service) Totals(ctx context.Context) (*models.Totals, error) {
	return s.store.Totals(ctx)
}

// Dashboard gathers the admin dashboard figures. Day and month boundaries
// follow the display timezone.
func (s *Service) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	totals, err := s.store.Totals(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.store.RecentCompletedPayments(ctx, recentPaymentsLimit)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	monthStart := startOfMonth(now, s.loc)
	todayStart := startOfDay(now, s.loc)

	month, err := s.store.CompletedPaymentsSince(ctx, monthStart.UTC())
	if err != nil {
		return nil, err
	}

	stats := &models.DashboardStats{
		Totals:         *totals,
		RecentPayments: recent,
		TodayRevenue:   decimal.Zero,
		MonthRevenue:   decimal.Zero,
	}
	for _, p := range month {
		stats.MonthRevenue = stats.MonthRevenue.Add(p.Amount)
		if !p.CreatedAt.Before(todayStart) {
			stats.TodayRevenue = stats.TodayRevenue.Add(p.Amount)
		}
	}
	return stats, nil
}

// PaymentStats sums completed payments per local day over the last week,
// oldest day first. Days without payments are omitted.
func (s *Service) PaymentStats(ctx context.Context) ([]models.DailyPaymentStat, error) {
	since := startOfDay(s.Now(), s.loc).AddDate(0, 0, -(paymentStatsDays - 1))

	payments, err := s.store.CompletedPaymentsSince(ctx, since.UTC())
	if err != nil {
		return nil, err
	}

	byDay := map[string]*models.DailyPaymentStat{}
	for _, p := range payments {
		day := p.CreatedAt.In(s.loc).Format("2006-01-02")
		stat, ok := byDay[day]
		if !ok {
			stat = &models.DailyPaymentStat{Date: day, Amount: decimal.Zero}
			byDay[day] = stat
		}
		stat.Amount = stat.Amount.Add(p.Amount)
		stat.Count++
	}

	stats := make([]models.DailyPaymentStat, 0, len(byDay))
	for _, stat := range byDay {
		stats = append(stats, *stat)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Date < stats[j].Date })
	return stats, nil
}
