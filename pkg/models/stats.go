package models

import "github.com/shopspring/decimal"

// Totals are the headline counters of the admin dashboard
type Totals struct {
	Users               int             `json:"total_users"`
	Videos              int             `json:"total_videos"`
	PremiumVideos       int             `json:"total_premium"`
	Categories          int             `json:"total_categories"`
	Announcements       int             `json:"total_announcements"`
	ActiveAnnouncements int             `json:"total_active_announcements"`
	PendingPayments     int             `json:"pending_payments"`
	Revenue             decimal.Decimal `json:"total_revenue"`
}

// DashboardStats is everything the admin dashboard renders
type DashboardStats struct {
	Totals
	RecentPayments []*Payment      `json:"recent_payments"`
	TodayRevenue   decimal.Decimal `json:"today_revenue"`
	MonthRevenue   decimal.Decimal `json:"month_revenue"`
}

// DailyPaymentStat aggregates completed payments for one local calendar day
type DailyPaymentStat struct {
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count"`
}

// CategoryStat counts videos by tier within a category
type CategoryStat struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Total       int    `json:"total_videos"`
	Premium     int    `json:"premium_videos"`
	Free        int    `json:"free_videos"`
}

// AnnouncementStats counts announcements by state
type AnnouncementStats struct {
	Total    int `json:"total_announcements"`
	Active   int `json:"active_announcements"`
	Inactive int `json:"inactive_announcements"`
	Recent   int `json:"recent_announcements"`
}

// PaymentCounts counts payments by status
type PaymentCounts struct {
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	Rejected  int `json:"rejected"`
	Total     int `json:"total"`
}
