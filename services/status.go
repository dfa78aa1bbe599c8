package services

import (
	"math"
	"time"

	"github.com/LovationAdmin/trainer-api/models"

	"github.com/shopspring/decimal"
)

// DueSoonThresholdDays is how many days before the due date a payment stops
// being CURRENT and becomes DUE_SOON.
const DueSoonThresholdDays = 5

// NextDueDate rolls from by one billing period of serviceType. Month-end
// dates clamp to the last day of the target month.
func NextDueDate(from models.Date, serviceType models.ServiceType) models.Date {
	return addMonths(from, serviceType.Months())
}

func addMonths(d models.Date, months int) models.Date {
	y, m, day := d.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	lastDay := first.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return models.NewDate(time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC))
}

// DaysUntil counts whole calendar days from now's date to d. Negative when d
// is in the past.
func DaysUntil(d models.Date, now time.Time) int {
	today := models.NewDate(now)
	return int(math.Floor(d.Sub(today.Time).Hours() / 24))
}

func PaymentStatus(c models.Client, now time.Time) models.PaymentStatus {
	if !c.NextPaymentDueDate.Valid {
		return models.PaymentPendingUnknown
	}
	days := DaysUntil(c.NextPaymentDueDate.Date, now)
	switch {
	case days >= DueSoonThresholdDays:
		return models.PaymentCurrent
	case days >= 0:
		return models.PaymentDueSoon
	default:
		return models.PaymentLate
	}
}

// InSameMonth reports whether d falls in now's calendar month and year.
func InSameMonth(d models.Date, now time.Time) bool {
	today := models.NewDate(now)
	return d.Year() == today.Year() && d.Month() == today.Month()
}

// CheckStatus is DONE only when the flag is set and the last check happened
// this month. The flag alone is not enough.
func CheckStatus(c models.Client, now time.Time) models.CheckStatus {
	if c.CheckRequired && c.LastCheckDate.Valid && InSameMonth(c.LastCheckDate.Date, now) {
		return models.CheckDone
	}
	return models.CheckTodo
}

// WeeksRemaining is nil when the program has no start date or duration.
func WeeksRemaining(c models.Client, now time.Time) *int {
	if !c.ProgramStartDate.Valid || c.ProgramDurationWeeks <= 0 {
		return nil
	}
	elapsedDays := -DaysUntil(c.ProgramStartDate.Date, now)
	elapsedWeeks := int(math.Floor(float64(elapsedDays) / 7))
	remaining := c.ProgramDurationWeeks - elapsedWeeks
	return &remaining
}

func AnnualRevenue(c models.Client) decimal.Decimal {
	return c.ServicePrice.Mul(decimal.NewFromInt(c.ServiceType.PeriodsPerYear()))
}

// View attaches the derived statuses used by the dashboard.
func View(c models.Client, now time.Time) models.ClientView {
	v := models.ClientView{
		Client:         c,
		PaymentStatus:  PaymentStatus(c, now),
		CheckStatus:    CheckStatus(c, now),
		WeeksRemaining: WeeksRemaining(c, now),
	}
	if c.NextPaymentDueDate.Valid {
		days := DaysUntil(c.NextPaymentDueDate.Date, now)
		v.DaysUntilDue = &days
	}
	return v
}

// Summarize computes the finance view totals over active clients.
func Summarize(clients []models.Client, target decimal.Decimal) models.FinanceSummary {
	summary := models.FinanceSummary{
		TotalClients:  len(clients),
		AnnualRevenue: decimal.Zero,
		MonthlyTotal:  decimal.Zero,
		RevenueTarget: target,
	}
	for _, c := range clients {
		if !c.IsActive {
			continue
		}
		summary.ActiveClients++
		summary.AnnualRevenue = summary.AnnualRevenue.Add(AnnualRevenue(c))
		summary.MonthlyTotal = summary.MonthlyTotal.Add(c.ServicePrice)
	}
	if target.IsPositive() {
		progress, _ := summary.AnnualRevenue.Div(target).Mul(decimal.NewFromInt(100)).Round(1).Float64()
		summary.TargetProgress = math.Min(100, progress)
	}
	return summary
}
