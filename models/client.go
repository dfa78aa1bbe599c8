package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================================
// SERVICE PLAN
// ============================================================================

type ServiceType string

const (
	ServiceMonthly   ServiceType = "MONTHLY"
	ServiceQuarterly ServiceType = "QUARTERLY"
)

// legacy values written by the first frontend
var serviceTypeAliases = map[string]ServiceType{
	"MONTHLY":     ServiceMonthly,
	"MENSILE":     ServiceMonthly,
	"QUARTERLY":   ServiceQuarterly,
	"TRIMESTRALE": ServiceQuarterly,
}

// ParseServiceType normalizes a plan name. Empty input means MONTHLY.
func ParseServiceType(s string) (ServiceType, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return ServiceMonthly, nil
	}
	if t, ok := serviceTypeAliases[s]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown service type %q", s)
}

// Months is the billing period length.
func (t ServiceType) Months() int {
	if t == ServiceQuarterly {
		return 3
	}
	return 1
}

// PeriodsPerYear is how many billing cycles fit in a year.
func (t ServiceType) PeriodsPerYear() int64 {
	return int64(12 / t.Months())
}

// ============================================================================
// CLIENT
// ============================================================================

type Client struct {
	ID                   int64           `json:"id"`
	FirstName            string          `json:"first_name"`
	LastName             string          `json:"last_name"`
	Email                string          `json:"email"`
	Phone                string          `json:"phone"`
	ServiceType          ServiceType     `json:"service_type"`
	ServicePrice         decimal.Decimal `json:"service_price"`
	ProgramStartDate     NullDate        `json:"program_start_date"`
	ProgramDurationWeeks int             `json:"program_duration_weeks"`
	Notes                string          `json:"notes"`
	IsActive             bool            `json:"is_active"`
	LastPaymentDate      NullDate        `json:"last_payment_date"`
	NextPaymentDueDate   NullDate        `json:"next_payment_due_date"`
	LastCheckDate        NullDate        `json:"last_check_date"`
	CheckRequired        bool            `json:"check_required"`
	CreatedAt            time.Time       `json:"created_at"`
}

// ClientView is a client plus the statuses derived for the dashboard.
type ClientView struct {
	Client
	PaymentStatus  PaymentStatus `json:"payment_status"`
	DaysUntilDue   *int          `json:"days_until_due"`
	CheckStatus    CheckStatus   `json:"check_status"`
	WeeksRemaining *int          `json:"weeks_remaining"`
}

type PaymentStatus string

const (
	PaymentCurrent        PaymentStatus = "CURRENT"
	PaymentDueSoon        PaymentStatus = "DUE_SOON"
	PaymentLate           PaymentStatus = "LATE"
	PaymentPendingUnknown PaymentStatus = "PENDING_UNKNOWN"
)

type CheckStatus string

const (
	CheckDone CheckStatus = "DONE"
	CheckTodo CheckStatus = "TODO"
)

// ============================================================================
// REQUESTS
// ============================================================================

// SaveClientRequest is the body of save_client. ID zero means insert.
type SaveClientRequest struct {
	ID                   FlexInt         `json:"id"`
	FirstName            string          `json:"first_name"`
	LastName             string          `json:"last_name"`
	Email                string          `json:"email"`
	Phone                string          `json:"phone"`
	ServiceType          string          `json:"service_type" binding:"omitempty,servicetype"`
	ServicePrice         decimal.Decimal `json:"service_price"`
	ProgramStartDate     NullDate        `json:"program_start_date"`
	ProgramDurationWeeks FlexInt         `json:"program_duration_weeks"`
	Notes                string          `json:"notes"`
	IsActive             *FlexBool       `json:"is_active"`
}

type IDRequest struct {
	ID FlexInt `json:"id"`
}

type QuickActionRequest struct {
	ID   FlexInt `json:"id"`
	Type string  `json:"type"`
}

// ============================================================================
// LENIENT JSON SCALARS
// ============================================================================

// FlexInt accepts 12, "12" and null. Form inputs post ids as strings.
type FlexInt int64

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte(`""`)) {
		*f = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(strings.TrimSpace(s))
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid integer %s", string(data))
	}
	i, err := n.Int64()
	if err != nil {
		// 12.0 and 1e3 are whole numbers; 1.9 and 1e30 are not ids
		fl, ferr := n.Float64()
		if ferr != nil || fl != math.Trunc(fl) || fl < math.MinInt64 || fl >= math.MaxInt64 {
			return fmt.Errorf("invalid integer %s", n.String())
		}
		i = int64(fl)
	}
	*f = FlexInt(i)
	return nil
}

// FlexBool accepts true/false, 1/0 and "1"/"0".
type FlexBool bool

func (f *FlexBool) UnmarshalJSON(data []byte) error {
	switch strings.Trim(string(bytes.TrimSpace(data)), `"`) {
	case "true", "1":
		*f = true
	case "false", "0", "", "null":
		*f = false
	default:
		return fmt.Errorf("invalid boolean %s", string(data))
	}
	return nil
}
