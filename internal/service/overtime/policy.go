package overtime

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/request"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/utils"
	"github.com/shopspring/decimal"
)

const (
	halfDayMinutes = 4 * 60
	fullDayMinutes = 8 * 60
)

var paymentMultiplier = decimal.NewFromFloat(1.5)

type Config struct {
	// EligibleDepartments are department codes whose overtime converts into
	// compensatory hours.
	EligibleDepartments []string
	HourlyRate          decimal.Decimal
	Location            *time.Location
}

// Policy decides how overtime is compensated and when it may be claimed.
type Policy struct {
	eligible map[string]bool
	rate     decimal.Decimal
	loc      *time.Location
}

func NewPolicy(cfg Config) *Policy {
	eligible := make(map[string]bool, len(cfg.EligibleDepartments))
	for _, code := range cfg.EligibleDepartments {
		if code = strings.TrimSpace(code); code != "" {
			eligible[strings.ToUpper(code)] = true
		}
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Policy{eligible: eligible, rate: cfg.HourlyRate, loc: loc}
}

func (p *Policy) Eligible(departmentCode string) bool {
	return p.eligible[strings.ToUpper(strings.TrimSpace(departmentCode))]
}

func (p *Policy) Track(departmentCode string) request.Track {
	if p.Eligible(departmentCode) {
		return request.TrackCompensatory
	}
	return request.TrackPayment
}

// PayableAmount is hours at one and a half times the hourly rate.
func (p *Policy) PayableAmount(hours int) decimal.Decimal {
	return p.rate.Mul(decimal.NewFromInt(int64(hours))).Mul(paymentMultiplier)
}

// ClaimDeadline is the last instant a claim for overtime worked on date is accepted.
func (p *Policy) ClaimDeadline(date time.Time) time.Time {
	return utils.EndOfNextDay(date, p.loc)
}

// CheckClaim reports whether a claim on the given track for date may be
// submitted at now.
func (p *Policy) CheckClaim(track request.Track, date, now time.Time) error {
	if now.After(p.ClaimDeadline(date)) {
		return request.ErrClaimWindowClosed
	}
	if track == request.TrackPayment && date.Weekday() != time.Sunday {
		return request.ErrPaymentTrackSundayOnly
	}
	return nil
}

// ConversionHours is the compensatory credit unclaimed overtime earns:
// 8 hours from a full day of overtime, 4 from half a day, nothing below.
// Outside eligible departments only Sunday overtime converts.
func (p *Policy) ConversionHours(otMinutes int, eligible bool, date time.Time) int {
	if !eligible && date.Weekday() != time.Sunday {
		return 0
	}
	switch {
	case otMinutes >= fullDayMinutes:
		return 8
	case otMinutes >= halfDayMinutes:
		return 4
	default:
		return 0
	}
}
