package attendance

import (
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/validator"
)

type AttendanceFilter struct {
	EmployeeID string
	From       *time.Time
	To         *time.Time
}

type ListAttendanceQuery struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	From       string `json:"from" validate:"omitempty,datetime=2006-01-02"`
	To         string `json:"to" validate:"omitempty,datetime=2006-01-02"`
}

func (q *ListAttendanceQuery) Validate() error {
	return validator.Struct(q)
}

// Filter converts a validated query into a repository filter.
func (q *ListAttendanceQuery) Filter() AttendanceFilter {
	filter := AttendanceFilter{EmployeeID: q.EmployeeID}
	if d, ok := validator.IsValidDate(q.From); ok {
		filter.From = &d
	}
	if d, ok := validator.IsValidDate(q.To); ok {
		filter.To = &d
	}
	return filter
}

type SyncRequest struct {
	From string `json:"from" validate:"required,datetime=2006-01-02"`
	To   string `json:"to" validate:"required,datetime=2006-01-02"`
}

func (r *SyncRequest) Validate() error {
	if err := validator.Struct(r); err != nil {
		return err
	}
	from, _ := validator.IsValidDate(r.From)
	to, _ := validator.IsValidDate(r.To)
	if to.Before(from) {
		return validator.Field("to", "to must not be before from")
	}
	return nil
}

type MarkAbsentRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

func (r *MarkAbsentRequest) Validate() error {
	return validator.Struct(r)
}

type SyncResult struct {
	Fetched      int `json:"fetched"`
	Skipped      int `json:"skipped"`
	Inserted     int `json:"inserted"`
	Folded       int `json:"folded"`
	Unmatched    int `json:"unmatched"`
	FailedGroups int `json:"failed_groups"`
}

type MarkAbsentResult struct {
	Marked  int `json:"marked"`
	Covered int `json:"covered"`
}

type AttendanceResponse struct {
	ID          string     `json:"id"`
	EmployeeID  string     `json:"employee_id"`
	LogDate     string     `json:"log_date"`
	TimeIn      *time.Time `json:"time_in"`
	TimeOut     *time.Time `json:"time_out"`
	WorkMinutes int        `json:"work_minutes"`
	OTMinutes   int        `json:"ot_minutes"`
	Status      Status     `json:"status"`
	Source      Source     `json:"source"`
	OTSettledAt *time.Time `json:"ot_settled_at,omitempty"`
}

func NewAttendanceResponse(a Attendance) AttendanceResponse {
	return AttendanceResponse{
		ID:          a.ID,
		EmployeeID:  a.EmployeeID,
		LogDate:     a.LogDate.Format("2006-01-02"),
		TimeIn:      a.TimeIn,
		TimeOut:     a.TimeOut,
		WorkMinutes: a.WorkMinutes,
		OTMinutes:   a.OTMinutes,
		Status:      a.Status,
		Source:      a.Source,
		OTSettledAt: a.OTSettledAt,
	}
}
