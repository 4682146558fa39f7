package attendance

import (
	"time"
)

type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
)

// Source records what produced an attendance record.
type Source string

const (
	SourcePunch       Source = "punch"
	SourceOutdoorDuty Source = "outdoor_duty"
	SourceAbsence     Source = "absence"
)

// SourceRow is one log line as the time clock reports it.
type SourceRow struct {
	ExternalUserID string `json:"user_id"`
	LogDate        string `json:"log_date"`
	LogTime        string `json:"log_time"`
	Direction      string `json:"direction"`
}

// RawPunch is a staged punch awaiting folding into Attendance.
// (ExternalUserID, LogDate, LogTime, Direction) is unique.
type RawPunch struct {
	ID             string
	ExternalUserID string
	LogDate        time.Time
	LogTime        string
	Direction      Direction
	Processed      bool
	CreatedAt      time.Time
}

// Key identifies a punch regardless of when it was staged.
func (p RawPunch) Key() string {
	return p.ExternalUserID + "|" + p.LogDate.Format("2006-01-02") + "|" + p.LogTime + "|" + string(p.Direction)
}

// Attendance is the single per-day record of an employee.
type Attendance struct {
	ID          string
	EmployeeID  string
	LogDate     time.Time
	TimeIn      *time.Time
	TimeOut     *time.Time
	WorkMinutes int
	OTMinutes   int
	Status      Status
	Source      Source
	OTSettledAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OvertimeSettled reports whether the sweeper already closed the claim window.
func (a Attendance) OvertimeSettled() bool {
	return a.OTSettledAt != nil
}

// OvertimeHoursCeil is recorded overtime rounded up to whole hours.
func (a Attendance) OvertimeHoursCeil() int {
	if a.OTMinutes <= 0 {
		return 0
	}
	return (a.OTMinutes + 59) / 60
}
