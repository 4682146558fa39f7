package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

// CompensatoryCeilingHours is the most compensatory time an employee may hold.
const CompensatoryCeilingHours = 40

type Employee struct {
	ID                 string
	EmployeeCode       string
	BiometricID        string
	FullName           string
	Role               Role
	EmployeeType       EmployeeType
	DepartmentID       string
	ReportingManagerID *string
	IsActive           bool

	// Ledger
	PaidLeaveBalance         decimal.Decimal
	UnpaidLeaveTaken         decimal.Decimal
	CompensatoryBalanceHours int
	CompensatoryEntries      []CompensatoryEntry
	LastPaidLeaveResetAt     *time.Time
	LastMonthlyLeaveCreditAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Role is the login type of an employee. It doubles as the approval stage the
// employee acts on.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleHOD      Role = "hod"
	RoleAdmin    Role = "admin"
	RoleCEO      Role = "ceo"
)

var roleRank = map[Role]int{
	RoleEmployee: 0,
	RoleHOD:      1,
	RoleAdmin:    2,
	RoleCEO:      3,
}

// Rank orders roles by approval authority. Unknown roles rank below employee.
func (r Role) Rank() int {
	if rank, ok := roleRank[r]; ok {
		return rank
	}
	return -1
}

func (r Role) IsValid() bool {
	_, ok := roleRank[r]
	return ok
}

type EmployeeType string

const (
	EmployeeTypeIntern      EmployeeType = "intern"
	EmployeeTypeConfirmed   EmployeeType = "confirmed"
	EmployeeTypeContractual EmployeeType = "contractual"
	EmployeeTypeProbation   EmployeeType = "probation"
)

type CompensatoryStatus string

const (
	CompensatoryAvailable CompensatoryStatus = "available"
	CompensatoryConsumed  CompensatoryStatus = "consumed"
	CompensatoryExpired   CompensatoryStatus = "expired"
)

type CompensatoryEntry struct {
	ID                  string
	EmployeeID          string
	Date                time.Time
	Hours               int
	Status              CompensatoryStatus
	SourceRequestID     *string
	ConsumedByRequestID *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// AvailableCompensatoryHours sums the hours of entries that can still be consumed.
func (e Employee) AvailableCompensatoryHours() int {
	total := 0
	for _, entry := range e.CompensatoryEntries {
		if entry.Status == CompensatoryAvailable {
			total += entry.Hours
		}
	}
	return total
}

// FindCompensatoryEntry returns the index of the entry with the given ID, or -1.
func (e Employee) FindCompensatoryEntry(id string) int {
	for i, entry := range e.CompensatoryEntries {
		if entry.ID == id {
			return i
		}
	}
	return -1
}

type Department struct {
	ID   string
	Code string
	Name string
}
