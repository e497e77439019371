package core

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AllMonths selects every month of a year when resetting a scope.
const AllMonths = 0

type (
	// Day is a calendar date owned by an expense entry.
	Day struct {
		Year  int
		Month int
		Day   int
	}

	// Scope selects a set of days: Year 0 means every year, Month 0 the whole year.
	Scope struct {
		Year  int
		Month int
	}

	// MonthlyAmounts maps a month (1..12) to its budgeted amount.
	MonthlyAmounts map[int]decimal.Decimal

	BudgetRecord struct {
		UserID string
		Year   int
		Months MonthlyAmounts
	}

	ExpenseRecord struct {
		UserID string
		Date   Day
		Amount decimal.Decimal
	}

	User struct {
		ID           string
		PasswordHash string
		Name         string
		Email        string
		Phone        string
		Nickname     string
		CreatedAt    time.Time
	}
)

// NewDay builds a Day without validating it.
func NewDay(year, month, day int) Day {
	return Day{Year: year, Month: month, Day: day}
}

// ParseDay reads a "Y-M-D" date. Components may be zero padded.
func ParseDay(s string) (Day, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return Day{}, ErrInvalidDate
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || strings.HasPrefix(p, "+") {
			return Day{}, ErrInvalidDate
		}
		nums[i] = n
	}
	d := NewDay(nums[0], nums[1], nums[2])
	if err := d.Validate(); err != nil {
		return Day{}, err
	}
	return d, nil
}

// Validate rejects dates that do not exist on the calendar.
func (d Day) Validate() error {
	if err := ValidateYear(d.Year); err != nil {
		return err
	}
	if err := ValidateMonth(d.Month); err != nil {
		return err
	}
	if d.Day < 1 || d.Day > DaysIn(d.Year, d.Month) {
		return ErrInvalidDay
	}
	return nil
}

// String renders the date without zero padding, e.g. 2024-6-1.
func (d Day) String() string {
	return strconv.Itoa(d.Year) + "-" + strconv.Itoa(d.Month) + "-" + strconv.Itoa(d.Day)
}

// Less orders days chronologically.
func (d Day) Less(o Day) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// DaysIn returns the number of days in the given month.
func DaysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MaxYear keeps years within a 32-bit database column.
const MaxYear = 9999

func ValidateYear(year int) error {
	if year < 1 || year > MaxYear {
		return ErrInvalidYear
	}
	return nil
}

func ValidateMonth(month int) error {
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

func AllTime() Scope { return Scope{} }

func YearScope(year int) Scope { return Scope{Year: year} }

func MonthScope(year, month int) Scope { return Scope{Year: year, Month: month} }

// Validate checks that a month is only selected within a concrete year.
func (s Scope) Validate() error {
	if s.Year == 0 {
		if s.Month != AllMonths {
			return ErrInvalidScope
		}
		return nil
	}
	if err := ValidateYear(s.Year); err != nil {
		return err
	}
	if s.Month == AllMonths {
		return nil
	}
	return ValidateMonth(s.Month)
}

// Contains reports whether d falls inside the scope.
func (s Scope) Contains(d Day) bool {
	if s.Year != 0 && d.Year != s.Year {
		return false
	}
	if s.Month != AllMonths && d.Month != s.Month {
		return false
	}
	return true
}

func (s Scope) String() string {
	switch {
	case s.Year == 0:
		return "all"
	case s.Month == AllMonths:
		return strconv.Itoa(s.Year)
	default:
		return strconv.Itoa(s.Year) + "-" + strconv.Itoa(s.Month)
	}
}

// Validate checks month keys and amounts.
func (m MonthlyAmounts) Validate() error {
	for month, amount := range m {
		if err := ValidateMonth(month); err != nil {
			return err
		}
		if err := ValidateAmount(amount); err != nil {
			return err
		}
	}
	return nil
}

func (m MonthlyAmounts) Clone() MonthlyAmounts {
	out := make(MonthlyAmounts, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (r BudgetRecord) Clone() BudgetRecord {
	r.Months = r.Months.Clone()
	return r
}
