package core

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Monthly Frequency = "monthly"
	Weekly  Frequency = "weekly"
	Yearly  Frequency = "yearly"
)

const dateLayout = "2006-01-02"

type (
	// Frequency is how often an income or expense recurs.
	Frequency string

	Date struct {
		time.Time
	}

	User struct {
		ID            string    `json:"id"`
		Username      string    `json:"username"`
		Color         string    `json:"color"`
		SetupComplete bool      `json:"isSetupComplete"`
		CreatedAt     time.Time `json:"createdAt"`
	}

	Income struct {
		ID          string          `json:"id"`
		UserID      string          `json:"userId"`
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
		Frequency   Frequency       `json:"frequency"`
		PaymentDay  int             `json:"paymentDay"`
		Category    string          `json:"category,omitempty"`
		Recurring   bool            `json:"isRecurring"`
		Date        *Date           `json:"date,omitempty"`
	}

	Expense struct {
		ID          string          `json:"id"`
		UserID      string          `json:"userId"`
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
		Category    string          `json:"category"`
		Subcategory string          `json:"subcategory,omitempty"`
		Recurring   bool            `json:"isRecurring"`
		Frequency   Frequency       `json:"frequency"`
		Date        Date            `json:"date"`
		Shared      bool            `json:"isShared"`
	}

	// SavingsGoal is the monthly surplus a user aims for. A zero target means no goal.
	SavingsGoal struct {
		ID            string          `json:"id"`
		UserID        string          `json:"userId"`
		MonthlyTarget decimal.Decimal `json:"monthlyTarget"`
		Description   string          `json:"description,omitempty"`
	}
)

var (
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrEmptyDescription  = errors.New("empty description")
	ErrEmptyCategory     = errors.New("empty category")
	ErrInvalidFrequency  = errors.New("invalid frequency")
	ErrInvalidPaymentDay = errors.New("invalid payment day")
	ErrEmptyUsername     = errors.New("empty username")
	ErrInvalidColor      = errors.New("invalid color")
	ErrEmptyOwner        = errors.New("missing owning user")
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

func init() {
	// Backups carry amounts as plain JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// ParseFrequency resolves a raw frequency. The empty string means monthly.
func ParseFrequency(s string) (Frequency, error) {
	switch f := Frequency(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return Monthly, nil
	case Monthly, Weekly, Yearly:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
	}
}

func (f Frequency) Validate() error {
	switch f {
	case Monthly, Weekly, Yearly:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidFrequency, string(f))
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts an ISO date, optionally followed by a time part.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) < len(dateLayout) {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	t, err := time.Parse(dateLayout, s[:len(dateLayout)])
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// MonthKey returns the YYYY-MM bucket key of the date.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func validateAmount(a decimal.Decimal) error {
	if a.IsNegative() {
		return fmt.Errorf("%w: must not be negative", ErrInvalidAmount)
	}
	return nil
}

func validateDescription(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrEmptyDescription
	}
	if len(s) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Username) == "" {
		return ErrEmptyUsername
	}
	if u.Color != "" && !colorPattern.MatchString(u.Color) {
		return fmt.Errorf("%w: %q", ErrInvalidColor, u.Color)
	}
	return nil
}

// Validate checks a stored income. Zero amounts are placeholders and accepted.
func (i Income) Validate() error {
	if i.UserID == "" {
		return ErrEmptyOwner
	}
	if err := validateDescription(i.Description); err != nil {
		return err
	}
	if err := validateAmount(i.Amount); err != nil {
		return err
	}
	if err := i.Frequency.Validate(); err != nil {
		return err
	}
	if i.Frequency == Monthly && i.Recurring && (i.PaymentDay < 1 || i.PaymentDay > 31) {
		return fmt.Errorf("%w: %d", ErrInvalidPaymentDay, i.PaymentDay)
	}
	if i.Date != nil {
		if err := i.Date.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (e Expense) Validate() error {
	if e.UserID == "" {
		return ErrEmptyOwner
	}
	if err := validateDescription(e.Description); err != nil {
		return err
	}
	if err := validateAmount(e.Amount); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if err := e.Frequency.Validate(); err != nil {
		return err
	}
	return e.Date.Validate()
}

func (g SavingsGoal) Validate() error {
	if g.UserID == "" {
		return ErrEmptyOwner
	}
	return validateAmount(g.MonthlyTarget)
}

// HasTarget reports whether a positive monthly target is set.
func (g *SavingsGoal) HasTarget() bool {
	return g != nil && g.MonthlyTarget.IsPositive()
}
