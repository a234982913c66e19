package db

import (
	"database/sql/driver"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Date is a date-only column. It marshals as YYYY-MM-DD so clients join it
// against calendar cells without timezone arithmetic.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" || s == `""` {
		*d = Date{}
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		s = s[1 : len(s)-1]
	}
	// Tolerate full timestamps by keeping the date part.
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.Time, nil
}

func (d *Date) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*d = Date{}
	case time.Time:
		*d = NewDate(v)
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
	default:
		return fmt.Errorf("cannot scan %T into Date", value)
	}
	return nil
}

// GormDataType tells the migrator to use a date column.
func (Date) GormDataType() string { return "date" }

type User struct {
	ID                     uint           `json:"id" gorm:"primarykey"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"-"`
	DeletedAt              gorm.DeletedAt `json:"-" gorm:"index"`
	Username               string         `json:"username" gorm:"unique"`
	Email                  string         `json:"email" gorm:"unique"`
	PasswordHash           string         `json:"-"`
	Phone                  string         `json:"phone,omitempty"`
	PreferredContactMethod string         `json:"preferred_contact_method,omitempty"`
	Habits                 []UserHabit    `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// Category classifies habits. A nil UserID marks a global category visible
// to every user; otherwise it belongs to exactly one user.
type Category struct {
	ID     uint   `json:"id" gorm:"primarykey"`
	Name   string `json:"name"`
	UserID *uint  `json:"user_id"`
}

// HabitTemplate is a read-only blueprint used to prefill a new habit.
type HabitTemplate struct {
	ID          uint           `json:"id" gorm:"primarykey"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	CategoryID  *uint          `json:"category_id,omitempty"`
	Category    *Category      `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	TimesPerDay int            `json:"times_per_day" gorm:"default:1"`
}

type UserHabit struct {
	ID          uint           `json:"id" gorm:"primarykey"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"-"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
	UserID      uint           `json:"user_id" gorm:"not null;index"`
	TemplateID  *uint          `json:"template_id,omitempty"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	CategoryID  *uint          `json:"category_id,omitempty"`
	TimesPerDay int            `json:"times_per_day" gorm:"default:1"`
	IsActive    bool           `json:"is_active" gorm:"default:true"`
	CreateDate  Date           `json:"create_date"`
}

// HabitLog is one completion event. Logs are hard-deleted on undo, so there
// is no soft-delete column.
type HabitLog struct {
	ID            uint      `json:"id" gorm:"primarykey"`
	HabitID       uint      `json:"user_habit_id" gorm:"column:user_habit_id;not null;index"`
	Date          Date      `json:"date" gorm:"index"`
	TimeCompleted time.Time `json:"time_completed"`
	Notes         string    `json:"notes,omitempty"`
}

// RefreshToken is a single-use renewal credential. Rotation revokes the old
// row and inserts a new one.
type RefreshToken struct {
	ID        uint       `json:"-" gorm:"primarykey"`
	Token     string     `json:"-" gorm:"uniqueIndex"`
	UserID    uint       `json:"-" gorm:"not null;index"`
	ExpiresAt time.Time  `json:"-"`
	RevokedAt *time.Time `json:"-"`
}
