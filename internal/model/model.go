package model

// Wire types shared by the API client and the calendar logic. Date fields are
// kept as strings because the resource layer may return either a bare
// YYYY-MM-DD date or a full ISO-8601 timestamp depending on the column type;
// normalization happens in the calendar package.

type User struct {
	ID                     int64  `json:"id"`
	Username               string `json:"username"`
	Email                  string `json:"email"`
	Phone                  string `json:"phone,omitempty"`
	PreferredContactMethod string `json:"preferred_contact_method,omitempty"`
}

type Category struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	UserID *int64 `json:"user_id"` // nil = global category
}

type HabitTemplate struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CategoryID  *int64    `json:"category_id,omitempty"`
	Category    *Category `json:"category,omitempty"`
	TimesPerDay int       `json:"times_per_day"`
}

type Habit struct {
	ID          int64  `json:"id"`
	UserID      int64  `json:"user_id"`
	TemplateID  *int64 `json:"template_id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CategoryID  *int64 `json:"category_id,omitempty"`
	TimesPerDay int    `json:"times_per_day"`
	IsActive    bool   `json:"is_active"`
	CreateDate  string `json:"create_date,omitempty"`
}

type HabitLog struct {
	ID            int64  `json:"id"`
	HabitID       int64  `json:"user_habit_id"`
	Date          string `json:"date"`
	TimeCompleted string `json:"time_completed,omitempty"`
	Notes         string `json:"notes,omitempty"`
}
