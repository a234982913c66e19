package server

import (
	"habitgrid/db"
	"habitgrid/internal/auth"
)

// Store is the data-access surface the handlers need. *db.Store implements
// it; handler tests substitute fakes.
type Store interface {
	UserByID(id uint) (*db.User, error)
	UserByEmail(email string) (*db.User, error)
	CreateUser(*db.User) error
	UpdateUser(id uint, updates *db.User) (*db.User, error)
	DeleteUser(id uint) error

	Templates() ([]db.HabitTemplate, error)
	Template(id uint) (*db.HabitTemplate, error)

	CategoriesForUser(userID uint) ([]db.Category, error)
	CreateCategory(*db.Category) error

	HabitsForUser(userID uint) ([]db.UserHabit, error)
	CreateHabit(*db.UserHabit) error
	Habit(id uint) (*db.UserHabit, error)
	UpdateHabit(id uint, updates *db.UserHabit) (*db.UserHabit, error)
	ArchiveHabit(id uint) (*db.UserHabit, error)
	DeleteHabit(id uint) error

	LogsForHabit(habitID uint) ([]db.HabitLog, error)
	LogsForHabitOnDate(habitID uint, date db.Date) ([]db.HabitLog, error)
	CreateLog(*db.HabitLog) error
	Log(id uint) (*db.HabitLog, error)
	UpdateLog(id uint, updates *db.HabitLog) (*db.HabitLog, error)
	DeleteLog(id uint) error
	LogsForDateRange(userID uint, start, end db.Date) ([]db.HabitLog, error)
}

// TokenAuth is the session surface backed by *auth.Service.
type TokenAuth interface {
	Register(username, password, email, phone, contactMethod string) (*db.User, *auth.TokenPair, error)
	Login(email, password string) (*db.User, *auth.TokenPair, error)
	LoginExternal(userID uint) (*auth.TokenPair, error)
	Verify(accessToken string) (uint, error)
	Refresh(refreshToken string) (*auth.TokenPair, error)
	Revoke(refreshToken string) error
}

// Server holds the handler dependencies.
type Server struct {
	store Store
	auth  TokenAuth
}

func New(store Store, tokenAuth TokenAuth) *Server {
	return &Server{store: store, auth: tokenAuth}
}
