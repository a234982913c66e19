package db

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested row does not exist (or is soft
// deleted).
var ErrNotFound = errors.New("record not found")

// Store is the data-access layer over gorm. Handlers talk to it through
// narrow interfaces so tests can substitute fakes.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// ========== Users ==========

func (s *Store) CreateUser(u *User) error {
	return s.db.Create(u).Error
}

func (s *Store) UserByID(id uint) (*User, error) {
	var u User
	if err := s.db.First(&u, id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Store) UserByEmail(email string) (*User, error) {
	var u User
	if err := s.db.Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// UpdateUser applies the non-zero fields of updates to the stored user.
func (s *Store) UpdateUser(id uint, updates *User) (*User, error) {
	result := s.db.Model(&User{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.UserByID(id)
}

func (s *Store) DeleteUser(id uint) error {
	result := s.db.Delete(&User{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ========== Habit templates ==========

// Templates returns all templates with their category preloaded, so the
// join result always carries the category under the one canonical field.
func (s *Store) Templates() ([]HabitTemplate, error) {
	var templates []HabitTemplate
	if err := s.db.Preload("Category").Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

func (s *Store) Template(id uint) (*HabitTemplate, error) {
	var t HabitTemplate
	if err := s.db.Preload("Category").First(&t, id).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

// ========== Categories ==========

// CategoriesForUser returns global categories plus the user's own, global
// first.
func (s *Store) CategoriesForUser(userID uint) ([]Category, error) {
	var categories []Category
	err := s.db.
		Where("user_id IS NULL OR user_id = ?", userID).
		Order("user_id ASC NULLS FIRST").
		Order("name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *Store) CreateCategory(c *Category) error {
	return s.db.Create(c).Error
}

// ========== Habits ==========

func (s *Store) HabitsForUser(userID uint) ([]UserHabit, error) {
	var habits []UserHabit
	err := s.db.
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("create_date ASC").
		Order("id ASC").
		Find(&habits).Error
	if err != nil {
		return nil, err
	}
	return habits, nil
}

func (s *Store) CreateHabit(h *UserHabit) error {
	return s.db.Create(h).Error
}

func (s *Store) Habit(id uint) (*UserHabit, error) {
	var h UserHabit
	if err := s.db.First(&h, id).Error; err != nil {
		return nil, translate(err)
	}
	return &h, nil
}

// UpdateHabit applies the non-zero fields of updates.
func (s *Store) UpdateHabit(id uint, updates *UserHabit) (*UserHabit, error) {
	result := s.db.Model(&UserHabit{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.Habit(id)
}

// ArchiveHabit clears the active flag; archived habits keep their logs.
func (s *Store) ArchiveHabit(id uint) (*UserHabit, error) {
	result := s.db.Model(&UserHabit{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.Habit(id)
}

func (s *Store) DeleteHabit(id uint) error {
	result := s.db.Delete(&UserHabit{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ========== Habit logs ==========

func (s *Store) LogsForHabit(habitID uint) ([]HabitLog, error) {
	var logs []HabitLog
	err := s.db.
		Where("user_habit_id = ?", habitID).
		Order("date DESC").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *Store) LogsForHabitOnDate(habitID uint, date Date) ([]HabitLog, error) {
	var logs []HabitLog
	err := s.db.
		Where("user_habit_id = ? AND date = ?", habitID, date).
		Order("time_completed DESC").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *Store) CreateLog(l *HabitLog) error {
	return s.db.Create(l).Error
}

func (s *Store) Log(id uint) (*HabitLog, error) {
	var l HabitLog
	if err := s.db.First(&l, id).Error; err != nil {
		return nil, translate(err)
	}
	return &l, nil
}

func (s *Store) UpdateLog(id uint, updates *HabitLog) (*HabitLog, error) {
	result := s.db.Model(&HabitLog{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.Log(id)
}

// DeleteLog hard-deletes a completion event (the undo path).
func (s *Store) DeleteLog(id uint) error {
	result := s.db.Unscoped().Delete(&HabitLog{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// LogsForDateRange returns all logs of the user's active habits between
// start and end inclusive, ordered by date ascending then completion time
// descending.
func (s *Store) LogsForDateRange(userID uint, start, end Date) ([]HabitLog, error) {
	var habitIDs []uint
	err := s.db.Model(&UserHabit{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Pluck("id", &habitIDs).Error
	if err != nil {
		return nil, err
	}
	if len(habitIDs) == 0 {
		return []HabitLog{}, nil
	}

	var logs []HabitLog
	err = s.db.
		Where("user_habit_id IN ? AND date >= ? AND date <= ?", habitIDs, start, end).
		Order("date ASC").
		Order("time_completed DESC").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

// ========== Refresh tokens ==========

func (s *Store) CreateRefreshToken(t *RefreshToken) error {
	return s.db.Create(t).Error
}

func (s *Store) RefreshTokenByValue(token string) (*RefreshToken, error) {
	var t RefreshToken
	if err := s.db.Where("token = ?", token).First(&t).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (s *Store) RevokeRefreshToken(token string) error {
	now := time.Now()
	return s.db.Model(&RefreshToken{}).
		Where("token = ? AND revoked_at IS NULL", token).
		Update("revoked_at", &now).Error
}
