package models

import "time"

const (
	ReportPending  = "pending"
	ReportResolved = "resolved"
)

type Comment struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	LessonID  uint      `gorm:"index;not null" json:"lessonId"`
	UserID    uint      `gorm:"index;not null" json:"userId"`
	UserName  string    `json:"userName"`
	UserImage string    `json:"userImage"`
	Text      string    `gorm:"not null" json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Favorite is unique per (user, lesson).
type Favorite struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_favorite_user_lesson;not null" json:"userId"`
	LessonID  uint      `gorm:"uniqueIndex:idx_favorite_user_lesson;index;not null" json:"lessonId"`
	Lesson    *Lesson   `json:"lesson,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Report struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	LessonID   uint      `gorm:"index;not null" json:"lessonId"`
	ReportedBy uint      `gorm:"index;not null" json:"reportedBy"`
	Reason     string    `gorm:"not null" json:"reason"`
	Status     string    `gorm:"default:pending;not null" json:"status"` // pending, resolved
	CreatedAt  time.Time `json:"createdAt"`
}

// All lists every model for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&PaymentEvent{},
		&Lesson{},
		&LessonLike{},
		&Comment{},
		&Favorite{},
		&Report{},
	}
}
