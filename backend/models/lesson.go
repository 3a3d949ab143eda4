package models

import "time"

const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"

	AccessFree    = "free"
	AccessPremium = "premium"
)

var Categories = []string{
	"Personal Growth",
	"Career",
	"Relationships",
	"Mindset",
	"Mistakes Learned",
}

var EmotionalTones = []string{
	"Motivational",
	"Sad",
	"Realization",
	"Gratitude",
}

type Lesson struct {
	ID               uint         `gorm:"primarykey" json:"id"`
	Title            string       `gorm:"not null" json:"title"`
	ShortDescription string       `gorm:"not null" json:"shortDescription"`
	Description      string       `json:"description"`
	Category         string       `gorm:"index;not null" json:"category"`
	EmotionalTone    string       `gorm:"index;not null" json:"emotionalTone"`
	ImageURL         string       `json:"imageURL"`
	Visibility       string       `gorm:"index;default:public;not null" json:"visibility"`    // public, private
	AccessLevel      string       `gorm:"index;default:free;not null" json:"accessLevel"`     // free, premium
	CreatorID        uint         `gorm:"index;not null" json:"creatorId"`
	CreatorUID       string       `gorm:"index;not null" json:"creatorUid"`
	Creator          *User        `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Likes            []LessonLike `json:"-"`
	LikesCount       int          `gorm:"default:0;not null" json:"likesCount"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

func (l *Lesson) IsOwnedBy(u *User) bool {
	return u != nil && l.CreatorID == u.ID && l.CreatorUID == u.UID
}

// LessonLike is one member of a lesson's likes set.
type LessonLike struct {
	ID        uint      `gorm:"primarykey"`
	LessonID  uint      `gorm:"uniqueIndex:idx_lesson_like;not null"`
	UID       string    `gorm:"uniqueIndex:idx_lesson_like;not null"`
	CreatedAt time.Time
}

func IsCategory(v string) bool {
	return contains(Categories, v)
}

func IsEmotionalTone(v string) bool {
	return contains(EmotionalTones, v)
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
