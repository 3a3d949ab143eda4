package access

import (
	"time"

	"lifelessons/backend/models"
)

const (
	PremiumPlaceholder      = "This is a Premium lesson. Upgrade to Premium to read the full lesson."
	PremiumTitlePlaceholder = "Premium Lesson"
)

// Context tells Present whether a lesson is shown on its own or as part of
// a listing. Listings mask more aggressively: the title is hidden too.
type Context int

const (
	SingleItem Context = iota
	Listing
)

type CreatorView struct {
	ID          uint   `json:"id"`
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
}

// LessonView is the wire shape of a lesson as a particular viewer sees it.
type LessonView struct {
	ID               uint         `json:"id"`
	Title            string       `json:"title"`
	ShortDescription string       `json:"shortDescription"`
	Description      string       `json:"description,omitempty"`
	Category         string       `json:"category"`
	EmotionalTone    string       `json:"emotionalTone"`
	ImageURL         string       `json:"imageURL,omitempty"`
	Visibility       string       `json:"visibility"`
	AccessLevel      string       `json:"accessLevel"`
	Creator          *CreatorView `json:"creator,omitempty"`
	LikesCount       int          `json:"likesCount"`
	Locked           bool         `json:"isLocked"`
	Liked            bool         `json:"isLiked"`
	Favorited        bool         `json:"isFavorited"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

// Present renders a lesson for a decision already taken by
// AuthorizeLessonRead. It returns false for Denied.
func Present(lesson *models.Lesson, decision ReadDecision, ctx Context) (LessonView, bool) {
	if decision == Denied {
		return LessonView{}, false
	}

	view := LessonView{
		ID:               lesson.ID,
		Title:            lesson.Title,
		ShortDescription: lesson.ShortDescription,
		Description:      lesson.Description,
		Category:         lesson.Category,
		EmotionalTone:    lesson.EmotionalTone,
		ImageURL:         lesson.ImageURL,
		Visibility:       lesson.Visibility,
		AccessLevel:      lesson.AccessLevel,
		LikesCount:       lesson.LikesCount,
		CreatedAt:        lesson.CreatedAt,
		UpdatedAt:        lesson.UpdatedAt,
	}
	if c := lesson.Creator; c != nil {
		view.Creator = &CreatorView{ID: c.ID, UID: c.UID, DisplayName: c.DisplayName, PhotoURL: c.PhotoURL}
	}

	if decision == Masked {
		view.Locked = true
		view.ShortDescription = PremiumPlaceholder
		view.Description = ""
		view.ImageURL = ""
		if ctx == Listing {
			view.Title = PremiumTitlePlaceholder
		}
	}
	return view, true
}

// PresentListing applies AuthorizeLessonRead and listing masking to every
// lesson, dropping any the viewer may not see at all.
func PresentListing(actor *models.User, lessons []models.Lesson) []LessonView {
	views := make([]LessonView, 0, len(lessons))
	for i := range lessons {
		if view, ok := Present(&lessons[i], AuthorizeLessonRead(actor, &lessons[i]), Listing); ok {
			views = append(views, view)
		}
	}
	return views
}
