// Package access decides what an actor may read or change. Every function
// here takes the actor's account as freshly read from the user directory;
// a nil actor is an anonymous visitor.
package access

import (
	"errors"

	"lifelessons/backend/models"
)

var (
	ErrNotOwner         = errors.New("only the lesson owner can do this")
	ErrNotPremium       = errors.New("premium membership required")
	ErrNotAdministrator = errors.New("administrator access required")
)

// ReadDecision is the outcome of AuthorizeLessonRead.
type ReadDecision int

const (
	Full ReadDecision = iota
	Masked
	Denied
)

func (d ReadDecision) String() string {
	switch d {
	case Full:
		return "full"
	case Masked:
		return "masked"
	default:
		return "denied"
	}
}

// Verdict is the outcome of a write or admin authorization.
type Verdict int

const (
	Allowed Verdict = iota
	DeniedNotOwner
	DeniedNotPremium
	DeniedNotAdministrator
)

func (v Verdict) Allowed() bool {
	return v == Allowed
}

// Err maps a denial to its sentinel error; Allowed maps to nil.
func (v Verdict) Err() error {
	switch v {
	case DeniedNotOwner:
		return ErrNotOwner
	case DeniedNotPremium:
		return ErrNotPremium
	case DeniedNotAdministrator:
		return ErrNotAdministrator
	default:
		return nil
	}
}

type WriteOp int

const (
	OpCreate WriteOp = iota
	OpUpdate
	OpDelete
)

// LessonChanges carries the parts of a write that authorization looks at.
// A nil AccessLevel means the tier is not being set.
type LessonChanges struct {
	AccessLevel *string
}

func AuthorizeLessonRead(actor *models.User, lesson *models.Lesson) ReadDecision {
	owner := lesson.IsOwnedBy(actor)

	if lesson.Visibility == models.VisibilityPrivate && !owner && !actor.IsAdmin() {
		return Denied
	}
	if lesson.AccessLevel == models.AccessPremium && !owner && (actor == nil || !actor.IsPremium) {
		return Masked
	}
	return Full
}

// AuthorizeLessonWrite checks a create, update or delete. For OpCreate the
// lesson argument is ignored and may be nil.
func AuthorizeLessonWrite(actor *models.User, lesson *models.Lesson, op WriteOp, changes LessonChanges) Verdict {
	if actor == nil {
		return DeniedNotOwner
	}

	switch op {
	case OpDelete:
		if lesson.IsOwnedBy(actor) || actor.IsAdmin() {
			return Allowed
		}
		return DeniedNotOwner
	case OpUpdate:
		if !lesson.IsOwnedBy(actor) {
			return DeniedNotOwner
		}
	}

	if changes.AccessLevel != nil && *changes.AccessLevel == models.AccessPremium && !actor.IsPremium {
		return DeniedNotPremium
	}
	return Allowed
}

func AuthorizeAdminAction(actor *models.User) Verdict {
	if actor.IsAdmin() {
		return Allowed
	}
	return DeniedNotAdministrator
}

// Scope restricts a public listing query for a given viewer.
type Scope struct {
	Visibility  string
	AccessLevel string // empty means every tier
}

// ListingScope returns the store-level restriction for a public listing.
// Private lessons are always excluded. Viewers without premium see only
// free lessons by default; once they narrow by category or tone, premium
// lessons are included and later rendered masked.
func ListingScope(actor *models.User, narrowed bool) Scope {
	scope := Scope{Visibility: models.VisibilityPublic}
	if (actor == nil || !actor.IsPremium) && !narrowed {
		scope.AccessLevel = models.AccessFree
	}
	return scope
}
