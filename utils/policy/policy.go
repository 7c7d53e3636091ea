// Package policy holds the pure access-control decisions for courses,
// lessons, users and payments. Handlers resolve the actor once from the
// authenticated user and call these functions; list visibility is applied
// through ScopeOwned so that records outside an actor's scope surface as
// not-found rather than forbidden.
package policy

import (
	"gorm.io/gorm"

	"github.com/avdeevk/lms-api/model"
)

// Actor is the resolved role set of the requesting user.
type Actor struct {
	ID          uint
	IsStaff     bool
	IsSuperuser bool
	IsModerator bool
}

// ActorFromUser resolves an Actor from a loaded user row.
func ActorFromUser(u *model.User) Actor {
	return Actor{
		ID:          u.ID,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
		IsModerator: u.IsModerator,
	}
}

// CanCreate reports whether the actor may create courses, lessons or
// payments. Moderators are categorically barred from creating.
func CanCreate(a Actor) bool {
	return a.ID != 0 && !a.IsModerator
}

// CanModify reports whether the actor may retrieve or update a resource
// owned by ownerID. Owners and moderators qualify.
func CanModify(a Actor, ownerID uint) bool {
	if a.IsModerator {
		return true
	}
	return a.ID != 0 && a.ID == ownerID
}

// CanDestroy reports whether the actor may delete a resource owned by
// ownerID. Only the owner qualifies; moderators are denied.
func CanDestroy(a Actor, ownerID uint) bool {
	return a.ID != 0 && a.ID == ownerID && !a.IsModerator
}

// CanViewUser reports whether the actor may see another user's account.
// Staff and superusers see everyone, others only themselves.
func CanViewUser(a Actor, userID uint) bool {
	if a.IsStaff || a.IsSuperuser {
		return true
	}
	return a.ID == userID
}

// CanViewPayment reports whether the actor may query a payment's status.
// Only the paying user or staff; a mismatch is a forbidden result, not
// not-found, since the caller already holds the payment identifier.
func CanViewPayment(a Actor, payerID uint) bool {
	if a.IsStaff || a.IsSuperuser {
		return true
	}
	return a.ID == payerID
}

// ScopeOwned narrows a query to rows owned by the actor. Moderators see
// everything; everyone else only rows where ownerColumn matches their id.
func ScopeOwned(db *gorm.DB, a Actor, ownerColumn string) *gorm.DB {
	if a.IsModerator {
		return db
	}
	return db.Where(ownerColumn+" = ?", a.ID)
}

// ScopeUsers narrows a user query: staff see all accounts, others only
// their own.
func ScopeUsers(db *gorm.DB, a Actor) *gorm.DB {
	if a.IsStaff || a.IsSuperuser {
		return db
	}
	return db.Where("id = ?", a.ID)
}

// ScopePayments narrows a payment query: staff see all payments, others
// only their own.
func ScopePayments(db *gorm.DB, a Actor) *gorm.DB {
	if a.IsStaff || a.IsSuperuser {
		return db
	}
	return db.Where("user_id = ?", a.ID)
}
