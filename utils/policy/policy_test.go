package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/avdeevk/lms-api/model"
)

func TestCanCreate(t *testing.T) {
	assert.True(t, CanCreate(Actor{ID: 1}))
	assert.False(t, CanCreate(Actor{ID: 1, IsModerator: true}), "moderators cannot create")
	assert.False(t, CanCreate(Actor{}), "anonymous cannot create")
	// Staff flag alone does not lift the moderator restriction for content
	assert.False(t, CanCreate(Actor{ID: 2, IsStaff: true, IsModerator: true}))
}

func TestCanModify(t *testing.T) {
	owner := Actor{ID: 7}
	moderator := Actor{ID: 3, IsModerator: true}
	stranger := Actor{ID: 9}

	assert.True(t, CanModify(owner, 7))
	assert.True(t, CanModify(moderator, 7), "moderators can update any resource")
	assert.False(t, CanModify(stranger, 7))
}

func TestCanDestroy(t *testing.T) {
	assert.True(t, CanDestroy(Actor{ID: 7}, 7))
	assert.False(t, CanDestroy(Actor{ID: 3, IsModerator: true}, 7), "moderators cannot delete")
	assert.False(t, CanDestroy(Actor{ID: 7, IsModerator: true}, 7), "moderator-owners still cannot delete")
	assert.False(t, CanDestroy(Actor{ID: 9}, 7))
}

func TestCanViewUser(t *testing.T) {
	assert.True(t, CanViewUser(Actor{ID: 1, IsStaff: true}, 2))
	assert.True(t, CanViewUser(Actor{ID: 1, IsSuperuser: true}, 2))
	assert.True(t, CanViewUser(Actor{ID: 2}, 2))
	assert.False(t, CanViewUser(Actor{ID: 1}, 2))
	// Staff takes precedence when an account is both staff and moderator
	assert.True(t, CanViewUser(Actor{ID: 1, IsStaff: true, IsModerator: true}, 2))
}

func TestCanViewPayment(t *testing.T) {
	assert.True(t, CanViewPayment(Actor{ID: 4}, 4))
	assert.True(t, CanViewPayment(Actor{ID: 1, IsStaff: true}, 4))
	assert.False(t, CanViewPayment(Actor{ID: 5}, 4))
	assert.False(t, CanViewPayment(Actor{ID: 5, IsModerator: true}, 4), "moderator role grants no payment visibility")
}

func TestActorFromUser(t *testing.T) {
	u := &model.User{IsStaff: true, IsModerator: true}
	u.ID = 11

	a := ActorFromUser(u)
	assert.Equal(t, uint(11), a.ID)
	assert.True(t, a.IsStaff)
	assert.True(t, a.IsModerator)
	assert.False(t, a.IsSuperuser)
}
