package server

import (
	"testing"
	"time"

	"github.com/isk-daniar/bulletin-board/model"
	"github.com/isk-daniar/bulletin-board/utils"
	"github.com/stretchr/testify/require"
)

func TestAuthorize(t *testing.T) {
	db, _ := utils.CreateTempDB(t)

	owner := createTestUser(t, db, "owner")
	responder := createTestUser(t, db, "responder")
	stranger := createTestUser(t, db, "stranger")
	category := createTestCategory(t, db, "housing")
	post := createTestPost(t, db, owner, category, "room to rent")
	response := createTestResponse(t, db, responder, post, "is it furnished?", time.Now())

	cases := []struct {
		name     string
		resource Resource
		action   Action
		id       string
		actor    string
		allowed  bool
	}{
		{"post update by owner", ResourcePost, ActionUpdate, post.Id, owner.Id, true},
		{"post update by stranger", ResourcePost, ActionUpdate, post.Id, stranger.Id, false},
		{"post delete by owner", ResourcePost, ActionDelete, post.Id, owner.Id, true},
		{"post delete by responder", ResourcePost, ActionDelete, post.Id, responder.Id, false},
		{"response update by responder", ResourceResponse, ActionUpdate, response.Id, responder.Id, true},
		{"response update by post owner", ResourceResponse, ActionUpdate, response.Id, owner.Id, false},
		// Deleting a response is the post owner's call, not the responder's.
		{"response delete by post owner", ResourceResponse, ActionDelete, response.Id, owner.Id, true},
		{"response delete by responder", ResourceResponse, ActionDelete, response.Id, responder.Id, false},
		{"response delete by stranger", ResourceResponse, ActionDelete, response.Id, stranger.Id, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Authorize(db, tc.resource, tc.action, tc.id, tc.actor)
			if tc.allowed {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrForbidden)
			}
		})
	}
}

func TestAuthorizeMissingRecord(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	actor := createTestUser(t, db, "actor")

	err := Authorize(db, ResourcePost, ActionUpdate, "no-such-id", actor.Id)
	require.ErrorIs(t, err, ErrNotFound)

	err = Authorize(db, ResourceResponse, ActionDelete, "no-such-id", actor.Id)
	require.ErrorIs(t, err, ErrNotFound)
}

// A denied attempt must leave the target record untouched.
func TestDenialLeavesRecordUnchanged(t *testing.T) {
	db, _ := utils.CreateTempDB(t)

	owner := createTestUser(t, db, "owner")
	stranger := createTestUser(t, db, "stranger")
	category := createTestCategory(t, db, "misc")
	post := createTestPost(t, db, owner, category, "garden tools")

	var before model.Post
	require.NoError(t, db.First(&before, "id = ?", post.Id).Error)

	require.ErrorIs(t, Authorize(db, ResourcePost, ActionUpdate, post.Id, stranger.Id), ErrForbidden)

	var after model.Post
	require.NoError(t, db.First(&after, "id = ?", post.Id).Error)
	require.Equal(t, before.Title, after.Title)
	require.Equal(t, before.Text, after.Text)
	require.Equal(t, before.UserID, after.UserID)
	require.Equal(t, before.UpdatedAt, after.UpdatedAt)
}
