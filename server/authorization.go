package server

import (
	"github.com/isk-daniar/bulletin-board/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type Resource string
type Action string

const (
	ResourcePost     Resource = "post"
	ResourceResponse Resource = "response"

	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

var (
	ErrForbidden = errors.New("acting user does not own this resource")
	ErrNotFound  = errors.New("record not found")
)

// ownerSelector resolves which user controls a given (resource, action).
// Keeping this a table instead of a single "owner == actor" rule matters
// because the two response actions are intentionally asymmetric: the
// responder edits a response, but the post owner deletes it.
type ownerSelector func(db *gorm.DB, id string) (string, error)

var ownerSelectors = map[Resource]map[Action]ownerSelector{
	ResourcePost: {
		ActionUpdate: postOwner,
		ActionDelete: postOwner,
	},
	ResourceResponse: {
		ActionUpdate: responder,
		ActionDelete: respondedPostOwner,
	},
}

func postOwner(db *gorm.DB, id string) (string, error) {
	var post model.Post
	res := db.First(&post, "id = ?", id)
	if res.RowsAffected != 1 {
		return "", ErrNotFound
	}
	return post.UserID, res.Error
}

func responder(db *gorm.DB, id string) (string, error) {
	var response model.Response
	res := db.First(&response, "id = ?", id)
	if res.RowsAffected != 1 {
		return "", ErrNotFound
	}
	return response.UserID, res.Error
}

func respondedPostOwner(db *gorm.DB, id string) (string, error) {
	var response model.Response
	res := db.Preload("Post").First(&response, "id = ?", id)
	if res.RowsAffected != 1 {
		return "", ErrNotFound
	}
	return response.Post.UserID, res.Error
}

// Authorize returns nil iff actorID controls the (resource, action) pair for
// the record with the given id. ErrForbidden denials guarantee the target
// record has not been touched.
func Authorize(db *gorm.DB, resource Resource, action Action, id string, actorID string) error {
	selector, ok := ownerSelectors[resource][action]
	if !ok {
		return errors.Errorf("no authorization policy for %s/%s", resource, action)
	}
	owner, err := selector(db, id)
	if err != nil {
		return err
	}
	if owner != actorID {
		return ErrForbidden
	}
	return nil
}
