package server

import (
	"time"

	"github.com/isk-daniar/bulletin-board/model"
	"github.com/isk-daniar/bulletin-board/utils"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ToggleLike flips the user's membership in the post's likes set and returns
// the resulting count, which always equals the set size right after the
// mutation. The flip happens as a single transactional delete-or-insert on
// the post_likes row, not a read-then-write, so concurrent toggles serialize
// on the composite primary key instead of losing updates.
func ToggleLike(db *gorm.DB, postID string, userID string) (count int64, liked bool, err error) {
	var post model.Post
	res := db.First(&post, "id = ?", postID)
	if res.Error != nil && !errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return 0, false, res.Error
	}
	if res.RowsAffected != 1 {
		return 0, false, ErrNotFound
	}

	toggle := utils.GormTransaction(func(tx *gorm.DB) error {
		removed := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&model.PostLike{})
		if removed.Error != nil {
			return removed.Error
		}
		if removed.RowsAffected == 0 {
			if err := tx.Create(&model.PostLike{
				PostID:    postID,
				UserID:    userID,
				CreatedAt: time.Now(),
			}).Error; err != nil {
				return err
			}
			liked = true
		}
		return tx.Model(&model.PostLike{}).Where("post_id = ?", postID).Count(&count).Error
	})
	if err = db.Transaction(toggle); err != nil {
		return 0, false, err
	}
	return count, liked, nil
}
