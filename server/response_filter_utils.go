package server

import (
	"strings"
	"time"

	"github.com/isk-daniar/bulletin-board/model"
	"gorm.io/gorm"
)

// ResponseFilter is the declarative criteria set the response list views
// compile into a query. Zero-valued fields impose no constraint, so an empty
// filter returns the whole base collection.
//
// ScopeUserID switches between the two entry modes: empty means the global
// list over every response, non-empty restricts the base collection to
// responses left on that user's own posts (the "responses to my posts" view).
type ResponseFilter struct {
	PostID      string
	Text        string
	CreatedFrom *time.Time
	ScopeUserID string
}

// likeEscaper neutralizes LIKE metacharacters so criterion text only ever
// matches literally. A "100%" criterion must not match every response
// containing "100".
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Apply runs the filter and returns the matching responses newest first.
// Criteria that match nothing produce an empty slice, not an error.
func (f ResponseFilter) Apply(db *gorm.DB) ([]*model.Response, error) {
	query := db.Model(&model.Response{}).
		Preload("User").
		Preload("Post")

	if f.ScopeUserID != "" {
		// Select only response columns, the join would otherwise leak
		// ambiguous post columns into the scan.
		query = query.
			Select("responses.*").
			Joins("JOIN posts ON posts.id = responses.post_id").
			Where("posts.user_id = ?", f.ScopeUserID)
	}
	if f.PostID != "" {
		// In self-service mode the scope join already restricts post choices
		// to the scope user's own posts, a foreign post id matches nothing.
		query = query.Where("responses.post_id = ?", f.PostID)
	}
	if f.Text != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(f.Text)) + "%"
		query = query.Where(`LOWER(responses.text) LIKE ? ESCAPE '\'`, pattern)
	}
	if f.CreatedFrom != nil {
		query = query.Where("responses.created_at > ?", *f.CreatedFrom)
	}

	var responses []*model.Response
	result := query.Order("responses.created_at desc").Find(&responses)
	return responses, result.Error
}
