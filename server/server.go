package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/isk-daniar/bulletin-board/model"
	"github.com/isk-daniar/bulletin-board/notification"
	"github.com/isk-daniar/bulletin-board/utils"
	"gorm.io/gorm"
)

const pageSize = 10

// Server bundles the collaborators every handler needs: the durable store,
// the notification publisher, the activation code source and the optional
// redis read-status store (nil disables the read cache, the durable read_at
// column still works).
type Server struct {
	DB         *gorm.DB
	Notifier   *notification.Publisher
	Codes      CodeProvider
	ReadStatus *utils.RedisStatusStore
}

func NewServer(db *gorm.DB, notifier *notification.Publisher, codes CodeProvider, readStatus *utils.RedisStatusStore) *Server {
	return &Server{
		DB:         db,
		Notifier:   notifier,
		Codes:      codes,
		ReadStatus: readStatus,
	}
}

// currentUser resolves the acting user from the "sub" header stamped by the
// session middleware. Aborts with 401 when the session does not map to a
// persisted user.
func (s *Server) currentUser(c *gin.Context) (*model.User, bool) {
	username := c.Request.Header.Get("sub")
	if username == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no authenticated user"})
		return nil, false
	}
	var user model.User
	res := s.DB.Where("username = ?", username).First(&user)
	if res.RowsAffected != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
		return nil, false
	}
	return &user, true
}

func parsePage(c *gin.Context) int {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// pageResponses cuts one fixed-size page out of an already ordered result
// set. Paging is a rendering concern, the filter itself returns everything.
func pageResponses(items []*model.Response, page int) []*model.Response {
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []*model.Response{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
