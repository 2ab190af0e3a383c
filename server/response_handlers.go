package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/isk-daniar/bulletin-board/model"
	"github.com/isk-daniar/bulletin-board/notification"
	Logger "github.com/isk-daniar/bulletin-board/utils/log"
)

// filterFromQuery reads the optional criteria shared by both response list
// views. created_at carries a date, responses strictly after it match.
func filterFromQuery(c *gin.Context) (ResponseFilter, error) {
	filter := ResponseFilter{
		PostID: c.Query("post"),
		Text:   c.Query("text"),
	}
	if raw := c.Query("created_at"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filter, err
		}
		filter.CreatedFrom = &from
	}
	return filter, nil
}

// ListResponses handles GET /response/, the global filtered list.
func (s *Server) ListResponses(c *gin.Context) {
	filter, err := filterFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "created_at must be YYYY-MM-DD"})
		return
	}

	responses, err := filter.Apply(s.DB)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	page := parsePage(c)
	c.JSON(http.StatusOK, gin.H{
		"responses": pageResponses(responses, page),
		"total":     len(responses),
		"page":      page,
	})
}

type responseInput struct {
	PostID string `json:"post_id" binding:"required"`
	Text   string `json:"text" binding:"required"`
}

// CreateResponse handles POST /response_create/.
func (s *Server) CreateResponse(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		return
	}

	var input responseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var post model.Post
	res := s.DB.First(&post, "id = ?", input.PostID)
	if res.RowsAffected != 1 {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}

	response := model.Response{
		Id:     uuid.New().String(),
		UserID: user.Id,
		PostID: post.Id,
		Text:   input.Text,
	}
	if err := s.DB.Create(&response).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"response_id": response.Id})
}

type responseUpdateInput struct {
	Text string `json:"text" binding:"required"`
}

// UpdateResponse handles POST /response_update/:id. Responder only.
func (s *Server) UpdateResponse(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		return
	}
	id := c.Param("id")

	if !s.authorize(c, ResourceResponse, ActionUpdate, id, user.Id) {
		return
	}

	var input responseUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.DB.Model(&model.Response{Id: id}).Update("text", input.Text).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"response_id": id, "message": "response updated"})
}

// DeleteResponse handles POST /response_delete/:id. Gated on the POST owner,
// not the responder: the person who placed the ad controls removal of
// responses to it.
func (s *Server) DeleteResponse(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		return
	}
	id := c.Param("id")

	if !s.authorize(c, ResourceResponse, ActionDelete, id, user.Id) {
		return
	}

	if err := s.DB.Delete(&model.Response{Id: id}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "response deleted"})
}

// UserResponses handles GET /user_response/, the self-service view over
// responses left on the caller's own posts. Each response carries an unread
// marker, then everything surfaced on the current page is marked read,
// durably through read_at and mirrored into the redis status store.
func (s *Server) UserResponses(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		return
	}

	filter, err := filterFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "created_at must be YYYY-MM-DD"})
		return
	}
	filter.ScopeUserID = user.Id

	responses, err := filter.Apply(s.DB)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	page := parsePage(c)
	visible := pageResponses(responses, page)
	unread := s.responsesUnread(visible, user.Id)
	s.markResponsesRead(visible, user.Id)

	items := make([]gin.H, 0, len(visible))
	for i, r := range visible {
		items = append(items, gin.H{"response": r, "unread": unread[i]})
	}

	c.JSON(http.StatusOK, gin.H{
		"responses": items,
		"total":     len(responses),
		"page":      page,
	})
}

// responsesUnread reports which of the listed responses the owner has not
// seen yet. Redis answers first when wired, the durable read_at column
// covers redis misses and outages.
func (s *Server) responsesUnread(responses []*model.Response, ownerID string) []bool {
	unread := make([]bool, len(responses))
	for i, r := range responses {
		unread[i] = r.ReadAt == nil
	}
	if s.ReadStatus == nil || len(responses) == 0 {
		return unread
	}

	ids := []string{}
	for _, r := range responses {
		ids = append(ids, r.Id)
	}
	read, err := s.ReadStatus.GetResponsesReadStatus(ids, ownerID)
	if err != nil {
		Logger.Log.Error("fail to read response status from redis: ", err)
		return unread
	}
	for i, seen := range read {
		if seen {
			unread[i] = false
		}
	}
	return unread
}

// markResponsesRead stamps read_at on first sight and mirrors the flag to
// redis. Best effort: a failure here must not break the listing.
func (s *Server) markResponsesRead(responses []*model.Response, ownerID string) {
	now := time.Now()
	ids := []string{}
	for _, r := range responses {
		ids = append(ids, r.Id)
		if r.ReadAt == nil {
			r.ReadAt = &now
		}
	}
	if len(ids) == 0 {
		return
	}

	if err := s.DB.Model(&model.Response{}).
		Where("id IN ? AND read_at IS NULL", ids).
		Update("read_at", now).Error; err != nil {
		Logger.Log.Error("fail to mark responses read: ", err)
	}

	if s.ReadStatus != nil {
		if err := s.ReadStatus.SetResponsesReadStatus(ids, ownerID, true); err != nil {
			Logger.Log.Error("fail to mirror read status to redis: ", err)
		}
	}
}

// AcceptResponse handles POST /response_accept/:id. The post owner accepts a
// response, which mails the responder. The mutation-free acknowledgment is
// still gated on ownership so strangers can't trigger mail on someone else's
// ad.
func (s *Server) AcceptResponse(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		return
	}
	id := c.Param("id")

	var response model.Response
	res := s.DB.Preload("User").Preload("Post").First(&response, "id = ?", id)
	if res.RowsAffected != 1 {
		c.JSON(http.StatusNotFound, gin.H{"error": "response not found"})
		return
	}
	if response.Post.UserID != user.Id {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	if err := s.Notifier.Publish(notification.Email{
		Subject:    acceptanceSubject,
		Body:       fmt.Sprintf("User %s accepted your response!", user.Username),
		Recipients: []string{response.User.Email},
	}); err != nil {
		Logger.Log.Error("fail to enqueue acceptance email: ", err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "acceptance email sent to the responder"})
}
