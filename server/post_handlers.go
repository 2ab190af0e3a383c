package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/isk-daniar/bulletin-board/model"
	"github.com/pkg/errors"
)

// ListPosts handles GET /post/. Newest first, fixed-size pages, with the
// category list alongside for the filter widget.
func (s *Server) ListPosts(c *gin.Context) {
	page := parsePage(c)

	var posts []*model.Post
	result := s.DB.Model(&model.Post{}).
		Preload("User").
		Preload("Category").
		Order("created_at desc").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&posts)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": result.Error.Error()})
		return
	}

	var categories []*model.Category
	if err := s.DB.Find(&categories).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	items := make([]gin.H, 0, len(posts))
	for _, post := range posts {
		items = append(items, gin.H{"post": post, "preview": post.Preview()})
	}

	c.JSON(http.StatusOK, gin.H{"posts": items, "categories": categories, "page": page})
}

// GetPost handles GET /post/:id/. The detail view carries the post's
// responses and its like count.
func (s *Server) GetPost(c *gin.Context) {
	var post model.Post
	res := s.DB.
		Preload("User").
		Preload("Category").
		Preload("Responses").
		Preload("Responses.User").
		First(&post, "id = ?", c.Param("id"))
	if res.RowsAffected != 1 {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}

	var likes int64
	if err := s.DB.Model(&model.PostLike{}).Where("post_id = ?", post.Id).Count(&likes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": post, "likes_count": likes})
}

type postInput struct {
	Title      string `json:"title" binding:"required"`
	ImageUrl   string `json:"image_url" binding:"required"`
	Text       string `json:"text"`
	CategoryID string `json:"category_id" binding:"required"`
}

// CreatePost handles POST /post_create/. The authenticated caller becomes
// the owner.
func (s *Server) CreatePost(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		return
	}

	var input postInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var category model.Category
	res := s.DB.First(&category, "id = ?", input.CategoryID)
	if res.RowsAffected != 1 {
		c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
		return
	}

	post := model.Post{
		Id:         uuid.New().String(),
		UserID:     user.Id,
		ImageUrl:   input.ImageUrl,
		Title:      input.Title,
		Text:       input.Text,
		CategoryID: category.Id,
	}
	if err := s.DB.Create(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"post_id": post.Id})
}

// UpdatePost handles POST /post_update/:id. Owner only.
func (s *Server) UpdatePost(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		return
	}
	id := c.Param("id")

	if !s.authorize(c, ResourcePost, ActionUpdate, id, user.Id) {
		return
	}

	var input postInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var category model.Category
	res := s.DB.First(&category, "id = ?", input.CategoryID)
	if res.RowsAffected != 1 {
		c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
		return
	}

	// Updates refreshes updated_at, which is the contract on every mutation.
	err := s.DB.Model(&model.Post{Id: id}).Updates(map[string]interface{}{
		"title":       input.Title,
		"image_url":   input.ImageUrl,
		"text":        input.Text,
		"category_id": input.CategoryID,
		"updated_at":  time.Now(),
	}).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"post_id": id, "message": "post updated"})
}

// DeletePost handles POST /post_delete/:id. Owner only.
func (s *Server) DeletePost(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		return
	}
	id := c.Param("id")

	if !s.authorize(c, ResourcePost, ActionDelete, id, user.Id) {
		return
	}

	if err := s.DB.Delete(&model.Post{Id: id}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "post deleted"})
}

// ToggleLikeHandler handles POST /post/:id/like/.
func (s *Server) ToggleLikeHandler(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		return
	}

	count, liked, err := ToggleLike(s.DB, c.Param("id"), user.Id)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"likes_count": count, "liked": liked})
}

// ListCategories handles GET /category/.
func (s *Server) ListCategories(c *gin.Context) {
	var categories []*model.Category
	if err := s.DB.Find(&categories).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// authorize maps policy failures onto HTTP statuses. Returns true iff the
// caller may proceed.
func (s *Server) authorize(c *gin.Context, resource Resource, action Action, id string, actorID string) bool {
	err := Authorize(s.DB, resource, action, id, actorID)
	if err == nil {
		return true
	}
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return false
	}
	if errors.Is(err, ErrForbidden) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return false
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	return false
}
