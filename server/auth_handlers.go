package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/isk-daniar/bulletin-board/model"
	"github.com/isk-daniar/bulletin-board/server/middlewares"
	Logger "github.com/isk-daniar/bulletin-board/utils/log"
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
)

// Register handles POST /register/. The account is created inactive and an
// activation code is mailed out; the caller activates through
// /onetimecodeinput/.
func (s *Server) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := s.RegisterUser(input)
	if errors.Is(err, ErrUsernameTaken) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		// The user may already be persisted at this point; report the failure
		// but do not pretend the registration can be retried cleanly.
		Logger.Log.Error("registration incomplete: ", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user_id": user.Id,
		"message": "account created, check your email for the one-time code",
	})
}

type oneTimeCodeInput struct {
	Username string `json:"username" binding:"required"`
	Code     string `json:"code" binding:"required"`
}

// OneTimeCodeInput handles POST /onetimecodeinput/. On success the account
// becomes active and a session is established right away.
func (s *Server) OneTimeCodeInput(c *gin.Context) {
	var input oneTimeCodeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := s.SubmitCode(input.Username, input.Code)
	if errors.Is(err, ErrInvalidCode) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username and/or one-time code"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	token, err := middlewares.IssueSessionToken(user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fail to establish session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "message": "account activated"})
}

type resendActivationInput struct {
	Username string `json:"username" binding:"required"`
}

// ResendActivation handles POST /activation_resend/. Issues a fresh code for
// an inactive account; earlier codes stay valid.
func (s *Server) ResendActivation(c *gin.Context) {
	var input resendActivationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user model.User
	res := s.DB.Where("username = ?", input.Username).First(&user)
	if res.RowsAffected != 1 {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown user"})
		return
	}
	if user.Active {
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrAlreadyActive.Error()})
		return
	}

	if err := s.IssueActivationKey(&user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "a new one-time code was sent"})
}

type loginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /login/.
func (s *Server) Login(c *gin.Context) {
	var input loginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := s.AuthenticateUser(input.Username, input.Password)
	if errors.Is(err, ErrInactiveUser) {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": ErrBadCredentials.Error()})
		return
	}

	token, err := middlewares.IssueSessionToken(user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fail to establish session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user_id": user.Id})
}

// Logout handles POST /logout/. Sessions are bearer tokens, so the server
// side has nothing to destroy; the client discards the token.
func (s *Server) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

type userEditInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email" binding:"omitempty,email"`
}

// UserEdit handles POST /user_edit/. Only the caller's own profile is ever
// touched; there is no way to address another user.
func (s *Server) UserEdit(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		return
	}

	var input userEditInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := copier.CopyWithOption(user, &input, copier.Option{IgnoreEmpty: true}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := s.DB.Save(user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": user.Id, "message": "profile updated"})
}
