package server

import (
	"github.com/gin-gonic/gin"
	"github.com/isk-daniar/bulletin-board/server/middlewares"
)

// InstallRoutes registers every route on the given engine. Browsing routes
// and the auth entry points are public, everything that mutates requires a
// session.
func (s *Server) InstallRoutes(router *gin.Engine) {
	// public
	router.GET("/post/", s.ListPosts)
	router.GET("/post/:id/", s.GetPost)
	router.GET("/category/", s.ListCategories)
	router.GET("/response/", s.ListResponses)
	router.POST("/register/", s.Register)
	router.POST("/onetimecodeinput/", s.OneTimeCodeInput)
	router.POST("/activation_resend/", s.ResendActivation)
	router.POST("/login/", s.Login)

	authed := router.Group("/", middlewares.Session())
	authed.POST("/post_create/", s.CreatePost)
	authed.POST("/post_update/:id/", s.UpdatePost)
	authed.POST("/post_delete/:id/", s.DeletePost)
	authed.POST("/post/:id/like/", s.ToggleLikeHandler)
	authed.POST("/response_create/", s.CreateResponse)
	authed.POST("/response_update/:id/", s.UpdateResponse)
	authed.POST("/response_delete/:id/", s.DeleteResponse)
	authed.GET("/user_response/", s.UserResponses)
	authed.POST("/response_accept/:id/", s.AcceptResponse)
	authed.POST("/logout/", s.Logout)
	authed.POST("/user_edit/", s.UserEdit)
}
