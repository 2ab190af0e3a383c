package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/isk-daniar/bulletin-board/model"
	"github.com/isk-daniar/bulletin-board/server/middlewares"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, h *testHarness) *gin.Engine {
	t.Helper()
	os.Setenv("JWT_SECRET", "test-only-secret")
	middlewares.Setup()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	h.server.InstallRoutes(router)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sessionFor(t *testing.T, username string) string {
	t.Helper()
	token, err := middlewares.IssueSessionToken(username)
	require.NoError(t, err)
	return token
}

func TestPostUpdateOwnership(t *testing.T) {
	h := newTestHarness(t, fixedCodeProvider{code: "777777"})
	router := newTestRouter(t, h)

	owner := createTestUser(t, h.db, "owner")
	createTestUser(t, h.db, "stranger")
	category := createTestCategory(t, h.db, "misc")
	post := createTestPost(t, h.db, owner, category, "old sofa")

	update := gin.H{
		"title":       "old sofa, price dropped",
		"image_url":   post.ImageUrl,
		"text":        post.Text,
		"category_id": category.Id,
	}

	// Stranger: forbidden, record untouched.
	w := doJSON(t, router, http.MethodPost, "/post_update/"+post.Id+"/", sessionFor(t, "stranger"), update)
	require.Equal(t, http.StatusForbidden, w.Code)

	var stored model.Post
	require.NoError(t, h.db.First(&stored, "id = ?", post.Id).Error)
	require.Equal(t, "old sofa", stored.Title)

	// No session at all: unauthorized.
	w = doJSON(t, router, http.MethodPost, "/post_update/"+post.Id+"/", "", update)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Owner: succeeds and refreshes updated_at.
	w = doJSON(t, router, http.MethodPost, "/post_update/"+post.Id+"/", sessionFor(t, "owner"), update)
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, h.db.First(&stored, "id = ?", post.Id).Error)
	require.Equal(t, "old sofa, price dropped", stored.Title)
	require.True(t, stored.UpdatedAt.After(stored.CreatedAt))
}

func TestResponseDeleteIsPostOwnersCall(t *testing.T) {
	h := newTestHarness(t, fixedCodeProvider{code: "777777"})
	router := newTestRouter(t, h)

	owner := createTestUser(t, h.db, "owner")
	responder := createTestUser(t, h.db, "responder")
	category := createTestCategory(t, h.db, "misc")
	post := createTestPost(t, h.db, owner, category, "winter tires")
	response := createTestResponse(t, h.db, responder, post, "what size?", time.Now())

	// The responder cannot delete their own response.
	w := doJSON(t, router, http.MethodPost, "/response_delete/"+response.Id+"/", sessionFor(t, "responder"), nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	// The post owner can.
	w = doJSON(t, router, http.MethodPost, "/response_delete/"+response.Id+"/", sessionFor(t, "owner"), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, h.db.Model(&model.Response{}).Where("id = ?", response.Id).Count(&count).Error)
	require.Equal(t, int64(0), count)
}

func TestAcceptResponseNotifiesResponder(t *testing.T) {
	h := newTestHarness(t, fixedCodeProvider{code: "777777"})
	router := newTestRouter(t, h)

	owner := createTestUser(t, h.db, "owner")
	responder := createTestUser(t, h.db, "responder")
	createTestUser(t, h.db, "stranger")
	category := createTestCategory(t, h.db, "misc")
	post := createTestPost(t, h.db, owner, category, "kayak")
	response := createTestResponse(t, h.db, responder, post, "I'll take it", time.Now())

	// Only the post owner may accept.
	w := doJSON(t, router, http.MethodPost, "/response_accept/"+response.Id+"/", sessionFor(t, "stranger"), nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Empty(t, h.mailer.Sent())

	w = doJSON(t, router, http.MethodPost, "/response_accept/"+response.Id+"/", sessionFor(t, "owner"), nil)
	require.Equal(t, http.StatusOK, w.Code)

	sent := h.waitForEmails(t, 1)
	require.Equal(t, []string{responder.Email}, sent[0].Recipients)
	require.Contains(t, sent[0].Body, "owner")
}

func TestUserResponsesMarksRead(t *testing.T) {
	h := newTestHarness(t, fixedCodeProvider{code: "777777"})
	router := newTestRouter(t, h)

	owner := createTestUser(t, h.db, "owner")
	responder := createTestUser(t, h.db, "responder")
	category := createTestCategory(t, h.db, "misc")
	post := createTestPost(t, h.db, owner, category, "bookshelf")
	response := createTestResponse(t, h.db, responder, post, "still there?", time.Now())
	require.Nil(t, response.ReadAt)

	var body struct {
		Responses []struct {
			Unread bool `json:"unread"`
		} `json:"responses"`
	}

	// First sight: surfaced as unread, then stamped.
	w := doJSON(t, router, http.MethodGet, "/user_response/", sessionFor(t, "owner"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Responses, 1)
	require.True(t, body.Responses[0].Unread)

	var stored model.Response
	require.NoError(t, h.db.First(&stored, "id = ?", response.Id).Error)
	require.NotNil(t, stored.ReadAt)

	// A later view shows it read and does not move the timestamp.
	first := *stored.ReadAt
	w = doJSON(t, router, http.MethodGet, "/user_response/", sessionFor(t, "owner"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Responses, 1)
	require.False(t, body.Responses[0].Unread)
	require.NoError(t, h.db.First(&stored, "id = ?", response.Id).Error)
	require.Equal(t, first.Unix(), stored.ReadAt.Unix())
}

func TestLikeToggleEndpoint(t *testing.T) {
	h := newTestHarness(t, fixedCodeProvider{code: "777777"})
	router := newTestRouter(t, h)

	owner := createTestUser(t, h.db, "owner")
	createTestUser(t, h.db, "liker")
	category := createTestCategory(t, h.db, "misc")
	post := createTestPost(t, h.db, owner, category, "aquarium")

	path := fmt.Sprintf("/post/%s/like/", post.Id)

	w := doJSON(t, router, http.MethodPost, path, sessionFor(t, "liker"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		LikesCount int64 `json:"likes_count"`
		Liked      bool  `json:"liked"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.True(t, body.Liked)
	require.Equal(t, int64(1), body.LikesCount)

	w = doJSON(t, router, http.MethodPost, path, sessionFor(t, "liker"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.False(t, body.Liked)
	require.Equal(t, int64(0), body.LikesCount)
}

func TestRegisterActivateLoginFlow(t *testing.T) {
	h := newTestHarness(t, fixedCodeProvider{code: "654321"})
	router := newTestRouter(t, h)

	w := doJSON(t, router, http.MethodPost, "/register/", "", gin.H{
		"username": "erin",
		"email":    "erin@example.com",
		"password": "s3cretpw",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// Inactive accounts cannot log in yet.
	w = doJSON(t, router, http.MethodPost, "/login/", "", gin.H{"username": "erin", "password": "s3cretpw"})
	require.Equal(t, http.StatusForbidden, w.Code)

	// Wrong code is rejected with a plain message.
	w = doJSON(t, router, http.MethodPost, "/onetimecodeinput/", "", gin.H{"username": "erin", "code": "000000"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// The mailed code activates and establishes a session.
	w = doJSON(t, router, http.MethodPost, "/onetimecodeinput/", "", gin.H{"username": "erin", "code": "654321"})
	require.Equal(t, http.StatusOK, w.Code)
	var activated struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &activated))
	require.NotEmpty(t, activated.Token)

	// The fresh session works against a protected route.
	w = doJSON(t, router, http.MethodGet, "/user_response/", activated.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// And a normal login now succeeds as well.
	w = doJSON(t, router, http.MethodPost, "/login/", "", gin.H{"username": "erin", "password": "s3cretpw"})
	require.Equal(t, http.StatusOK, w.Code)
}
