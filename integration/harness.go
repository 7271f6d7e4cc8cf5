package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	apirest "github.com/quailbyte/sociable/api/rest"
	"github.com/quailbyte/sociable/api/sse"
	"github.com/quailbyte/sociable/audit"
	"github.com/quailbyte/sociable/cache"
	"github.com/quailbyte/sociable/config"
	"github.com/quailbyte/sociable/content"
	mw "github.com/quailbyte/sociable/middleware"
	"github.com/quailbyte/sociable/model"
	"github.com/quailbyte/sociable/social"
	"github.com/quailbyte/sociable/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// TestServer wraps a real HTTP server with all subsystems wired together.
type TestServer struct {
	DB       *gorm.DB
	Cache    cache.Cache
	PubSub   cache.PubSub
	Profiles *social.Profiles
	Ledger   *social.Ledger
	Audit    *audit.Service
	Server   *httptest.Server
	URL      string // http://127.0.0.1:<port>
	Sec      config.SecurityConfig
}

// NewTestServer creates a fully wired server for integration testing.
// It mirrors the dependency wiring in main.go.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	// ---- Infrastructure ----
	db := testutil.SetupTestDB(t)
	c, pubsub := testutil.SetupTestCache(t)
	logger := zap.NewNop()

	sec := config.SecurityConfig{
		JWTSecret:      "integration-test-secret",
		JWTTTLH:        72 * time.Hour,
		RateLimitRPS:   1000,
		RateLimitBurst: 2000,
	}
	socialCfg := config.SocialConfig{
		MaxBioLen:     100,
		MaxPostLen:    10000,
		MaxCommentLen: 1000,
	}

	// ---- Services ----
	auditSvc := audit.New(db, logger)
	events := social.NewPublisher(pubsub, logger)
	ledger := social.NewLedger(db, events, logger)
	resolver := social.NewResolver(db)
	policy := social.NewPolicy(db)
	profiles := social.NewProfiles(db, events, logger)
	contentSvc := content.NewService(db, policy, logger)

	// ---- Gin HTTP Server ----
	r := gin.New()
	r.Use(mw.TraceID(), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(sec.RateLimitRPS), sec.RateLimitBurst))

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	// ---- REST API routes (mirrors main.go) ----
	authH := apirest.NewAuthHandler(db, c, sec)
	profileH := apirest.NewProfileHandler(db, profiles, policy, socialCfg, logger)
	socialH := apirest.NewSocialHandler(ledger, resolver, profiles, auditSvc, logger)
	postH := apirest.NewPostHandler(contentSvc, profiles, socialCfg, logger)
	adminH := apirest.NewAdminHandler(db, profiles, logger)

	api := r.Group("/api")
	{
		authG := api.Group("/auth")
		authG.POST("/login", authH.Login)
		authG.POST("/logout", mw.Auth(sec, c), authH.Logout)
		authG.POST("/refresh", mw.Auth(sec, c), authH.Refresh)

		profileG := api.Group("/profile")
		profileG.Use(mw.Auth(sec, c))
		profileG.GET("/me", profileH.Me)
		profileG.PUT("/me", profileH.Update)
		profileG.DELETE("/me", profileH.Delete)
		profileG.POST("/privacy", profileH.TogglePrivacy)
		profileG.GET("/:uid", profileH.Get)

		socialG := api.Group("/social")
		socialG.Use(mw.Auth(sec, c))
		socialG.POST("/follow/:uid", socialH.Follow)
		socialG.POST("/unfollow/:uid", socialH.Unfollow)
		socialG.POST("/undo/:uid", socialH.UndoRequest)
		socialG.POST("/accept/:uid", socialH.Accept)
		socialG.POST("/decline/:uid", socialH.Decline)
		socialG.POST("/block/:uid", socialH.Block)
		socialG.POST("/unblock/:uid", socialH.Unblock)
		socialG.GET("/followers", socialH.Followers)
		socialG.GET("/followings", socialH.Followings)
		socialG.GET("/requests", socialH.PendingRequests)
		socialG.GET("/blocked", socialH.BlockedList)

		postsG := api.Group("/posts")
		postsG.Use(mw.Auth(sec, c))
		postsG.POST("", postH.Create)
		postsG.GET("/:id", postH.Get)
		postsG.GET("/by/:uid", postH.ListByAuthor)
		postsG.DELETE("/:id", postH.Delete)
		postsG.POST("/:id/comments", postH.AddComment)
		postsG.GET("/:id/comments", postH.ListComments)
		postsG.POST("/:id/vote", postH.Vote)

		commentsG := api.Group("/comments")
		commentsG.Use(mw.Auth(sec, c))
		commentsG.DELETE("/:id", postH.DeleteComment)

		adminG := api.Group("/admin")
		adminG.Use(mw.IPWhitelist(nil))
		adminG.POST("/ban/:id", adminH.BanUser)
		adminG.POST("/unban/:id", adminH.UnbanUser)
		adminG.DELETE("/profiles/:uid", adminH.RemoveProfile)
		adminG.GET("/audit", adminH.AuditTrail)
	}

	sseH := sse.NewHandler(pubsub, c, profiles, sec, logger)
	r.GET("/sse", sseH.ServeSSE)

	server := httptest.NewServer(r)

	ts := &TestServer{
		DB:       db,
		Cache:    c,
		PubSub:   pubsub,
		Profiles: profiles,
		Ledger:   ledger,
		Audit:    auditSvc,
		Server:   server,
		URL:      server.URL,
		Sec:      sec,
	}
	t.Cleanup(ts.Close)
	return ts
}

// Close shuts down the test server and background workers.
func (ts *TestServer) Close() {
	ts.Audit.Stop(nil)
	ts.Server.Close()
}

// --- HTTP helpers ---

// PostJSON sends a POST request with JSON body and optional Bearer token.
func (ts *TestServer) PostJSON(t *testing.T, path string, body interface{}, token string) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest("POST", ts.URL+path, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// Get sends a GET request with optional Bearer token.
func (ts *TestServer) Get(t *testing.T, path string, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest("GET", ts.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// Delete sends a DELETE request with optional Bearer token.
func (ts *TestServer) Delete(t *testing.T, path string, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest("DELETE", ts.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// Put sends a PUT request with JSON body and optional Bearer token.
func (ts *TestServer) Put(t *testing.T, path string, body interface{}, token string) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest("PUT", ts.URL+path, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// ReadJSON reads and decodes a JSON response body into the given target.
func ReadJSON(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, target), "body: %s", string(data))
}

// --- Auth helpers ---

// Login logs in (auto-registers on first call) and returns the token and
// the user's profile UID.
func (ts *TestServer) Login(t *testing.T, username, password string) (token, uid string) {
	t.Helper()
	resp := ts.PostJSON(t, "/api/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result map[string]interface{}
	ReadJSON(t, resp, &result)
	token = result["token"].(string)

	var profile model.Profile
	require.NoError(t, ts.DB.Where("handle = ?", username).First(&profile).Error)
	return token, profile.UID
}

// SetPrivate flips a profile's privacy flag directly in the DB.
func (ts *TestServer) SetPrivate(t *testing.T, uid string, private bool) {
	t.Helper()
	require.NoError(t, ts.DB.Model(&model.Profile{}).
		Where("uid = ?", uid).Update("private", private).Error)
}

// UniqueID returns a short unique string suitable for usernames.
var testCounter uint64

func UniqueID(prefix string) string {
	n := atomic.AddUint64(&testCounter, 1)
	return fmt.Sprintf("%s_%d_%d", prefix, time.Now().UnixNano()%100000, n)
}
