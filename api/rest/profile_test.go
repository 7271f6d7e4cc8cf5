package rest_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/quailbyte/sociable/api/rest"
	"github.com/quailbyte/sociable/config"
	mw "github.com/quailbyte/sociable/middleware"
	"github.com/quailbyte/sociable/model"
	"github.com/quailbyte/sociable/social"
	"github.com/quailbyte/sociable/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func doJSON(r *gin.Engine, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type profileEnv struct {
	r  *gin.Engine
	db *gorm.DB
}

func newProfileEnv(t *testing.T) *profileEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	c, ps := testutil.SetupTestCache(t)
	sec := testSecurity()
	logger := zap.NewNop()

	events := social.NewPublisher(ps, logger)
	profiles := social.NewProfiles(db, events, logger)
	policy := social.NewPolicy(db)

	socialCfg := config.SocialConfig{MaxBioLen: 100, MaxPostLen: 10000, MaxCommentLen: 1000}

	authH := rest.NewAuthHandler(db, c, sec)
	profileH := rest.NewProfileHandler(db, profiles, policy, socialCfg, logger)

	r := gin.New()
	r.POST("/api/auth/login", authH.Login)
	g := r.Group("/api/profile", mw.Auth(sec, c))
	g.GET("/me", profileH.Me)
	g.PUT("/me", profileH.Update)
	g.DELETE("/me", profileH.Delete)
	g.POST("/privacy", profileH.TogglePrivacy)
	g.GET("/:uid", profileH.Get)

	return &profileEnv{r: r, db: db}
}

func (e *profileEnv) login(t *testing.T, username string, private bool) (token, uid string) {
	t.Helper()
	w := postJSON(e.r, "/api/auth/login", map[string]string{
		"username": username,
		"password": "pass1234",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	token = resp["token"].(string)

	var profile model.Profile
	require.NoError(t, e.db.Where("handle = ?", username).First(&profile).Error)
	if private {
		require.NoError(t, e.db.Model(&profile).Update("private", true).Error)
	}
	return token, profile.UID
}

func TestProfileMe(t *testing.T) {
	e := newProfileEnv(t)
	tok, uid := e.login(t, "alice", false)

	w := getJSON(e.r, "/api/profile/me", "Authorization", "Bearer "+tok)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Profile struct {
			UID    string `json:"uid"`
			Handle string `json:"handle"`
		} `json:"profile"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uid, resp.Profile.UID)
	assert.Equal(t, "alice", resp.Profile.Handle)
}

func TestProfileUpdateBio(t *testing.T) {
	e := newProfileEnv(t)
	tok, _ := e.login(t, "alice", false)

	w := doJSON(e.r, http.MethodPut, "/api/profile/me",
		map[string]string{"bio": "hello there"}, "Authorization", "Bearer "+tok)
	require.Equal(t, http.StatusOK, w.Code)

	var profile model.Profile
	require.NoError(t, e.db.Where("handle = ?", "alice").First(&profile).Error)
	assert.Equal(t, "hello there", profile.Bio)
}

func TestProfileUpdateBioTooLong(t *testing.T) {
	e := newProfileEnv(t)
	tok, _ := e.login(t, "alice", false)

	long := make([]byte, 101)
	for i := range long {
		long[i] = 'x'
	}
	w := doJSON(e.r, http.MethodPut, "/api/profile/me",
		map[string]string{"bio": string(long)}, "Authorization", "Bearer "+tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfileGetPublic(t *testing.T) {
	e := newProfileEnv(t)
	aliceTok, _ := e.login(t, "alice", false)
	_, bobUID := e.login(t, "bob", false)

	require.NoError(t, e.db.Model(&model.Profile{}).
		Where("handle = ?", "bob").Update("bio", "bob's bio").Error)

	w := getJSON(e.r, "/api/profile/"+bobUID, "Authorization", "Bearer "+aliceTok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "bob's bio")
}

func TestProfileGetPrivateHidesDetails(t *testing.T) {
	e := newProfileEnv(t)
	aliceTok, _ := e.login(t, "alice", false)
	_, bobUID := e.login(t, "bob", true)

	require.NoError(t, e.db.Model(&model.Profile{}).
		Where("handle = ?", "bob").Update("bio", "secret bio").Error)

	w := getJSON(e.r, "/api/profile/"+bobUID, "Authorization", "Bearer "+aliceTok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "secret bio")
	assert.Contains(t, w.Body.String(), bobUID)
}

func TestProfileGetUnknown(t *testing.T) {
	e := newProfileEnv(t)
	tok, _ := e.login(t, "alice", false)

	w := getJSON(e.r, "/api/profile/no-such-uid", "Authorization", "Bearer "+tok)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProfileTogglePrivacy(t *testing.T) {
	e := newProfileEnv(t)
	tok, _ := e.login(t, "alice", false)

	w := postJSON(e.r, "/api/profile/privacy", nil, "Authorization", "Bearer "+tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"private":true`)

	w2 := postJSON(e.r, "/api/profile/privacy", nil, "Authorization", "Bearer "+tok)
	require.Equal(t, http.StatusOK, w2.Code)
	assert.Contains(t, w2.Body.String(), `"private":false`)
}

func TestProfileDelete(t *testing.T) {
	e := newProfileEnv(t)
	tok, _ := e.login(t, "alice", false)

	w := doJSON(e.r, http.MethodDelete, "/api/profile/me", nil, "Authorization", "Bearer "+tok)
	require.Equal(t, http.StatusOK, w.Code)

	var n int64
	e.db.Model(&model.User{}).Where("username = ?", "alice").Count(&n)
	assert.Zero(t, n, "deleting the profile removes the user")
}
