package integration

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthFlow(t *testing.T) {
	ts := NewTestServer(t)

	username := UniqueID("auth")
	token, uid := ts.Login(t, username, "pass1234")
	require.NotEmpty(t, token)
	require.NotEmpty(t, uid)

	// The profile is reachable immediately after registration.
	resp := ts.Get(t, "/api/profile/me", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me map[string]interface{}
	ReadJSON(t, resp, &me)
	profile := me["profile"].(map[string]interface{})
	assert.Equal(t, username, profile["handle"])
	assert.Equal(t, uid, profile["uid"])

	// Refresh rotates the session.
	resp = ts.PostJSON(t, "/api/auth/refresh", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var refreshed map[string]interface{}
	ReadJSON(t, resp, &refreshed)
	newToken := refreshed["token"].(string)
	require.NotEmpty(t, newToken)

	// Logout invalidates the session.
	resp = ts.PostJSON(t, "/api/auth/logout", nil, newToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = ts.Get(t, "/api/profile/me", newToken)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestAuthBannedUserCannotLogin(t *testing.T) {
	ts := NewTestServer(t)

	username := UniqueID("banned")
	token, _ := ts.Login(t, username, "pass1234")
	require.NotEmpty(t, token)

	var userID int64
	require.NoError(t, ts.DB.Table("users").
		Where("username = ?", username).Pluck("id", &userID).Error)

	resp := ts.PostJSON(t, fmt.Sprintf("/api/admin/ban/%d", userID), nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = ts.PostJSON(t, "/api/auth/login", map[string]string{
		"username": username,
		"password": "pass1234",
	}, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}
