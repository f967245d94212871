package server

import (
	"fmt"
	"net/http"
	"testing"

	"blogpost/internal/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupLoginLogout(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.doJSON(t, http.MethodPost, "/api/auth/signup", map[string]interface{}{
		"email":     "new@example.com",
		"full_name": "New Writer",
		"password":  "Sup3r-Secret!pw",
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	signup := decodeMap(t, resp)
	require.NotEmpty(t, signup["token"])
	user := signup["user"].(map[string]interface{})
	assert.Equal(t, "new@example.com", user["email"])
	_, leaked := user["password"]
	assert.False(t, leaked)

	t.Run("duplicate signup", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodPost, "/api/auth/signup", map[string]interface{}{
			"email":    "NEW@example.com",
			"password": "Sup3r-Secret!pw",
		}, "")
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("weak password", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodPost, "/api/auth/signup", map[string]interface{}{
			"email":    "weak@example.com",
			"password": "short",
		}, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("wrong password", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodPost, "/api/auth/login", map[string]interface{}{
			"email":    "new@example.com",
			"password": "wrong-password",
		}, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	resp = ts.doJSON(t, http.MethodPost, "/api/auth/login", map[string]interface{}{
		"email":    "new@example.com",
		"password": "Sup3r-Secret!pw",
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token := decodeMap(t, resp)["token"].(string)

	resp = ts.doJSON(t, http.MethodGet, "/api/auth/me", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "New Writer", decodeMap(t, resp)["full_name"])

	post := ts.createPost(t, token, "Before Logout")

	resp = ts.doJSON(t, http.MethodPost, "/api/auth/logout", nil, token)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	keys := ts.mr.Keys()
	require.Len(t, keys, 1)
	assert.Contains(t, keys[0], cache.BlacklistKeyPrefix)
	assert.True(t, ts.mr.TTL(keys[0]) > 0)

	resp = ts.doJSON(t, http.MethodGet, "/api/auth/me", nil, token)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = ts.doJSON(t, http.MethodPost, idPath("/blog/blogpost/", post, "/publish/"), nil, token)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "revoked token is rejected on blog routes too")
}

func TestLogout_RequiresToken(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.doJSON(t, http.MethodPost, "/api/auth/logout", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPromoteStaff(t *testing.T) {
	ts := setupTestServer(t)
	_, staffToken := ts.createUser(t, "staff@example.com", true)
	target, targetToken := ts.createUser(t, "writer@example.com", false)
	other, _ := ts.createUser(t, "other@example.com", false)

	resp := ts.doJSON(t, http.MethodPost, fmt.Sprintf("/api/auth/staff/%d", other.ID), nil, targetToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = ts.doJSON(t, http.MethodPost, fmt.Sprintf("/api/auth/staff/%d", target.ID), nil, staffToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decodeMap(t, resp)["is_staff"])

	resp = ts.doJSON(t, http.MethodPost, "/api/auth/staff/9999", nil, staffToken)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
