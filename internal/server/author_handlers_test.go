package server

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorHandlers(t *testing.T) {
	ts := setupTestServer(t)
	_, token := ts.createUser(t, "owner@example.com", false)

	var authorID string

	t.Run("create requires a caller", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodPost, "/blog/author/", map[string]interface{}{
			"first_name": "Jane",
			"last_name":  "Doe",
		}, "")
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("create", func(t *testing.T) {
		birth := time.Now().UTC().AddDate(-30, 0, -1).Format(dateLayout)
		resp := ts.doJSON(t, http.MethodPost, "/blog/author/", map[string]interface{}{
			"first_name": " Jane ",
			"last_name":  "Doe",
			"birth_date": birth,
			"email":      "Jane@Example.com",
		}, token)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		body := decodeMap(t, resp)
		authorID = jsonID(body)
		assert.Equal(t, "Jane", body["first_name"])
		assert.Equal(t, "Jane - Doe", body["display_name"])
		assert.Equal(t, birth, body["birth_date"])
		assert.Equal(t, float64(30), body["age"])
		assert.Equal(t, "jane@example.com", body["email"])
	})

	invalid := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing last name", map[string]interface{}{"first_name": "A"}},
		{"bad date format", map[string]interface{}{"first_name": "A", "last_name": "B", "birth_date": "01/02/1990"}},
		{"future birth date", map[string]interface{}{"first_name": "A", "last_name": "B",
			"birth_date": time.Now().AddDate(1, 0, 0).Format(dateLayout)}},
		{"bad email", map[string]interface{}{"first_name": "A", "last_name": "B", "email": "nope"}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.doJSON(t, http.MethodPost, "/blog/author/", tt.body, token)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	t.Run("detail", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodGet, "/blog/author/"+authorID+"/", nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Doe", decodeMap(t, resp)["last_name"])

		resp = ts.doJSON(t, http.MethodGet, "/blog/author/9999", nil, "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("patch", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodPatch, "/blog/author/"+authorID+"/", map[string]interface{}{
			"last_name": "Smith",
		}, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeMap(t, resp)
		assert.Equal(t, "Jane - Smith", body["display_name"])
		assert.Equal(t, float64(30), body["age"])

		resp = ts.doJSON(t, http.MethodPatch, "/blog/author/"+authorID+"/", map[string]interface{}{
			"last_name": "Anon",
		}, "")
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("list", func(t *testing.T) {
		ts.createPost(t, token, "Adds fallback author")

		resp := ts.doJSON(t, http.MethodGet, "/blog/author/?limit=1", nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeMap(t, resp)
		assert.Equal(t, float64(2), body["count"])
		results := body["results"].([]interface{})
		require.Len(t, results, 1)
		assert.Equal(t, "Jane", results[0].(map[string]interface{})["first_name"])
	})
}
