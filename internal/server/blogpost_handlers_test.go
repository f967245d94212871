package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBlogPost(t *testing.T) {
	ts := setupTestServer(t)
	_, token := ts.createUser(t, "owner@example.com", false)

	t.Run("defaults and fallback author", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodPost, "/blog/blogpost/", map[string]interface{}{
			"title": "First Post",
			"text":  "Hello",
		}, token)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		body := decodeMap(t, resp)
		assert.Equal(t, "First Post", body["title"])
		assert.Equal(t, false, body["published"])
		assert.Equal(t, false, body["archived"])
		assert.Equal(t, false, body["deleted"])
		assert.Equal(t, true, body["active"])
		assert.Equal(t, float64(1), body["category"])
		assert.Equal(t, "General", body["category_name"])
		assert.Nil(t, body["document"])

		authors := body["authors"].([]interface{})
		require.Len(t, authors, 1)
		assert.Equal(t, "Test - User", authors[0].(map[string]interface{})["display_name"])
	})

	t.Run("without trailing slash", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodPost, "/blog/blogpost", map[string]interface{}{
			"title":    "Second Post",
			"text":     "World",
			"category": 2,
			"website":  "https://example.com",
		}, token)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		body := decodeMap(t, resp)
		assert.Equal(t, "Technology", body["category_name"])
		assert.Equal(t, "https://example.com", body["website"])
	})

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing title", map[string]interface{}{"text": "x"}},
		{"missing text", map[string]interface{}{"title": "x"}},
		{"bad category", map[string]interface{}{"title": "x", "text": "y", "category": 9}},
		{"bad website", map[string]interface{}{"title": "x", "text": "y", "website": "ftp://nope"}},
		{"unknown author", map[string]interface{}{"title": "x", "text": "y", "authors": []int{999}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.doJSON(t, http.MethodPost, "/blog/blogpost/", tt.body, token)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, "VALIDATION_ERROR", decodeMap(t, resp)["code"])
		})
	}

	t.Run("duplicate live title and text", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodPost, "/blog/blogpost/", map[string]interface{}{
			"title": "First Post",
			"text":  "Hello",
		}, token)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("anonymous caller is forbidden", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodPost, "/blog/blogpost/", map[string]interface{}{
			"title": "Anon",
			"text":  "Nope",
		}, "")
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "PERMISSION_DENIED", decodeMap(t, resp)["code"])
	})

	t.Run("invalid token is rejected", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodPost, "/blog/blogpost/", map[string]interface{}{
			"title": "Anon",
			"text":  "Nope",
		}, "not-a-token")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestCreateBlogPost_MultipartWithDocument(t *testing.T) {
	ts := setupTestServer(t)
	_, token := ts.createUser(t, "owner@example.com", false)

	authorResp := ts.doJSON(t, http.MethodPost, "/blog/author/", map[string]interface{}{
		"first_name": "Ada",
		"last_name":  "Lovelace",
	}, token)
	require.Equal(t, http.StatusCreated, authorResp.StatusCode)
	author := decodeMap(t, authorResp)

	req := multipartRequest(t, http.MethodPost, "/blog/blogpost/", map[string][]string{
		"title":    {"With Document"},
		"text":     {"See attachment"},
		"category": {"3"},
		"authors":  {jsonID(author)},
	}, formFile{field: "document", filename: "notes.txt", contentType: "text/plain", content: []byte("hello document")})
	resp := ts.do(t, req, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeMap(t, resp)
	assert.Equal(t, "Science", body["category_name"])
	authors := body["authors"].([]interface{})
	require.Len(t, authors, 1)
	assert.Equal(t, "Ada", authors[0].(map[string]interface{})["first_name"])

	doc, ok := body["document"].(map[string]interface{})
	require.True(t, ok, "document should be present")
	assert.Equal(t, "notes.txt", doc["filename"])
	assert.Equal(t, float64(len("hello document")), doc["size"])
	url := doc["url"].(string)
	require.True(t, strings.HasPrefix(url, "/media/documents/"))

	mediaResp := ts.doJSON(t, http.MethodGet, url, nil, "")
	require.Equal(t, http.StatusOK, mediaResp.StatusCode)
	content, err := io.ReadAll(mediaResp.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello document", string(content))
}

func TestCreateBlogPost_DocumentTooLarge(t *testing.T) {
	ts := setupTestServer(t)
	_, token := ts.createUser(t, "owner@example.com", false)

	big := make([]byte, 1024*1024+1)
	req := multipartRequest(t, http.MethodPost, "/blog/blogpost/", map[string][]string{
		"title": {"Big"},
		"text":  {"Too big"},
	}, formFile{field: "document", filename: "big.bin", contentType: "application/octet-stream", content: big})
	resp := ts.do(t, req, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, ts.store.Len())
}

func TestBlogPostLifecycle(t *testing.T) {
	ts := setupTestServer(t)
	_, ownerToken := ts.createUser(t, "owner@example.com", false)
	_, otherToken := ts.createUser(t, "other@example.com", false)
	_, staffToken := ts.createUser(t, "staff@example.com", true)

	post := ts.createPost(t, ownerToken, "Published Post")

	t.Run("publish by owner", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodPost, idPath("/blog/blogpost/", post, "/publish/"), nil, ownerToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		detail := ts.doJSON(t, http.MethodGet, idPath("/blog/blogpost/", post, "/"), nil, "")
		require.Equal(t, http.StatusOK, detail.StatusCode)
		body := decodeMap(t, detail)
		assert.Equal(t, true, body["published"])
		assert.Equal(t, false, body["archived"])
		assert.Equal(t, false, body["deleted"])
	})

	t.Run("publish is idempotent", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodPost, idPath("/blog/blogpost/", post, "/publish"), nil, ownerToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, true, decodeMap(t, resp)["published"])
	})

	t.Run("other user cannot archive", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodPost, idPath("/blog/blogpost/", post, "/archive/"), nil, otherToken)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("anonymous cannot archive", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodPost, idPath("/blog/blogpost/", post, "/archive/"), nil, "")
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("staff can archive", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodPost, idPath("/blog/blogpost/", post, "/archive/"), nil, staffToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeMap(t, resp)
		assert.Equal(t, true, body["archived"])
		assert.Equal(t, true, body["published"])
	})

	t.Run("unknown post", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodPost, "/blog/blogpost/9999/publish/", nil, ownerToken)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeMap(t, resp)["code"])
	})

	t.Run("invalid id", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodGet, "/blog/blogpost/abc/", nil, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Invalid ID", decodeMap(t, resp)["error"])
	})

	t.Run("soft delete hides the post", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodDelete, idPath("/blog/blogpost/", post, "/"), nil, ownerToken)
		require.Equal(t, http.StatusNoContent, resp.StatusCode)

		detail := ts.doJSON(t, http.MethodGet, idPath("/blog/blogpost/", post, "/"), nil, "")
		require.Equal(t, http.StatusOK, detail.StatusCode)
		body := decodeMap(t, detail)
		assert.Equal(t, true, body["deleted"])
		assert.NotNil(t, body["deleted_at"])

		list := ts.doJSON(t, http.MethodGet, "/blog/blogpost/", nil, "")
		require.Equal(t, http.StatusOK, list.StatusCode)
		assert.Equal(t, float64(0), decodeMap(t, list)["count"])

		published := ts.doJSON(t, http.MethodGet, "/blog/blogpost/published_posts/", nil, "")
		assert.Empty(t, decodeList(t, published))
	})

	t.Run("deleted title can be reused", func(t *testing.T) {
		ts.createPost(t, ownerToken, "Published Post")
	})
}

func TestUpdateBlogPost(t *testing.T) {
	ts := setupTestServer(t)
	_, ownerToken := ts.createUser(t, "owner@example.com", false)
	_, otherToken := ts.createUser(t, "other@example.com", false)
	post := ts.createPost(t, ownerToken, "Editable")

	resp := ts.doJSON(t, http.MethodPatch, idPath("/blog/blogpost/", post, "/"), map[string]interface{}{
		"title":    "Edited",
		"category": 5,
		"active":   false,
	}, ownerToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeMap(t, resp)
	assert.Equal(t, "Edited", body["title"])
	assert.Equal(t, "Travel", body["category_name"])
	assert.Equal(t, false, body["active"])
	assert.Equal(t, "Body of Editable", body["text"])

	resp = ts.doJSON(t, http.MethodPatch, idPath("/blog/blogpost/", post, "/"), map[string]interface{}{
		"category": 0,
	}, ownerToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.doJSON(t, http.MethodPatch, idPath("/blog/blogpost/", post, "/"), map[string]interface{}{
		"title": "Hijacked",
	}, otherToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestBlogPostListings(t *testing.T) {
	ts := setupTestServer(t)
	_, token := ts.createUser(t, "owner@example.com", false)

	first := ts.createPost(t, token, "One")
	ts.createPost(t, token, "Two")
	third := ts.createPost(t, token, "Three")

	for _, p := range []map[string]interface{}{first, third} {
		resp := ts.doJSON(t, http.MethodPost, idPath("/blog/blogpost/", p, "/publish/"), nil, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	t.Run("visible list is paginated", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodGet, "/blog/blogpost/?limit=2", nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeMap(t, resp)
		assert.Equal(t, float64(3), body["count"])
		assert.Equal(t, float64(2), body["limit"])
		results := body["results"].([]interface{})
		require.Len(t, results, 2)
		assert.Equal(t, "One", results[0].(map[string]interface{})["title"])
	})

	t.Run("descending order", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodGet, "/blog/blogpost/?ordering=-order", nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		results := decodeMap(t, resp)["results"].([]interface{})
		require.Len(t, results, 3)
		assert.Equal(t, "Three", results[0].(map[string]interface{})["title"])
	})

	t.Run("unknown ordering", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodGet, "/blog/blogpost/?ordering=title", nil, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("published posts omit the flag", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodGet, "/blog/blogpost/published_posts/", nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		posts := decodeList(t, resp)
		require.Len(t, posts, 2)
		assert.Equal(t, "One", posts[0]["title"])
		assert.Equal(t, "Three", posts[1]["title"])
		_, hasFlag := posts[0]["published"]
		assert.False(t, hasFlag)
	})

	t.Run("not published", func(t *testing.T) {
		resp := ts.doJSON(t, http.MethodGet, "/blog/blogpost/not_published", nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		posts := decodeList(t, resp)
		require.Len(t, posts, 1)
		assert.Equal(t, "Two", posts[0]["title"])
		assert.Equal(t, false, posts[0]["published"])
	})
}

func TestPostAuthors(t *testing.T) {
	ts := setupTestServer(t)
	_, ownerToken := ts.createUser(t, "owner@example.com", false)
	_, otherToken := ts.createUser(t, "other@example.com", false)
	post := ts.createPost(t, ownerToken, "Credits")

	authorResp := ts.doJSON(t, http.MethodPost, "/blog/author/", map[string]interface{}{
		"first_name": "Grace",
		"last_name":  "Hopper",
	}, ownerToken)
	require.Equal(t, http.StatusCreated, authorResp.StatusCode)
	author := decodeMap(t, authorResp)

	resp := ts.doJSON(t, http.MethodPost, idPath("/blog/blogpost/", post, "/authors/"),
		map[string]interface{}{"author_id": author["id"]}, otherToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = ts.doJSON(t, http.MethodPost, idPath("/blog/blogpost/", post, "/authors/"),
		map[string]interface{}{"author_id": author["id"]}, ownerToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeList(t, resp), 2)

	resp = ts.doJSON(t, http.MethodPost, idPath("/blog/blogpost/", post, "/authors/"),
		map[string]interface{}{"author_id": 999}, ownerToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	list := ts.doJSON(t, http.MethodGet, idPath("/blog/blogpost/", post, "/authors"), nil, "")
	require.Equal(t, http.StatusOK, list.StatusCode)
	authors := decodeList(t, list)
	require.Len(t, authors, 2)
	fallbackID := jsonID(authors[0])

	resp = ts.doJSON(t, http.MethodDelete, idPath("/blog/blogpost/", post, "/authors/"+fallbackID+"/"), nil, ownerToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	remaining := decodeList(t, resp)
	require.Len(t, remaining, 1)
	assert.Equal(t, "Grace", remaining[0]["first_name"])

	resp = ts.doJSON(t, http.MethodDelete, idPath("/blog/blogpost/", post, "/authors/"+jsonID(author)), nil, ownerToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "last author stays")

	resp = ts.doJSON(t, http.MethodDelete, idPath("/blog/blogpost/", post, "/authors/x"), nil, ownerToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid author ID", decodeMap(t, resp)["error"])

	resp = ts.doJSON(t, http.MethodGet, "/blog/blogpost/9999/authors/", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAttachDocument(t *testing.T) {
	ts := setupTestServer(t)
	_, token := ts.createUser(t, "owner@example.com", false)
	post := ts.createPost(t, token, "Doc Holder")

	upload := func(name, content string) map[string]interface{} {
		req := multipartRequest(t, http.MethodPut, idPath("/blog/blogpost/", post, "/document/"), nil,
			formFile{field: "document", filename: name, contentType: "text/plain", content: []byte(content)})
		resp := ts.do(t, req, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		return decodeMap(t, resp)["document"].(map[string]interface{})
	}

	first := upload("v1.txt", "version one")
	assert.Equal(t, 1, ts.store.Len())
	second := upload("v2.txt", "version two")
	assert.Equal(t, 1, ts.store.Len(), "previous payload is removed")
	assert.NotEqual(t, first["url"], second["url"])

	old := ts.doJSON(t, http.MethodGet, first["url"].(string), nil, "")
	assert.Equal(t, http.StatusNotFound, old.StatusCode)

	req := multipartRequest(t, http.MethodPut, idPath("/blog/blogpost/", post, "/document/"),
		map[string][]string{"note": {"no file"}})
	resp := ts.do(t, req, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMutations_AnonymousForbiddenBeforeBodyParsing(t *testing.T) {
	ts := setupTestServer(t)
	_, token := ts.createUser(t, "owner@example.com", false)
	post := ts.createPost(t, token, "Guarded")

	routes := []struct {
		method, path, contentType string
	}{
		{http.MethodPost, "/blog/blogpost/", "application/json"},
		{http.MethodPatch, idPath("/blog/blogpost/", post, "/"), "application/json"},
		{http.MethodPost, idPath("/blog/blogpost/", post, "/authors/"), "application/json"},
		{http.MethodPut, idPath("/blog/blogpost/", post, "/document/"), "multipart/form-data; boundary=missing"},
		{http.MethodPost, idPath("/blog/blogpost/", post, "/images/"), "multipart/form-data; boundary=missing"},
		{http.MethodPost, "/blog/author/", "application/json"},
		{http.MethodPatch, "/blog/author/1/", "application/json"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			req := httptest.NewRequest(rt.method, rt.path, strings.NewReader("{not valid"))
			req.Header.Set("Content-Type", rt.contentType)

			resp := ts.do(t, req, "")
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
			assert.Equal(t, "PERMISSION_DENIED", decodeMap(t, resp)["code"])
		})
	}

	t.Run("authenticated malformed body is still a validation error", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/blog/blogpost/", strings.NewReader("{not valid"))
		req.Header.Set("Content-Type", "application/json")

		resp := ts.do(t, req, token)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "VALIDATION_ERROR", decodeMap(t, resp)["code"])
	})
}
