package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getLanding(t *testing.T, srv *testServer) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	return rec
}

func TestHandleLanding_RendersSectionsInPageOrder(t *testing.T) {
	srv := newTestServer(t)

	body := getLanding(t, srv).Body.String()

	last := -1
	for _, id := range []string{"home", "carpets", "vinyl", "furniture", "about", "contact"} {
		idx := strings.Index(body, `<section id="`+id+`"`)
		require.GreaterOrEqual(t, idx, 0, id)
		assert.Greater(t, idx, last, id)
		last = idx
	}
}

func TestHandleLanding_HomeInitiallyActive(t *testing.T) {
	srv := newTestServer(t)

	body := getLanding(t, srv).Body.String()

	assert.Contains(t, body, `data-nav="home" class="nav-link active"`)
	assert.Contains(t, body, `data-nav="carpets" class="nav-link"`)
}

func TestHandleLanding_ContactLinks(t *testing.T) {
	srv := newTestServer(t)

	body := getLanding(t, srv).Body.String()

	assert.Contains(t, body, `href="tel:`)
	assert.Contains(t, body, "441724289198")
	assert.Contains(t, body, "01724 289198")
	assert.Contains(t, body, "https://wa.me/447525900400?text=Hello")
	assert.Contains(t, body, "mailto:southbankcarpetandfurniture@gmail.com")
	assert.NotContains(t, body, "ZgotmplZ")
}

func TestHandleLanding_ContactForm(t *testing.T) {
	srv := newTestServer(t)

	body := getLanding(t, srv).Body.String()

	for _, name := range []string{"firstName", "lastName", "email", "phone", "message"} {
		assert.Contains(t, body, `name="`+name+`"`)
		assert.Contains(t, body, `data-error-for="`+name+`"`)
	}
	assert.Contains(t, body, "Message Sent!")
	assert.Contains(t, body, `data-success-display="5000"`)
}

func TestHandleLanding_SecurityHeaders(t *testing.T) {
	srv := newTestServer(t)

	rec := getLanding(t, srv)

	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "script-src 'self'")
	assert.NotContains(t, rec.Body.String(), "<script>")
}

func TestStaticAssetsServed(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/static/app.js", "/static/style.css", "/static/img/placeholder.svg"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestStaticAppScript_ReplaysDraftOnConnect(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/static/app.js", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	script := rec.Body.String()
	onOpen := strings.Index(script, "socket.onopen")
	require.GreaterOrEqual(t, onOpen, 0)
	assert.Contains(t, script[onOpen:], "syncFields()")
	assert.NotContains(t, script, "pending")
}
