package httpserver

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sps-portfolio/portfolio-web/internal/comments"
	"github.com/sps-portfolio/portfolio-web/internal/content"
	"github.com/sps-portfolio/portfolio-web/internal/maps"
	"github.com/sps-portfolio/portfolio-web/internal/mode"
	"github.com/sps-portfolio/portfolio-web/internal/testutil"
)

const (
	testCSRF = "0123456789abcdef0123456789abcdef"

	loggedOutPayload = `{"url":"/login?continue=%2F","loggedin":false}`
	loggedInPayload  = `{"url":"/logout","loggedin":true,"user":"ada@example.com","comments":[` +
		`{"id":1,"useremail":"ada@example.com","text":"hello"},` +
		`{"id":"2","useremail":"bob@example.com","text":"<b>hi</b>"}]}`
)

// fakeUpstream records every call the server makes to the comment endpoint.
type fakeUpstream struct {
	mu      sync.Mutex
	status  int
	body    string
	lists   []string
	deletes []string
	creates []string
	cookies []string
}

func (f *fakeUpstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cookies = append(f.cookies, r.Header.Get("Cookie"))
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/data":
		f.lists = append(f.lists, r.URL.Query().Get("numComments"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, f.body)
	case r.Method == http.MethodPost && r.URL.Path == "/delete-comment":
		f.deletes = append(f.deletes, r.PostFormValue("id"))
	case r.Method == http.MethodPost && r.URL.Path == "/data":
		f.creates = append(f.creates, r.PostFormValue("text-input"))
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeUpstream) calls(field *[]string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), *field...)
}

func (f *fakeUpstream) listCalls() []string   { return f.calls(&f.lists) }
func (f *fakeUpstream) deleteCalls() []string { return f.calls(&f.deletes) }
func (f *fakeUpstream) createCalls() []string { return f.calls(&f.creates) }
func (f *fakeUpstream) cookieHeaders() []string {
	return f.calls(&f.cookies)
}

func newTestServer(t *testing.T, status int, body string) (http.Handler, *fakeUpstream) {
	t.Helper()
	up := &fakeUpstream{status: status, body: body}
	ts := httptest.NewServer(up)
	t.Cleanup(ts.Close)

	sections, err := content.Embedded()
	require.NoError(t, err)
	h, err := NewHandler(Config{
		Comments:  comments.NewClient(ts.URL),
		Sections:  sections,
		OwnerName: "Ada",
		SiteURL:   "https://portfolio.example.com/",
	})
	require.NoError(t, err)
	return h, up
}

func get(h http.Handler, target string, htmx bool, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func post(h http.Handler, target string, form url.Values, htmx bool, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-CSRF-Token", testCSRF)
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: testCSRF})
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func mapViews(t *testing.T, doc *goquery.Document) []maps.View {
	t.Helper()
	var views []maps.View
	require.NoError(t, json.Unmarshal([]byte(doc.Find("#map-config").Text()), &views))
	return views
}

func TestHealthzOK(t *testing.T) {
	h, _ := newTestServer(t, http.StatusOK, loggedOutPayload)
	rec := get(h, "/healthz", false)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", strings.TrimSpace(rec.Body.String()))
}

func TestAssetsServed(t *testing.T) {
	h, _ := newTestServer(t, http.StatusOK, loggedOutPayload)
	rec := get(h, "/assets/css/nightmode.css", false)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("ETag"))
}

func TestHomeLoggedOutLightByDefault(t *testing.T) {
	// the endpoint answers anonymous viewers with a 400 and a usable body
	h, up := newTestServer(t, http.StatusBadRequest, loggedOutPayload)
	rec := get(h, "/", false)
	require.Equal(t, http.StatusOK, rec.Code)

	doc := testutil.ParseHTML(t, rec.Body.Bytes())
	require.Equal(t, "", doc.Find("#pagestyle").AttrOr("href", "missing"))
	require.Equal(t, mode.MoonIcon, doc.Find("#modeicon").AttrOr("class", ""))

	link := doc.Find("#login-link")
	require.Equal(t, "/login?continue=%2F", link.AttrOr("href", ""))
	require.Equal(t, comments.LabelLogin, strings.TrimSpace(link.Text()))
	require.Equal(t, 1, doc.Find("#comment-container .login-prompt").Length())
	require.Equal(t, 0, doc.Find("#comment-container li").Length())

	require.Equal(t, "5", doc.Find("#number-comments option[selected]").AttrOr("value", ""))
	require.Equal(t, []string{"5"}, up.listCalls())

	views := mapViews(t, doc)
	require.Len(t, views, 2)
	require.Equal(t, "map-university", views[0].ElementID)
	require.Equal(t, "map-highschool", views[1].ElementID)
	for _, v := range views {
		require.Nil(t, v.Styles)
		require.Equal(t, 1, doc.Find("#"+v.ElementID).Length())
	}

	require.Equal(t, 1, doc.Find("section#about").Length())
	require.Equal(t, "#about", doc.Find("header nav a").First().AttrOr("href", ""))
	require.Equal(t, 2, doc.Find(`script[type="application/ld+json"]`).Length())
	require.Nil(t, testutil.Cookie(rec.Result().Cookies(), mode.CookieName))
}

func TestHomeLoggedInDarkMode(t *testing.T) {
	h, up := newTestServer(t, http.StatusOK, loggedInPayload)
	rec := get(h, "/?numComments=10", false,
		&http.Cookie{Name: mode.CookieName, Value: "dark"},
		&http.Cookie{Name: "SACSID", Value: "session"},
	)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := testutil.ParseHTML(t, rec.Body.Bytes())

	require.Equal(t, mode.DefaultDarkStylesheet, doc.Find("#pagestyle").AttrOr("href", ""))
	require.Equal(t, mode.SunIcon, doc.Find("#modeicon").AttrOr("class", ""))

	link := doc.Find("#login-link")
	require.Equal(t, "/logout", link.AttrOr("href", ""))
	require.Equal(t, comments.LabelLogout, strings.TrimSpace(link.Text()))

	items := doc.Find("#comment-container li")
	require.Equal(t, 2, items.Length())
	first, second := items.Eq(0), items.Eq(1)
	require.Contains(t, first.Text(), "ada@example.com: hello")
	require.Equal(t, 1, first.Find("form.delete-comment").Length())
	require.Equal(t, "1", first.Find(`input[name="id"]`).AttrOr("value", ""))
	require.Contains(t, second.Text(), "bob@example.com: <b>hi</b>")
	require.Equal(t, 0, second.Find("b").Length())
	require.Equal(t, 0, second.Find("form").Length())

	require.Equal(t, "10", doc.Find("#number-comments option[selected]").AttrOr("value", ""))
	require.Equal(t, []string{"10"}, up.listCalls())
	require.Contains(t, up.cookieHeaders()[0], "SACSID=session")

	presenter, err := maps.NewPresenter()
	require.NoError(t, err)
	for _, v := range mapViews(t, doc) {
		require.Equal(t, presenter.DarkStyles(), v.Styles)
	}
}

func TestHomeUpstreamFailureStillRenders(t *testing.T) {
	h, _ := newTestServer(t, http.StatusInternalServerError, `{}`)
	rec := get(h, "/", false)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := testutil.ParseHTML(t, rec.Body.Bytes())
	require.Equal(t, 1, doc.Find("#comment-container").Length())
	require.Equal(t, 0, doc.Find("#comment-container li").Length())
	require.Equal(t, comments.LabelLogin, strings.TrimSpace(doc.Find("#login-link").Text()))
}

func TestCommentsFragmentHonoursLimit(t *testing.T) {
	h, up := newTestServer(t, http.StatusOK, loggedInPayload)
	rec := get(h, "/comments?numComments=20", true)
	require.Equal(t, http.StatusOK, rec.Code)

	doc := testutil.ParseHTML(t, rec.Body.Bytes())
	container := doc.Find("#comment-container")
	require.Equal(t, 1, container.Length())
	_, oob := container.Attr("hx-swap-oob")
	require.False(t, oob)
	require.Equal(t, "true", doc.Find("#login-link").AttrOr("hx-swap-oob", ""))
	require.Equal(t, []string{"20"}, up.listCalls())
}

func TestCommentsFragmentInvalidLimitFallsBack(t *testing.T) {
	h, up := newTestServer(t, http.StatusOK, loggedInPayload)
	rec := get(h, "/comments?numComments=-3", true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"5"}, up.listCalls())
}

func TestCommentsFragmentUpstreamFailureIsNoContent(t *testing.T) {
	h, _ := newTestServer(t, http.StatusBadGateway, `bad gateway`)
	rec := get(h, "/comments?numComments=5", true)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, rec.Body.String())
}

func TestCommentsFragmentRejectsStringEncodedComments(t *testing.T) {
	h, _ := newTestServer(t, http.StatusOK,
		`{"url":"/logout","loggedin":true,"user":"a","comments":"[{\"id\":1}]"}`)
	rec := get(h, "/comments", true)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestDeleteCommentPostsOnceThenRefetches(t *testing.T) {
	h, up := newTestServer(t, http.StatusOK, loggedInPayload)
	rec := post(h, "/comments/delete", url.Values{"id": {"1"}, "numComments": {"10"}}, true)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Equal(t, []string{"1"}, up.deleteCalls())
	require.Equal(t, []string{"10"}, up.listCalls())

	doc := testutil.ParseHTML(t, rec.Body.Bytes())
	container := doc.Find("#comment-container")
	require.Equal(t, "true", container.AttrOr("hx-swap-oob", ""))
	require.Equal(t, 2, container.Find("li").Length())
	require.Equal(t, "true", doc.Find("#login-link").AttrOr("hx-swap-oob", ""))
}

func TestDeleteCommentRefetchFailureLeavesEmptyBody(t *testing.T) {
	h, up := newTestServer(t, http.StatusInternalServerError, `{}`)
	rec := post(h, "/comments/delete", url.Values{"id": {"7"}}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Body.String())
	require.Equal(t, []string{"7"}, up.deleteCalls())
	require.Len(t, up.listCalls(), 1)
}

func TestDeleteCommentWithoutHTMXRedirects(t *testing.T) {
	h, up := newTestServer(t, http.StatusOK, loggedInPayload)
	rec := post(h, "/comments/delete", url.Values{"id": {"2"}}, false)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/#comments", rec.Header().Get("Location"))
	require.Equal(t, []string{"2"}, up.deleteCalls())
}

func TestDeleteCommentMissingID(t *testing.T) {
	h, up := newTestServer(t, http.StatusOK, loggedInPayload)
	rec := post(h, "/comments/delete", url.Values{"id": {"  "}}, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, up.deleteCalls())
	require.Empty(t, up.listCalls())
}

func TestCreateComment(t *testing.T) {
	h, up := newTestServer(t, http.StatusOK, loggedInPayload)
	rec := post(h, "/comments", url.Values{"text-input": {"nice site"}}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"nice site"}, up.createCalls())
	require.Equal(t, []string{"5"}, up.listCalls())

	rec = post(h, "/comments", url.Values{"text-input": {"again"}}, false)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/#comments", rec.Header().Get("Location"))
}

func TestToggleModeFromLight(t *testing.T) {
	h, up := newTestServer(t, http.StatusOK, loggedOutPayload)
	rec := post(h, "/mode/toggle", url.Values{"numComments": {"20"}}, true)
	require.Equal(t, http.StatusOK, rec.Code)

	c := testutil.Cookie(rec.Result().Cookies(), mode.CookieName)
	require.NotNil(t, c)
	require.Equal(t, "dark", c.Value)
	require.Equal(t, "/", c.Path)

	doc := testutil.ParseHTML(t, rec.Body.Bytes())
	style := doc.Find("#pagestyle")
	require.Equal(t, mode.DefaultDarkStylesheet, style.AttrOr("href", ""))
	require.Equal(t, "true", style.AttrOr("hx-swap-oob", ""))
	icon := doc.Find("#modeicon")
	require.Equal(t, mode.SunIcon, icon.AttrOr("class", ""))
	require.Equal(t, "true", icon.AttrOr("hx-swap-oob", ""))
	require.Equal(t, "true", doc.Find("#map-config").AttrOr("hx-swap-oob", ""))
	require.Equal(t, "true", doc.Find("#comment-container").AttrOr("hx-swap-oob", ""))

	for _, v := range mapViews(t, doc) {
		require.NotEmpty(t, v.Styles)
	}
	require.Equal(t, []string{"20"}, up.listCalls())
}

func TestToggleModeFromDark(t *testing.T) {
	h, _ := newTestServer(t, http.StatusOK, loggedOutPayload)
	rec := post(h, "/mode/toggle", nil, true, &http.Cookie{Name: mode.CookieName, Value: "dark"})
	require.Equal(t, http.StatusOK, rec.Code)

	c := testutil.Cookie(rec.Result().Cookies(), mode.CookieName)
	require.NotNil(t, c)
	require.Equal(t, "light", c.Value)

	doc := testutil.ParseHTML(t, rec.Body.Bytes())
	require.Equal(t, "", doc.Find("#pagestyle").AttrOr("href", "missing"))
	require.Equal(t, mode.MoonIcon, doc.Find("#modeicon").AttrOr("class", ""))
	for _, v := range mapViews(t, doc) {
		require.Nil(t, v.Styles)
	}
}

func TestToggleModeUpstreamFailureSkipsComments(t *testing.T) {
	h, _ := newTestServer(t, http.StatusInternalServerError, `{}`)
	rec := post(h, "/mode/toggle", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := testutil.ParseHTML(t, rec.Body.Bytes())
	require.Equal(t, 1, doc.Find("#pagestyle").Length())
	require.Equal(t, 0, doc.Find("#comment-container").Length())
	require.Equal(t, 0, doc.Find("#login-link").Length())
}

func TestToggleModeWithoutHTMXRedirects(t *testing.T) {
	h, up := newTestServer(t, http.StatusOK, loggedOutPayload)
	rec := post(h, "/mode/toggle", nil, false)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))
	require.Equal(t, "dark", testutil.Cookie(rec.Result().Cookies(), mode.CookieName).Value)
	require.Empty(t, up.listCalls())
}

func TestUnsafeRequestsRequireCSRF(t *testing.T) {
	h, up := newTestServer(t, http.StatusOK, loggedInPayload)
	req := httptest.NewRequest(http.MethodPost, "/comments/delete", strings.NewReader("id=1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: testCSRF})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Empty(t, up.deleteCalls())
}

func TestFetchFailureIsLogged(t *testing.T) {
	up := &fakeUpstream{status: http.StatusInternalServerError, body: `{}`}
	ts := httptest.NewServer(up)
	t.Cleanup(ts.Close)

	core, logs := observer.New(zap.WarnLevel)
	h, err := NewHandler(Config{
		Comments: comments.NewClient(ts.URL),
		Logger:   zap.New(core),
	})
	require.NoError(t, err)

	rec := get(h, "/comments", true)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, 1, logs.FilterMessage("comments fetch failed").Len())
}

func TestNewHandlerRequiresBackend(t *testing.T) {
	_, err := NewHandler(Config{})
	require.Error(t, err)
}

func TestLimitOptions(t *testing.T) {
	require.Equal(t, comments.LimitOptions, limitOptions(10))
	require.Equal(t, []int{5, 7, 10, 20, 50}, limitOptions(7))
}
