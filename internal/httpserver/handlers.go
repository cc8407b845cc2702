package httpserver

import (
	"context"
	"html/template"
	"net/http"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sps-portfolio/portfolio-web/internal/comments"
	"github.com/sps-portfolio/portfolio-web/internal/content"
	"github.com/sps-portfolio/portfolio-web/internal/maps"
	mw "github.com/sps-portfolio/portfolio-web/internal/middleware"
	"github.com/sps-portfolio/portfolio-web/internal/mode"
	"github.com/sps-portfolio/portfolio-web/internal/nav"
	"github.com/sps-portfolio/portfolio-web/internal/observability"
	"github.com/sps-portfolio/portfolio-web/internal/seo"
)

const (
	limitParam = "numComments"
	textParam  = "text-input"
	idParam    = "id"
)

type app struct {
	views        *renderer
	sync         *comments.Sync
	modes        *mode.Controller
	maps         *maps.Presenter
	sections     []content.Section
	nav          []nav.RenderedItem
	meta         seo.Meta
	defaultLimit int
	mapsAPIKey   string
	cookies      mode.CookieOptions
	siteName     string
	ownerName    string
}

// pageData feeds both the full page and its fragments. OOB marks every
// swappable partial for an out-of-band swap.
type pageData struct {
	SiteName       string
	OwnerName      string
	Meta           seo.Meta
	Mode           mode.Snapshot
	Comments       comments.View
	CommentsLoaded bool
	LimitOptions   []int
	MapSpecs       []maps.Spec
	MapConfig      template.JS
	MapsAPIKey     string
	Sections       []content.Section
	Nav            []nav.RenderedItem
	CSRFToken      string
	OOB            bool
}

func withOOB(d pageData) pageData {
	d.OOB = true
	return d
}

func (a *app) newPage(r *http.Request) pageData {
	return pageData{
		SiteName:   a.siteName,
		OwnerName:  a.ownerName,
		Meta:       a.meta,
		MapSpecs:   a.maps.Specs(),
		MapsAPIKey: a.mapsAPIKey,
		Sections:   a.sections,
		Nav:        a.nav,
		CSRFToken:  mw.CSRFToken(r.Context()),
	}
}

// setComments records a fetch outcome. A failed fetch keeps the requested
// limit so the selector still shows it.
func (d *pageData) setComments(view comments.View, ok bool, limit int) {
	if !ok {
		view = comments.View{Limit: limit}
	}
	d.Comments = view
	d.CommentsLoaded = ok
	d.LimitOptions = limitOptions(limit)
}

func (a *app) setMaps(d *pageData, state mode.State) error {
	cfg, err := maps.Config(a.maps.Build(state))
	if err != nil {
		return err
	}
	d.MapConfig = cfg
	return nil
}

func (a *app) jar(w http.ResponseWriter, r *http.Request) *mode.HTTPJar {
	return mode.NewHTTPJar(w, r, a.cookies)
}

// upstreamContext forwards the browser's cookies to the comment endpoint.
func upstreamContext(r *http.Request) context.Context {
	return comments.WithCookies(r.Context(), strings.Join(r.Header.Values("Cookie"), "; "))
}

func (a *app) home(w http.ResponseWriter, r *http.Request) {
	snap := a.modes.Restore(a.jar(w, r))
	limit := comments.ParseLimit(r.URL.Query().Get(limitParam), a.defaultLimit)

	d := a.newPage(r)
	d.Mode = snap
	view, ok := a.sync.FetchAndRender(upstreamContext(r), limit)
	d.setComments(view, ok, limit)
	if err := a.setMaps(&d, snap.State); err != nil {
		observability.FromContext(r.Context()).Error("build map config", zap.Error(err))
		mw.WriteError(w, r, http.StatusInternalServerError, "map config error")
		return
	}
	a.render(w, r, "base", d)
}

// commentsFragment answers the comment-count selector. A failed fetch yields
// 204 so the current container stays in place.
func (a *app) commentsFragment(w http.ResponseWriter, r *http.Request) {
	limit := comments.ParseLimit(r.URL.Query().Get(limitParam), a.defaultLimit)
	view, ok := a.sync.FetchAndRender(upstreamContext(r), limit)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	d := a.newPage(r)
	d.setComments(view, ok, limit)
	a.render(w, r, "comments_fragment", d)
}

func (a *app) createComment(w http.ResponseWriter, r *http.Request) {
	limit := comments.ParseLimit(r.PostFormValue(limitParam), a.defaultLimit)
	view, ok := a.sync.CreateComment(upstreamContext(r), r.PostFormValue(textParam), limit)
	if !mw.IsHTMX(r.Context()) {
		http.Redirect(w, r, "/#comments", http.StatusSeeOther)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	d := a.newPage(r)
	d.setComments(view, ok, limit)
	a.render(w, r, "comments_fragment", d)
}

// deleteComment removes one comment. htmx has already targeted the item with
// a delete swap; the re-fetched container rides along out of band. When the
// re-fetch fails the empty body still removes the item.
func (a *app) deleteComment(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PostFormValue(idParam))
	if id == "" {
		mw.WriteError(w, r, http.StatusBadRequest, "missing comment id")
		return
	}
	limit := comments.ParseLimit(r.PostFormValue(limitParam), a.defaultLimit)
	view, ok := a.sync.DeleteComment(upstreamContext(r), comments.Comment{ID: id}, limit)
	if !mw.IsHTMX(r.Context()) {
		http.Redirect(w, r, "/#comments", http.StatusSeeOther)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}
	d := a.newPage(r)
	d.setComments(view, ok, limit)
	a.render(w, r, "delete_fragment", d)
}

// toggleMode flips the persisted mode from the request's current state and
// re-renders everything styled by it.
func (a *app) toggleMode(w http.ResponseWriter, r *http.Request) {
	jar := a.jar(w, r)
	current := a.modes.Restore(jar).State
	snap := a.modes.Toggle(jar, current)
	if !mw.IsHTMX(r.Context()) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	limit := comments.ParseLimit(r.PostFormValue(limitParam), a.defaultLimit)
	d := a.newPage(r)
	d.Mode = snap
	d.OOB = true
	view, ok := a.sync.FetchAndRender(upstreamContext(r), limit)
	d.setComments(view, ok, limit)
	if err := a.setMaps(&d, snap.State); err != nil {
		observability.FromContext(r.Context()).Error("build map config", zap.Error(err))
		mw.WriteError(w, r, http.StatusInternalServerError, "map config error")
		return
	}
	a.render(w, r, "toggle_fragment", d)
}

// limitOptions returns the selector choices, including limit when it is not
// one of the presets.
func limitOptions(limit int) []int {
	out := append([]int(nil), comments.LimitOptions...)
	for _, n := range out {
		if n == limit {
			return out
		}
	}
	out = append(out, limit)
	sort.Ints(out)
	return out
}
