package comments

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sps-portfolio/portfolio-web/internal/observability"
)

// Link labels for the login/logout link.
const (
	LabelLogin  = "Login"
	LabelLogout = "Logout"
)

const (
	// DefaultLimit is the number of comments shown before the viewer picks one.
	DefaultLimit = 5
	// MaxLimit bounds the numComments parameter forwarded upstream.
	MaxLimit = 100
)

// LimitOptions are the choices offered by the comment-count selector.
var LimitOptions = []int{5, 10, 20, 50}

// Backend is the remote comment endpoint.
type Backend interface {
	List(ctx context.Context, limit int) (Response, error)
	Delete(ctx context.Context, id string) error
	Create(ctx context.Context, text string) error
}

// Item is one rendered entry of the comment container.
type Item struct {
	ID        string
	Author    string
	Text      string
	Label     string
	Deletable bool
}

// View is the complete content of the comment container and the login link.
// Each render replaces the previous View wholesale.
type View struct {
	AuthURL     string
	LinkLabel   string
	LoggedIn    bool
	LoginPrompt bool
	Items       []Item
	Limit       int
}

// Sync fetches comments and turns them into views. It keeps no state between
// calls: every render is a full re-fetch.
type Sync struct {
	backend Backend
}

// NewSync builds a Sync over backend.
func NewSync(backend Backend) *Sync {
	return &Sync{backend: backend}
}

// FetchAndRender fetches up to limit comments and renders the container. The
// bool is false when the fetch failed; the failure is logged and the caller
// should leave the current container untouched.
func (s *Sync) FetchAndRender(ctx context.Context, limit int) (View, bool) {
	resp, err := s.backend.List(ctx, limit)
	if err != nil {
		observability.FromContext(ctx).Warn("comments fetch failed",
			zap.Int("limit", limit),
			zap.Error(err),
		)
		return View{}, false
	}
	return s.Render(resp, limit), true
}

// Render builds the container view for resp. The auth link always points at
// resp.URL. Anonymous viewers get a login prompt and no items.
func (s *Sync) Render(resp Response, limit int) View {
	v := View{AuthURL: resp.URL, Limit: limit}
	if !resp.LoggedIn {
		v.LinkLabel = LabelLogin
		v.LoginPrompt = true
		return v
	}
	v.LoggedIn = true
	v.LinkLabel = LabelLogout
	v.Items = make([]Item, 0, len(resp.Comments))
	for _, c := range resp.Comments {
		v.Items = append(v.Items, s.RenderComment(c, resp.User == c.UserEmail))
	}
	return v
}

// RenderComment renders c as "<author>: <text>", with a delete control when
// deletable.
func (s *Sync) RenderComment(c Comment, deletable bool) Item {
	return Item{
		ID:        c.ID,
		Author:    c.UserEmail,
		Text:      c.Text,
		Label:     c.UserEmail + ": " + c.Text,
		Deletable: deletable,
	}
}

// DeleteComment issues one delete request for c and then one full re-fetch,
// whose view is authoritative. The delete outcome is logged and ignored.
func (s *Sync) DeleteComment(ctx context.Context, c Comment, limit int) (View, bool) {
	if err := s.backend.Delete(ctx, c.ID); err != nil {
		observability.FromContext(ctx).Warn("comment delete failed",
			zap.String("comment_id", c.ID),
			zap.Error(err),
		)
	}
	return s.FetchAndRender(ctx, limit)
}

// CreateComment posts text as a new comment and re-fetches. The create outcome
// is logged and ignored.
func (s *Sync) CreateComment(ctx context.Context, text string, limit int) (View, bool) {
	if err := s.backend.Create(ctx, text); err != nil {
		observability.FromContext(ctx).Warn("comment create failed", zap.Error(err))
	}
	return s.FetchAndRender(ctx, limit)
}

// ParseLimit parses the numComments selector value. Values that are not a
// positive integer up to MaxLimit yield fallback.
func ParseLimit(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 || n > MaxLimit {
		return fallback
	}
	return n
}
