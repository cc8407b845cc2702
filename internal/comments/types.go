package comments

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedResponse is returned when the comment endpoint's payload does not
// follow the canonical wire contract.
var ErrMalformedResponse = errors.New("comments: malformed response")

// Comment is a single comment as served by the comment endpoint.
type Comment struct {
	ID        string `json:"id"`
	UserEmail string `json:"useremail"`
	Text      string `json:"text"`
}

// Response is the payload of the list endpoint. Comments is only meaningful
// when LoggedIn is true.
type Response struct {
	URL      string    `json:"url"`
	LoggedIn bool      `json:"loggedin"`
	User     string    `json:"user"`
	Comments []Comment `json:"comments"`
}

type responsePayload struct {
	URL      string          `json:"url"`
	LoggedIn bool            `json:"loggedin"`
	User     string          `json:"user"`
	Comments json.RawMessage `json:"comments"`
}

type commentPayload struct {
	ID        json.RawMessage `json:"id"`
	UserEmail string          `json:"useremail"`
	Text      string          `json:"text"`
}

// UnmarshalJSON accepts only a native JSON array for comments. A
// string-encoded array is rejected rather than parsed a second time.
func (r *Response) UnmarshalJSON(data []byte) error {
	var p responsePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	out := Response{
		URL:      strings.TrimSpace(p.URL),
		LoggedIn: p.LoggedIn,
		User:     p.User,
	}
	raw := bytes.TrimSpace(p.Comments)
	switch {
	case len(raw) == 0, bytes.Equal(raw, []byte("null")):
	case raw[0] == '[':
		var items []commentPayload
		if err := json.Unmarshal(raw, &items); err != nil {
			return fmt.Errorf("%w: comments: %v", ErrMalformedResponse, err)
		}
		out.Comments = make([]Comment, 0, len(items))
		for i, it := range items {
			id, err := decodeID(it.ID)
			if err != nil {
				return fmt.Errorf("%w: comments[%d].id: %v", ErrMalformedResponse, i, err)
			}
			out.Comments = append(out.Comments, Comment{ID: id, UserEmail: it.UserEmail, Text: it.Text})
		}
	default:
		return fmt.Errorf("%w: comments must be a JSON array", ErrMalformedResponse)
	}
	*r = out
	return nil
}

// decodeID normalises a string or numeric id to its string form.
func decodeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", errors.New("missing")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}
