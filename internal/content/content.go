package content

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"
)

// Section is one static block of the portfolio page.
type Section struct {
	Slug   string
	Anchor string
	Title  string
	Order  int
	HTML   template.HTML
}

type frontMatter struct {
	Title  string `yaml:"title"`
	Anchor string `yaml:"anchor"`
	Order  int    `yaml:"order"`
}

//go:embed sections/*.md
var embedded embed.FS

var (
	md = goldmark.New(goldmark.WithExtensions(extension.GFM))
	// rendered markdown is author-controlled but still goes through the UGC policy
	policy = bluemonday.UGCPolicy()
)

// Embedded loads the sections compiled into the binary.
func Embedded() ([]Section, error) {
	sub, err := fs.Sub(embedded, "sections")
	if err != nil {
		return nil, err
	}
	return Load(sub)
}

// LoadDir loads sections from a directory on disk, for editing in dev mode.
func LoadDir(dir string) ([]Section, error) {
	return Load(os.DirFS(dir))
}

// Load renders every *.md file at the root of fsys, ordered by front matter
// order and then slug.
func Load(fsys fs.FS) ([]Section, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("content: list sections: %w", err)
	}
	var out []Section
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		raw, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			return nil, fmt.Errorf("content: read %s: %w", e.Name(), err)
		}
		s, err := parseSection(strings.TrimSuffix(e.Name(), path.Ext(e.Name())), raw)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order == out[j].Order {
			return out[i].Slug < out[j].Slug
		}
		return out[i].Order < out[j].Order
	})
	return out, nil
}

func parseSection(slug string, raw []byte) (Section, error) {
	fm, body := splitFrontMatter(string(raw))
	front := frontMatter{}
	if strings.TrimSpace(fm) != "" {
		if err := yaml.Unmarshal([]byte(fm), &front); err != nil {
			return Section{}, fmt.Errorf("content: parse front matter %s: %w", slug, err)
		}
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(body), &buf); err != nil {
		return Section{}, fmt.Errorf("content: render %s: %w", slug, err)
	}
	s := Section{
		Slug:   slug,
		Anchor: firstNonEmpty(strings.TrimSpace(front.Anchor), slug),
		Title:  firstNonEmpty(strings.TrimSpace(front.Title), prettifySlug(slug)),
		Order:  front.Order,
		HTML:   template.HTML(policy.SanitizeBytes(buf.Bytes())),
	}
	return s, nil
}

func splitFrontMatter(input string) (string, string) {
	input = strings.TrimLeft(input, "\ufeff")
	lines := strings.Split(input, "\n")
	if strings.TrimSpace(lines[0]) != "---" {
		return "", input
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			fm := strings.Join(lines[1:i], "\n")
			body := strings.Join(lines[i+1:], "\n")
			return fm, strings.TrimLeft(body, "\n\r")
		}
	}
	return "", input
}

func prettifySlug(slug string) string {
	parts := strings.Split(strings.TrimSpace(slug), "-")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
