package maps

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"

	"gopkg.in/yaml.v3"

	"github.com/sps-portfolio/portfolio-web/internal/mode"
)

// Zoom levels used by the location maps.
const (
	DefaultZoom = 14
	MarkerZoom  = 20
)

// LatLng is a geographic coordinate.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Spec describes one location map.
type Spec struct {
	ID        string
	Center    LatLng
	Zoom      int
	Label     string
	PopupText string
}

// Styler is a single styling directive of a rule.
type Styler struct {
	Color string `yaml:"color" json:"color"`
}

// StyleRule maps a feature/element type pair to stylers.
type StyleRule struct {
	FeatureType string   `yaml:"featureType" json:"featureType,omitempty"`
	ElementType string   `yaml:"elementType" json:"elementType,omitempty"`
	Stylers     []Styler `yaml:"stylers" json:"stylers"`
}

// MarkerAction is what happens when the marker is clicked: zoom the hosting
// map, recenter it on the marker, and optionally open an info popup.
type MarkerAction struct {
	Zoom     int    `json:"zoom"`
	Recenter bool   `json:"recenter"`
	Popup    string `json:"popup,omitempty"`
}

// Marker is the single marker of a map.
type Marker struct {
	Position LatLng       `json:"position"`
	Title    string       `json:"title"`
	OnClick  MarkerAction `json:"onClick"`
}

// View is everything the map provider needs to construct one map. Styles is
// nil when the provider default applies.
type View struct {
	ElementID string      `json:"elementId"`
	Center    LatLng      `json:"center"`
	Zoom      int         `json:"zoom"`
	Styles    []StyleRule `json:"styles,omitempty"`
	Marker    Marker      `json:"marker"`
}

// University and HighSchool are the two fixed locations.
var (
	University = Spec{
		ID:        "map-university",
		Center:    LatLng{Lat: 19.3323, Lng: -99.1868},
		Zoom:      DefaultZoom,
		Label:     "University",
		PopupText: "Universidad Nacional Autónoma de México, where I study Computer Engineering.",
	}
	HighSchool = Spec{
		ID:     "map-highschool",
		Center: LatLng{Lat: 19.3574, Lng: -99.1631},
		Zoom:   DefaultZoom,
		Label:  "High School",
	}
)

//go:embed styles/dark.yaml
var darkStylesYAML []byte

// LoadStyles parses an ordered style table.
func LoadStyles(data []byte) ([]StyleRule, error) {
	var rules []StyleRule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("maps: parse style table: %w", err)
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("maps: empty style table")
	}
	return rules, nil
}

// Presenter builds the location map views for a display mode.
type Presenter struct {
	specs []Spec
	dark  []StyleRule
}

// NewPresenter builds a Presenter for the University and HighSchool maps with
// the embedded dark style table.
func NewPresenter() (*Presenter, error) {
	dark, err := LoadStyles(darkStylesYAML)
	if err != nil {
		return nil, err
	}
	return &Presenter{specs: []Spec{University, HighSchool}, dark: dark}, nil
}

// Specs returns the maps in page order.
func (p *Presenter) Specs() []Spec {
	return append([]Spec(nil), p.specs...)
}

// DarkStyles returns a copy of the dark style table.
func (p *Presenter) DarkStyles() []StyleRule {
	return cloneRules(p.dark)
}

// Build constructs fresh views for every map. Dark mode attaches the dark
// style table; light mode leaves styling to the provider.
func (p *Presenter) Build(state mode.State) []View {
	views := make([]View, 0, len(p.specs))
	for _, s := range p.specs {
		v := View{
			ElementID: s.ID,
			Center:    s.Center,
			Zoom:      s.Zoom,
			Marker: Marker{
				Position: s.Center,
				Title:    s.Label,
				OnClick: MarkerAction{
					Zoom:     MarkerZoom,
					Recenter: true,
					Popup:    s.PopupText,
				},
			},
		}
		if state.Dark {
			v.Styles = cloneRules(p.dark)
		}
		views = append(views, v)
	}
	return views
}

// Config encodes views for embedding in the page. json.Marshal escapes HTML
// metacharacters, so the result is safe inside a script element.
func Config(views []View) (template.JS, error) {
	b, err := json.Marshal(views)
	if err != nil {
		return "", fmt.Errorf("maps: encode config: %w", err)
	}
	return template.JS(b), nil
}

func cloneRules(src []StyleRule) []StyleRule {
	out := make([]StyleRule, len(src))
	for i, r := range src {
		out[i] = r
		out[i].Stylers = append([]Styler(nil), r.Stylers...)
	}
	return out
}
