package mode

import "strings"

// State is the in-memory display-mode flag. It is owned by the Controller and
// handed to renderers as a parameter.
type State struct {
	Dark bool
}

// Mode returns the mode the flag represents.
func (s State) Mode() Mode {
	if s.Dark {
		return Dark
	}
	return Light
}

// Presentation is what the page shows for a mode: the href of the mode
// stylesheet link and the class of the toggle icon. The icon advertises the
// action the toggle performs, so dark mode shows the sun.
type Presentation struct {
	Stylesheet string
	Icon       string
}

// Snapshot is a restored State together with its Presentation.
type Snapshot struct {
	State        State
	Presentation Presentation
}

// Controller restores and toggles the persisted display mode.
type Controller struct {
	darkStylesheet string
}

// NewController builds a Controller. An empty darkStylesheet selects
// DefaultDarkStylesheet.
func NewController(darkStylesheet string) *Controller {
	darkStylesheet = strings.TrimSpace(darkStylesheet)
	if darkStylesheet == "" {
		darkStylesheet = DefaultDarkStylesheet
	}
	return &Controller{darkStylesheet: darkStylesheet}
}

// Apply returns the presentation for m.
func (c *Controller) Apply(m Mode) Presentation {
	if m == Dark {
		return Presentation{Stylesheet: c.darkStylesheet, Icon: SunIcon}
	}
	return Presentation{Stylesheet: "", Icon: MoonIcon}
}

// Restore reads the persisted mode and applies it. A missing or unknown
// cookie value restores Light.
func (c *Controller) Restore(jar CookieJar) Snapshot {
	m, _ := Read(jar)
	return Snapshot{
		State:        State{Dark: m == Dark},
		Presentation: c.Apply(m),
	}
}

// Toggle persists the opposite of current and restores from the jar, so the
// returned snapshot always reflects what was written.
func (c *Controller) Toggle(jar CookieJar, current State) Snapshot {
	Write(jar, current.Mode().Opposite())
	return c.Restore(jar)
}
