package status

import "github.com/labstack/gommon/color"

// Presentation is how a report state is shown to a user: an icon, a short
// label and the color styling applied to both.
type Presentation struct {
	Icon     string
	Label    string
	Colorize func(msg interface{}, styles ...string) string
}

// Render maps a report to exactly one presentation. It is a pure function
// of the report; it never touches the poller state.
func Render(rep Report) Presentation {
	switch rep.Status {
	case StateOK:
		return Presentation{Icon: "●", Label: "database connected", Colorize: color.Green}
	case StateWarning:
		return Presentation{Icon: "◐", Label: "fallback storage active", Colorize: color.Yellow}
	case StateError:
		label := rep.Message
		if label == "" {
			label = "database unavailable"
		}
		return Presentation{Icon: "○", Label: label, Colorize: color.Red}
	default: // StateChecking
		return Presentation{Icon: "◌", Label: "checking...", Colorize: color.Grey}
	}
}

// Line renders the report as a single colored terminal line.
func Line(rep Report) string {
	p := Render(rep)
	return p.Colorize(p.Icon + " " + p.Label)
}
