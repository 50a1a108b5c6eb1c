package screen

import (
	"fmt"
	"io"

	"github.com/TobiSchelling/PaperPilot/internal/notify"
)

// PrintNotifications writes one line per notification, oldest first.
func PrintNotifications(w io.Writer, ns []notify.Notification) {
	for _, n := range ns {
		switch n.Level {
		case notify.LevelSuccess:
			fmt.Fprintln(w, successStyle.Render("✓ "+n.Message))
		case notify.LevelError:
			fmt.Fprintln(w, errorStyle.Render("✗ "+n.Message))
		default:
			fmt.Fprintln(w, infoStyle.Render("• "+n.Message))
		}
	}
}
