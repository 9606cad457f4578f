package cli

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/mzaverin/dropspace/internal/client/models"
)

// renderEvents drains one batch's event stream. On a terminal the aggregate
// progress is redrawn in place; otherwise only terminal outcomes are printed.
func (a *App) renderEvents(events <-chan models.ProgressEvent) {
	interactive := term.IsTerminal(int(os.Stdout.Fd()))

	for ev := range events {
		switch {
		case ev.BatchDone:
			if interactive {
				fmt.Fprint(a.out, "\r\033[K")
			}
			fmt.Fprintln(a.out, "batch complete")
		case ev.Status.Terminal():
			if interactive {
				fmt.Fprint(a.out, "\r\033[K")
			}
			fmt.Fprintln(a.out, ev.Message)
		case interactive:
			fmt.Fprintf(a.out, "\ruploading... %3d%%", ev.BatchProgress)
		}
	}
}
