// Package cli implements the interactive shell of the dropspace client.
// It is a thin layer: file selection in, progress lines out. All upload and
// sync semantics live in the services.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mzaverin/dropspace/internal/client/config"
	"github.com/mzaverin/dropspace/internal/client/identity"
	"github.com/mzaverin/dropspace/internal/client/services"
	"github.com/mzaverin/dropspace/internal/logging"
)

type App struct {
	config *config.Config
	boot   *identity.Bootstrapper
	feed   services.FeedService
	upload services.UploadService
	logger logging.Logger
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(cfg *config.Config, boot *identity.Bootstrapper,
	feed services.FeedService, upload services.UploadService, logger logging.Logger) *App {
	return &App{
		config: cfg,
		boot:   boot,
		feed:   feed,
		upload: upload,
		logger: logger,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
}

// Run bootstraps the identity, starts the live feed, and enters the command
// loop. Uploads are only possible once both have happened.
func (a *App) Run(ctx context.Context) error {
	id, err := a.boot.Bootstrap(ctx)
	if err != nil {
		return fmt.Errorf("identity bootstrap: %w", err)
	}
	fmt.Fprintf(a.out, "signed in as %s\n", id)
	fmt.Fprintf(a.out, "observing collection %q\n", a.config.Collection)

	if err := a.feed.Start(ctx); err != nil {
		return fmt.Errorf("starting feed: %w", err)
	}
	defer a.feed.Stop()
	go a.watchFeed(ctx)

	for {
		fmt.Fprint(a.out, "> ")
		line, err := a.reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		cmd, args := parseCommand(line)
		switch cmd {
		case "":
			continue
		case "upload":
			a.runUpload(ctx, args)
		case "list":
			a.printFeed()
		case "quit", "exit":
			return nil
		default:
			fmt.Fprintln(a.out, "commands: upload <path>..., list, quit")
		}

		select {
		case <-ctx.Done():
			return nil
		default:
		}
	}
}

// parseCommand splits an input line into a command and its arguments.
func parseCommand(line string) (string, []string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], fields[1:]
}

func (a *App) runUpload(ctx context.Context, paths []string) {
	if len(paths) == 0 {
		fmt.Fprintln(a.out, "usage: upload <path>...")
		return
	}
	descriptors, err := Describe(paths)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	events, err := a.upload.Submit(ctx, descriptors)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	a.renderEvents(events)
}

func (a *App) printFeed() {
	snap := a.feed.Snapshot()
	if len(snap) == 0 {
		fmt.Fprintln(a.out, "no uploads yet")
		return
	}
	for _, rec := range snap {
		uploaded := "pending"
		if rec.TimestampResolved() {
			uploaded = rec.UploadedAt.Local().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(a.out, "%-30s %10d  %-20s %-19s %s\n",
			rec.FileName, rec.FileSizeBytes, rec.UploadedBy, uploaded, rec.ShareableLink)
	}
}

// watchFeed surfaces live feed changes and non-fatal sync errors while the
// command loop is idle.
func (a *App) watchFeed(ctx context.Context) {
	for {
		select {
		case <-a.feed.Updates():
			fmt.Fprintf(a.out, "\rfeed updated: %d uploads\n> ", len(a.feed.Snapshot()))
		case err := <-a.feed.Errs():
			fmt.Fprintf(a.out, "\rsync degraded (showing last known state): %v\n> ", err)
		case <-ctx.Done():
			return
		}
	}
}
