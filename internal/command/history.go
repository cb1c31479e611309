package command

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joeycumines/goap/internal/config"
)

// HistoryCommand lists recent journal entries.
type HistoryCommand struct {
	*BaseCommand
	runtime

	limit int
	agent string
}

// NewHistoryCommand creates a new history command.
func NewHistoryCommand(cfg *config.Config, logger *slog.Logger) *HistoryCommand {
	return &HistoryCommand{
		BaseCommand: NewBaseCommand(
			"history",
			"Show recently journaled plans",
			"history [options]",
		),
		runtime: newRuntime(cfg, logger),
	}
}

func (c *HistoryCommand) SetupFlags(fs *flag.FlagSet) {
	c.setupJournalFlag(fs)
	fs.IntVar(&c.limit, "limit", 0, "Entries to show (default: [history] limit)")
	fs.StringVar(&c.agent, "agent", "", "Only show entries for this agent")
}

func (c *HistoryCommand) Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 {
		_, _ = fmt.Fprintf(stderr, "unexpected arguments: %v\n", args)
		return errors.New("unexpected arguments")
	}

	limit := c.limit
	if limit <= 0 {
		limit = c.schema.ResolveInt(c.config, "history", "limit")
	}

	j, err := c.openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	entries, err := j.RecentFor(ctx, c.agent, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(stdout, "No journaled plans.")
		return nil
	}

	w := tabwriter.NewWriter(stdout, 0, 8, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TIME\tAGENT\tGOAL\tOUTCOME\tCOST\tEXPANDED\tACTIONS")
	for _, e := range entries {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			e.CreatedAt.Local().Format(time.DateTime),
			e.Agent, e.Goal, e.Outcome, e.Cost, e.Expanded,
			strings.Join(e.Actions, " "),
		)
	}
	return w.Flush()
}
