package command

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/joeycumines/goap/internal/config"
	"github.com/joeycumines/goap/internal/domain"
)

// CheckCommand validates and compiles domain files, or prints the built-in
// example.
type CheckCommand struct {
	*BaseCommand
	runtime

	example bool
	quiet   bool
}

// NewCheckCommand creates a new check command.
func NewCheckCommand(cfg *config.Config, logger *slog.Logger) *CheckCommand {
	return &CheckCommand{
		BaseCommand: NewBaseCommand(
			"check",
			"Validate domain files",
			"check [options] [file...]",
		),
		runtime: newRuntime(cfg, logger),
	}
}

func (c *CheckCommand) SetupFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.example, "example", false, "Print the built-in example domain and exit")
	fs.BoolVar(&c.quiet, "q", false, "Only report errors")
	fs.IntVar(&c.capacity, "capacity", 0, "Search capacity (default: planner.capacity)")
}

// Execute checks each file, or the configured domain when none is given.
// Every file is checked even after a failure.
func (c *CheckCommand) Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if c.example {
		_, err := stdout.Write(domain.ExampleSource())
		return err
	}

	if len(args) == 0 {
		args = []string{c.schema.Resolve(c.config, "domain.path")}
	}

	failed := 0
	for _, path := range args {
		c.domainPath = path
		d, err := c.loadDomain()
		label := path
		if label == "" {
			label = "(example)"
		}
		if err != nil {
			failed++
			_, _ = fmt.Fprintf(stderr, "%s: FAIL: %v\n", label, err)
			continue
		}
		if c.quiet {
			continue
		}
		_, _ = fmt.Fprintf(stdout, "%s: ok\n", label)
		describe(stdout, d)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d domain(s) failed", failed, len(args))
	}
	return nil
}

func describe(w io.Writer, d *domain.Domain) {
	p := d.Planner
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "  name\t%s\n", d.Name)
	_, _ = fmt.Fprintf(tw, "  atoms\t%d\t%s\n", len(p.Atoms()), strings.Join(p.Atoms(), " "))
	_, _ = fmt.Fprintf(tw, "  capacity\t%d\n", p.Capacity())
	_, _ = fmt.Fprintf(tw, "  actions\t%d\n", len(p.Actions()))
	for _, name := range p.Actions() {
		pre, _ := p.Precondition(name)
		eff, _ := p.Effect(name)
		cost, _ := p.Cost(name)
		_, _ = fmt.Fprintf(tw, "    %s\tcost %d\tpre [%s]\teffect [%s]\n", name, cost, p.Format(pre), p.Format(eff))
	}
	for _, g := range d.Goals {
		marker := ""
		if g.Name == d.Default {
			marker = " (default)"
		}
		_, _ = fmt.Fprintf(tw, "  goal\t%s%s\tpriority %d\t[%s]\n", g.Name, marker, g.Priority, p.Format(g.State))
	}
	if sensors := d.Sensors.Sensors(); len(sensors) > 0 {
		for _, s := range sensors {
			_, _ = fmt.Fprintf(tw, "  sensor\t%s\t%s\n", s.Atom, s.Expression)
		}
	}
	_ = tw.Flush()
}
