package command

import (
	"flag"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/joeycumines/goap/internal/config"
	"github.com/joeycumines/goap/internal/domain"
	"github.com/joeycumines/goap/internal/goap"
	"github.com/joeycumines/goap/internal/journal"
)

// runtime is the shared state of the commands that plan: configuration, the
// logger, and the domain/journal flags.
type runtime struct {
	config *config.Config
	schema *config.Schema
	logger *slog.Logger

	domainPath  string
	capacity    int
	journalPath string
}

func newRuntime(cfg *config.Config, logger *slog.Logger) runtime {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return runtime{config: cfg, schema: config.DefaultSchema(), logger: logger}
}

func (r *runtime) setupDomainFlags(fs *flag.FlagSet) {
	fs.StringVar(&r.domainPath, "domain", "", "Domain file (default: domain.path, else the built-in example)")
	fs.IntVar(&r.capacity, "capacity", 0, "Search capacity (default: planner.capacity)")
}

func (r *runtime) setupJournalFlag(fs *flag.FlagSet) {
	fs.StringVar(&r.journalPath, "journal-path", "", "Journal database (default: journal.path, else ~/.goap/journal.db)")
}

// loadDomain reads and compiles the selected domain.
func (r *runtime) loadDomain() (*domain.Domain, error) {
	path := r.domainPath
	if path == "" {
		path = r.schema.Resolve(r.config, "domain.path")
	}

	var doc *domain.Document
	if path == "" {
		doc = domain.Example()
	} else {
		var err error
		if doc, err = domain.Load(path); err != nil {
			return nil, err
		}
	}

	capacity := r.capacity
	if capacity <= 0 {
		capacity = r.schema.ResolveInt(r.config, "", "planner.capacity")
	}
	d, err := doc.Compile(goap.WithCapacity(capacity), goap.WithLogger(r.logger))
	if err != nil {
		if path == "" {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// openJournal opens the selected journal database.
func (r *runtime) openJournal() (*journal.Journal, error) {
	path := r.journalPath
	if path == "" {
		path = r.schema.Resolve(r.config, "journal.path")
	}
	if path == "" {
		var err error
		if path, err = config.DataPath("journal.db"); err != nil {
			return nil, fmt.Errorf("resolving journal path: %w", err)
		}
	}
	return journal.Open(path)
}

// factsFlag collects repeated -set atom=bool flags, in order.
type factsFlag struct {
	facts domain.Facts
}

func (f *factsFlag) String() string {
	parts := make([]string, len(f.facts))
	for i, fact := range f.facts {
		parts[i] = fact.Atom + "=" + strconv.FormatBool(fact.Value)
	}
	return strings.Join(parts, ",")
}

func (f *factsFlag) Set(s string) error {
	for _, part := range strings.Split(s, ",") {
		atom, raw, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || atom == "" {
			return fmt.Errorf("expected atom=bool, got %q", part)
		}
		value, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("atom %q: %w", atom, err)
		}
		f.facts = append(f.facts, domain.Fact{Atom: atom, Value: value})
	}
	return nil
}

// apply overlays the collected facts onto ws. Atoms the planner does not
// know are an error.
func (f *factsFlag) apply(p *goap.Planner, ws goap.WorldState) (goap.WorldState, error) {
	for _, fact := range f.facts {
		i, ok := p.LookupAtom(fact.Atom)
		if !ok {
			return ws, fmt.Errorf("unknown atom %q", fact.Atom)
		}
		ws.Set(i, fact.Value)
	}
	return ws, nil
}
