package command

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"maps"
	"slices"
	"text/tabwriter"

	"github.com/joeycumines/goap/internal/config"
)

// HelpCommand lists the commands, or describes one.
type HelpCommand struct {
	*BaseCommand
	registry *Registry
}

// NewHelpCommand creates a new help command.
func NewHelpCommand(registry *Registry) *HelpCommand {
	return &HelpCommand{
		BaseCommand: NewBaseCommand(
			"help",
			"Display help information for commands",
			"help [command]",
		),
		registry: registry,
	}
}

func (c *HelpCommand) Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		_, _ = fmt.Fprintln(stdout, "goap - goal oriented action planning from your terminal")
		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Usage: goap <command> [options] [args...]")
		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Commands:")

		w := tabwriter.NewWriter(stdout, 0, 8, 2, ' ', 0)
		for _, name := range c.registry.List() {
			if cmd, err := c.registry.Get(name); err == nil {
				_, _ = fmt.Fprintf(w, "  %s\t%s\n", name, cmd.Description())
			}
		}
		_ = w.Flush()

		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Use 'goap help <command>' for more information about a command (includes flags).")
		return nil
	}

	cmd, err := c.registry.Get(args[0])
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n", args[0])
		return err
	}

	_, _ = fmt.Fprintf(stdout, "Command: %s\n", cmd.Name())
	_, _ = fmt.Fprintf(stdout, "Description: %s\n", cmd.Description())
	_, _ = fmt.Fprintf(stdout, "Usage: goap %s\n", cmd.Usage())

	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	var buf bytes.Buffer
	fs.SetOutput(&buf)
	cmd.SetupFlags(fs)
	fs.PrintDefaults()
	if buf.Len() > 0 {
		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Flags:")
		_, _ = fmt.Fprint(stdout, buf.String())
	}
	return nil
}

// VersionCommand prints the version.
type VersionCommand struct {
	*BaseCommand
	version string
}

// NewVersionCommand creates a new version command.
func NewVersionCommand(version string) *VersionCommand {
	return &VersionCommand{
		BaseCommand: NewBaseCommand(
			"version",
			"Display version information",
			"version",
		),
		version: version,
	}
}

func (c *VersionCommand) Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 {
		_, _ = fmt.Fprintf(stderr, "unexpected arguments: %v\n", args)
		return errors.New("unexpected arguments")
	}
	_, _ = fmt.Fprintf(stdout, "goap version %s\n", c.version)
	return nil
}

// ConfigCommand shows, validates and edits the configuration.
type ConfigCommand struct {
	*BaseCommand
	config     *config.Config
	configPath string
	showAll    bool
}

// NewConfigCommand creates a new config command. Values set through it are
// written to configPath; an empty configPath resolves the default location
// at write time.
func NewConfigCommand(cfg *config.Config, configPath string) *ConfigCommand {
	return &ConfigCommand{
		BaseCommand: NewBaseCommand(
			"config",
			"Manage configuration settings",
			"config [options] [key [value] | validate | schema]",
		),
		config:     cfg,
		configPath: configPath,
	}
}

func (c *ConfigCommand) SetupFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.showAll, "all", false, "Show every effective option, including defaults")
}

func (c *ConfigCommand) Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	schema := config.DefaultSchema()

	if len(args) == 0 {
		if c.showAll {
			c.printEffective(stdout, schema)
			return nil
		}
		_, _ = fmt.Fprintln(stdout, "Configuration management:")
		_, _ = fmt.Fprintln(stdout, "  config <key>          - Get the effective value")
		_, _ = fmt.Fprintln(stdout, "  config <key> <value>  - Set a global value")
		_, _ = fmt.Fprintln(stdout, "  config --all          - Show all effective values")
		_, _ = fmt.Fprintln(stdout, "  config validate       - Validate the configuration")
		_, _ = fmt.Fprintln(stdout, "  config schema         - Show every known option")
		return nil
	}

	switch {
	case len(args) == 1 && args[0] == "validate":
		return c.executeValidate(stdout, schema)
	case len(args) == 1 && args[0] == "schema":
		_, _ = fmt.Fprint(stdout, schema.FormatHelp())
		return nil
	case len(args) == 1:
		key := args[0]
		if schema.Lookup("", key) == nil {
			if _, ok := c.config.GetGlobalOption(key); !ok {
				_, _ = fmt.Fprintf(stdout, "Configuration key '%s' not found\n", key)
				return nil
			}
		}
		_, _ = fmt.Fprintf(stdout, "%s: %s\n", key, schema.Resolve(c.config, key))
		return nil
	case len(args) == 2:
		key, value := args[0], args[1]
		if opt := schema.Lookup("", key); opt == nil {
			_, _ = fmt.Fprintf(stderr, "Warning: unknown option %q\n", key)
		}
		c.config.SetGlobalOption(key, value)
		if issues := config.ValidateConfig(c.config, schema); len(issues) > 0 {
			for _, issue := range issues {
				_, _ = fmt.Fprintf(stderr, "Warning: %s\n", issue)
			}
		}

		path := c.configPath
		if path == "" {
			var err error
			if path, err = config.GetConfigPath(); err != nil {
				return fmt.Errorf("resolving config path: %w", err)
			}
		}
		if err := config.SetKeyInFile(path, key, value); err != nil {
			return fmt.Errorf("persisting config: %w", err)
		}
		_, _ = fmt.Fprintf(stdout, "Set configuration: %s = %s\n", key, value)
		return nil
	}

	_, _ = fmt.Fprintln(stderr, "Invalid number of arguments")
	return errors.New("invalid arguments")
}

func (c *ConfigCommand) printEffective(stdout io.Writer, schema *config.Schema) {
	w := tabwriter.NewWriter(stdout, 0, 8, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "Global configuration:")
	for _, opt := range schema.SectionOptions("") {
		_, _ = fmt.Fprintf(w, "  %s\t%s\n", opt.Key, schema.Resolve(c.config, opt.Key))
	}
	for _, sec := range schema.Sections() {
		_, _ = fmt.Fprintf(w, "[%s]\n", sec)
		for _, opt := range schema.SectionOptions(sec) {
			_, _ = fmt.Fprintf(w, "  %s\t%s\n", opt.Key, schema.ResolveCommand(c.config, sec, opt.Key))
		}
	}
	for _, key := range slices.Sorted(maps.Keys(c.config.Global)) {
		if schema.Lookup("", key) == nil {
			_, _ = fmt.Fprintf(w, "  %s\t%s\t(unknown)\n", key, c.config.Global[key])
		}
	}
	_ = w.Flush()
}

func (c *ConfigCommand) executeValidate(stdout io.Writer, schema *config.Schema) error {
	issues := config.ValidateConfig(c.config, schema)
	if len(issues) == 0 {
		_, _ = fmt.Fprintln(stdout, "Configuration is valid.")
		return nil
	}
	_, _ = fmt.Fprintf(stdout, "Configuration has %d issue(s):\n", len(issues))
	for _, issue := range issues {
		_, _ = fmt.Fprintf(stdout, "  - %s\n", issue)
	}
	return nil
}
