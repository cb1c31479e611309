package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// OptionType is the expected type of an option value.
type OptionType string

const (
	TypeString   OptionType = "string"
	TypeBool     OptionType = "bool"
	TypeInt      OptionType = "int"
	TypeDuration OptionType = "duration"
	// TypeLevel is a log level name: debug, info, warn or error.
	TypeLevel OptionType = "level"
)

// Option declares a single configuration option.
type Option struct {
	// Key as it appears in the config file.
	Key         string
	Type        OptionType
	Default     string
	Description string
	// Section is "" for global options, else the command name.
	Section string
	// EnvVar overrides the configured value when set.
	EnvVar string
}

// Schema declares the known configuration options. It drives validation,
// help output and value resolution.
type Schema struct {
	options   []*Option
	byKey     map[string]*Option
	bySection map[string]map[string]*Option
}

// NewSchema creates an empty Schema.
func NewSchema() *Schema {
	return &Schema{
		byKey:     make(map[string]*Option),
		bySection: make(map[string]map[string]*Option),
	}
}

// Register adds opt. The last registration of a section/key pair wins.
func (s *Schema) Register(opts ...Option) {
	for _, opt := range opts {
		ref := new(Option)
		*ref = opt
		s.options = append(s.options, ref)
		if opt.Section == "" {
			s.byKey[opt.Key] = ref
			continue
		}
		if s.bySection[opt.Section] == nil {
			s.bySection[opt.Section] = make(map[string]*Option)
		}
		s.bySection[opt.Section][opt.Key] = ref
	}
}

// Lookup returns the option for key in section ("" for global), or nil.
func (s *Schema) Lookup(section, key string) *Option {
	if section == "" {
		return s.byKey[key]
	}
	return s.bySection[section][key]
}

// IsKnown reports whether key may appear in section. Global keys are known
// in every section.
func (s *Schema) IsKnown(section, key string) bool {
	return s.Lookup(section, key) != nil || s.byKey[key] != nil
}

// SectionOptions returns the options of section ("" for global) in
// registration order.
func (s *Schema) SectionOptions(section string) []Option {
	var out []Option
	for _, o := range s.options {
		if o.Section == section {
			out = append(out, *o)
		}
	}
	return out
}

// Sections returns the sorted non-global section names.
func (s *Schema) Sections() []string {
	out := make([]string, 0, len(s.bySection))
	for sec := range s.bySection {
		out = append(out, sec)
	}
	slices.Sort(out)
	return out
}

// Resolve returns the effective value of a global key: the schema's
// environment variable, then the config file, then the schema default.
func (s *Schema) Resolve(c *Config, key string) string {
	return s.ResolveCommand(c, "", key)
}

// ResolveCommand is Resolve for a key of a command section. The section value
// wins over the global value of the same name.
func (s *Schema) ResolveCommand(c *Config, section, key string) string {
	opt := s.Lookup(section, key)
	if opt == nil && section != "" {
		opt = s.Lookup("", key)
	}
	if opt != nil && opt.EnvVar != "" {
		if v, ok := os.LookupEnv(opt.EnvVar); ok {
			return v
		}
	}
	if c != nil {
		if section == "" {
			if v, ok := c.GetGlobalOption(key); ok {
				return v
			}
		} else if v, ok := c.GetCommandOption(section, key); ok {
			return v
		}
	}
	if opt != nil {
		return opt.Default
	}
	return ""
}

// ResolveInt resolves key as an int, falling back to the schema default when
// the configured value does not parse.
func (s *Schema) ResolveInt(c *Config, section, key string) int {
	if i, err := strconv.Atoi(s.ResolveCommand(c, section, key)); err == nil {
		return i
	}
	i, _ := strconv.Atoi(s.defaultOf(section, key))
	return i
}

// ResolveDuration is ResolveInt for durations.
func (s *Schema) ResolveDuration(c *Config, section, key string) time.Duration {
	if d, err := time.ParseDuration(s.ResolveCommand(c, section, key)); err == nil {
		return d
	}
	d, _ := time.ParseDuration(s.defaultOf(section, key))
	return d
}

func (s *Schema) defaultOf(section, key string) string {
	if opt := s.Lookup(section, key); opt != nil {
		return opt.Default
	}
	if opt := s.Lookup("", key); opt != nil {
		return opt.Default
	}
	return ""
}

// ValidateConfig checks c against s, returning sorted human-readable issues:
// unknown options and type mismatches.
func ValidateConfig(c *Config, s *Schema) []string {
	var issues []string

	for key, value := range c.Global {
		opt := s.Lookup("", key)
		if opt == nil {
			issues = append(issues, fmt.Sprintf("unknown global option: %q (value: %q)", key, value))
			continue
		}
		if err := validateType(opt.Type, value); err != nil {
			issues = append(issues, fmt.Sprintf("global option %q: %v", key, err))
		}
	}

	for section, opts := range c.Commands {
		for key, value := range opts {
			opt := s.Lookup(section, key)
			if opt == nil {
				opt = s.Lookup("", key)
			}
			if opt == nil {
				issues = append(issues, fmt.Sprintf("unknown option for command %q: %q (value: %q)", section, key, value))
				continue
			}
			if err := validateType(opt.Type, value); err != nil {
				issues = append(issues, fmt.Sprintf("option %q in [%s]: %v", key, section, err))
			}
		}
	}

	slices.Sort(issues)
	return issues
}

func validateType(t OptionType, value string) error {
	switch t {
	case TypeString, "":
		return nil
	case TypeBool:
		if _, err := parseBool(value); err != nil {
			return fmt.Errorf("expected bool, got %q", value)
		}
	case TypeInt:
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("expected int, got %q", value)
		}
	case TypeDuration:
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("expected duration, got %q", value)
		}
	case TypeLevel:
		switch strings.ToLower(value) {
		case "debug", "info", "warn", "warning", "error":
		default:
			return fmt.Errorf("expected log level, got %q", value)
		}
	default:
		return fmt.Errorf("unknown option type %q", t)
	}
	return nil
}

// ResolveBool resolves key as a bool, falling back to the schema default when
// the configured value does not parse.
func (s *Schema) ResolveBool(c *Config, section, key string) bool {
	if b, err := parseBool(s.ResolveCommand(c, section, key)); err == nil {
		return b
	}
	b, _ := parseBool(s.defaultOf(section, key))
	return b
}

// FormatHelp renders every option, grouped by section.
func (s *Schema) FormatHelp() string {
	var b strings.Builder

	if globals := s.SectionOptions(""); len(globals) > 0 {
		b.WriteString("Global Options:\n")
		for _, o := range globals {
			writeOptionHelp(&b, o)
		}
	}

	for _, sec := range s.Sections() {
		opts := s.SectionOptions(sec)
		if len(opts) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n[%s] Options:\n", sec)
		for _, o := range opts {
			writeOptionHelp(&b, o)
		}
	}

	return b.String()
}

func writeOptionHelp(b *strings.Builder, o Option) {
	fmt.Fprintf(b, "  %-24s %s", o.Key, o.Description)
	var parts []string
	if o.Type != "" && o.Type != TypeString {
		parts = append(parts, "type: "+string(o.Type))
	}
	if o.Default != "" {
		parts = append(parts, "default: "+o.Default)
	}
	if o.EnvVar != "" {
		parts = append(parts, "env: "+o.EnvVar)
	}
	if len(parts) > 0 {
		fmt.Fprintf(b, " (%s)", strings.Join(parts, ", "))
	}
	b.WriteString("\n")
}

// DefaultSchema returns the schema of every option goap understands.
func DefaultSchema() *Schema {
	s := NewSchema()
	s.Register(
		Option{Key: "log.file", Description: "Write JSON logs to this file instead of stderr", EnvVar: "GOAP_LOG_FILE"},
		Option{Key: "log.level", Type: TypeLevel, Default: "info", Description: "Minimum log level", EnvVar: "GOAP_LOG_LEVEL"},
		Option{Key: "log.max-size-mb", Type: TypeInt, Default: "10", Description: "Rotate the log file after this many megabytes"},
		Option{Key: "log.max-files", Type: TypeInt, Default: "5", Description: "Rotated log files to keep"},

		Option{Key: "domain.path", Description: "Default domain document; the built-in example when empty", EnvVar: "GOAP_DOMAIN"},
		Option{Key: "planner.capacity", Type: TypeInt, Default: "1024", Description: "Open and closed list bound of a single search"},
		Option{Key: "journal.path", Description: "Plan journal database; ~/.goap/journal.db when empty", EnvVar: "GOAP_JOURNAL"},
		Option{Key: "exec.interval", Type: TypeDuration, Default: "10ms", Description: "Behavior tree tick interval"},
		Option{Key: "exec.max-cycles", Type: TypeInt, Default: "10", Description: "Plan/execute cycles before an agent gives up"},

		Option{Section: "plan", Key: "goal", Description: "Goal to plan for; the domain default when empty"},
		Option{Section: "plan", Key: "journal", Type: TypeBool, Default: "false", Description: "Record plans in the journal"},
		Option{Section: "simulate", Key: "agents", Type: TypeInt, Default: "1", Description: "Agents to run concurrently"},
		Option{Section: "simulate", Key: "goal", Description: "Pin every agent to this goal"},
		Option{Section: "history", Key: "limit", Type: TypeInt, Default: "20", Description: "Entries to show"},
	)
	return s
}
