package command

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/joeycumines/goap/internal/config"
)

const logPollInterval = 200 * time.Millisecond

// LogCommand prints the end of the log file, optionally following it across
// rotations.
type LogCommand struct {
	*BaseCommand
	runtime

	follow bool
	lines  int
	file   string
}

// NewLogCommand creates a new log command.
func NewLogCommand(cfg *config.Config, logger *slog.Logger) *LogCommand {
	return &LogCommand{
		BaseCommand: NewBaseCommand("log", "View and follow the log file", "log [tail] [options]"),
		runtime:     newRuntime(cfg, logger),
	}
}

func (c *LogCommand) SetupFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.follow, "f", false, "Follow the log file")
	fs.IntVar(&c.lines, "n", 10, "Lines to show from the end of the file")
	fs.StringVar(&c.file, "file", "", "Log file (default: log.file)")
}

// Execute prints the last lines of the log. "log tail" is "log -f".
func (c *LogCommand) Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 && args[0] == "tail" {
		c.follow = true
		args = args[1:]
	}
	if len(args) > 0 {
		_, _ = fmt.Fprintf(stderr, "unknown subcommand: %s\n", args[0])
		return fmt.Errorf("unknown subcommand: %s", args[0])
	}

	path := c.file
	if path == "" {
		path = c.schema.Resolve(c.config, "log.file")
	}
	if path == "" {
		_, _ = fmt.Fprintln(stderr, "No log file configured. Use -file or set log.file.")
		return errors.New("no log file configured")
	}

	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) || !c.follow {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		_, _ = fmt.Fprintf(stderr, "Waiting for log file: %s\n", path)
		if f, err = waitForFile(ctx, path); err != nil {
			return err
		}
	}

	for _, line := range lastLines(f, c.lines) {
		_, _ = fmt.Fprintln(stdout, line)
	}
	if !c.follow {
		return f.Close()
	}

	pos, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to seek log file: %w", err)
	}
	err = follow(ctx, f, path, pos, stdout)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// lastLines returns the final n lines of r, keeping at most n in memory.
func lastLines(r io.Reader, n int) []string {
	if n <= 0 {
		return nil
	}
	ring := make([]string, n)
	count := 0
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		ring[count%n] = scanner.Text()
		count++
	}
	total := min(count, n)
	out := make([]string, total)
	for i := range out {
		out[i] = ring[(count-total+i)%n]
	}
	return out
}

// follow polls f for appended lines until ctx is done. When path no longer
// names the open file, or the file shrank below what was read, the rest of
// the old file is drained and path is reopened from the start.
func follow(ctx context.Context, f *os.File, path string, pos int64, stdout io.Writer) error {
	defer func() { _ = f.Close() }()
	reader := bufio.NewReader(f)
	ticker := time.NewTicker(logPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if rotated(f, path, pos) {
			if _, err := drain(f, reader, pos, stdout); err != nil {
				return err
			}
			next, err := waitForFile(ctx, path)
			if err != nil {
				return err
			}
			_ = f.Close()
			f, reader, pos = next, bufio.NewReader(next), 0
		}

		var err error
		if pos, err = drain(f, reader, pos, stdout); err != nil {
			return err
		}
	}
}

// rotated reports whether path has been replaced or truncated since f was
// opened.
func rotated(f *os.File, path string, pos int64) bool {
	current, err := os.Stat(path)
	if err != nil {
		return true
	}
	open, err := f.Stat()
	if err != nil {
		return true
	}
	return !os.SameFile(open, current) || current.Size() < pos
}

// drain writes every complete line available from reader and returns the
// new offset. A trailing partial line is left to be reread once complete.
func drain(f *os.File, reader *bufio.Reader, pos int64, stdout io.Writer) (int64, error) {
	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 && line[len(line)-1] == '\n' {
			_, _ = io.WriteString(stdout, line)
			pos += int64(len(line))
		} else if len(line) > 0 {
			if _, serr := f.Seek(pos, io.SeekStart); serr != nil {
				return pos, serr
			}
			reader.Reset(f)
		}
		if err != nil {
			return pos, nil
		}
	}
}

func waitForFile(ctx context.Context, path string) (*os.File, error) {
	ticker := time.NewTicker(logPollInterval)
	defer ticker.Stop()
	for {
		f, err := os.Open(path)
		if err == nil {
			return f, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
