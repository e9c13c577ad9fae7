package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/4rft5/NavidroFM/internal/shared"
	"github.com/4rft5/NavidroFM/internal/tasks"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	server     tasks.MediaServer
	engine     tasks.SyncEngine
	lock       *shared.RunLock
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner. Server and
// Engine may be left nil; the sync command builds them from the config.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Server     tasks.MediaServer
	Engine     tasks.SyncEngine
	Lock       *shared.RunLock
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Lock == nil {
		opts.Lock = shared.NewRunLock(shared.DefaultLockPath)
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		server:     opts.Server,
		engine:     opts.Engine,
		lock:       opts.Lock,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, syncCommand, statusCommand, playlistsCommand, exportCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeHeader(title string) {
	r.writePlain("%s\n", headerStyle.Render(title))
	r.writePlain("%s\n", headerStyle.Render("═══════════════════════════════════════"))
}
