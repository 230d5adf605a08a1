package tunnel

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/noteshub/backend/core"
)

// urlRegex extracts the public URL the provider prints once the tunnel is
// up. ngrok and localtunnel both print it as a plain https URL.
var urlRegex = regexp.MustCompile(`https://[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}(?::\d+)?[^\s"]*`)

// Runner starts the provider process, waits for it to print the public URL,
// rewrites the local config files and then stays in the foreground until the
// context is cancelled. Provider shutdown is best-effort.
type Runner struct {
	settings *Settings
	updater  *ConfigUpdater
	logger   core.Logger
}

func NewRunner(settings *Settings, logger core.Logger) *Runner {
	return &Runner{
		settings: settings,
		updater:  NewConfigUpdater(settings.EnvFile, settings.FirebaseFile, logger),
		logger:   logger,
	}
}

// Run blocks until the provider exits or ctx is cancelled. A provider that
// dies on its own is a startup failure and returns an error; cancellation is
// the normal way out and returns nil.
func (r *Runner) Run(ctx context.Context) error {
	cmd := exec.Command(r.settings.Command[0], r.settings.Command[1:]...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Wrap(err, "piping provider output")
	}
	cmd.Stderr = cmd.Stdout

	if err = cmd.Start(); err != nil {
		return errors.Wrapf(err, "starting tunnel provider %q", r.settings.Command[0])
	}
	r.logger.Info(fmt.Sprintf("tunnel provider started: %v (pid %d)", r.settings.Command, cmd.Process.Pid))

	go r.watchOutput(stdout)

	waitErr := make(chan error, 1)
	go func() { waitErr <- cmd.Wait() }()

	select {
	case err = <-waitErr:
		if err != nil {
			return errors.Wrap(err, "tunnel provider exited")
		}
		return errors.New("tunnel provider exited unexpectedly")

	case <-ctx.Done():
		r.logger.Info("shutting down tunnel")
		// best-effort: ask nicely, then stop waiting
		_ = cmd.Process.Signal(syscall.SIGTERM)
		select {
		case <-waitErr:
		case <-time.After(5 * time.Second):
			_ = cmd.Process.Kill()
		}
		return nil
	}
}

// watchOutput relays provider output to the log and applies the config
// rewrites when the public URL shows up.
func (r *Runner) watchOutput(out io.Reader) {
	var urlSeen bool
	scanner := bufio.NewScanner(out)
	for scanner.Scan() {
		line := scanner.Text()
		r.logger.Debug("tunnel: " + line)

		if urlSeen {
			continue
		}
		if url := ExtractURL(line); url != "" {
			urlSeen = true
			r.logger.Info("tunnel up at " + url)
			r.updater.Apply(url)
		}
	}
}

// ExtractURL pulls the first public https URL out of a provider output line.
// Returns "" when the line has none.
func ExtractURL(line string) string {
	return urlRegex.FindString(line)
}
