package infra

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// CommandRunner executes an external command.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// FolderOpener opens a directory in the desktop file manager.
type FolderOpener struct {
	GOOS string
	Run  CommandRunner
}

// NewFolderOpener returns an opener for the running OS.
func NewFolderOpener() *FolderOpener {
	return &FolderOpener{GOOS: runtime.GOOS, Run: runCommand}
}

// Command returns the program and arguments used to open dir.
func (o *FolderOpener) Command(dir string) (string, []string) {
	switch o.GOOS {
	case "windows":
		return "cmd", []string{"/c", "start", "", dir}
	case "darwin":
		return "open", []string{dir}
	default:
		return "xdg-open", []string{dir}
	}
}

// Open launches the file manager on dir.
func (o *FolderOpener) Open(ctx context.Context, dir string) error {
	name, args := o.Command(dir)
	run := o.Run
	if run == nil {
		run = runCommand
	}
	return run(ctx, name, args...)
}

func runCommand(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			return fmt.Errorf("%s: %w", name, err)
		}
		return fmt.Errorf("%s: %w: %s", name, err, msg)
	}
	return nil
}
