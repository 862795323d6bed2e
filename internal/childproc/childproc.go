// Package childproc abstracts launching and reaping a punter's child
// process, so the punter host can be driven by a real binary in production
// or an in-memory double in tests (spec.md §5's "scoped acquisition
// discipline": every spawn path guarantees kill+wait on every exit path).
package childproc

import (
	"io"
	"os"
	"os/exec"

	"github.com/pkg/errors"

	"github.com/gennai/arena/internal/arenaerr"
)

// Process is a running child: its stdin/stdout pipes, plus lifecycle
// control. Implementations must make Kill safe to call multiple times and
// safe to call even if the process already exited.
type Process interface {
	Stdin() io.WriteCloser
	Stdout() io.ReadCloser
	// Kill terminates the process (if still running) and waits for it to
	// exit, reaping it. Safe to call more than once.
	Kill() error
}

// Launcher starts a Process for a given argv.
type Launcher interface {
	Launch(argv []string) (Process, error)
}

// ExecLauncher launches real OS processes via os/exec.
type ExecLauncher struct{}

// Launch starts argv[0] with the remaining elements as arguments, wiring
// its stdin/stdout as pipes and its stderr to the referee's own stderr so a
// misbehaving child's diagnostics are visible to the operator.
func (ExecLauncher) Launch(argv []string) (Process, error) {
	if len(argv) == 0 {
		return nil, arenaerr.New(arenaerr.KindChildSpawnFailed, "empty command line")
	}
	cmd := exec.Command(argv[0], argv[1:]...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.Wrap(arenaerr.New(arenaerr.KindChildSpawnFailed, "stdin pipe: %v", err), argv[0])
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(arenaerr.New(arenaerr.KindChildSpawnFailed, "stdout pipe: %v", err), argv[0])
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(arenaerr.New(arenaerr.KindChildSpawnFailed, "start: %v", err), argv[0])
	}
	return &execProcess{cmd: cmd, stdin: stdin, stdout: stdout}, nil
}

type execProcess struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	killed bool
}

func (p *execProcess) Stdin() io.WriteCloser  { return p.stdin }
func (p *execProcess) Stdout() io.ReadCloser  { return p.stdout }

func (p *execProcess) Kill() error {
	if p.killed {
		return nil
	}
	p.killed = true
	_ = p.stdin.Close()
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	_ = p.cmd.Wait()
	return nil
}
