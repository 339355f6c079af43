package host

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/keystrike/internal/logging"
)

// ProcessState is the lifecycle state of a launched process.
type ProcessState int32

const (
	ProcessRunning ProcessState = iota
	ProcessExited
	ProcessKilled
)

func (s ProcessState) String() string {
	switch s {
	case ProcessRunning:
		return "running"
	case ProcessExited:
		return "exited"
	case ProcessKilled:
		return "killed"
	default:
		return fmt.Sprintf("unknown(%d)", int32(s))
	}
}

// Process is a detached child started by a Launcher.
type Process struct {
	ID      string
	Path    string
	Args    []string
	Started time.Time

	cmd    *exec.Cmd
	stderr bytes.Buffer
	done   chan struct{}

	state    atomic.Int32
	exitCode atomic.Int32
	exitErr  error
	mu       sync.RWMutex
}

// Name returns the base name of the executable.
func (p *Process) Name() string {
	return filepath.Base(p.Path)
}

// State returns the current state.
func (p *Process) State() ProcessState {
	return ProcessState(p.state.Load())
}

// ExitCode returns the exit code, or -1 while running.
func (p *Process) ExitCode() int {
	return int(p.exitCode.Load())
}

// ExitError returns the error from waiting on the process, if any.
func (p *Process) ExitError() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.exitErr
}

// Stderr returns what the process wrote to stderr. It is complete once
// Done is closed.
func (p *Process) Stderr() string {
	select {
	case <-p.done:
		return p.stderr.String()
	default:
		return ""
	}
}

// Done is closed when the process has been reaped.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// PID returns the operating system process id.
func (p *Process) PID() int {
	if p.cmd.Process == nil {
		return -1
	}
	return p.cmd.Process.Pid
}

func (p *Process) wait() {
	err := p.cmd.Wait()

	p.mu.Lock()
	p.exitErr = err
	p.mu.Unlock()

	code := 0
	state := ProcessExited
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
			if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
				state = ProcessKilled
			}
		} else {
			code = -1
		}
	}
	p.exitCode.Store(int32(code))
	p.state.Store(int32(state))
	close(p.done)
}

// LauncherOption configures a Launcher.
type LauncherOption func(*Launcher)

// WithMaxProcesses caps concurrently tracked processes. Zero means no cap.
func WithMaxProcesses(n int) LauncherOption {
	return func(l *Launcher) { l.maxProcesses = n }
}

// WithLauncherLogger sets the logger.
func WithLauncherLogger(logger *logging.Logger) LauncherOption {
	return func(l *Launcher) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithIDGenerator replaces the uuid process id generator.
func WithIDGenerator(fn func() string) LauncherOption {
	return func(l *Launcher) {
		if fn != nil {
			l.newID = fn
		}
	}
}

// Launcher starts detached processes and reaps them in the background.
// It is safe for concurrent use.
type Launcher struct {
	mu        sync.RWMutex
	processes map[string]*Process
	closed    atomic.Bool

	maxProcesses int
	logger       *logging.Logger
	newID        func() string
}

// NewLauncher creates a Launcher.
func NewLauncher(opts ...LauncherOption) *Launcher {
	l := &Launcher{
		processes: make(map[string]*Process),
		logger:    logging.Null(),
		newID:     func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.WithComponent("launcher")
	return l
}

// Launch starts path with args and returns without waiting for it.
func (l *Launcher) Launch(path string, args ...string) error {
	_, err := l.Start(path, args...)
	return err
}

// Start is Launch returning the tracked process.
func (l *Launcher) Start(path string, args ...string) (*Process, error) {
	if err := CheckExecutable(path); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed.Load() {
		return nil, ErrLauncherShutdown
	}
	if l.maxProcesses > 0 && len(l.processes) >= l.maxProcesses {
		return nil, fmt.Errorf("host: process limit reached: %d", l.maxProcesses)
	}

	id := l.newID()
	if _, exists := l.processes[id]; exists {
		return nil, fmt.Errorf("host: process id already exists: %s", id)
	}

	cmd := exec.Command(path, args...)
	detach(cmd)
	p := &Process{
		ID:   id,
		Path: path,
		Args: append([]string(nil), args...),
		cmd:  cmd,
		done: make(chan struct{}),
	}
	cmd.Stderr = &p.stderr
	p.exitCode.Store(-1)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("host: start %s: %w", path, err)
	}
	p.Started = time.Now()
	p.state.Store(int32(ProcessRunning))
	l.processes[id] = p

	l.logger.Debug("started %s pid=%d args=%v", p.Name(), p.PID(), args)

	go l.monitor(p)
	return p, nil
}

func (l *Launcher) monitor(p *Process) {
	p.wait()

	if code := p.ExitCode(); code != 0 {
		l.logger.Warn("%s exited with code %d: %s", p.Name(), code, p.Stderr())
	} else {
		l.logger.Debug("%s exited after %s", p.Name(), time.Since(p.Started).Round(time.Millisecond))
	}

	l.mu.Lock()
	delete(l.processes, p.ID)
	l.mu.Unlock()
}

// List returns the tracked processes ordered by start time.
func (l *Launcher) List() []*Process {
	l.mu.RLock()
	result := make([]*Process, 0, len(l.processes))
	for _, p := range l.processes {
		result = append(result, p)
	}
	l.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].Started.Before(result[j].Started)
	})
	return result
}

// Count returns the number of tracked processes.
func (l *Launcher) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.processes)
}

// Shutdown refuses further launches and waits up to timeout for tracked
// processes to exit. Running processes are never signalled. It reports
// whether every process exited in time.
func (l *Launcher) Shutdown(timeout time.Duration) bool {
	l.closed.Store(true)

	procs := l.List()
	if len(procs) == 0 {
		return true
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for _, p := range procs {
		select {
		case <-p.Done():
		case <-deadline.C:
			l.logger.Info("%d process(es) still running at shutdown", l.Count())
			return false
		}
	}
	return true
}
