package annotate

import (
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Server is an annotation service process owned by a Client.
type Server struct {
	cmd     *exec.Cmd
	done    chan struct{}
	waitErr error
	timeout time.Duration
	logger  *zap.Logger
}

// serverCommand builds the command line for opts listening on port.
func serverCommand(opts ServerOptions, port int) []string {
	if len(opts.Command) > 0 {
		return opts.Command
	}
	return []string{
		opts.Java,
		"-Xmx" + opts.Memory,
		"-cp", filepath.Join(opts.ClassPath, "*"),
		DefaultServerClass,
		"--port", strconv.Itoa(port),
	}
}

// StartServer launches the service process and returns once it is running.
// It does not wait for the service to accept requests; the client's retry
// budget absorbs the warm-up.
func StartServer(opts ServerOptions, port int, logger *zap.Logger) (*Server, error) {
	args := serverCommand(opts, port)

	cmd := exec.Command(args[0], args[1:]...)
	out := opts.Output
	if out == nil {
		out = io.Discard
	}
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start annotation server: %w", err)
	}

	s := &Server{
		cmd:     cmd,
		done:    make(chan struct{}),
		timeout: opts.ShutdownTimeout,
		logger:  logger,
	}
	go func() {
		s.waitErr = cmd.Wait()
		close(s.done)
	}()

	logger.Info("annotation server started",
		zap.Int("pid", cmd.Process.Pid),
		zap.Int("port", port))
	return s, nil
}

// Pid returns the process id.
func (s *Server) Pid() int {
	return s.cmd.Process.Pid
}

// Exited reports whether the process has terminated.
func (s *Server) Exited() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Stop terminates the process: SIGTERM first, a kill after the shutdown
// timeout. Failures are logged; Stop never fails.
func (s *Server) Stop() {
	if s.Exited() {
		s.logger.Debug("annotation server already exited", zap.Error(s.waitErr))
		return
	}

	if err := s.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		s.logger.Warn("could not signal annotation server, killing", zap.Error(err))
		s.kill()
		return
	}

	select {
	case <-s.done:
		s.logger.Info("annotation server stopped", zap.Int("pid", s.Pid()))
	case <-time.After(s.timeout):
		s.logger.Warn("annotation server ignored SIGTERM, killing", zap.Int("pid", s.Pid()))
		s.kill()
	}
}

func (s *Server) kill() {
	if err := s.cmd.Process.Kill(); err != nil {
		s.logger.Error("could not kill annotation server; it may already be gone",
			zap.Int("pid", s.Pid()),
			zap.Error(err))
		return
	}
	<-s.done
}
