package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/carlosrabelo/swctl/domain/entities"
	"github.com/carlosrabelo/swctl/domain/ports"
)

const (
	// pollInterval caps a single blocking read so ctx cancellation is noticed.
	pollInterval = 200 * time.Millisecond
	// promptSlack is room kept beyond MaxOutputBytes for the echo and prompt lines.
	promptSlack = 4096
	// maxDrainReads bounds how many stale chunks are discarded before a command.
	maxDrainReads = 1024
)

// Session is the controller of one switch shell. It is not meant to be
// shared: commands are executed strictly one after another.
type Session struct {
	cfg       entities.SwitchConfig
	transport ports.Transport
	dialect   Dialect
	resolver  HostnameResolver
	log       logrus.FieldLogger

	mu      sync.Mutex
	state   entities.SessionState
	channel ports.Channel
	prompt  *regexp.Regexp
}

// Option customizes a Session.
type Option func(*Session)

// WithLogger sets the logger; the host field is added automatically.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Session) { s.log = log }
}

// WithHostnameResolver sets the lookup used when the target is an IP literal.
func WithHostnameResolver(r HostnameResolver) Option {
	return func(s *Session) { s.resolver = r }
}

// NewSession creates a disconnected session for cfg.
func NewSession(cfg entities.SwitchConfig, transport ports.Transport, dialect Dialect, opts ...Option) *Session {
	s := &Session{
		cfg:       cfg.WithDefaults(),
		transport: transport,
		dialect:   dialect,
		log:       logrus.StandardLogger(),
		state:     entities.StateDisconnected,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("host", s.cfg.Target)
	return s
}

// Target returns the host identifier of the session.
func (s *Session) Target() string {
	return s.cfg.Target
}

// State returns the current lifecycle state.
func (s *Session) State() entities.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connect opens the shell, waits for the prompt and disables paging.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != entities.StateDisconnected {
		return &ConnectionError{Host: s.cfg.Target, Op: "connect", Err: fmt.Errorf("session is %s", s.state)}
	}
	s.state = entities.StateConnecting

	if err := s.resolvePrompt(); err != nil {
		s.state = entities.StateFailed
		return err
	}

	s.log.Infof("Connecting via %s as %s", s.cfg.TransportID(), s.cfg.Username)
	channel, err := s.transport.OpenShell(ctx, s.cfg.Target, s.cfg.Username, s.cfg.Password)
	if err != nil {
		return s.fail("open shell", err)
	}
	s.channel = channel

	capture, err := s.readUntil(ctx, "", s.matchPrompt, s.cfg.ConnectTimeout, 0)
	if err != nil {
		if errors.Is(err, errPromptTimeout) {
			err = fmt.Errorf("prompt not seen within %s, last line %q", s.cfg.ConnectTimeout, capture.prompt)
		}
		return s.fail("wait for prompt", err)
	}
	if s.prompt == nil {
		if err := s.learnPrompt(capture.prompt); err != nil {
			return s.fail("learn prompt", err)
		}
	}

	if s.cfg.EnablePassword != "" && s.dialect.EnableCommand() != "" && strings.HasSuffix(strings.TrimSpace(capture.prompt), ">") {
		if err := s.elevate(ctx); err != nil {
			return s.fail("enable", err)
		}
	}

	if pager := s.dialect.PagerCommand(); pager != "" {
		s.log.Debugf("Disabling pager with %q", pager)
		if err := s.send(pager); err != nil {
			return s.fail("disable pager", err)
		}
		if _, err := s.readUntil(ctx, pager, s.matchPrompt, s.cfg.ConnectTimeout, 0); err != nil {
			return s.fail("disable pager", err)
		}
	}

	s.state = entities.StateConnected
	s.log.Info("Connected")
	return nil
}

// Run sends command and waits for the prompt to come back. Output is
// returned only for commands containing "show"; other output is drained
// and discarded.
func (s *Session) Run(ctx context.Context, command string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cmd := entities.NewCommand(command)
	if s.state != entities.StateConnected || s.channel == nil {
		return "", &ConnectionError{Host: s.cfg.Target, Op: fmt.Sprintf("run %q", cmd.Text), Err: ErrNotConnected}
	}
	if cmd.IsBlank() {
		return "", &InputError{Err: errors.New("empty command")}
	}
	if strings.ContainsAny(cmd.Text, "\r\n") {
		return "", &InputError{Err: fmt.Errorf("command %q spans more than one line", cmd.Text)}
	}

	s.drain()
	s.log.WithField("command", cmd.Text).Info("Running command")
	if err := s.send(cmd.Text); err != nil {
		return "", &ConnectionError{Host: s.cfg.Target, Op: fmt.Sprintf("send %q", cmd.Text), Err: err}
	}

	limit := s.cfg.MaxOutputBytes
	capture, err := s.readUntil(ctx, cmd.Text, s.matchPrompt, s.cfg.CommandTimeout, limit+promptSlack)
	if err != nil {
		switch {
		case errors.Is(err, errPromptTimeout):
			timeoutErr := &CommandTimeoutError{Host: s.cfg.Target, Command: cmd.Text, Timeout: s.cfg.CommandTimeout}
			if cmd.Captures() {
				timeoutErr.Partial = cleanOutput(capture.raw, cmd.Text, false)
			}
			return "", timeoutErr
		case ctx.Err() != nil:
			return "", fmt.Errorf("%s: command %q: %w", s.cfg.Target, cmd.Text, ctx.Err())
		default:
			return "", &ConnectionError{Host: s.cfg.Target, Op: fmt.Sprintf("read output of %q", cmd.Text), Err: err}
		}
	}

	output := cleanOutput(capture.raw, cmd.Text, !capture.truncated)
	if s.dialect.IsCommandError(output) {
		s.log.WithField("command", cmd.Text).Warn("Switch rejected command")
	}
	if !cmd.Captures() {
		return "", nil
	}
	if capture.truncated || len(output) > limit {
		if len(output) > limit {
			output = output[:limit]
		}
		return output, &OutputLimitError{Host: s.cfg.Target, Command: cmd.Text, Limit: limit}
	}
	return output, nil
}

// Close ends the CLI session and releases the channel. It is safe to call
// on every exit path, any number of times.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == entities.StateClosed {
		return nil
	}
	var err error
	if s.channel != nil {
		if exit := s.dialect.ExitCommand(); exit != "" && s.state == entities.StateConnected {
			_ = s.send(exit)
		}
		err = s.channel.Close()
		s.channel = nil
	}
	s.state = entities.StateClosed
	s.log.Info("Connection closed")
	if err != nil && !errors.Is(err, io.EOF) {
		return &ConnectionError{Host: s.cfg.Target, Op: "close", Err: err}
	}
	return nil
}

// fail releases the channel after a connect error and records the failed state.
func (s *Session) fail(op string, err error) error {
	if s.channel != nil {
		_ = s.channel.Close()
		s.channel = nil
	}
	s.state = entities.StateFailed
	if errors.Is(err, errPromptTimeout) {
		err = fmt.Errorf("prompt not seen within %s", s.cfg.ConnectTimeout)
	}
	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		return connErr
	}
	return &ConnectionError{Host: s.cfg.Target, Op: op, Err: err}
}

// resolvePrompt picks the prompt pattern: explicit override, hostname from
// the target, or a resolver lookup. When none applies the prompt is learned
// after the shell opens.
func (s *Session) resolvePrompt() error {
	if s.cfg.Prompt != "" {
		re, err := regexp.Compile(s.cfg.Prompt)
		if err != nil {
			return &InputError{Err: fmt.Errorf("invalid prompt pattern %q: %w", s.cfg.Prompt, err)}
		}
		s.prompt = re
		return nil
	}
	hostname := HostLabel(s.cfg.Target)
	if hostname == "" && s.resolver != nil {
		name, err := s.resolver.ResolveHostname(s.cfg.Host())
		if err != nil {
			s.log.Warnf("Hostname lookup failed, prompt will be learned: %v", err)
		} else {
			hostname = HostLabel(name)
		}
	}
	if hostname == "" {
		return nil
	}
	re, err := PromptPattern(hostname, s.dialect.PromptSuffix())
	if err != nil {
		return &InputError{Err: err}
	}
	s.prompt = re
	s.log.Debugf("Expecting prompt %s", re)
	return nil
}

func (s *Session) learnPrompt(line string) error {
	hostname := learnHostname(line)
	if hostname == "" {
		return fmt.Errorf("cannot derive hostname from prompt %q", line)
	}
	re, err := PromptPattern(hostname, s.dialect.PromptSuffix())
	if err != nil {
		return err
	}
	s.prompt = re
	s.log.Debugf("Learned prompt %s", re)
	return nil
}

// elevate enters privileged mode with the enable secret.
func (s *Session) elevate(ctx context.Context) error {
	s.log.Debug("Elevating to privileged mode")
	enable := s.dialect.EnableCommand()
	if err := s.send(enable); err != nil {
		return err
	}
	matchPasswordOrPrompt := func(line string) bool {
		return passwordRegex.MatchString(line) || s.matchPrompt(line)
	}
	capture, err := s.readUntil(ctx, enable, matchPasswordOrPrompt, s.cfg.ConnectTimeout, 0)
	if err != nil {
		return err
	}
	if passwordRegex.MatchString(capture.prompt) {
		if err := s.send(s.cfg.EnablePassword); err != nil {
			return err
		}
		// a wrong secret is answered with another password prompt
		if capture, err = s.readUntil(ctx, "", matchPasswordOrPrompt, s.cfg.ConnectTimeout, 0); err != nil {
			return err
		}
		if passwordRegex.MatchString(capture.prompt) {
			return errors.New("enable secret rejected")
		}
	}
	if !strings.HasSuffix(strings.TrimSpace(capture.prompt), "#") {
		return errors.New("enable secret rejected")
	}
	return nil
}

func (s *Session) send(line string) error {
	_, err := s.channel.Write([]byte(line + "\n"))
	return err
}

// matchPrompt reports whether line is the session prompt. Before the
// pattern is known any IOS-style prompt is accepted.
func (s *Session) matchPrompt(line string) bool {
	if s.prompt == nil {
		return genericPromptRegex.MatchString(line)
	}
	return s.prompt.MatchString(line)
}

// drain discards bytes left over from an earlier command, typically the
// late output of a command that timed out.
func (s *Session) drain() {
	discarded := 0
	for i := 0; i < maxDrainReads; i++ {
		chunk, err := s.channel.ReadAvailable(0)
		discarded += len(chunk)
		if len(chunk) == 0 || err != nil {
			break
		}
	}
	if discarded > 0 {
		s.log.Debugf("Discarded %d stale bytes", discarded)
	}
}

type readResult struct {
	raw       string
	prompt    string
	truncated bool
}

// readUntil reads from the channel until match accepts the current last
// line, the timeout elapses or ctx is done. When echo is set, nothing is
// matched or kept before the line echoing it: earlier bytes belong to a
// previous command, such as the late prompt of one that timed out. At most
// limit bytes are kept when limit is positive; the rest is read and dropped.
func (s *Session) readUntil(ctx context.Context, echo string, match func(string) bool, timeout time.Duration, limit int) (readResult, error) {
	var (
		raw       strings.Builder
		tail      lineTail
		truncated bool
		stale     string
		echoed    = echo == ""
	)
	deadline := time.Now().Add(timeout)

	for {
		if err := ctx.Err(); err != nil {
			return readResult{raw: raw.String(), prompt: tail.line(), truncated: truncated}, err
		}
		wait := time.Until(deadline)
		if wait <= 0 {
			return readResult{raw: raw.String(), prompt: tail.line(), truncated: truncated}, errPromptTimeout
		}
		if wait > pollInterval {
			wait = pollInterval
		}

		chunk, err := s.channel.ReadAvailable(wait)
		if len(chunk) > 0 {
			if s.cfg.IsRawOutputEnabled() {
				s.log.Debugf("Switch output: Read: %q", chunk)
			}
			data := chunk
			if !echoed {
				stale += string(chunk)
				start, found := echoLineStart(stale, echo)
				if found {
					if start > 0 {
						s.log.Debugf("Discarded %d stale bytes before the echo of %q", start, echo)
					}
					echoed = true
					data = []byte(stale[start:])
					stale = ""
				} else {
					stale = unterminatedLine(stale)
				}
			}
			if echoed {
				keep := data
				if limit > 0 && raw.Len()+len(keep) > limit {
					keep = keep[:max(0, limit-raw.Len())]
					truncated = true
				}
				raw.Write(keep)
				tail.feed(data)
				if line := tail.line(); match(line) {
					return readResult{raw: raw.String(), prompt: line, truncated: truncated}, nil
				}
			}
		}
		if err != nil {
			return readResult{raw: raw.String(), prompt: tail.line(), truncated: truncated}, fmt.Errorf("read error: %w", err)
		}
	}
}
