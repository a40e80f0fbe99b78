package transport

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ziutek/telnet"

	"github.com/carlosrabelo/swctl/domain/entities"
	"github.com/carlosrabelo/swctl/domain/ports"
)

// LoginSequencer supplies the prompts a platform shows on an unauthenticated line.
type LoginSequencer interface {
	LoginSequence(username, password string) []entities.AuthPrompt
}

// TelnetTransport opens shells over telnet, answering the platform login prompts.
type TelnetTransport struct {
	config entities.SwitchConfig
	login  LoginSequencer
	log    logrus.FieldLogger
}

// NewTelnetTransport creates a new telnet transport with the given configuration
func NewTelnetTransport(cfg entities.SwitchConfig, login LoginSequencer, log logrus.FieldLogger) *TelnetTransport {
	return &TelnetTransport{config: cfg.WithDefaults(), login: login, log: log}
}

// OpenShell connects to host and walks the login sequence. The channel is
// handed over once the last credential is sent; the session itself waits
// for the CLI prompt.
func (t *TelnetTransport) OpenShell(ctx context.Context, host, user, secret string) (ports.Channel, error) {
	cfg := t.config
	cfg.Target = host
	addr := cfg.Address()

	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}
	rawConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	conn, err := telnet.NewConn(rawConn)
	if err != nil {
		rawConn.Close()
		return nil, fmt.Errorf("failed to start telnet session with %s: %w", addr, err)
	}
	conn.SetUnixWriteMode(true)
	t.log.Debugf("Connected to %s", addr)

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	err = t.authenticate(conn, user, secret)
	stop()
	if err != nil {
		conn.Close()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	_ = conn.SetReadDeadline(time.Time{})

	return newStreamChannel(conn, conn, conn.Close), nil
}

func (t *TelnetTransport) authenticate(conn *telnet.Conn, user, secret string) error {
	if t.login == nil {
		return nil
	}
	for _, p := range t.login.LoginSequence(user, secret) {
		if err := conn.SetReadDeadline(time.Now().Add(t.config.ConnectTimeout)); err != nil {
			return err
		}
		output, err := conn.ReadUntil(p.WaitFor)
		if t.config.IsRawOutputEnabled() {
			t.log.Debugf("Switch output: Read: %q", output)
		}
		if err != nil {
			return fmt.Errorf("failed to wait for %q: %w", p.WaitFor, err)
		}
		if _, err := conn.Write([]byte(p.SendCmd + "\n")); err != nil {
			return fmt.Errorf("failed to answer %q: %w", p.WaitFor, err)
		}
		if p.Secret {
			t.log.Debugf("Sent password for prompt %s", strings.TrimSpace(p.WaitFor))
		} else {
			t.log.Debugf("Sent %s for prompt %s", p.SendCmd, strings.TrimSpace(p.WaitFor))
		}
	}
	return nil
}
