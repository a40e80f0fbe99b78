package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"

	"github.com/carlosrabelo/swctl/domain/entities"
	"github.com/carlosrabelo/swctl/domain/ports"
)

const (
	ptyTerm   = "vt100"
	ptyWidth  = 511
	ptyHeight = 24
)

// Algorithms offered in addition to the defaults when legacy mode is on.
// Old Catalyst images only speak group1/group14-sha1 and CBC ciphers.
var (
	legacyKeyExchanges = []string{
		"curve25519-sha256",
		"ecdh-sha2-nistp256",
		"ecdh-sha2-nistp384",
		"ecdh-sha2-nistp521",
		"diffie-hellman-group14-sha256",
		"diffie-hellman-group14-sha1",
		"diffie-hellman-group1-sha1",
	}
	legacyCiphers = []string{
		"aes128-gcm@openssh.com",
		"aes256-gcm@openssh.com",
		"chacha20-poly1305@openssh.com",
		"aes128-ctr",
		"aes192-ctr",
		"aes256-ctr",
		"aes128-cbc",
		"3des-cbc",
	}
	legacyMACs = []string{
		"hmac-sha2-256-etm@openssh.com",
		"hmac-sha2-256",
		"hmac-sha1",
		"hmac-sha1-96",
	}
	legacyHostKeyAlgorithms = []string{
		ssh.KeyAlgoED25519,
		ssh.KeyAlgoECDSA256,
		ssh.KeyAlgoRSASHA512,
		ssh.KeyAlgoRSASHA256,
		ssh.KeyAlgoRSA,
	}
)

// SSHTransport opens interactive PTY shells over SSH.
type SSHTransport struct {
	config entities.SwitchConfig
	fs     afero.Fs
	log    logrus.FieldLogger
}

// NewSSHTransport creates an SSH transport for the given configuration.
func NewSSHTransport(cfg entities.SwitchConfig, fs afero.Fs, log logrus.FieldLogger) *SSHTransport {
	return &SSHTransport{config: cfg.WithDefaults(), fs: fs, log: log}
}

// OpenShell dials host, authenticates and starts a shell on a PTY.
func (t *SSHTransport) OpenShell(ctx context.Context, host, user, secret string) (ports.Channel, error) {
	cfg := t.config
	cfg.Target = host

	hostKeyCallback, err := HostKeyCallback(t.fs, cfg.HostKeyPolicy, cfg.KnownHosts, t.log)
	if err != nil {
		return nil, err
	}
	auth, cleanup, err := t.authMethods(secret)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	sshConfig := &ssh.ClientConfig{
		User:            user,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         cfg.ConnectTimeout,
	}
	if cfg.LegacyAlgorithms {
		sshConfig.KeyExchanges = legacyKeyExchanges
		sshConfig.Ciphers = legacyCiphers
		sshConfig.MACs = legacyMACs
		sshConfig.HostKeyAlgorithms = legacyHostKeyAlgorithms
	}

	addr := cfg.Address()
	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}
	rawConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s via SSH: %w", addr, err)
	}

	// the handshake ignores ctx, so bound it with a deadline and a cancel hook
	_ = rawConn.SetDeadline(time.Now().Add(cfg.ConnectTimeout))
	stop := context.AfterFunc(ctx, func() { _ = rawConn.Close() })
	clientConn, chans, reqs, err := ssh.NewClientConn(rawConn, addr, sshConfig)
	stop()
	if err != nil {
		rawConn.Close()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("failed to establish SSH client connection to %s: %w", addr, err)
	}
	_ = rawConn.SetDeadline(time.Time{})
	client := ssh.NewClient(clientConn, chans, reqs)
	t.log.Debugf("SSH handshake with %s done, server version %s", addr, clientConn.ServerVersion())

	session, err := client.NewSession()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create SSH session for %s: %w", addr, err)
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          0,
		ssh.TTY_OP_ISPEED: 9600,
		ssh.TTY_OP_OSPEED: 9600,
	}
	if err := session.RequestPty(ptyTerm, ptyHeight, ptyWidth, modes); err != nil {
		session.Close()
		client.Close()
		return nil, fmt.Errorf("failed to request PTY for %s: %w", addr, err)
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		client.Close()
		return nil, fmt.Errorf("failed to get stdin pipe for %s: %w", addr, err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		client.Close()
		return nil, fmt.Errorf("failed to get stdout pipe for %s: %w", addr, err)
	}

	if err := session.Shell(); err != nil {
		session.Close()
		client.Close()
		return nil, fmt.Errorf("failed to start shell for %s: %w", addr, err)
	}

	closer := func() error {
		_ = session.Close()
		err := client.Close()
		if err != nil && !errors.Is(err, net.ErrClosed) {
			return err
		}
		return nil
	}
	return newStreamChannel(stdout, stdin, closer), nil
}

// authMethods builds the auth chain: public key, agent, password and
// keyboard-interactive. Switches commonly only offer the last one.
func (t *SSHTransport) authMethods(secret string) ([]ssh.AuthMethod, func(), error) {
	var (
		auths   []ssh.AuthMethod
		cleanup = func() {}
	)

	if t.config.KeyPath != "" {
		signer, err := loadSigner(t.fs, t.config.KeyPath, t.config.Passphrase)
		if err != nil {
			return nil, cleanup, fmt.Errorf("load key: %w", err)
		}
		auths = append(auths, ssh.PublicKeys(signer))
	}

	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" && t.config.KeyPath == "" {
		if conn, err := net.Dial("unix", sock); err == nil {
			ag := agent.NewClient(conn)
			auths = append(auths, ssh.PublicKeysCallback(ag.Signers))
			cleanup = func() { conn.Close() }
		} else {
			t.log.Debugf("SSH agent unavailable: %v", err)
		}
	}

	if secret != "" {
		auths = append(auths,
			ssh.Password(secret),
			ssh.KeyboardInteractive(func(name, instruction string, questions []string, echos []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range questions {
					answers[i] = secret
				}
				return answers, nil
			}),
		)
	}

	if len(auths) == 0 {
		return nil, cleanup, errors.New("no SSH authentication method available: set a password or a key")
	}
	return auths, cleanup, nil
}

// loadSigner loads a private key with optional passphrase
func loadSigner(fs afero.Fs, path, passphrase string) (ssh.Signer, error) {
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	if passphrase != "" {
		return ssh.ParsePrivateKeyWithPassphrase(b, []byte(passphrase))
	}
	s, err := ssh.ParsePrivateKey(b)
	if err == nil {
		return s, nil
	}
	var passphraseMissingError *ssh.PassphraseMissingError
	if errors.As(err, &passphraseMissingError) {
		return nil, fmt.Errorf("private key is encrypted; provide --passphrase or SWCTL_PASSPHRASE")
	}
	return nil, err
}
