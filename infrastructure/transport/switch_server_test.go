package transport

import (
	"bufio"
	"crypto/ed25519"
	"crypto/rand"
	"io"
	"net"
	"strings"
	"sync"
	"testing"

	"golang.org/x/crypto/ssh"
)

// fakeCLI answers command lines the way an IOS exec shell does: echo, reply, prompt.
type fakeCLI struct {
	hostname string
	replies  map[string]string
}

func (c fakeCLI) banner() string {
	return "\r\n" + c.hostname + "#"
}

// answer returns what the switch prints for line and whether the session continues.
func (c fakeCLI) answer(line string) (string, bool) {
	if line == "exit" {
		return "exit\r\n", false
	}
	out := line + "\r\n"
	if reply, ok := c.replies[line]; ok && reply != "" {
		out += strings.ReplaceAll(reply, "\n", "\r\n") + "\r\n"
	}
	return out + c.hostname + "#", true
}

func (c fakeCLI) serve(rw io.ReadWriter) {
	_, _ = rw.Write([]byte(c.banner()))
	br := bufio.NewReader(rw)
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return
		}
		out, more := c.answer(strings.TrimRight(line, "\r\n"))
		if _, err := rw.Write([]byte(out)); err != nil || !more {
			return
		}
	}
}

// sshSwitch is an in-process SSH server with password auth and a PTY shell.
type sshSwitch struct {
	ln   net.Listener
	cli  fakeCLI
	user string
	pass string

	mu      sync.Mutex
	hostKey ssh.Signer
	shells  int
}

func newHostKey(t *testing.T) ssh.Signer {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate host key: %v", err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatalf("host key signer: %v", err)
	}
	return signer
}

func startSSHSwitch(t *testing.T, cli fakeCLI) *sshSwitch {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &sshSwitch{ln: ln, cli: cli, user: "netops", pass: "secret", hostKey: newHostKey(t)}
	t.Cleanup(func() { ln.Close() })
	go s.acceptLoop()
	return s
}

func (s *sshSwitch) port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

func (s *sshSwitch) rotateHostKey(t *testing.T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hostKey = newHostKey(t)
}

func (s *sshSwitch) shellCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shells
}

func (s *sshSwitch) acceptLoop() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *sshSwitch) handle(conn net.Conn) {
	defer conn.Close()
	s.mu.Lock()
	cfg := &ssh.ServerConfig{
		PasswordCallback: func(meta ssh.ConnMetadata, password []byte) (*ssh.Permissions, error) {
			if meta.User() == s.user && string(password) == s.pass {
				return nil, nil
			}
			return nil, errAuthRejected
		},
	}
	cfg.AddHostKey(s.hostKey)
	s.mu.Unlock()

	sc, chans, reqs, err := ssh.NewServerConn(conn, cfg)
	if err != nil {
		return
	}
	defer sc.Close()
	go ssh.DiscardRequests(reqs)

	for newCh := range chans {
		if newCh.ChannelType() != "session" {
			_ = newCh.Reject(ssh.UnknownChannelType, "unsupported")
			continue
		}
		ch, requests, err := newCh.Accept()
		if err != nil {
			return
		}
		go s.session(ch, requests)
	}
}

func (s *sshSwitch) session(ch ssh.Channel, requests <-chan *ssh.Request) {
	defer ch.Close()
	for req := range requests {
		switch req.Type {
		case "pty-req":
			_ = req.Reply(true, nil)
		case "shell":
			_ = req.Reply(true, nil)
			s.mu.Lock()
			s.shells++
			s.mu.Unlock()
			s.cli.serve(ch)
			return
		default:
			_ = req.Reply(false, nil)
		}
	}
}

type authError string

func (e authError) Error() string { return string(e) }

const errAuthRejected = authError("permission denied")
