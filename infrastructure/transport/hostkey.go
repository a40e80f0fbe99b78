package transport

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/carlosrabelo/swctl/domain/entities"
)

// knownHostsMu serializes appends when several sessions learn keys at once.
var knownHostsMu sync.Mutex

// HostKeyCallback builds the host key check for policy. known_hosts is
// parsed from the real file system path; trust-on-first-use appends go
// through fs.
func HostKeyCallback(fs afero.Fs, policy, path string, log logrus.FieldLogger) (ssh.HostKeyCallback, error) {
	switch policy {
	case entities.HostKeyInsecure:
		log.Warn("Host key verification disabled")
		return ssh.InsecureIgnoreHostKey(), nil
	case entities.HostKeyStrict:
		if path == "" {
			return nil, errors.New("strict host key checking needs a known_hosts file")
		}
		if _, err := fs.Stat(path); err != nil {
			return nil, fmt.Errorf("known_hosts file not found at %s and strict host key checking is enabled", path)
		}
		cb, err := knownhosts.New(path)
		if err != nil {
			return nil, fmt.Errorf("known_hosts: %w", err)
		}
		return cb, nil
	case entities.HostKeyTOFU, "":
		return tofuCallback(fs, path, log)
	default:
		return nil, fmt.Errorf("unknown host key policy: %s", policy)
	}
}

// tofuCallback accepts and records keys of unknown hosts but still rejects
// a host whose recorded key changed.
func tofuCallback(fs afero.Fs, path string, log logrus.FieldLogger) (ssh.HostKeyCallback, error) {
	if path == "" {
		log.Warn("No known_hosts file configured, host keys are accepted without being recorded")
		return ssh.InsecureIgnoreHostKey(), nil
	}
	if err := ensureFile(fs, path); err != nil {
		log.Warnf("Cannot create %s, host keys are accepted without being recorded: %v", path, err)
		return ssh.InsecureIgnoreHostKey(), nil
	}
	known, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf("known_hosts: %w", err)
	}

	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		err := known(hostname, remote, key)
		var keyErr *knownhosts.KeyError
		if !errors.As(err, &keyErr) || len(keyErr.Want) > 0 {
			return err
		}
		addresses := []string{knownhosts.Normalize(hostname)}
		if remote != nil {
			if ra := knownhosts.Normalize(remote.String()); ra != addresses[0] {
				addresses = append(addresses, ra)
			}
		}
		if err := appendKnownHost(fs, path, knownhosts.Line(addresses, key)); err != nil {
			log.Warnf("Cannot record host key for %s in %s: %v", hostname, path, err)
			return nil
		}
		log.Warnf("Permanently added %s (%s) to %s", hostname, key.Type(), path)
		return nil
	}, nil
}

func ensureFile(fs afero.Fs, path string) error {
	if _, err := fs.Stat(path); err == nil {
		return nil
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	f, err := fs.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	return f.Close()
}

func appendKnownHost(fs afero.Fs, path, line string) error {
	knownHostsMu.Lock()
	defer knownHostsMu.Unlock()
	f, err := fs.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
