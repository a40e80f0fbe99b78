package transport

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/carlosrabelo/swctl/domain/entities"
	"github.com/carlosrabelo/swctl/domain/ports"
)

// Options carries the collaborators shared by every transport.
type Options struct {
	Fs  afero.Fs
	Log logrus.FieldLogger
}

// New returns the transport selected by cfg, wrapped with a transcript
// recorder when one is configured.
func New(cfg entities.SwitchConfig, login LoginSequencer, opts Options) (ports.Transport, error) {
	cfg = cfg.WithDefaults()
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}

	var t ports.Transport
	switch cfg.TransportID() {
	case entities.TransportSSH:
		t = NewSSHTransport(cfg, opts.Fs, opts.Log)
	case entities.TransportTelnet:
		t = NewTelnetTransport(cfg, login, opts.Log)
	default:
		return nil, fmt.Errorf("unknown transport: %s", cfg.Transport)
	}

	if cfg.Transcript != "" {
		t = WithTranscript(t, opts.Fs, cfg.Transcript, opts.Log)
	}
	return t, nil
}
