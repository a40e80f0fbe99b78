package entities

import (
	"net"
	"strconv"
	"strings"
	"time"
)

// Transport and platform identifiers accepted in SwitchConfig.
const (
	TransportSSH    = "ssh"
	TransportTelnet = "telnet"

	PlatformIOS  = "ios"
	PlatformDmOS = "dmos"

	HostKeyTOFU     = "tofu"
	HostKeyStrict   = "strict"
	HostKeyInsecure = "insecure"
)

// Defaults applied by WithDefaults.
const (
	DefaultConnectTimeout = 15 * time.Second
	DefaultCommandTimeout = 30 * time.Second
	DefaultMaxOutputBytes = 1 << 20
)

// SwitchConfig defines how to reach and drive a single switch
type SwitchConfig struct {
	Target           string        `yaml:"target"`
	Port             int           `yaml:"port"`
	Transport        string        `yaml:"transport"`
	Platform         string        `yaml:"platform"`
	Username         string        `yaml:"username"`
	Password         string        `yaml:"password"`
	EnablePassword   string        `yaml:"enable_password"`
	Prompt           string        `yaml:"prompt"`
	KeyPath          string        `yaml:"key"`
	Passphrase       string        `yaml:"passphrase"`
	HostKeyPolicy    string        `yaml:"host_key_policy"`
	KnownHosts       string        `yaml:"known_hosts"`
	LegacyAlgorithms bool          `yaml:"legacy_algorithms"`
	SNMPCommunity    string        `yaml:"snmp_community"`
	ConnectTimeout   time.Duration `yaml:"connect_timeout"`
	CommandTimeout   time.Duration `yaml:"command_timeout"`
	MaxOutputBytes   int           `yaml:"max_output_bytes"`
	Transcript       string        `yaml:"-"`
	VerbosityLevel   int           `yaml:"-"`
}

// IsRawOutputEnabled returns true if raw switch output is enabled
func (sc SwitchConfig) IsRawOutputEnabled() bool {
	return sc.VerbosityLevel == 2 || sc.VerbosityLevel == 3
}

// TransportID returns the normalized transport name, ssh when unset.
func (sc SwitchConfig) TransportID() string {
	t := strings.ToLower(strings.TrimSpace(sc.Transport))
	if t == "" {
		return TransportSSH
	}
	return t
}

// PlatformID returns the normalized platform name, ios when unset.
func (sc SwitchConfig) PlatformID() string {
	p := strings.ToLower(strings.TrimSpace(sc.Platform))
	if p == "" {
		return PlatformIOS
	}
	return p
}

// Host returns the target without an embedded port or IPv6 brackets.
func (sc SwitchConfig) Host() string {
	host, _ := sc.splitTarget()
	return host
}

// Address returns host:port. Port wins over a port embedded in the target
// ("sw1:2222"); with neither, the transport's default port is used.
func (sc SwitchConfig) Address() string {
	host, port := sc.splitTarget()
	if sc.Port != 0 {
		port = sc.Port
	}
	if port == 0 {
		port = 22
		if sc.TransportID() == TransportTelnet {
			port = 23
		}
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

func (sc SwitchConfig) splitTarget() (string, int) {
	target := strings.TrimSpace(sc.Target)
	if host, p, err := net.SplitHostPort(target); err == nil {
		if port, err := strconv.Atoi(p); err == nil {
			return host, port
		}
	}
	return strings.Trim(target, "[]"), 0
}

// WithDefaults returns a copy with zero-valued knobs filled in.
func (sc SwitchConfig) WithDefaults() SwitchConfig {
	out := sc
	out.Transport = sc.TransportID()
	out.Platform = sc.PlatformID()
	if out.HostKeyPolicy == "" {
		out.HostKeyPolicy = HostKeyTOFU
	}
	if out.ConnectTimeout <= 0 {
		out.ConnectTimeout = DefaultConnectTimeout
	}
	if out.CommandTimeout <= 0 {
		out.CommandTimeout = DefaultCommandTimeout
	}
	if out.MaxOutputBytes <= 0 {
		out.MaxOutputBytes = DefaultMaxOutputBytes
	}
	return out
}

// Merge returns sc with every non-zero field of override applied on top.
func (sc SwitchConfig) Merge(override SwitchConfig) SwitchConfig {
	out := sc
	if override.Target != "" {
		out.Target = override.Target
	}
	if override.Port != 0 {
		out.Port = override.Port
	}
	if override.Transport != "" {
		out.Transport = override.Transport
	}
	if override.Platform != "" {
		out.Platform = override.Platform
	}
	if override.Username != "" {
		out.Username = override.Username
	}
	if override.Password != "" {
		out.Password = override.Password
	}
	if override.EnablePassword != "" {
		out.EnablePassword = override.EnablePassword
	}
	if override.Prompt != "" {
		out.Prompt = override.Prompt
	}
	if override.KeyPath != "" {
		out.KeyPath = override.KeyPath
	}
	if override.Passphrase != "" {
		out.Passphrase = override.Passphrase
	}
	if override.HostKeyPolicy != "" {
		out.HostKeyPolicy = override.HostKeyPolicy
	}
	if override.KnownHosts != "" {
		out.KnownHosts = override.KnownHosts
	}
	if override.LegacyAlgorithms {
		out.LegacyAlgorithms = true
	}
	if override.SNMPCommunity != "" {
		out.SNMPCommunity = override.SNMPCommunity
	}
	if override.ConnectTimeout != 0 {
		out.ConnectTimeout = override.ConnectTimeout
	}
	if override.CommandTimeout != 0 {
		out.CommandTimeout = override.CommandTimeout
	}
	if override.MaxOutputBytes != 0 {
		out.MaxOutputBytes = override.MaxOutputBytes
	}
	if override.Transcript != "" {
		out.Transcript = override.Transcript
	}
	if override.VerbosityLevel != 0 {
		out.VerbosityLevel = override.VerbosityLevel
	}
	return out
}
