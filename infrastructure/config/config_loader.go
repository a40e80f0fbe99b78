package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/carlosrabelo/swctl/domain/entities"
	"github.com/carlosrabelo/swctl/platform"
)

// Config is the optional YAML inventory. Top-level keys are defaults for
// every switch; entries under switches override them per target.
type Config struct {
	entities.SwitchConfig `yaml:",inline"`
	Switches              []entities.SwitchConfig `yaml:"switches"`
}

func validateTransport(transport string) error {
	switch transport {
	case "", entities.TransportSSH, entities.TransportTelnet:
		return nil
	default:
		return fmt.Errorf("transport %s is invalid, must be 'ssh' or 'telnet'", transport)
	}
}

func validatePlatform(name string) error {
	if name == "" {
		return nil
	}
	if _, err := platform.Get(name); err != nil {
		return fmt.Errorf("platform %s is invalid, must be one of: %s", name, strings.Join(platform.Names(), ", "))
	}
	return nil
}

func validateHostKeyPolicy(policy string) error {
	switch policy {
	case "", entities.HostKeyTOFU, entities.HostKeyStrict, entities.HostKeyInsecure:
		return nil
	default:
		return fmt.Errorf("host_key_policy %s is invalid, must be 'tofu', 'strict' or 'insecure'", policy)
	}
}

// Validate normalizes the enumerated fields of sc and checks their values.
// context prefixes every error message.
func Validate(sc *entities.SwitchConfig, context string) error {
	sc.Transport = strings.ToLower(strings.TrimSpace(sc.Transport))
	sc.Platform = strings.ToLower(strings.TrimSpace(sc.Platform))
	sc.HostKeyPolicy = strings.ToLower(strings.TrimSpace(sc.HostKeyPolicy))

	if err := validateTransport(sc.Transport); err != nil {
		return fmt.Errorf("%s: %w", context, err)
	}
	if err := validatePlatform(sc.Platform); err != nil {
		return fmt.Errorf("%s: %w", context, err)
	}
	if err := validateHostKeyPolicy(sc.HostKeyPolicy); err != nil {
		return fmt.Errorf("%s: %w", context, err)
	}
	if sc.Port < 0 || sc.Port > 65535 {
		return fmt.Errorf("%s: port %d is out of range", context, sc.Port)
	}
	if _, p, err := net.SplitHostPort(sc.Target); err == nil {
		port, err := strconv.Atoi(p)
		if err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("%s: target %s has an invalid port", context, sc.Target)
		}
		if sc.Port != 0 && sc.Port != port {
			return fmt.Errorf("%s: target %s conflicts with port %d", context, sc.Target, sc.Port)
		}
	}
	if sc.ConnectTimeout < 0 || sc.CommandTimeout < 0 {
		return fmt.Errorf("%s: timeouts must not be negative", context)
	}
	if sc.MaxOutputBytes < 0 {
		return fmt.Errorf("%s: max_output_bytes must not be negative", context)
	}
	return nil
}

// Load reads and validates the inventory at path.
func Load(fs afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read YAML file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates an inventory document. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Target != "" {
		return nil, fmt.Errorf("global target is not allowed, list switches under 'switches'")
	}
	if err := Validate(&cfg.SwitchConfig, "global"); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	for i := range cfg.Switches {
		sw := &cfg.Switches[i]
		sw.Target = strings.TrimSpace(sw.Target)
		if sw.Target == "" {
			return nil, fmt.Errorf("switches[%d]: target is required", i)
		}
		key := strings.ToLower(sw.Target)
		if seen[key] {
			return nil, fmt.Errorf("switches[%d]: duplicate target %s", i, sw.Target)
		}
		seen[key] = true
		if err := Validate(sw, fmt.Sprintf("switch %s", sw.Target)); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// Lookup returns the settings for target: the globals with the matching
// switch entry applied on top. Targets missing from the inventory get the
// globals alone.
func (c *Config) Lookup(target string) entities.SwitchConfig {
	out := c.SwitchConfig
	out.Target = target
	for _, sw := range c.Switches {
		if strings.EqualFold(sw.Target, target) {
			merged := out.Merge(sw)
			merged.Target = target
			return merged
		}
	}
	return out
}

// Targets lists the inventory switches in file order.
func (c *Config) Targets() []string {
	targets := make([]string, 0, len(c.Switches))
	for _, sw := range c.Switches {
		targets = append(targets, sw.Target)
	}
	return targets
}
