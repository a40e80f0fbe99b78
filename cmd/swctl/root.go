package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	appservices "github.com/carlosrabelo/swctl/application/services"
	"github.com/carlosrabelo/swctl/domain/entities"
	"github.com/carlosrabelo/swctl/domain/ports"
	"github.com/carlosrabelo/swctl/domain/services"
	"github.com/carlosrabelo/swctl/infrastructure/config"
	"github.com/carlosrabelo/swctl/infrastructure/transport"
	"github.com/carlosrabelo/swctl/platform"
)

type transportFactory func(cfg entities.SwitchConfig, login transport.LoginSequencer, opts transport.Options) (ports.Transport, error)

// newRootCmd builds the swctl command bound to env.
func newRootCmd(env *environment) *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "swctl [flags] [host...]",
		Short: "Run CLI commands on network switches and print the output of show commands",
		Long: `swctl logs in to one or more switches over SSH or telnet, runs a single
command (-c) or every line of a file (-f), and prints the output of each
command containing "show" to stdout. Logs go to stderr.`,
		Version:       fmt.Sprintf("%s (built %s)", version, buildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), env, v, args)
		},
	}
	cmd.SetOut(env.stdout)
	cmd.SetErr(env.stderr)
	bindFlags(cmd, v)
	return cmd
}

func run(ctx context.Context, env *environment, v *viper.Viper, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	debug := v.GetBool(flagDebug)
	log := newLogger(env.stderr, v.GetBool(flagVerbose), debug)

	command, file := v.GetString(flagCommand), v.GetString(flagFile)
	switch {
	case command == "" && file == "":
		return &services.InputError{Err: errors.New("one of --command or --file is required")}
	case command != "" && file != "":
		return &services.InputError{Err: errors.New("--command and --file are mutually exclusive")}
	}

	inventory, err := loadInventory(env, v, log)
	if err != nil {
		return err
	}

	targets := collectTargets(v.GetStringSlice(flagSwitchname), args)
	if len(targets) == 0 && inventory != nil {
		targets = inventory.Targets()
	}
	if len(targets) == 0 {
		return &services.InputError{Err: errors.New("no switch given: use --switchname or pass hosts as arguments")}
	}

	var commands []string
	if command != "" {
		commands = []string{command}
	} else {
		commands, err = config.ReadCommandFile(env.fs, file)
		if err != nil {
			return err
		}
	}
	if len(commands) == 0 {
		log.Warn("No commands to run")
		return nil
	}

	overrides := flagOverrides(v)
	if debug {
		overrides.VerbosityLevel = 3
	}
	configs := make(map[string]entities.SwitchConfig, len(targets))
	for _, target := range targets {
		base := entities.SwitchConfig{Target: target}
		if inventory != nil {
			base = inventory.Lookup(target)
		}
		cfg := base.Merge(overrides)
		if err := config.Validate(&cfg, target); err != nil {
			return &services.InputError{Err: err}
		}
		if cfg.Username == "" {
			cfg.Username = env.currentUser()
		}
		if cfg.KnownHosts == "" {
			if home := env.homeDir(); home != "" {
				cfg.KnownHosts = filepath.Join(home, ".ssh", "known_hosts")
			}
		}
		if debug && cfg.Transcript == "" {
			cfg.Transcript = transcriptPath(target)
		}
		configs[target] = cfg
	}

	if err := askPassword(env, configs, targets, log); err != nil {
		return err
	}

	factory := func(target string) (ports.CommandRunner, error) {
		session, err := newSession(env, configs[target], log)
		if err != nil {
			return nil, err
		}
		return session, nil
	}
	batch := appservices.NewBatchService(factory, env.stdout, log)
	return batch.Run(ctx, targets, commands)
}

// newSession wires transport, dialect and hostname resolver for one switch.
func newSession(env *environment, cfg entities.SwitchConfig, log logrus.FieldLogger) (*services.Session, error) {
	driver, err := platform.Get(cfg.PlatformID())
	if err != nil {
		return nil, &services.InputError{Err: err}
	}
	t, err := env.newTransport(cfg, driver, transport.Options{Fs: env.fs, Log: log.WithField("host", cfg.Target)})
	if err != nil {
		return nil, &services.InputError{Err: err}
	}
	opts := []services.Option{services.WithLogger(log)}
	if cfg.SNMPCommunity != "" {
		opts = append(opts, services.WithHostnameResolver(transport.NewSNMPResolver(cfg.SNMPCommunity, log)))
	}
	return services.NewSession(cfg, t, driver, opts...), nil
}

func loadInventory(env *environment, v *viper.Viper, log logrus.FieldLogger) (*config.Config, error) {
	path := v.GetString(flagConfig)
	if path == "" {
		found, ok := config.Find(env.fs, config.DefaultPaths())
		if !ok {
			return nil, nil
		}
		path = found
	}
	log.Infof("Loading inventory %s", path)
	inventory, err := config.Load(env.fs, path)
	if err != nil {
		return nil, &services.InputError{Err: fmt.Errorf("inventory: %w", err)}
	}
	return inventory, nil
}

// collectTargets merges --switchname values and positional hosts, keeping
// the first occurrence of each.
func collectTargets(lists ...[]string) []string {
	var targets []string
	seen := make(map[string]bool)
	for _, list := range lists {
		for _, item := range list {
			for _, target := range strings.Split(item, ",") {
				target = strings.TrimSpace(target)
				if target == "" || seen[strings.ToLower(target)] {
					continue
				}
				seen[strings.ToLower(target)] = true
				targets = append(targets, target)
			}
		}
	}
	return targets
}

func flagOverrides(v *viper.Viper) entities.SwitchConfig {
	return entities.SwitchConfig{
		Port:             v.GetInt(flagPort),
		Transport:        v.GetString(flagTransport),
		Platform:         v.GetString(flagPlatform),
		Username:         v.GetString(flagUsername),
		Password:         v.GetString(flagPassword),
		EnablePassword:   v.GetString(flagEnablePassword),
		Prompt:           v.GetString(flagPrompt),
		KeyPath:          v.GetString(flagKey),
		Passphrase:       v.GetString(flagPassphrase),
		HostKeyPolicy:    v.GetString(flagHostKeyPolicy),
		KnownHosts:       v.GetString(flagKnownHosts),
		LegacyAlgorithms: v.GetBool(flagLegacy),
		SNMPCommunity:    v.GetString(flagSNMPCommunity),
		ConnectTimeout:   v.GetDuration(flagConnTimeout),
		CommandTimeout:   v.GetDuration(flagCmdTimeout),
		MaxOutputBytes:   v.GetInt(flagMaxOutput),
		Transcript:       v.GetString(flagTranscript),
	}
}

// askPassword prompts once on the terminal when some switch has neither a
// password nor a key, and hands the answer to all of them.
func askPassword(env *environment, configs map[string]entities.SwitchConfig, targets []string, log logrus.FieldLogger) error {
	var missing []string
	for _, target := range targets {
		cfg := configs[target]
		if cfg.Password == "" && cfg.KeyPath == "" {
			missing = append(missing, target)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	user := configs[missing[0]].Username
	password, err := env.readPassword(fmt.Sprintf("Password for %s: ", user))
	if errors.Is(err, errNoTerminal) {
		log.Info("No password given and stdin is not a terminal, trying without one")
		return nil
	}
	if err != nil {
		return &services.InputError{Err: fmt.Errorf("read password: %w", err)}
	}
	for _, target := range missing {
		cfg := configs[target]
		cfg.Password = password
		configs[target] = cfg
	}
	return nil
}

func transcriptPath(target string) string {
	name := strings.NewReplacer(":", "_", "/", "_", "[", "", "]", "").Replace(target)
	return fmt.Sprintf("swctl-%s.log", name)
}
