package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/carlosrabelo/swctl/domain/entities"
	"github.com/carlosrabelo/swctl/platform"
)

// Flag names, also used as viper keys. Every flag can be set from the
// environment as SWCTL_<NAME>, dashes replaced by underscores.
const (
	flagSwitchname     = "switchname"
	flagUsername       = "username"
	flagPassword       = "password"
	flagCommand        = "command"
	flagFile           = "file"
	flagVerbose        = "verbose"
	flagDebug          = "debug"
	flagTranscript     = "transcript"
	flagTransport      = "transport"
	flagPort           = "port"
	flagPlatform       = "platform"
	flagPrompt         = "prompt"
	flagEnablePassword = "enable-password"
	flagKey            = "key"
	flagPassphrase     = "passphrase"
	flagHostKeyPolicy  = "host-key-policy"
	flagKnownHosts     = "known-hosts"
	flagLegacy         = "legacy-algorithms"
	flagSNMPCommunity  = "snmp-community"
	flagCmdTimeout     = "cmd-timeout"
	flagConnTimeout    = "conn-timeout"
	flagMaxOutput      = "max-output"
	flagConfig         = "config"
)

const envPrefix = "SWCTL"

// bindFlags declares the command line surface and binds it to v.
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	f := cmd.Flags()
	f.StringSliceP(flagSwitchname, "s", nil, "switch to connect to (repeatable; hosts may also be given as arguments)")
	f.StringP(flagUsername, "u", "", "login name (default: current user)")
	f.StringP(flagPassword, "p", "", "login password (default: prompt on the terminal)")
	f.StringP(flagCommand, "c", "", "run a single command")
	f.StringP(flagFile, "f", "", "run every non-empty line of a file as a command")
	f.BoolP(flagVerbose, "v", false, "log progress to stderr")
	f.BoolP(flagDebug, "d", false, "log debug detail and raw switch output to stderr")
	f.String(flagTranscript, "", "record everything the switch sends to this file (default with --debug: swctl-<host>.log)")
	f.String(flagTransport, "", "ssh or telnet (default ssh)")
	f.Int(flagPort, 0, "port (default 22 for ssh, 23 for telnet)")
	f.String(flagPlatform, "", fmt.Sprintf("switch platform: %s (default %s)", strings.Join(platform.Names(), ", "), entities.PlatformIOS))
	f.String(flagPrompt, "", "prompt regular expression, overrides hostname detection")
	f.String(flagEnablePassword, "", "enable secret for privileged mode")
	f.String(flagKey, "", "SSH private key file")
	f.String(flagPassphrase, "", "passphrase of the SSH private key")
	f.String(flagHostKeyPolicy, "", "host key checking: tofu, strict or insecure (default tofu)")
	f.String(flagKnownHosts, "", "known_hosts file (default ~/.ssh/known_hosts)")
	f.Bool(flagLegacy, false, "offer legacy SSH key exchanges and ciphers for old switches")
	f.String(flagSNMPCommunity, "", "SNMP community used to read the hostname of IP targets")
	f.Duration(flagCmdTimeout, 0, "per-command timeout (default 30s)")
	f.Duration(flagConnTimeout, 0, "connection and login timeout (default 15s)")
	f.Int(flagMaxOutput, 0, "maximum bytes captured per command (default 1048576)")
	f.String(flagConfig, "", "YAML inventory (default: swctl.yaml, then the user and system config dirs)")

	_ = v.BindPFlags(f)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}
