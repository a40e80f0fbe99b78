package services

import (
	"fmt"
	"net"
	"regexp"
	"strings"
)

// maxTailBytes bounds the unterminated line kept for prompt matching.
const maxTailBytes = 4096

var (
	ansiRegex = regexp.MustCompile(`\x1b\[[0-9;?]*[a-zA-Z]|\x1b\][^\x07]*\x07|\x1b[()][0-9A-Za-z]`)
	// genericPromptRegex matches any IOS-style prompt and captures the hostname.
	genericPromptRegex = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9_.\-/]*)(?:\([^)\r\n]*\))?[>#]\s*$`)
	passwordRegex      = regexp.MustCompile(`(?i)password:\s*$`)
)

// HostLabel derives the prompt hostname from a host identifier: the first
// DNS label of a name, or "" for an IP literal.
func HostLabel(target string) string {
	host := strings.TrimSpace(target)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")
	if host == "" || net.ParseIP(host) != nil {
		return ""
	}
	if i := strings.IndexByte(host, '.'); i > 0 {
		host = host[:i]
	}
	return host
}

// PromptPattern builds the end-of-line prompt regex for hostname, accepting
// an optional mode such as "(config-if)" before the suffix.
func PromptPattern(hostname, suffix string) (*regexp.Regexp, error) {
	if hostname == "" {
		return nil, fmt.Errorf("empty hostname")
	}
	if suffix == "" {
		suffix = `[>#]`
	}
	return regexp.Compile(`^(?i:` + regexp.QuoteMeta(hostname) + `)(?:\([^)\r\n]*\))?` + suffix + `\s*$`)
}

// learnHostname extracts the hostname from a prompt line printed by the switch.
func learnHostname(line string) string {
	match := genericPromptRegex.FindStringSubmatch(line)
	if len(match) < 2 {
		return ""
	}
	return match[1]
}

// normalizeLine strips carriage returns and terminal escapes before matching.
func normalizeLine(line string) string {
	line = ansiRegex.ReplaceAllString(line, "")
	line = strings.ReplaceAll(line, "\r", "")
	return strings.TrimLeft(line, "\x00")
}

// lineTail tracks the current unterminated line of a stream.
type lineTail struct {
	buf string
}

func (t *lineTail) feed(chunk []byte) {
	s := t.buf + string(chunk)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	if len(s) > maxTailBytes {
		s = s[len(s)-maxTailBytes:]
	}
	t.buf = s
}

func (t *lineTail) line() string {
	return normalizeLine(t.buf)
}
