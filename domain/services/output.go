package services

import "strings"

// cleanOutput removes the echoed command line and the trailing prompt line
// from a raw capture and normalizes CRLF line endings.
func cleanOutput(raw, command string, hasPrompt bool) string {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	if hasPrompt {
		lines = lines[:len(lines)-1]
	}
	if len(lines) > 0 && isEcho(lines[0], command) {
		lines = lines[1:]
	}
	return strings.Join(lines, "\n")
}

// isEcho reports whether line is the switch echoing command, possibly
// preceded by the prompt it was typed at.
func isEcho(line, command string) bool {
	cmd := strings.TrimSpace(command)
	if cmd == "" {
		return false
	}
	return strings.HasSuffix(strings.TrimSpace(normalizeLine(line)), cmd)
}

// echoLineStart returns the offset of the first complete line of data that
// echoes command.
func echoLineStart(data, command string) (int, bool) {
	offset := 0
	for {
		i := strings.IndexByte(data[offset:], '\n')
		if i < 0 {
			return 0, false
		}
		if isEcho(data[offset:offset+i], command) {
			return offset, true
		}
		offset += i + 1
	}
}

// unterminatedLine returns what follows the last newline of data, capped
// at maxTailBytes.
func unterminatedLine(data string) string {
	if i := strings.LastIndexByte(data, '\n'); i >= 0 {
		data = data[i+1:]
	}
	if len(data) > maxTailBytes {
		data = data[len(data)-maxTailBytes:]
	}
	return data
}
