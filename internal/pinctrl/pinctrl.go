// Package pinctrl wraps the Raspberry Pi `pinctrl` tool. It is the fallback
// GPIO backend for hosts where the character device is not usable.
package pinctrl

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

type PinState struct {
	Pin     int
	Mode    string // "ip", "op", "no"
	Pull    string // "pu", "pd", "pn"
	Drive   string // "dh", "dl", ""
	Level   string // "hi", "lo", "--"
	Comment string
}

var pinLineRegex = regexp.MustCompile(`^\s*(\d+):\s+(\S+)\s+(.*?)\s+\|\s+(\S+)\s+//\s+(.*GPIO(\d+).*)$`)

// run executes pinctrl and returns combined output. Replaced in tests.
var run = func(args ...string) ([]byte, error) {
	return exec.Command("pinctrl", args...).CombinedOutput()
}

// ReadAll returns the parsed result of `pinctrl get`, keyed by GPIO number.
func ReadAll() (map[int]PinState, error) {
	out, err := run("get")
	if err != nil {
		return nil, fmt.Errorf("pinctrl get: %w", err)
	}
	return parseGet(strings.NewReader(string(out)))
}

// Level reads the logic level of a pin using `pinctrl lev <pin>`.
func Level(pin int) (bool, error) {
	out, err := run("lev", strconv.Itoa(pin))
	if err != nil {
		return false, fmt.Errorf("pinctrl lev %d: %w", pin, err)
	}
	return parseLevel(string(out))
}

// Drive configures the pin as an output with no pull and drives it high or low.
func Drive(pin int, high bool) error {
	level := "dl"
	if high {
		level = "dh"
	}
	return set(pin, "op", "pn", level)
}

// ConfigureInput configures the pin as an input with the given pull ("pu", "pd", "pn").
func ConfigureInput(pin int, pull string) error {
	return set(pin, "ip", pull)
}

func set(pin int, opts ...string) error {
	args := append([]string{"set", strconv.Itoa(pin)}, opts...)
	out, err := run(args...)
	if err != nil {
		return fmt.Errorf("pinctrl set %d failed: %w (output: %s)", pin, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func parseLevel(output string) (bool, error) {
	switch strings.TrimSpace(output) {
	case "1":
		return true, nil
	case "0":
		return false, nil
	default:
		return false, fmt.Errorf("unexpected output from pinctrl lev: %q", strings.TrimSpace(output))
	}
}

func parseGet(r io.Reader) (map[int]PinState, error) {
	result := make(map[int]PinState)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		matches := pinLineRegex.FindStringSubmatch(scanner.Text())
		if len(matches) != 7 {
			continue
		}

		pin, err := strconv.Atoi(matches[1])
		if err != nil {
			continue
		}
		state := PinState{
			Pin:     pin,
			Mode:    matches[2],
			Level:   matches[4],
			Comment: matches[5],
		}
		for _, opt := range strings.Fields(matches[3]) {
			switch {
			case state.Pull == "" && (opt == "pu" || opt == "pd" || opt == "pn"):
				state.Pull = opt
			case state.Drive == "" && (opt == "dh" || opt == "dl"):
				state.Drive = opt
			}
		}
		result[pin] = state
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan pinctrl output: %w", err)
	}
	return result, nil
}
