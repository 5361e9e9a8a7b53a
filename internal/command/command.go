// Package command decodes operator overrides arriving over the serial line or
// the HTTP API and queues them for the control loop, one per tick.
package command

import (
	"fmt"
	"strings"
)

type Command int

const (
	None Command = iota
	Automatic
	ManualIdle
	ManualFilter
	ManualClean
	BridgeInlet
	BridgeDrain
	BridgeFiltered
	BridgeBridge
	Off
	ClearBreach
	Fault
)

var names = map[Command]string{
	None:           "none",
	Automatic:      "automatic",
	ManualIdle:     "manual-idle",
	ManualFilter:   "manual-filter",
	ManualClean:    "manual-clean",
	BridgeInlet:    "bridge-inlet",
	BridgeDrain:    "bridge-drain",
	BridgeFiltered: "bridge-filtered",
	BridgeBridge:   "bridge-bridge",
	Off:            "off",
	ClearBreach:    "clear-breach",
	Fault:          "fault",
}

var letters = map[byte]Command{
	'a': Automatic,
	'b': ManualIdle,
	'c': ManualFilter,
	'd': ManualClean,
	'1': BridgeInlet,
	'2': BridgeDrain,
	'3': BridgeFiltered,
	'4': BridgeBridge,
	'o': Off,
	'r': ClearBreach,
	'p': Fault,
}

func (c Command) String() string {
	if n, ok := names[c]; ok {
		return n
	}
	return fmt.Sprintf("command(%d)", int(c))
}

// Decode maps a single serial byte to a command. Unknown bytes are not ok and
// must be ignored by the caller.
func Decode(b byte) (Command, bool) {
	c, ok := letters[b]
	return c, ok
}

// Parse accepts the command names used by the HTTP API.
func Parse(name string) (Command, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for c, n := range names {
		if c != None && n == name {
			return c, nil
		}
	}
	return None, fmt.Errorf("unknown command %q", name)
}

// Names lists every accepted command name.
func Names() []string {
	out := make([]string, 0, len(names)-1)
	for c := Automatic; c <= Fault; c++ {
		out = append(out, names[c])
	}
	return out
}
