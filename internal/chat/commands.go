package chat

import (
	"strings"
	"unicode"
)

// Supported commands.
const (
	CmdWho  = "/who"
	CmdUser = "/user"
	CmdHelp = "/help"
)

// Commands lists the supported commands as shown to users.
func Commands() []string {
	return []string{CmdWho, CmdUser + " [newName]", CmdHelp}
}

// Interpreter maps inbound text from a session onto Registry operations.
// It keeps no state of its own.
type Interpreter struct {
	registry *Registry
}

// NewInterpreter creates an Interpreter dispatching into registry.
func NewInterpreter(registry *Registry) *Interpreter {
	return &Interpreter{registry: registry}
}

// Dispatch handles one inbound text payload from identity. Commands are
// matched by prefix in the order /who, /user, /help; any other text starting
// with a slash is an unknown command, and the rest is a chat message. The
// returned error is the rename validation error, if any, and has already been
// reported to the sender.
func (i *Interpreter) Dispatch(identity, text string) error {
	switch {
	case strings.HasPrefix(text, CmdWho):
		i.registry.Who(identity)
	case strings.HasPrefix(text, CmdUser):
		return i.registry.Rename(identity, strings.TrimSpace(strings.TrimPrefix(text, CmdUser)))
	case strings.HasPrefix(text, CmdHelp):
		i.registry.Help(identity)
	case strings.HasPrefix(text, "/"):
		command, _ := splitCommand(text)
		i.registry.SendTo(identity, LabelHelp, "Unknown command "+command)
	default:
		i.registry.Message(identity, text)
	}
	return nil
}

// splitCommand splits text at its first whitespace character into the
// command token and the trimmed remainder.
func splitCommand(text string) (string, string) {
	idx := strings.IndexFunc(text, unicode.IsSpace)
	if idx < 0 {
		return text, ""
	}
	return text[:idx], strings.TrimSpace(text[idx:])
}
