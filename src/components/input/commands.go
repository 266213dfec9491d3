package input

import "strings"

// Command is a slash-command recognized in the input box.
type Command int

const (
	CommandNone Command = iota
	CommandMarkets
	CommandCategories
)

func (c Command) String() string {
	switch c {
	case CommandMarkets:
		return "/markets"
	case CommandCategories:
		return "/categories"
	default:
		return ""
	}
}

// ParseCommand matches the trimmed text against the known commands,
// ignoring case. Anything else, including commands with arguments, is
// CommandNone.
func ParseCommand(text string) Command {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "/markets":
		return CommandMarkets
	case "/categories":
		return CommandCategories
	default:
		return CommandNone
	}
}
