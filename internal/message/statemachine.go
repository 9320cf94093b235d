package message

import "github.com/looplj/cellhub/internal/errcode"

// NextStatus validates a command against the message's type and current
// status and returns the status it transitions to.
//
// Message-typed messages flip between read and unread freely. Request-typed
// messages accept approved or rejected exactly once; anything after the
// first terminal transition fails, including a repeat of the same command.
func NextStatus(t Type, current Status, cmd Command) (Status, error) {
	if !cmd.Valid() {
		return "", errcode.MessageCommandInvalid.WithParams(string(cmd))
	}

	switch t {
	case TypeMessage:
		if cmd == CommandRead || cmd == CommandUnread {
			return Status(cmd), nil
		}
	case TypeRequest:
		if current.Terminal() {
			break
		}

		if cmd == CommandApproved || cmd == CommandRejected {
			return Status(cmd), nil
		}
	}

	return "", errcode.MessageCommandInvalid.WithParams(string(cmd))
}
