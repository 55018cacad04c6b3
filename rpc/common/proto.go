package common

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Command Types
// --------------------------------------------------------------------------

// Command is the tag in field 0 of every frame
type Command string

const (
	CmdGuess      Command = "GUESS"
	CmdState      Command = "STATE"
	CmdUser       Command = "USER"
	CmdStart      Command = "START"
	CmdDisconnect Command = "DISCONNECT"
	CmdScore      Command = "SCORE"
	CmdRunning    Command = "RUNNING"
	CmdNotRunning Command = "NOT_RUNNING"
	CmdRules      Command = "RULES"
)

// DefaultLabel is the identity of a participant until it renames itself
const DefaultLabel = "ANONYMOUS"

var (
	// ErrUnknownCommand is returned for an unrecognized or empty tag
	ErrUnknownCommand = errors.New("proto: unknown command")
	// ErrMissingArgument is returned when a command lacks a required field
	ErrMissingArgument = errors.New("proto: missing argument")
	// ErrInvalidArgument is returned when a typed field cannot be parsed
	ErrInvalidArgument = errors.New("proto: invalid argument")
	// ErrWrongDirection is returned when a command is not valid in the given direction
	ErrWrongDirection = errors.New("proto: command not valid in this direction")
)

// String returns the wire tag
func (c Command) String() string {
	return string(c)
}

// --------------------------------------------------------------------------
// Message
// --------------------------------------------------------------------------

// GameState is the STATE payload
type GameState struct {
	Masked       string
	AttemptsLeft int
	Won          bool
	Guessed      string
	Length       int
}

// Message is the parsed form of a frame. Only the fields of the command's
// shape are set, the others keep their zero value.
//
// Requests (participant -> coordinator):
//
//	START | GUESS text | USER newLabel | SCORE | RULES | DISCONNECT
//
// Events (coordinator -> participant):
//
//	GUESS player text | STATE masked attempts won guessed length | USER old new |
//	START player | DISCONNECT player | SCORE n | RUNNING | NOT_RUNNING | RULES text
type Message struct {
	Cmd Command

	// Player is the acting participant (GUESS, START, DISCONNECT events)
	Player string
	// Text is the guess (GUESS) or the rules (RULES event)
	Text string
	// OldLabel and NewLabel are used by USER. Requests only set NewLabel.
	OldLabel string
	NewLabel string
	// Score is the SCORE reply
	Score int
	// State is the STATE event payload
	State GameState
}

// --------------------------------------------------------------------------
// Factory Methods (requests)
// --------------------------------------------------------------------------

func NewStartRequest() Message            { return Message{Cmd: CmdStart} }
func NewGuessRequest(text string) Message { return Message{Cmd: CmdGuess, Text: text} }
func NewUserRequest(label string) Message { return Message{Cmd: CmdUser, NewLabel: label} }
func NewScoreRequest() Message            { return Message{Cmd: CmdScore} }
func NewRulesRequest() Message            { return Message{Cmd: CmdRules} }
func NewDisconnectRequest() Message       { return Message{Cmd: CmdDisconnect} }

// --------------------------------------------------------------------------
// Factory Methods (events)
// --------------------------------------------------------------------------

func NewGuessEvent(player, text string) Message {
	return Message{Cmd: CmdGuess, Player: player, Text: text}
}

func NewStateEvent(state GameState) Message {
	return Message{Cmd: CmdState, State: state}
}

func NewUserEvent(oldLabel, newLabel string) Message {
	return Message{Cmd: CmdUser, OldLabel: oldLabel, NewLabel: newLabel}
}

func NewStartEvent(player string) Message      { return Message{Cmd: CmdStart, Player: player} }
func NewDisconnectEvent(player string) Message { return Message{Cmd: CmdDisconnect, Player: player} }
func NewScoreEvent(score int) Message          { return Message{Cmd: CmdScore, Score: score} }
func NewRunningEvent() Message                 { return Message{Cmd: CmdRunning} }
func NewNotRunningEvent() Message              { return Message{Cmd: CmdNotRunning} }
func NewRulesEvent(text string) Message        { return Message{Cmd: CmdRules, Text: text} }

// --------------------------------------------------------------------------
// Field conversion
// --------------------------------------------------------------------------

// RequestFields returns the wire fields of a participant request
func (m Message) RequestFields() []string {
	switch m.Cmd {
	case CmdGuess:
		return []string{string(m.Cmd), m.Text}
	case CmdUser:
		return []string{string(m.Cmd), m.NewLabel}
	default:
		return []string{string(m.Cmd)}
	}
}

// EventFields returns the wire fields of a coordinator event
func (m Message) EventFields() []string {
	switch m.Cmd {
	case CmdGuess:
		return []string{string(m.Cmd), m.Player, m.Text}
	case CmdState:
		return []string{
			string(m.Cmd),
			m.State.Masked,
			strconv.Itoa(m.State.AttemptsLeft),
			strconv.FormatBool(m.State.Won),
			m.State.Guessed,
			strconv.Itoa(m.State.Length),
		}
	case CmdUser:
		return []string{string(m.Cmd), m.OldLabel, m.NewLabel}
	case CmdStart, CmdDisconnect:
		return []string{string(m.Cmd), m.Player}
	case CmdScore:
		return []string{string(m.Cmd), strconv.Itoa(m.Score)}
	case CmdRules:
		return []string{string(m.Cmd), m.Text}
	default:
		return []string{string(m.Cmd)}
	}
}

// ParseRequest converts the fields of a frame received by the coordinator.
// The tag is case-insensitive and surplus fields are ignored.
func ParseRequest(fields []string) (Message, error) {
	cmd, err := parseTag(fields)
	if err != nil {
		return Message{}, err
	}

	switch cmd {
	case CmdStart, CmdScore, CmdRules, CmdDisconnect:
		return Message{Cmd: cmd}, nil
	case CmdGuess:
		text, err := argument(fields, 1)
		if err != nil {
			return Message{}, fmt.Errorf("%s: %w", cmd, err)
		}
		return NewGuessRequest(text), nil
	case CmdUser:
		label, err := argument(fields, 1)
		if err != nil {
			return Message{}, fmt.Errorf("%s: %w", cmd, err)
		}
		return NewUserRequest(label), nil
	default:
		return Message{}, fmt.Errorf("%s: %w", cmd, ErrWrongDirection)
	}
}

// ParseEvent converts the fields of a frame received by a participant
func ParseEvent(fields []string) (Message, error) {
	cmd, err := parseTag(fields)
	if err != nil {
		return Message{}, err
	}

	// every field the shape requires must be present
	need := map[Command]int{
		CmdGuess: 3, CmdState: 6, CmdUser: 3, CmdStart: 2, CmdDisconnect: 2,
		CmdScore: 2, CmdRunning: 1, CmdNotRunning: 1, CmdRules: 2,
	}[cmd]
	if len(fields) < need {
		return Message{}, fmt.Errorf("%s: expected %d fields, got %d: %w", cmd, need, len(fields), ErrMissingArgument)
	}

	switch cmd {
	case CmdGuess:
		return NewGuessEvent(fields[1], fields[2]), nil
	case CmdState:
		attempts, err := strconv.Atoi(fields[2])
		if err != nil {
			return Message{}, fmt.Errorf("%s attempts %q: %w", cmd, fields[2], ErrInvalidArgument)
		}
		won, err := strconv.ParseBool(fields[3])
		if err != nil {
			return Message{}, fmt.Errorf("%s won %q: %w", cmd, fields[3], ErrInvalidArgument)
		}
		length, err := strconv.Atoi(fields[5])
		if err != nil {
			return Message{}, fmt.Errorf("%s length %q: %w", cmd, fields[5], ErrInvalidArgument)
		}
		return NewStateEvent(GameState{
			Masked:       fields[1],
			AttemptsLeft: attempts,
			Won:          won,
			Guessed:      fields[4],
			Length:       length,
		}), nil
	case CmdUser:
		return NewUserEvent(fields[1], fields[2]), nil
	case CmdStart:
		return NewStartEvent(fields[1]), nil
	case CmdDisconnect:
		return NewDisconnectEvent(fields[1]), nil
	case CmdScore:
		score, err := strconv.Atoi(fields[1])
		if err != nil {
			return Message{}, fmt.Errorf("%s %q: %w", cmd, fields[1], ErrInvalidArgument)
		}
		return NewScoreEvent(score), nil
	case CmdRunning:
		return NewRunningEvent(), nil
	case CmdNotRunning:
		return NewNotRunningEvent(), nil
	default: // CmdRules
		return NewRulesEvent(fields[1]), nil
	}
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func parseTag(fields []string) (Command, error) {
	if len(fields) == 0 {
		return "", ErrUnknownCommand
	}

	cmd := Command(strings.ToUpper(strings.TrimSpace(fields[0])))
	switch cmd {
	case CmdGuess, CmdState, CmdUser, CmdStart, CmdDisconnect, CmdScore, CmdRunning, CmdNotRunning, CmdRules:
		return cmd, nil
	default:
		return "", fmt.Errorf("%q: %w", fields[0], ErrUnknownCommand)
	}
}

func argument(fields []string, i int) (string, error) {
	if len(fields) <= i {
		return "", ErrMissingArgument
	}
	arg := strings.TrimSpace(fields[i])
	if arg == "" {
		return "", ErrMissingArgument
	}
	return arg, nil
}
