package play

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ValentinKolb/dHangman/rpc/client"
	"github.com/ValentinKolb/dHangman/rpc/common"
	"github.com/ValentinKolb/dHangman/rpc/transport"
)

const (
	prompt = "> "

	welcomeMessage = "Welcome to the Hangman Game!\n" +
		"At any time you can type HELP to see a list of instructions, if you feel you need it."

	commandsDescription = "    CONNECT: connects you to the server.\n" +
		"    DISCONNECT: disconnects you from the server.\n" +
		"    USER [name]: change your screen name.\n" +
		"    START: start a new game.\n" +
		"    GUESS [letter|word]: make a guess, letter or whole word.\n" +
		"    RULES: shows the rules of the game.\n" +
		"    SCORE: shows your score.\n" +
		"    QUIT: leaves the game.\n"

	unknownCommandMessage   = "That is not a known command, type HELP to see a list of instructions."
	missingArgumentMessage  = "Arguments were missing, type HELP to see a list of instructions."
	connectedMessage        = "Connected to the server!"
	notConnectedMessage     = "You are not connected, type CONNECT to join the server."
	alreadyConnectedMessage = "You are already connected."
)

// printer serializes the output of the prompt and of the event listener
type printer struct {
	mu  sync.Mutex
	out io.Writer
}

func (p *printer) print(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = io.WriteString(p.out, s)
}

func (p *printer) println(s string) {
	p.print(s + "\n")
}

// interpreter reads line commands and forwards them to a participant.
// It is also the listener of that participant.
type interpreter struct {
	client  client.IRPCClient
	printer *printer
}

func newInterpreter(out io.Writer) *interpreter {
	return &interpreter{printer: &printer{out: out}}
}

// run prints the welcome banner and executes the lines of in until QUIT or end of input
func (i *interpreter) run(in io.Reader) error {
	i.printer.println(welcomeMessage)
	i.printer.print(prompt)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if quit := i.execute(scanner.Text()); quit {
			break
		}
		i.printer.print(prompt)
	}

	// leave the game politely, a missing connection is fine
	if err := i.client.Disconnect(); err != nil && !errors.Is(err, transport.ErrNotConnected) {
		Logger.Debugf("disconnect on exit: %v", err)
	}
	i.client.Shutdown()

	return scanner.Err()
}

// execute runs one line command and reports whether the interpreter should stop
func (i *interpreter) execute(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	// the field delimiter of the wire format is never part of an argument
	argument := func() (string, bool) {
		if len(fields) < 2 {
			return "", false
		}
		arg := strings.ReplaceAll(fields[1], "|", "")
		return arg, arg != ""
	}

	var err error
	switch strings.ToUpper(fields[0]) {
	case "CONNECT":
		err = i.client.Connect()
	case "DISCONNECT":
		err = i.client.Disconnect()
	case "USER":
		name, ok := argument()
		if !ok {
			i.printer.println(missingArgumentMessage)
			return false
		}
		err = i.client.Username(name)
	case "START":
		err = i.client.Start()
	case "GUESS":
		text, ok := argument()
		if !ok {
			i.printer.println(missingArgumentMessage)
			return false
		}
		err = i.client.Guess(text)
	case "RULES":
		err = i.client.Rules()
	case "SCORE":
		err = i.client.Score()
	case "HELP":
		i.printer.println(commandsDescription)
	case "QUIT", "EXIT":
		return true
	default:
		i.printer.println(unknownCommandMessage)
	}

	switch {
	case err == nil:
	case errors.Is(err, transport.ErrNotConnected), errors.Is(err, transport.ErrClosed):
		i.printer.println(notConnectedMessage)
	case errors.Is(err, transport.ErrAlreadyConnected):
		i.printer.println(alreadyConnectedMessage)
	default:
		i.printer.println(fmt.Sprintf("Something went wrong: %v", err))
	}
	return false
}

// --------------------------------------------------------------------------
// Interface Methods (docu see client.IListener)
// --------------------------------------------------------------------------

func (i *interpreter) OnConnected() {
	i.relay(connectedMessage)
}

func (i *interpreter) OnMessage(msg common.Message) {
	i.relay(client.Render(msg))
}

func (i *interpreter) OnDisconnected(err error) {
	if err != nil {
		i.relay(fmt.Sprintf("Lost the connection to the server (%v).", err))
		return
	}
	i.relay("Disconnected from the server.")
}

// relay prints a line from the coordinator and restores the prompt
func (i *interpreter) relay(s string) {
	i.printer.mu.Lock()
	defer i.printer.mu.Unlock()
	_, _ = io.WriteString(i.printer.out, "\n"+s+"\n"+prompt)
}
