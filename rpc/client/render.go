package client

import (
	"strconv"

	"github.com/ValentinKolb/dHangman/rpc/common"
)

// Render turns a coordinator event into the text shown to the player
func Render(msg common.Message) string {
	switch msg.Cmd {
	case common.CmdGuess:
		return msg.Player + " guessed: " + msg.Text
	case common.CmdState:
		s := msg.State
		var outlook string
		switch {
		case s.AttemptsLeft < 1 && !s.Won:
			outlook = "Game over, better luck next time..."
		case s.Won:
			outlook = "Good job, you won!"
		default:
			outlook = strconv.Itoa(s.AttemptsLeft) + " attempts to go."
		}
		return strconv.Itoa(s.Length) + " letter word: " + s.Masked + "\n" +
			outlook + "\n" +
			"\n" +
			"Previously guessed:\n" +
			s.Guessed
	case common.CmdUser:
		return msg.OldLabel + " changed name to " + msg.NewLabel
	case common.CmdStart:
		return msg.Player + " started a new game!"
	case common.CmdDisconnect:
		return msg.Player + " left the game :("
	case common.CmdScore:
		return "Your score is " + strconv.Itoa(msg.Score)
	case common.CmdRunning:
		return "A game is already running, use the GUESS command to play."
	case common.CmdNotRunning:
		return "The game hasn't been started, use the START command to play."
	case common.CmdRules:
		return msg.Text
	default:
		return "ERROR"
	}
}
