package client

import "github.com/ValentinKolb/dHangman/rpc/common"

// IListener receives the events of a participant connection.
// Calls are made from one worker goroutine, in the order the events happened.
type IListener interface {
	// OnConnected is called once the connection to the coordinator is up
	OnConnected()
	// OnMessage is called for every event sent by the coordinator
	OnMessage(msg common.Message)
	// OnDisconnected is called when the connection is gone; err is nil after a local Disconnect
	OnDisconnected(err error)
}

// IRPCClient is a participant connection to a coordinator.
// Every request is queued and delivered in call order; the answers arrive at the IListener.
type IRPCClient interface {
	// Connect opens the connection, requests may be issued right away
	Connect() error
	// Disconnect announces the departure and closes the connection once every request is sent
	Disconnect() error
	// Username changes the label shown to the other participants
	Username(name string) error
	// Start asks the coordinator to start a round
	Start() error
	// Guess submits a letter or a whole word
	Guess(text string) error
	// Score asks for the own score
	Score() error
	// Rules asks for the rules of the game
	Rules() error
	// Shutdown closes the connection and stops the event delivery
	Shutdown()
}
