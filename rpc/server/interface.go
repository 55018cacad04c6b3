package server

import (
	"context"

	"github.com/ValentinKolb/dHangman/lib/pool"
	"github.com/ValentinKolb/dHangman/rpc/common"
	"github.com/ValentinKolb/dHangman/rpc/transport"
)

// IRPCServerAdapter routes the parsed requests of participants to a domain
// collaborator and emits the resulting events through the transport.
//
// Join is called from the I/O loop and must not block. Handle and Leave run
// on the worker pool; all calls for one connection run in arrival order.
type IRPCServerAdapter interface {
	// Join registers a newly connected participant
	Join(origin transport.ConnID)
	// Handle executes one request of origin
	Handle(ctx context.Context, origin transport.ConnID, req common.Message) error
	// Leave forgets the participant and announces its departure
	Leave(origin transport.ConnID)
}

// IRPCServer is a running coordinator
type IRPCServer interface {
	// Start binds the endpoint and returns once connections are accepted
	Start() error
	// Serve starts the coordinator and blocks until it is stopped
	Serve() error
	// Wait blocks until the I/O loop exited
	Wait() error
	// Stop closes every connection and drains the pending commands
	Stop() error
	// Addr returns the bound address
	Addr() string
	// PoolStats returns the statistics of the command workers
	PoolStats() pool.Stats
}
