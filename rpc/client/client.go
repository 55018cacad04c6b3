package client

import (
	"context"
	"errors"
	"sync"

	"github.com/ValentinKolb/dHangman/lib/pool"
	"github.com/ValentinKolb/dHangman/rpc/common"
	"github.com/ValentinKolb/dHangman/rpc/serializer"
	"github.com/ValentinKolb/dHangman/rpc/transport"
)

// ErrShutdown is returned after Shutdown was called
var ErrShutdown = errors.New("client: shut down")

// NewRPCClient creates a new participant
// It takes a config, a transport, a serializer and the listener for incoming events as parameters.
// The connection is opened with Connect.
//
// Usage:
//
//	c := client.NewRPCClient(
//		config,
//		tcp.NewTCPClientTransport(),
//		serializer.NewFrameSerializer(config.Transport.MaxFrameBytes),
//		listener,
//	)
//	defer c.Shutdown()
//
//	if err := c.Connect(); err != nil {
//		panic(err)
//	}
//	_ = c.Start()
func NewRPCClient(
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
	listener IListener,
) IRPCClient {
	c := &rpcClient{
		config:     config,
		transport:  transport,
		serializer: serializer,
		listener:   listener,
		pool:       pool.NewWorkerPool("client", config.Workers),
	}
	c.pool.Start()
	transport.RegisterHandler(c)
	return c
}

type rpcClient struct {
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
	listener   IListener
	pool       *pool.WorkerPool

	mu       sync.Mutex
	shutdown bool
}

// --------------------------------------------------------------------------
// Commands
// --------------------------------------------------------------------------

// Connect opens the connection to the coordinator. Requests may be issued
// right away; they are delivered once the connection is up.
func (c *rpcClient) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.shutdown {
		return ErrShutdown
	}
	return c.transport.Connect(c.config)
}

// Disconnect announces the departure, flushes every queued request and closes the connection
func (c *rpcClient) Disconnect() error {
	if err := c.send(common.NewDisconnectRequest()); err != nil {
		return err
	}
	return c.transport.Close()
}

// Username changes the label shown to the other participants
func (c *rpcClient) Username(name string) error {
	return c.send(common.NewUserRequest(name))
}

// Start asks the coordinator to start a round
func (c *rpcClient) Start() error {
	return c.send(common.NewStartRequest())
}

// Guess submits a letter or a whole word
func (c *rpcClient) Guess(text string) error {
	return c.send(common.NewGuessRequest(text))
}

// Score asks for the own score
func (c *rpcClient) Score() error {
	return c.send(common.NewScoreRequest())
}

// Rules asks for the rules of the game
func (c *rpcClient) Rules() error {
	return c.send(common.NewRulesRequest())
}

// Shutdown closes the connection (if any) and delivers the remaining events to the listener
func (c *rpcClient) Shutdown() {
	c.mu.Lock()
	if c.shutdown {
		c.mu.Unlock()
		return
	}
	c.shutdown = true
	c.mu.Unlock()

	if err := c.transport.Close(); err != nil {
		Logger.Warningf("failed to close connection: %v", err)
	}
	c.pool.Wait()
	c.pool.Shutdown()
}

func (c *rpcClient) send(req common.Message) error {
	return invokeRPCRequest(req, c.transport, c.serializer)
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IClientHandler)
// --------------------------------------------------------------------------

func (c *rpcClient) OnConnect() {
	c.deliver(func() { c.listener.OnConnected() })
}

func (c *rpcClient) OnFrame(fields []string) {
	msg, err := common.ParseEvent(fields)
	if err != nil {
		Logger.Warningf("dropping event %v: %v", fields, err)
		return
	}
	c.deliver(func() { c.listener.OnMessage(msg) })
}

func (c *rpcClient) OnDisconnect(err error) {
	c.deliver(func() { c.listener.OnDisconnected(err) })
}

// deliver hands f to the listener worker so the I/O loop never waits for the listener
func (c *rpcClient) deliver(f func()) {
	// a single key keeps every event on the same worker, in order
	if !c.pool.Submit(0, func(context.Context) error {
		f()
		return nil
	}) {
		Logger.Debugf("listener worker closed, event dropped")
	}
}
