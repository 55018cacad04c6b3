package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/ValentinKolb/dHangman/lib/game"
	"github.com/ValentinKolb/dHangman/lib/pool"
	"github.com/ValentinKolb/dHangman/rpc/common"
	"github.com/ValentinKolb/dHangman/rpc/serializer"
	"github.com/ValentinKolb/dHangman/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("server")

// NewRPCServer creates a new coordinator
// It takes a config, transport, serializer and the session collaborator as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		tcp.NewTCPServerTransport(),
//		serializer.NewFrameSerializer(config.Transport.MaxFrameBytes),
//		game.NewSession(game.NewWordList(game.DefaultWords...)),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	}
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
	session game.ISession,
) IRPCServer {
	workers := config.Workers
	if workers <= 0 {
		workers = common.DefaultServerWorkers
	}

	return &rpcServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		adapter:    NewGameServerAdapter(session, transport, serializer),
		pool:       pool.NewWorkerPool("server", workers),
	}
}

type rpcServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	adapter    IRPCServerAdapter
	pool       *pool.WorkerPool

	stopOnce sync.Once
	stopErr  error
}

// --------------------------------------------------------------------------
// Lifecycle
// --------------------------------------------------------------------------

// Start binds the endpoint and starts the I/O loop and the worker pool.
// It returns once the coordinator accepts connections.
func (s *rpcServer) Start() error {
	Logger.Infof("Created RPC Server")
	Logger.Infof("%s", s.config.String())

	s.pool.Start()
	s.transport.RegisterHandler(s)

	if err := s.transport.Listen(s.config); err != nil {
		s.pool.Shutdown()
		return fmt.Errorf("failed to start transport: %w", err)
	}
	Logger.Infof("Coordinator listening on %s", s.transport.Addr())
	return nil
}

// Serve starts the coordinator and blocks until it is stopped
func (s *rpcServer) Serve() error {
	if err := s.Start(); err != nil {
		return err
	}
	return s.Wait()
}

// Wait blocks until the I/O loop exited
func (s *rpcServer) Wait() error {
	return s.transport.Wait()
}

// Addr returns the bound address (valid after Start)
func (s *rpcServer) Addr() string {
	return s.transport.Addr()
}

// Stop closes every connection, drains the pending commands and stops the workers
func (s *rpcServer) Stop() error {
	s.stopOnce.Do(func() {
		s.stopErr = s.transport.Stop()
		s.pool.Wait()
		s.pool.Shutdown()
		Logger.Infof("Coordinator stopped: %s", s.pool.Stats())
	})
	return s.stopErr
}

// PoolStats returns the statistics of the command workers
func (s *rpcServer) PoolStats() pool.Stats {
	return s.pool.Stats()
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IServerHandler)
// --------------------------------------------------------------------------

func (s *rpcServer) OnConnect(id transport.ConnID) {
	s.adapter.Join(id)
}

func (s *rpcServer) OnFrame(id transport.ConnID, fields []string) {
	req, err := common.ParseRequest(fields)
	if err != nil {
		Logger.Warningf("dropping request from connection %d: %v", id, err)
		return
	}

	// keyed by connection so the commands of one participant keep their order
	if !s.pool.Submit(uint64(id), func(ctx context.Context) error {
		return s.adapter.Handle(ctx, id, req)
	}) {
		Logger.Warningf("dropping %s from connection %d, the worker pool is closed", req.Cmd, id)
	}
}

func (s *rpcServer) OnDisconnect(id transport.ConnID) {
	if !s.pool.Submit(uint64(id), func(context.Context) error {
		s.adapter.Leave(id)
		return nil
	}) {
		Logger.Debugf("worker pool closed, no departure broadcast for connection %d", id)
	}
}
