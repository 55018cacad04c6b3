package client

import (
	"fmt"

	"github.com/ValentinKolb/dHangman/rpc/common"
	"github.com/ValentinKolb/dHangman/rpc/serializer"
	"github.com/ValentinKolb/dHangman/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("client")
)

// invokeRPCRequest is a helper function used for all requests of a participant
// It serializes the request and queues it on the transport
func invokeRPCRequest(req common.Message, transport transport.IRPCClientTransport, serializer serializer.IRPCSerializer) error {
	if err := transport.Send(serializer.Serialize(req.RequestFields()...)); err != nil {
		return fmt.Errorf("failed to send %s: %w", req.Cmd, err)
	}
	Logger.Debugf("sent %v", req.RequestFields())
	return nil
}
