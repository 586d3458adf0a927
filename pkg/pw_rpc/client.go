package pw_rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
)

var ErrClientIsNil = errors.New("client is nil")

// Client is a Pigweed RPC client over one HDLC link. It satisfies
// grpc.ClientConnInterface, so it can back grpc-generated stubs.
type Client interface {
	grpc.ClientConnInterface
	PacketHandler
	GetConn() Conn
	CloseStream(Stream)
	Close()
}

type client struct {
	endpoint      string
	conn          Conn
	streamManager StreamManager
	mu            sync.Mutex
}

func NewClient(endpoint string) Client {
	return &client{
		endpoint:      endpoint,
		streamManager: NewStreamManager(),
	}
}

func (c *client) connectAttempt(ctx context.Context) (net.Conn, error) {
	if c == nil {
		return nil, ErrClientIsNil
	}

	select {
	case <-ctx.Done():
		return nil, ErrCancelled
	default:
		return net.Dial("tcp", c.endpoint)
	}
}

func (c *client) connect(ctx context.Context) error {
	if c == nil {
		return ErrClientIsNil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil
	}

	conn, err := c.connectAttempt(ctx)
	for err != nil {
		select {
		case <-ctx.Done():
			return ErrCancelled
		case <-time.After(time.Second):
			conn, err = c.connectAttempt(ctx)
		}
	}

	newConn := NewConn(conn, c)
	c.conn = newConn

	go func() {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		if err := newConn.Recv(ctx); err != nil {
			log.Warn().Err(err).Str("endpoint", c.endpoint).Msg("server disconnect")

			c.mu.Lock()
			if c.conn != nil {
				c.conn.Close()
				c.conn = nil
			}
			c.mu.Unlock()

			c.streamManager.Reset()
		}
	}()

	return nil
}

func (c *client) GetConn() Conn {
	return c.conn
}

func (c *client) CloseStream(stream Stream) {
	c.streamManager.RemoveStream(stream)
}

// HandlePacket routes a received packet to the stream that issued the
// call.
func (c *client) HandlePacket(ctx context.Context, conn Conn, packet *Packet) error {
	switch packet.Type {
	case PacketTypeRequest, PacketTypeClientError, PacketTypeClientStream:
		return fmt.Errorf("client received %s packet", packet.Type)
	case PacketTypeResponse, PacketTypeServerStream, PacketTypeServerError:
		s := c.streamManager.GetStream(Key(packet.ServiceID), Key(packet.MethodID))
		if s == nil {
			return fmt.Errorf("stream not found: %d %d", packet.ServiceID, packet.MethodID)
		}

		s.PacketReceived(packet)

		return nil
	}

	return fmt.Errorf("invalid packet type: %s", packet.Type)
}

func (c *client) Close() {
	if c == nil {
		return
	}

	c.streamManager.Reset()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// Invoke performs a unary call.
func (c *client) Invoke(ctx context.Context, method string, args, reply any, opts ...grpc.CallOption) error {
	if err := c.connect(ctx); err != nil {
		return err
	}

	stream, err := NewStream(ctx, c.conn, method)
	if err != nil {
		return err
	}

	c.streamManager.AddStream(stream)
	defer c.streamManager.RemoveStream(stream)

	if err := stream.Send(args, PacketTypeRequest); err != nil {
		return err
	}

	for {
		packet, err := stream.Recv(reply)
		if err != nil {
			return err
		}

		if packet.Type == PacketTypeResponse {
			return statusToError(packet.Status)
		}
	}
}

// NewStream opens a streaming call.
func (c *client) NewStream(ctx context.Context, desc *grpc.StreamDesc, method string, opts ...grpc.CallOption) (grpc.ClientStream, error) {
	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	if c.conn == nil {
		return nil, fmt.Errorf("connection is nil")
	}

	stream, err := NewClientStream(ctx, desc, c, method, opts...)
	if err != nil {
		return nil, err
	}

	c.streamManager.AddStream(stream.(*ClientStream).GetStream())

	return stream, nil
}
