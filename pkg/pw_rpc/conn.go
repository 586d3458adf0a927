package pw_rpc

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pwkit/pwkit/pkg/pw_hdlc"
)

const (
	// HDLC address carrying RPC packets.
	kRpcAddress = uint64('R')
	// HDLC address carrying plain-text device log lines.
	kLogAddress = uint64(1)

	kHDLCChannel = uint32(1)
)

var (
	ErrCancelled  = errors.New("cancelled")
	ErrBadAddress = errors.New("bad address")
)

// PacketHandler receives every RPC packet decoded from the link.
type PacketHandler interface {
	HandlePacket(context.Context, Conn, *Packet) error
}

// Conn is one framed link to a device.
type Conn interface {
	Recv(context.Context) error
	Send(context.Context, *Packet) error
	Close()
}

type conn struct {
	conn    net.Conn
	encoder *pw_hdlc.Encoder
	reader  *pw_hdlc.Reader
	ph      PacketHandler
	log     zerolog.Logger
}

func NewConn(netConn net.Conn, ph PacketHandler) Conn {
	return &conn{
		conn:    netConn,
		encoder: pw_hdlc.NewEncoder(netConn, kRpcAddress),
		reader:  pw_hdlc.NewReader(netConn),
		ph:      ph,
		log:     log.With().Str("peer", netConn.RemoteAddr().String()).Logger(),
	}
}

// Recv decodes frames until the link fails or ctx ends, dispatching RPC
// packets to the handler and device log lines to the logger. Malformed
// frames are logged and dropped; only link-level failures end the loop.
func (c *conn) Recv(ctx context.Context) error {
	defer c.Close()

	for {
		select {
		case <-ctx.Done():
			return ErrCancelled
		default:
			frame, err := c.reader.Next(ctx)
			if err != nil {
				return err
			}

			if err := c.processFrame(ctx, frame); err != nil {
				return err
			}
		}
	}
}

func (c *conn) processFrame(ctx context.Context, frame pw_hdlc.Frame) error {
	if !frame.Ok() {
		c.log.Warn().
			Stringer("status", frame.Status()).
			Int("discarded_bytes", len(frame.RawEncoded())).
			Msg("dropped malformed frame")
		return nil
	}

	switch frame.Address() {
	case kRpcAddress:
		packet, err := UnmarshalPacket(frame.Data())
		if err != nil {
			return err
		}

		if c.ph == nil {
			return fmt.Errorf("packet handler is nil")
		}

		return c.ph.HandlePacket(ctx, c, packet)
	case kLogAddress:
		c.log.Info().Msg(string(frame.Data()))
	default:
		c.log.Debug().
			Uint64("address", frame.Address()).
			Msg("dropped frame for unknown address")
	}

	return nil
}

func (c *conn) Send(ctx context.Context, packet *Packet) error {
	select {
	case <-ctx.Done():
		return ErrCancelled
	default:
	}

	_, err := c.encoder.WritePayload(packet.Marshal())
	return err
}

func (c *conn) Close() {
	if c != nil && c.conn != nil {
		c.conn.Close()
	}
}
