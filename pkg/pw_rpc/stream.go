package pw_rpc

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// Key identifies a service or method by its 65599 name hash.
type Key uint32

func NewKey(name string) Key {
	return Key(Hash(name))
}

type streamKey struct {
	serviceId Key
	methodId  Key
}

// StreamKey identifies one active call.
type StreamKey = streamKey

func NewStreamKey(serviceName string, methodName string) StreamKey {
	return StreamKey{
		serviceId: NewKey(serviceName),
		methodId:  NewKey(methodName),
	}
}

// splitMethodName parses a grpc full method name
// ("/package.Service/Method") into its service and method parts.
func splitMethodName(method string) (string, string, error) {
	methodParts := strings.Split(method, "/")
	if len(methodParts) != 3 || methodParts[0] != "" {
		return "", "", fmt.Errorf("invalid full method name: %q", method)
	}
	return methodParts[1], methodParts[2], nil
}

// Stream is one active call on a Conn.
type Stream interface {
	Key() StreamKey
	Context() context.Context
	Send(any, PacketType) error
	Recv(any) (*Packet, error)
	PacketReceived(*Packet)
	Close()
}

type stream struct {
	conn   Conn
	method string
	key    StreamKey
	ch     chan *Packet
	ctx    context.Context
	cancel context.CancelFunc
}

func NewStream(ctx context.Context, conn Conn, method string) (Stream, error) {
	serviceName, methodName, err := splitMethodName(method)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)

	return &stream{
		conn:   conn,
		method: method,
		key:    NewStreamKey(serviceName, methodName),
		ch:     make(chan *Packet, 1),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

func (s *stream) Key() StreamKey {
	return s.key
}

func (s *stream) Context() context.Context {
	return s.ctx
}

func (s *stream) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Send marshals m (nil for an empty payload) into a packet of the given
// type and writes it to the link.
func (s *stream) Send(m any, packetType PacketType) error {
	var payload []byte

	if m != nil {
		pm, ok := m.(protoreflect.ProtoMessage)
		if !ok {
			return fmt.Errorf("message not a ProtoMessage")
		}
		var err error
		payload, err = proto.Marshal(pm)
		if err != nil {
			return err
		}
	}

	packet := &Packet{
		Type:      packetType,
		ChannelID: kHDLCChannel,
		ServiceID: uint32(s.key.serviceId),
		MethodID:  uint32(s.key.methodId),
		Payload:   payload,
	}

	return s.conn.Send(s.ctx, packet)
}

// Recv blocks for the next packet addressed to this call and, when m is
// non-nil and the packet carries a payload, unmarshals it into m. The
// packet is returned so callers can inspect its type and status.
func (s *stream) Recv(m any) (*Packet, error) {
	select {
	case <-s.ctx.Done():
		return nil, ErrCancelled
	case packet, ok := <-s.ch:
		if !ok {
			return nil, ErrCancelled
		}

		if packet.Type == PacketTypeServerError {
			return packet, status.Error(packet.Status, "server error")
		}

		if m != nil && len(packet.Payload) > 0 {
			pm, ok := m.(protoreflect.ProtoMessage)
			if !ok {
				return nil, fmt.Errorf("message not a ProtoMessage")
			}
			if err := proto.Unmarshal(packet.Payload, pm); err != nil {
				return nil, err
			}
		}

		return packet, nil
	}
}

func (s *stream) PacketReceived(packet *Packet) {
	select {
	case <-s.ctx.Done():
	case s.ch <- packet:
	}
}

// statusToError maps a pw_status code to a grpc status error, nil for OK.
func statusToError(code codes.Code) error {
	if code == codes.OK {
		return nil
	}
	return status.Error(code, "call failed")
}

// StreamManager tracks the active calls on a connection.
type StreamManager interface {
	GetStream(serviceId Key, methodId Key) Stream
	AddStream(Stream)
	RemoveStream(Stream)
	Reset()
}

type streamManager struct {
	streams map[StreamKey]Stream
	mu      sync.Mutex
}

func NewStreamManager() StreamManager {
	return &streamManager{
		streams: make(map[StreamKey]Stream),
	}
}

func (sm *streamManager) GetStream(serviceId Key, methodId Key) Stream {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	return sm.streams[StreamKey{serviceId: serviceId, methodId: methodId}]
}

func (sm *streamManager) AddStream(s Stream) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.streams[s.Key()] = s
}

func (sm *streamManager) RemoveStream(s Stream) {
	s.Close()

	sm.mu.Lock()
	defer sm.mu.Unlock()

	delete(sm.streams, s.Key())
}

func (sm *streamManager) Reset() {
	sm.mu.Lock()
	streams := sm.streams
	sm.streams = make(map[StreamKey]Stream)
	sm.mu.Unlock()

	for _, s := range streams {
		s.Close()
	}
}

// ClientStream adapts a Stream to grpc.ClientStream so generated client
// stubs can drive it.
type ClientStream struct {
	desc      *grpc.StreamDesc
	stream    Stream
	client    *client
	firstSend bool
}

func NewClientStream(ctx context.Context, desc *grpc.StreamDesc, c *client, method string, opts ...grpc.CallOption) (grpc.ClientStream, error) {
	s, err := NewStream(ctx, c.conn, method)
	if err != nil {
		return nil, err
	}

	return &ClientStream{
		desc:      desc,
		stream:    s,
		client:    c,
		firstSend: true,
	}, nil
}

func (cs *ClientStream) GetStream() Stream {
	return cs.stream
}

func (cs *ClientStream) Header() (metadata.MD, error) {
	return nil, nil
}

func (cs *ClientStream) Trailer() metadata.MD {
	return nil
}

func (cs *ClientStream) Context() context.Context {
	return cs.stream.Context()
}

// CloseSend tells the server the client is done sending on a
// client-streaming call.
func (cs *ClientStream) CloseSend() error {
	return cs.stream.Send(nil, PacketTypeRequestCompletion)
}

func (cs *ClientStream) SendMsg(m any) error {
	if cs.desc != nil && cs.desc.ClientStreams {
		// Client-streaming calls open with an empty REQUEST; payloads
		// follow as CLIENT_STREAM packets.
		if cs.firstSend {
			if err := cs.stream.Send(nil, PacketTypeRequest); err != nil {
				return err
			}
			cs.firstSend = false
		}
		return cs.stream.Send(m, PacketTypeClientStream)
	}

	cs.firstSend = false
	return cs.stream.Send(m, PacketTypeRequest)
}

func (cs *ClientStream) RecvMsg(m any) error {
	for {
		packet, err := cs.stream.Recv(m)
		if err != nil {
			return err
		}

		switch packet.Type {
		case PacketTypeServerStream:
			return nil
		case PacketTypeResponse:
			// On a server-streaming call the RESPONSE packet closes the
			// stream; for unary calls it carries the reply.
			if err := statusToError(packet.Status); err != nil {
				return err
			}
			if cs.desc != nil && cs.desc.ServerStreams {
				return io.EOF
			}
			return nil
		default:
			// Ignore unexpected packet types and keep waiting.
		}
	}
}
