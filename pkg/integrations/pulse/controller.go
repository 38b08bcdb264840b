package pulse

import (
	"net"
	"strconv"

	"github.com/jfreymuth/pulse/proto"
	"github.com/pkg/errors"

	"admute/pkg/audio"
)

const processIDProperty = "application.process.id"

// SinkInput is one playback stream known to the sound server
type SinkInput struct {
	Index  uint32
	PID    uint32
	HasPID bool
	Muted  bool
}

// Server is the part of the PulseAudio native protocol the controller needs
type Server interface {
	SinkInputs() ([]SinkInput, error)
	SetSinkInputMute(index uint32, mute bool) error
	Close() error
}

// Controller implements audio.Controller over PulseAudio/PipeWire sink inputs
type Controller struct {
	server Server
}

// NewController connects to the default sound server
func NewController() (*Controller, error) {
	server, err := Dial()
	if err != nil {
		return nil, err
	}
	return NewControllerWithServer(server), nil
}

// NewControllerWithServer creates a controller over an existing connection
func NewControllerWithServer(server Server) *Controller {
	return &Controller{server: server}
}

// Name returns "pulse"
func (c *Controller) Name() string {
	return "pulse"
}

// Sessions lists the current sink inputs
func (c *Controller) Sessions() ([]audio.Session, error) {
	inputs, err := c.server.SinkInputs()
	if err != nil {
		return nil, errors.Wrap(err, "failed to list sink inputs")
	}

	sessions := make([]audio.Session, len(inputs))
	for i := range inputs {
		sessions[i] = &session{input: inputs[i], server: c.server}
	}
	return sessions, nil
}

// Close closes the server connection
func (c *Controller) Close() error {
	return c.server.Close()
}

// NewSinkInput builds a SinkInput from the fields of a sink input info
// reply. The owner is taken from the application.process.id property.
func NewSinkInput(index uint32, muted bool, props proto.PropList) SinkInput {
	in := SinkInput{Index: index, Muted: muted}
	if entry, ok := props[processIDProperty]; ok {
		if pid, err := strconv.ParseUint(entry.String(), 10, 32); err == nil {
			in.PID = uint32(pid)
			in.HasPID = true
		}
	}
	return in
}

type protoServer struct {
	client *proto.Client
	conn   net.Conn
}

// Dial connects to the sound server named by PULSE_SERVER, or the default
// socket, and registers as a client
func Dial() (Server, error) {
	client, conn, err := proto.Connect("")
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to the sound server")
	}

	props := proto.PropList{"application.name": proto.PropListString("admute")}
	if err := client.Request(&proto.SetClientName{Props: props}, &proto.SetClientNameReply{}); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to register with the sound server")
	}

	return &protoServer{client: client, conn: conn}, nil
}

func (s *protoServer) SinkInputs() ([]SinkInput, error) {
	var reply proto.GetSinkInputInfoListReply
	if err := s.client.Request(&proto.GetSinkInputInfoList{}, &reply); err != nil {
		return nil, err
	}

	inputs := make([]SinkInput, 0, len(reply))
	for _, info := range reply {
		inputs = append(inputs, NewSinkInput(info.SinkInputIndex, info.Muted, info.Properties))
	}
	return inputs, nil
}

func (s *protoServer) SetSinkInputMute(index uint32, mute bool) error {
	return s.client.Request(&proto.SetSinkInputMute{SinkInputIndex: index, Mute: mute}, nil)
}

func (s *protoServer) Close() error {
	return s.conn.Close()
}

type session struct {
	input  SinkInput
	server Server
}

func (s *session) PID() (uint32, error) {
	if !s.input.HasPID {
		return 0, errors.Errorf("sink input %d has no owning process", s.input.Index)
	}
	return s.input.PID, nil
}

func (s *session) Muted() (bool, error) {
	return s.input.Muted, nil
}

func (s *session) SetMuted(mute bool) error {
	if err := s.server.SetSinkInputMute(s.input.Index, mute); err != nil {
		return errors.Wrapf(err, "failed to set mute on sink input %d", s.input.Index)
	}
	s.input.Muted = mute
	return nil
}

func (s *session) Release() {}
