package x11

import (
	"encoding/binary"
	"os"
	"strings"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/pkg/errors"

	"admute/pkg/window"
)

// maxClients bounds the _NET_CLIENT_LIST read, in 32-bit units
const maxClients = 4096

var atomNames = []string{
	"_NET_CLIENT_LIST",
	"_NET_WM_PID",
	"_NET_WM_NAME",
	"WM_NAME",
	"UTF8_STRING",
}

// Detector implements window.Backend for X11 through an EWMH-compliant
// window manager
type Detector struct {
	conn  *xgb.Conn
	root  xproto.Window
	atoms map[string]xproto.Atom
}

// IsAvailable checks for a DISPLAY to connect to
func IsAvailable() bool {
	return os.Getenv("DISPLAY") != ""
}

// NewDetector connects to the X server named by DISPLAY
func NewDetector() (*Detector, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to X server")
	}

	d := &Detector{
		conn:  conn,
		root:  xproto.Setup(conn).DefaultScreen(conn).Root,
		atoms: make(map[string]xproto.Atom),
	}

	for _, name := range atomNames {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			conn.Close()
			return nil, errors.Wrapf(err, "failed to intern atom %s", name)
		}
		d.atoms[name] = reply.Atom
	}

	return d, nil
}

// Name returns "x11"
func (d *Detector) Name() string {
	return "x11"
}

// Windows lists the managed client windows in _NET_CLIENT_LIST order
// (mapping order). A window is visible when its map state is viewable.
func (d *Detector) Windows() ([]window.Info, error) {
	data, err := d.getProperty(d.root, d.atoms["_NET_CLIENT_LIST"], xproto.AtomWindow, maxClients)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read _NET_CLIENT_LIST")
	}

	ids := ParseWindowList(data)
	infos := make([]window.Info, 0, len(ids))
	for _, id := range ids {
		attrs, err := xproto.GetWindowAttributes(d.conn, id).Reply()
		if err != nil {
			continue
		}
		infos = append(infos, window.Info{
			Handle:  window.Handle(id),
			PID:     d.getWindowPID(id),
			Visible: attrs.MapState == xproto.MapStateViewable,
		})
	}

	return infos, nil
}

// ReadTitle returns _NET_WM_NAME, falling back to WM_NAME, bounded to
// window.MaxTitleUnits
func (d *Detector) ReadTitle(h window.Handle) (string, bool) {
	id := xproto.Window(h)
	// length is in 32-bit units; 2048 bytes hold any 512-unit title as UTF-8
	length := uint32(window.MaxTitleUnits)

	data, err := d.getProperty(id, d.atoms["_NET_WM_NAME"], d.atoms["UTF8_STRING"], length)
	if err != nil || len(data) == 0 {
		data, err = d.getProperty(id, d.atoms["WM_NAME"], xproto.AtomString, length)
	}
	if err != nil || len(data) == 0 {
		return "", false
	}

	title := window.TruncateTitle(strings.ToValidUTF8(strings.TrimRight(string(data), "\x00"), "�"))
	if title == "" {
		return "", false
	}
	return title, true
}

// Close closes the X connection
func (d *Detector) Close() error {
	d.conn.Close()
	return nil
}

func (d *Detector) getProperty(w xproto.Window, atom, atomType xproto.Atom, length uint32) ([]byte, error) {
	reply, err := xproto.GetProperty(d.conn, false, w, atom, atomType, 0, length).Reply()
	if err != nil {
		return nil, err
	}
	return reply.Value, nil
}

func (d *Detector) getWindowPID(w xproto.Window) uint32 {
	data, err := d.getProperty(w, d.atoms["_NET_WM_PID"], xproto.AtomCardinal, 1)
	if err != nil || len(data) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(data)
}

// ParseWindowList decodes a 32-bit WINDOW list property. Trailing bytes that
// do not form a full id are ignored.
func ParseWindowList(data []byte) []xproto.Window {
	ids := make([]xproto.Window, 0, len(data)/4)
	for i := 0; i+4 <= len(data); i += 4 {
		ids = append(ids, xproto.Window(binary.LittleEndian.Uint32(data[i:])))
	}
	return ids
}
