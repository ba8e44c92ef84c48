// Package clipboard publishes encoded image bytes as the CLIPBOARD
// selection and serves them to requesting clients.
//
// Selection ownership lives on the X server, not in this process, and
// can be revoked by any other client at any moment. The session is
// therefore an explicit state machine (Unclaimed -> Owning -> Serving
// -> ... -> Released) driven by a single-threaded event loop, rather
// than implicit object lifetime. The ICCCM transfer protocol it
// implements: https://tronche.com/gui/x/icccm/sec-2.html
package clipboard

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/ashwalker/xsnap/internal/encoder"
	"github.com/ashwalker/xsnap/internal/logger"
)

// State of the selection session.
type State int

const (
	// StateUnclaimed: no ownership asserted yet.
	StateUnclaimed State = iota
	// StateOwning: we own CLIPBOARD and wait for requests.
	StateOwning
	// StateServing: one request is being answered.
	StateServing
	// StateReleased: ownership is gone; the session is finished.
	StateReleased
)

func (s State) String() string {
	switch s {
	case StateOwning:
		return "owning"
	case StateServing:
		return "serving"
	case StateReleased:
		return "released"
	default:
		return "unclaimed"
	}
}

// Event is one inbound X event, decoded just far enough for the
// session. Tests feed synthetic sequences of these.
type Event interface{}

// RequestEvent is a SelectionRequest from a consuming client.
type RequestEvent struct {
	Time      uint32
	Requestor uint32
	Selection uint32
	Target    uint32
	Property  uint32
}

// ClearEvent is a SelectionClear: another client took the selection.
type ClearEvent struct {
	Selection uint32
}

// UnknownEvent is any other event type; it is logged and ignored.
type UnknownEvent struct {
	Description string
}

// Notify is the SelectionNotify response sent back to a requestor.
// Property zero signals a protocol-level refusal.
type Notify struct {
	Time      uint32
	Requestor uint32
	Selection uint32
	Target    uint32
	Property  uint32
}

// Conn is the subset of selection-protocol operations the session
// needs from the X server.
type Conn interface {
	// CreateOwnerWindow creates the invisible 1x1 window that acts as
	// the selection owner.
	CreateOwnerWindow() (uint32, error)
	SetSelectionOwner(owner, selection uint32) error
	SelectionOwner(selection uint32) (uint32, error)
	// ChangeProperty writes data to a property on a foreign window.
	// format is bits per element (8 for bytes, 32 for atoms).
	ChangeProperty(window, property, typ uint32, format byte, data []byte) error
	NotifySelection(n Notify) error
	DestroyWindow(window uint32) error
	Atom(name string) (uint32, error)
	// WaitForEvent blocks until the next event. It returns an error
	// only when the connection itself is gone.
	WaitForEvent() (Event, error)
}

// servedKey identifies one logical transfer so retries can be spotted.
type servedKey struct {
	requestor uint32
	target    uint32
	property  uint32
}

// Session serves one encoded image as the CLIPBOARD selection. All
// state is owned by the event loop; the payload is immutable, so
// serving the same bytes to any number of consumers needs no locking.
type Session struct {
	conn Conn

	mu    sync.Mutex
	state State

	owner       uint32
	selection   uint32
	targetsAtom uint32
	atomAtom    uint32
	formatAtom  uint32

	payload []byte
	served  map[servedKey]int
}

// NewSession creates an unclaimed session over a connection
func NewSession(conn Conn) *Session {
	return &Session{
		conn:   conn,
		state:  StateUnclaimed,
		served: make(map[servedKey]int),
	}
}

// State returns the current session state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Claim asserts ownership of the CLIPBOARD selection with img as the
// content to serve. Unclaimed -> Owning, or ErrOwnershipDenied when
// the server reports a different owner after the claim.
func (s *Session) Claim(img *encoder.EncodedImage) error {
	log := logger.WithComponent("clipboard")

	owner, err := s.conn.CreateOwnerWindow()
	if err != nil {
		return fmt.Errorf("failed to create owner window: %w", err)
	}
	s.owner = owner

	if s.selection, err = s.conn.Atom("CLIPBOARD"); err != nil {
		return fmt.Errorf("failed to intern CLIPBOARD atom: %w", err)
	}
	if s.targetsAtom, err = s.conn.Atom("TARGETS"); err != nil {
		return fmt.Errorf("failed to intern TARGETS atom: %w", err)
	}
	if s.atomAtom, err = s.conn.Atom("ATOM"); err != nil {
		return fmt.Errorf("failed to intern ATOM atom: %w", err)
	}
	if s.formatAtom, err = s.conn.Atom(img.Format.MimeType()); err != nil {
		return fmt.Errorf("failed to intern %s atom: %w", img.Format.MimeType(), err)
	}

	if err := s.conn.SetSelectionOwner(owner, s.selection); err != nil {
		return fmt.Errorf("%w: %v", ErrOwnershipDenied, err)
	}
	current, err := s.conn.SelectionOwner(s.selection)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOwnershipDenied, err)
	}
	if current != owner {
		return fmt.Errorf("%w: owner is %#x, not us", ErrOwnershipDenied, current)
	}

	s.payload = img.Bytes
	s.setState(StateOwning)

	log.Info().
		Uint32("owner", owner).
		Str("target", img.Format.MimeType()).
		Int("bytes", len(s.payload)).
		Msg("Claimed clipboard selection")
	return nil
}

// Serve runs the event loop, answering selection requests one at a
// time until ownership is lost. Returning nil means the session ended
// cleanly in Released.
func (s *Session) Serve() error {
	log := logger.WithComponent("clipboard")

	for s.State() == StateOwning {
		ev, err := s.conn.WaitForEvent()
		if err != nil {
			if s.State() == StateReleased {
				// Release() closed things under us on purpose.
				return nil
			}
			s.Release()
			return fmt.Errorf("clipboard event loop failed: %w", err)
		}

		switch ev := ev.(type) {
		case RequestEvent:
			s.handleRequest(ev)
		case ClearEvent:
			if ev.Selection != s.selection {
				log.Debug().Uint32("selection", ev.Selection).Msg("Ignoring clear for foreign selection")
				continue
			}
			log.Info().Msg("Lost clipboard ownership, releasing")
			s.Release()
		case UnknownEvent:
			log.Debug().Str("event", ev.Description).Msg("Ignoring unexpected event")
		default:
			log.Debug().Msgf("Ignoring unexpected event %T", ev)
		}
	}
	return nil
}

// Publish claims the selection for img and serves requests until
// ownership is lost.
func (s *Session) Publish(img *encoder.EncodedImage) error {
	if err := s.Claim(img); err != nil {
		return err
	}
	return s.Serve()
}

// handleRequest answers one selection request: Owning -> Serving ->
// Owning. A failure to write the response property is ErrServeFailed,
// logged and answered with a refusal, but the session keeps owning.
func (s *Session) handleRequest(ev RequestEvent) {
	log := logger.WithComponent("clipboard")
	s.setState(StateServing)
	defer func() {
		if s.State() == StateServing {
			s.setState(StateOwning)
		}
	}()

	// Obsolete clients may pass property None; ICCCM says to use the
	// target atom as the property in that case.
	property := ev.Property
	if property == 0 {
		property = ev.Target
	}

	key := servedKey{requestor: ev.Requestor, target: ev.Target, property: property}
	s.served[key]++
	if n := s.served[key]; n > 1 {
		log.Debug().
			Uint32("requestor", ev.Requestor).
			Int("attempt", n).
			Msg("Re-serving identical request")
	}

	answered := uint32(0)
	switch ev.Target {
	case s.targetsAtom:
		// Advertise what we can convert to: TARGETS itself plus the
		// one mime type we hold.
		if err := s.conn.ChangeProperty(ev.Requestor, property, s.atomAtom, 32,
			packAtoms(s.targetsAtom, s.formatAtom)); err != nil {
			log.Warn().Err(err).Msg(ErrServeFailed.Error())
		} else {
			answered = property
		}

	case s.formatAtom:
		if err := s.conn.ChangeProperty(ev.Requestor, property, ev.Target, 8, s.payload); err != nil {
			log.Warn().Err(err).Msg(ErrServeFailed.Error())
		} else {
			answered = property
			log.Info().
				Uint32("requestor", ev.Requestor).
				Int("bytes", len(s.payload)).
				Msg("Served clipboard request")
		}

	default:
		// A format we did not encode: refuse at the protocol level
		// instead of hanging the requestor.
		log.Debug().
			Uint32("target", ev.Target).
			Uint32("requestor", ev.Requestor).
			Msg("Refusing request for unavailable target")
	}

	if err := s.conn.NotifySelection(Notify{
		Time:      ev.Time,
		Requestor: ev.Requestor,
		Selection: ev.Selection,
		Target:    ev.Target,
		Property:  answered,
	}); err != nil {
		log.Warn().Err(err).Msg(ErrServeFailed.Error())
	}
}

// Release gives up ownership by destroying the owner window, which
// reverts the selection to None on the server. Safe to call from a
// signal handler goroutine and idempotent.
func (s *Session) Release() {
	s.mu.Lock()
	if s.state == StateReleased || s.state == StateUnclaimed {
		s.mu.Unlock()
		return
	}
	s.state = StateReleased
	owner := s.owner
	s.mu.Unlock()

	if err := s.conn.DestroyWindow(owner); err != nil {
		logger.WithComponent("clipboard").Warn().Err(err).Msg("Failed to destroy owner window")
	}
}

// packAtoms encodes 32-bit atoms the way xgb puts them on the wire.
func packAtoms(atoms ...uint32) []byte {
	data := make([]byte, 4*len(atoms))
	for i, atom := range atoms {
		binary.LittleEndian.PutUint32(data[i*4:], atom)
	}
	return data
}
