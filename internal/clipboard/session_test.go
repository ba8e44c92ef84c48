package clipboard

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ashwalker/xsnap/internal/config"
	"github.com/ashwalker/xsnap/internal/encoder"
)

const (
	atomAtom      = 4
	atomClipboard = 100
	atomTargets   = 101
	atomPNG       = 102
	atomText      = 103
)

// propertyWrite records one ChangeProperty call.
type propertyWrite struct {
	window   uint32
	property uint32
	typ      uint32
	format   byte
	data     []byte
}

// fakeConn scripts the server side of the selection protocol.
type fakeConn struct {
	owner       uint32
	ownerAfter  uint32 // reported by SelectionOwner; 0 means echo the claim
	createErr   error
	propertyErr error

	events []Event

	writes    []propertyWrite
	notifies  []Notify
	destroyed []uint32
}

func (f *fakeConn) CreateOwnerWindow() (uint32, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.owner = 77
	return f.owner, nil
}

func (f *fakeConn) SetSelectionOwner(owner, selection uint32) error { return nil }

func (f *fakeConn) SelectionOwner(selection uint32) (uint32, error) {
	if f.ownerAfter != 0 {
		return f.ownerAfter, nil
	}
	return f.owner, nil
}

func (f *fakeConn) ChangeProperty(window, property, typ uint32, format byte, data []byte) error {
	if f.propertyErr != nil {
		return f.propertyErr
	}
	f.writes = append(f.writes, propertyWrite{window, property, typ, format, append([]byte(nil), data...)})
	return nil
}

func (f *fakeConn) NotifySelection(n Notify) error {
	f.notifies = append(f.notifies, n)
	return nil
}

func (f *fakeConn) DestroyWindow(window uint32) error {
	f.destroyed = append(f.destroyed, window)
	return nil
}

func (f *fakeConn) Atom(name string) (uint32, error) {
	switch name {
	case "CLIPBOARD":
		return atomClipboard, nil
	case "TARGETS":
		return atomTargets, nil
	case "ATOM":
		return atomAtom, nil
	case "image/png":
		return atomPNG, nil
	}
	return 0, fmt.Errorf("unknown atom %q", name)
}

func (f *fakeConn) WaitForEvent() (Event, error) {
	if len(f.events) == 0 {
		return nil, fmt.Errorf("connection closed")
	}
	ev := f.events[0]
	f.events = f.events[1:]
	return ev, nil
}

func pngImage() *encoder.EncodedImage {
	return &encoder.EncodedImage{Format: config.FormatPNG, Bytes: []byte("fake png bytes")}
}

func request(target, property uint32) RequestEvent {
	return RequestEvent{
		Time:      1000,
		Requestor: 200,
		Selection: atomClipboard,
		Target:    target,
		Property:  property,
	}
}

func TestClaimTakesOwnership(t *testing.T) {
	conn := &fakeConn{}
	session := NewSession(conn)

	if err := session.Claim(pngImage()); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if session.State() != StateOwning {
		t.Fatalf("state = %v, want owning", session.State())
	}
}

func TestClaimDeniedWhenAnotherClientHoldsSelection(t *testing.T) {
	conn := &fakeConn{ownerAfter: 999}
	session := NewSession(conn)

	if err := session.Claim(pngImage()); !errors.Is(err, ErrOwnershipDenied) {
		t.Fatalf("expected ErrOwnershipDenied, got %v", err)
	}
	if session.State() != StateUnclaimed {
		t.Fatalf("state = %v, want unclaimed", session.State())
	}
}

func TestClaimReportsAtomInternFailure(t *testing.T) {
	// fakeConn does not know the image/gif atom.
	conn := &fakeConn{}
	session := NewSession(conn)
	img := &encoder.EncodedImage{Format: config.FormatGIF, Bytes: []byte("gif")}

	err := session.Claim(img)
	if err == nil {
		t.Fatal("expected atom intern failure to surface")
	}
	if !strings.Contains(err.Error(), "image/gif") {
		t.Fatalf("error should name the atom that failed, got %q", err)
	}
	if !strings.Contains(err.Error(), "intern") {
		t.Fatalf("error should name the failed step, got %q", err)
	}
}

func TestPublishServesPayloadUntilCleared(t *testing.T) {
	conn := &fakeConn{events: []Event{
		request(atomPNG, 500),
		request(atomPNG, 500), // paste twice
		ClearEvent{Selection: atomClipboard},
	}}
	session := NewSession(conn)
	img := pngImage()

	if err := session.Publish(img); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(conn.writes) != 2 {
		t.Fatalf("expected 2 property writes, got %d", len(conn.writes))
	}
	for i, w := range conn.writes {
		if w.window != 200 || w.property != 500 || w.format != 8 {
			t.Fatalf("write %d: unexpected destination %+v", i, w)
		}
		if string(w.data) != string(img.Bytes) {
			t.Fatalf("write %d: payload differs", i)
		}
	}
	if len(conn.notifies) != 2 {
		t.Fatalf("expected 2 notifies, got %d", len(conn.notifies))
	}
	for i, n := range conn.notifies {
		if n.Property != 500 {
			t.Fatalf("notify %d: property = %d, want 500", i, n.Property)
		}
	}
	if session.State() != StateReleased {
		t.Fatalf("state = %v, want released", session.State())
	}
	if len(conn.destroyed) != 1 || conn.destroyed[0] != conn.owner {
		t.Fatalf("expected owner window destroyed, got %v", conn.destroyed)
	}
}

func TestServeAnswersTargetsQuery(t *testing.T) {
	conn := &fakeConn{events: []Event{
		request(atomTargets, 500),
		ClearEvent{Selection: atomClipboard},
	}}
	session := NewSession(conn)

	if err := session.Publish(pngImage()); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(conn.writes) != 1 {
		t.Fatalf("expected 1 property write, got %d", len(conn.writes))
	}
	w := conn.writes[0]
	if w.typ != atomAtom || w.format != 32 {
		t.Fatalf("TARGETS reply must be 32-bit atoms, got type %d format %d", w.typ, w.format)
	}
	if len(w.data) != 8 {
		t.Fatalf("expected 2 atoms in reply, got %d bytes", len(w.data))
	}
	first := binary.LittleEndian.Uint32(w.data[0:4])
	second := binary.LittleEndian.Uint32(w.data[4:8])
	if first != atomTargets || second != atomPNG {
		t.Fatalf("TARGETS reply = [%d, %d], want [%d, %d]", first, second, atomTargets, atomPNG)
	}
}

func TestServeRefusesUnavailableTarget(t *testing.T) {
	conn := &fakeConn{events: []Event{
		request(atomText, 500),
		ClearEvent{Selection: atomClipboard},
	}}
	session := NewSession(conn)

	if err := session.Publish(pngImage()); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(conn.writes) != 0 {
		t.Fatalf("refusal must not write any property, got %d writes", len(conn.writes))
	}
	if len(conn.notifies) != 1 {
		t.Fatalf("expected 1 notify, got %d", len(conn.notifies))
	}
	if conn.notifies[0].Property != 0 {
		t.Fatalf("refusal notify property = %d, want 0", conn.notifies[0].Property)
	}
	// A refusal is not an ownership loss: the next request still works.
	if session.State() != StateReleased {
		t.Fatalf("state = %v, want released after clear", session.State())
	}
}

func TestServeUsesTargetAsPropertyForObsoleteClients(t *testing.T) {
	conn := &fakeConn{events: []Event{
		request(atomPNG, 0), // obsolete client: property None
		ClearEvent{Selection: atomClipboard},
	}}
	session := NewSession(conn)

	if err := session.Publish(pngImage()); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(conn.writes) != 1 {
		t.Fatalf("expected 1 property write, got %d", len(conn.writes))
	}
	if conn.writes[0].property != atomPNG {
		t.Fatalf("property = %d, want target atom %d", conn.writes[0].property, atomPNG)
	}
	if conn.notifies[0].Property != atomPNG {
		t.Fatalf("notify property = %d, want target atom %d", conn.notifies[0].Property, atomPNG)
	}
}

func TestServeSurvivesPropertyWriteFailure(t *testing.T) {
	conn := &fakeConn{
		propertyErr: fmt.Errorf("BadWindow"),
		events: []Event{
			request(atomPNG, 500),
			ClearEvent{Selection: atomClipboard},
		},
	}
	session := NewSession(conn)

	if err := session.Publish(pngImage()); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(conn.notifies) != 1 {
		t.Fatalf("expected refusal notify, got %d notifies", len(conn.notifies))
	}
	if conn.notifies[0].Property != 0 {
		t.Fatalf("failed write must be answered with property 0, got %d", conn.notifies[0].Property)
	}
}

func TestServeIgnoresForeignClearAndUnknownEvents(t *testing.T) {
	conn := &fakeConn{events: []Event{
		UnknownEvent{Description: "PropertyNotify"},
		ClearEvent{Selection: 9999}, // someone else's selection
		request(atomPNG, 500),
		ClearEvent{Selection: atomClipboard},
	}}
	session := NewSession(conn)

	if err := session.Publish(pngImage()); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(conn.writes) != 1 {
		t.Fatalf("expected the request after the noise to be served, got %d writes", len(conn.writes))
	}
}

func TestServeReturnsNilAfterExternalRelease(t *testing.T) {
	conn := &fakeConn{}
	session := NewSession(conn)

	if err := session.Claim(pngImage()); err != nil {
		t.Fatalf("claim: %v", err)
	}
	// Simulates the signal handler: release before the event loop sees
	// the connection die.
	session.Release()

	if err := session.Serve(); err != nil {
		t.Fatalf("serve after release: %v", err)
	}
}

func TestServeReportsConnectionFailure(t *testing.T) {
	conn := &fakeConn{} // empty event queue: WaitForEvent errors
	session := NewSession(conn)

	if err := session.Claim(pngImage()); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := session.Serve(); err == nil {
		t.Fatal("expected connection failure to surface")
	}
	if session.State() != StateReleased {
		t.Fatalf("state = %v, want released", session.State())
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	conn := &fakeConn{}
	session := NewSession(conn)

	if err := session.Claim(pngImage()); err != nil {
		t.Fatalf("claim: %v", err)
	}
	session.Release()
	session.Release()

	if len(conn.destroyed) != 1 {
		t.Fatalf("owner window destroyed %d times, want once", len(conn.destroyed))
	}
}

func TestReleaseBeforeClaimIsNoop(t *testing.T) {
	conn := &fakeConn{}
	session := NewSession(conn)

	session.Release()

	if len(conn.destroyed) != 0 {
		t.Fatal("nothing to destroy before a claim")
	}
	if session.State() != StateUnclaimed {
		t.Fatalf("state = %v, want unclaimed", session.State())
	}
}
