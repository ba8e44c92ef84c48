package config

import (
	"errors"
	"testing"
)

func TestParseFormat(t *testing.T) {
	cases := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "png", want: FormatPNG},
		{in: "PNG", want: FormatPNG},
		{in: "jpeg", want: FormatJPEG},
		{in: "jpg", want: FormatJPEG},
		{in: "gif", want: FormatGIF},
		{in: "bmp", want: FormatBMP},
		{in: "webp", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range cases {
		got, err := ParseFormat(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseFormat(%q): expected error, got %q", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFormat(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatMimeType(t *testing.T) {
	cases := map[Format]string{
		FormatPNG:  "image/png",
		FormatJPEG: "image/jpeg",
		FormatGIF:  "image/gif",
		FormatBMP:  "image/bmp",
	}
	for format, want := range cases {
		if got := format.MimeType(); got != want {
			t.Errorf("%s mime type = %q, want %q", format, got, want)
		}
	}
}

func TestNewTargetSelectsKind(t *testing.T) {
	target, err := NewTarget("", "", 0, false)
	if err != nil {
		t.Fatalf("whole screen target: %v", err)
	}
	if target.Kind != TargetWholeScreen {
		t.Fatalf("expected whole screen, got kind %d", target.Kind)
	}

	target, err = NewTarget("emacs", "", 0, false)
	if err != nil {
		t.Fatalf("name target: %v", err)
	}
	if target.Kind != TargetByName || target.Name != "emacs" {
		t.Fatalf("unexpected name target: %+v", target)
	}

	target, err = NewTarget("", "Firefox", 0, false)
	if err != nil {
		t.Fatalf("class target: %v", err)
	}
	if target.Kind != TargetByClass || target.Class != "Firefox" {
		t.Fatalf("unexpected class target: %+v", target)
	}

	target, err = NewTarget("", "", 0x3400007, true)
	if err != nil {
		t.Fatalf("id target: %v", err)
	}
	if target.Kind != TargetByID || target.ID != 0x3400007 {
		t.Fatalf("unexpected id target: %+v", target)
	}
}

func TestNewTargetRejectsAmbiguousSelectors(t *testing.T) {
	cases := []struct {
		name, class string
		hasID       bool
	}{
		{name: "emacs", class: "Emacs"},
		{name: "emacs", hasID: true},
		{class: "Emacs", hasID: true},
		{name: "emacs", class: "Emacs", hasID: true},
	}

	for _, tc := range cases {
		if _, err := NewTarget(tc.name, tc.class, 1, tc.hasID); !errors.Is(err, ErrAmbiguousTarget) {
			t.Errorf("NewTarget(%q, %q, hasID=%v): expected ErrAmbiguousTarget, got %v",
				tc.name, tc.class, tc.hasID, err)
		}
	}
}

func TestCaptureRequestHasSize(t *testing.T) {
	req := &CaptureRequest{}
	if req.HasSize() {
		t.Fatal("empty request should have no explicit size")
	}
	req.Width = 800
	req.Height = 600
	if !req.HasSize() {
		t.Fatal("request with dimensions should report explicit size")
	}
}
