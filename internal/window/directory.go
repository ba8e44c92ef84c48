package window

import (
	"fmt"
	"strings"

	"github.com/ashwalker/xsnap/internal/config"
	"github.com/ashwalker/xsnap/internal/logger"
)

// TreeSource is the view of the server's window tree the directory
// walks. The real implementation is backed by an X connection; tests
// feed a synthetic tree.
type TreeSource interface {
	// Root returns the root window id.
	Root() uint32

	// ClientList returns the top-level client windows in EWMH
	// _NET_CLIENT_LIST order, or an error when the window manager does
	// not maintain the property.
	ClientList() ([]uint32, error)

	// Children returns the direct children of a window.
	Children(id uint32) ([]uint32, error)

	// Title returns the window title (_NET_WM_NAME, WM_NAME fallback).
	Title(id uint32) (string, error)

	// Class returns the window class from WM_CLASS.
	Class(id uint32) (string, error)

	// Geometry returns the window's current geometry.
	Geometry(id uint32) (config.Geometry, error)
}

// Directory looks windows up by name, class or id against the live
// window tree. Handles are valid for the duration of one query only;
// nothing is persisted.
type Directory struct {
	src TreeSource
}

// NewDirectory creates a directory over a tree source
func NewDirectory(src TreeSource) *Directory {
	return &Directory{src: src}
}

// RootWindow returns a handle for the root window (whole screen).
func (d *Directory) RootWindow() (*config.WindowInfo, error) {
	root := d.src.Root()
	geom, err := d.src.Geometry(root)
	if err != nil {
		return nil, fmt.Errorf("failed to get root geometry: %w", err)
	}
	return &config.WindowInfo{ID: root, Geometry: geom}, nil
}

// FindByName returns the first window whose title contains the given
// substring. Matching is case-insensitive; which window wins when
// several match depends on server-side enumeration order and is not a
// stable contract.
func (d *Directory) FindByName(substr string) (*config.WindowInfo, error) {
	return d.findFirst(func(id uint32) bool {
		title, err := d.src.Title(id)
		return err == nil && containsFold(title, substr)
	})
}

// FindByClass returns the first window whose WM_CLASS contains the
// given substring. Same ordering caveat as FindByName.
func (d *Directory) FindByClass(substr string) (*config.WindowInfo, error) {
	return d.findFirst(func(id uint32) bool {
		class, err := d.src.Class(id)
		return err == nil && containsFold(class, substr)
	})
}

// FindByID returns the window with the given X id. Existence is
// verified with a geometry round trip rather than client-list
// membership, so ids of nested child windows resolve too.
func (d *Directory) FindByID(id uint32) (*config.WindowInfo, error) {
	if _, err := d.src.Geometry(id); err != nil {
		return nil, ErrTargetNotFound
	}
	return d.info(id), nil
}

// List returns every window in the tree that carries a title or class,
// in enumeration order.
func (d *Directory) List() ([]*config.WindowInfo, error) {
	candidates, err := d.candidates()
	if err != nil {
		return nil, err
	}

	windows := make([]*config.WindowInfo, 0, len(candidates))
	for _, id := range candidates {
		info := d.info(id)
		if info.Title == "" && info.Class == "" {
			continue
		}
		windows = append(windows, info)
	}
	return windows, nil
}

// findFirst walks the candidate windows and returns the first one
// matching the predicate.
func (d *Directory) findFirst(match func(id uint32) bool) (*config.WindowInfo, error) {
	candidates, err := d.candidates()
	if err != nil {
		return nil, err
	}

	for _, id := range candidates {
		if !match(id) {
			continue
		}
		info := d.info(id)
		logger.WithComponent("window").Debug().
			Uint32("id", info.ID).
			Str("title", info.Title).
			Str("class", info.Class).
			Msg("Matched window")
		return info, nil
	}
	return nil, ErrTargetNotFound
}

// candidates enumerates the window tree. EWMH _NET_CLIENT_LIST is
// preferred because it lists exactly the top-level application windows;
// when the window manager does not maintain it, fall back to a
// breadth-first walk of the whole tree.
func (d *Directory) candidates() ([]uint32, error) {
	log := logger.WithComponent("window")

	clients, err := d.src.ClientList()
	if err == nil && len(clients) > 0 {
		log.Debug().Int("count", len(clients)).Msg("Using EWMH _NET_CLIENT_LIST")
		return clients, nil
	}
	if err != nil {
		log.Debug().Err(err).Msg("EWMH client list unavailable, walking tree")
	}

	return d.walkTree()
}

// walkTree does a breadth-first traversal of the tree starting at the
// root, with an explicit queue so each round trip stays bounded.
func (d *Directory) walkTree() ([]uint32, error) {
	root := d.src.Root()
	queue := []uint32{root}
	seen := map[uint32]bool{root: true}
	order := make([]uint32, 0, 64)

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		children, err := d.src.Children(id)
		if err != nil {
			// The window may have been destroyed mid-walk; skip it.
			continue
		}
		for _, child := range children {
			if !seen[child] {
				seen[child] = true
				queue = append(queue, child)
			}
		}
	}

	if len(order) == 0 {
		return nil, fmt.Errorf("window tree walk produced no windows")
	}
	return order, nil
}

// info assembles a WindowInfo for a matched window. Title, class and
// geometry lookups are best-effort: a window can vanish between the
// match and these round trips.
func (d *Directory) info(id uint32) *config.WindowInfo {
	info := &config.WindowInfo{ID: id}
	if title, err := d.src.Title(id); err == nil {
		info.Title = title
	}
	if class, err := d.src.Class(id); err == nil {
		info.Class = class
	}
	if geom, err := d.src.Geometry(id); err == nil {
		info.Geometry = geom
	}
	return info
}

// containsFold reports whether s contains substr ignoring case, so
// "emacs" matches a window titled "GNU Emacs".
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
