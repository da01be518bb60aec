// Package filestore implements the host-side file-store collaborator
// referenced by §4.3/§6: a minimal open_read(name) -> bytes | error
// contract the PIA's file-load service resolves filenames against.
package filestore

import (
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound is returned (wrapped) when the requested name does not exist
// in the store, corresponding to the "not-found" error kind in §7(d).
var ErrNotFound = fmt.Errorf("file not found")

// FileStore resolves a filename to its bytes, or an error. The monitor's
// L: command and the PIA's file-load service are the only callers.
type FileStore interface {
	OpenRead(name string) ([]byte, error)
}

// DirStore is a FileStore backed by a single host directory, grounded on
// the ioutil.ReadFile-based loading nes/cartridge.go uses for cartridges,
// generalized behind an interface so tests can substitute a fake.
type DirStore struct {
	Dir string
}

// NewDirStore returns a DirStore rooted at dir.
func NewDirStore(dir string) *DirStore {
	return &DirStore{Dir: dir}
}

// OpenRead reads name from the store's directory. A missing file is
// reported as ErrNotFound; any other I/O failure is returned wrapped, and
// the machine records it in the PIA result register as a read-error (§7(d)).
func (d *DirStore) OpenRead(name string) ([]byte, error) {
	path := filepath.Join(d.Dir, name)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return data, nil
}

// MapStore is an in-memory FileStore, used by tests.
type MapStore map[string][]byte

// OpenRead returns the bytes registered under name, or ErrNotFound.
func (m MapStore) OpenRead(name string) ([]byte, error) {
	data, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return data, nil
}
