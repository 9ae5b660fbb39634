// Copyright (c) 2024 threecrypt authors.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package osmap

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestCreateWriteCloseThenOpenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "created.bin")
	m, err := Create(path, 16)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	copy(m.Bytes(), []byte("0123456789abcdef"))
	if err := m.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	m2, err := Open(path, true)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer m2.Close()
	if !bytes.Equal(m2.Bytes(), []byte("0123456789abcdef")) {
		t.Fatalf("round trip mismatch: got %q", m2.Bytes())
	}
}

func TestCreateFailsIfFileAlreadyExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exists.bin")
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Create(path, 8); err == nil {
		t.Fatal("Create succeeded on a path that already existed")
	}
}

func TestResizeShrinksAndPreservesPrefix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resize.bin")
	m, err := Create(path, 32)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	copy(m.Bytes(), bytes.Repeat([]byte{0x42}, 32))
	if err := m.Resize(8); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if len(m.Bytes()) != 8 {
		t.Fatalf("len after Resize = %d, want 8", len(m.Bytes()))
	}
	if !bytes.Equal(m.Bytes(), bytes.Repeat([]byte{0x42}, 8)) {
		t.Fatalf("Resize did not preserve the overlapping prefix")
	}
	m.Close()

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size() != 8 {
		t.Fatalf("file size on disk = %d, want 8", info.Size())
	}
}

func TestDiscardRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "discard.bin")
	m, err := Create(path, 4)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := m.Discard(); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("file still exists after Discard: err=%v", err)
	}
}

func TestOpenZeroLengthFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.bin")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	m, err := Open(path, true)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer m.Close()
	if len(m.Bytes()) != 0 {
		t.Fatalf("expected empty mapping, got %d bytes", len(m.Bytes()))
	}
}
