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

// Package secmem provides the secret-buffer discipline every component
// that touches key material, password bytes, or derived keys must
// follow: optional page-locking so secrets are never swapped to disk,
// and zeroing before the owning scope ends, on every exit path including
// error paths.
package secmem

import "github.com/threecrypt/threecrypt/internal/wipe"

// Buffer is a byte slice that may be pinned into physical memory for as
// long as it holds a secret. Lock is best-effort: callers that cannot
// lock memory (no privilege, platform without the facility) still get a
// usable buffer, just without the swap guarantee. Zero must run on every
// code path, success or failure, before the buffer is released.
type Buffer struct {
	Bytes  []byte
	locked bool
}

// New allocates a Buffer of n bytes, unlocked.
func New(n int) *Buffer {
	return &Buffer{Bytes: make([]byte, n)}
}

// Lock attempts to pin b's backing memory so the OS never writes it to
// swap. It is a capability of the platform, not a correctness
// requirement: a failure here does not invalidate the buffer's use as a
// secret store, it only means Zero (below) is the sole guarantee left.
func (b *Buffer) Lock() error {
	if b.locked || len(b.Bytes) == 0 {
		return nil
	}
	if err := lockMemory(b.Bytes); err != nil {
		return err
	}
	b.locked = true
	return nil
}

// Unlock releases a page lock acquired by Lock. It is a no-op if the
// buffer was never locked.
func (b *Buffer) Unlock() {
	if !b.locked {
		return
	}
	unlockMemory(b.Bytes)
	b.locked = false
}

// Zero overwrites every byte of the buffer with zero. It does not touch
// the page lock; callers that are done with the buffer entirely should
// call Destroy instead.
func (b *Buffer) Zero() {
	wipe.Bytes(b.Bytes)
}

// Destroy zeroes the buffer then unlocks it. This is the teardown every
// secret-holding scope must run before it returns, on every exit path.
func (b *Buffer) Destroy() {
	b.Zero()
	b.Unlock()
}
