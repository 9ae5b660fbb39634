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

// Package csprng implements the Skein-seeded stream generator that
// every secret drawn by the envelopes (tweaks, nonces, salts) passes
// through. It never talks to the OS directly; callers supply entropy
// through the entropy.Source interface so tests can run deterministic.
package csprng

import (
	"github.com/threecrypt/threecrypt/crypto/skein"
	"github.com/threecrypt/threecrypt/internal/entropy"
	"github.com/threecrypt/threecrypt/internal/wipe"
)

const (
	seedBytes    = skein.BlockBytes
	scratchBytes = seedBytes * 2
)

// Generator owns a 64-byte secret seed and a 128-byte scratch buffer;
// both are wiped whenever they are no longer needed to produce output.
type Generator struct {
	seed    [seedBytes]byte
	scratch [scratchBytes]byte
}

// New returns a Generator with a zero seed. Callers must call
// InitializeSeed (or Reseed/OSReseed) before drawing output; a zero
// seed is not itself a usable key.
func New() *Generator {
	return &Generator{}
}

// InitializeSeed fills the seed entirely from src, discarding whatever
// was there before.
func (g *Generator) InitializeSeed(src entropy.Source) error {
	return src.Fill(g.seed[:])
}

// Reseed folds newSeed into the current seed: Skein-512 hashes
// (seed || newSeed) back into the 64-byte seed.
func (g *Generator) Reseed(newSeed *[seedBytes]byte) {
	var combined [seedBytes * 2]byte
	copy(combined[:seedBytes], g.seed[:])
	copy(combined[seedBytes:], newSeed[:])
	var next [seedBytes]byte
	skein.HashNative(&next, combined[:])
	g.seed = next
	wipe.Bytes(combined[:])
}

// OSReseed is Reseed with the second half of the combined buffer drawn
// fresh from src rather than supplied by the caller.
func (g *Generator) OSReseed(src entropy.Source) error {
	var fresh [seedBytes]byte
	if err := src.Fill(fresh[:]); err != nil {
		return err
	}
	g.Reseed(&fresh)
	return nil
}

// Get fills out with n pseudorandom bytes, one Skein block at a time:
// each round hashes the current seed into a 128-byte block, the first
// 64 bytes become the new seed and the second 64 are released to the
// caller. The scratch buffer is wiped after every round, including the
// final partial one.
func (g *Generator) Get(out []byte) {
	for len(out) > 0 {
		skein.Hash(g.scratch[:], g.seed[:])
		copy(g.seed[:], g.scratch[:seedBytes])

		n := copy(out, g.scratch[seedBytes:])
		out = out[n:]

		wipe.Bytes(g.scratch[:])
	}
}

// Destroy wipes the seed and scratch buffers.
func (g *Generator) Destroy() {
	wipe.Bytes(g.seed[:])
	wipe.Bytes(g.scratch[:])
}
