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

// Package catena implements the Catena memory-hard password-hashing
// function over a bit-reversal dependency graph (BRG), in its "safe"
// and "strong" variants. Safe runs the γ randomizing pass only; strong
// runs both γ and the φ data-dependent pass.
package catena

import (
	"encoding/binary"
	"errors"

	"github.com/threecrypt/threecrypt/crypto/skein"
	"github.com/threecrypt/threecrypt/internal/wipe"
)

const (
	hashBytes = skein.BlockBytes
	// SaltBytes is the fixed salt width Catena takes.
	SaltBytes = 32
	// outputLengthBits / saltLengthBits feed the tweak, matching the
	// metadata Catena is configured with: a 512-bit Skein output and a
	// 256-bit salt, regardless of variant.
	outputLengthBits  = 512
	saltLengthBits    = 256
	keyDerivationByte = 1

	// maxGarlic bounds g_high so 1<<g_high never overflows a platform
	// int and so the graph allocation stays within what a password
	// hash is reasonably allowed to demand; beyond it call reports
	// ErrAllocFailure the way the original reports a failed malloc.
	maxGarlic = 32
)

// ErrAllocFailure is returned when g_high is too large for the graph
// to be allocated; out is left untouched.
var ErrAllocFailure = errors.New("catena: graph allocation would be too large")

// Variant selects between Catena's safe (γ only) and strong (γ and φ)
// randomization passes. Each carries its own fixed version-ID hash so
// that a password hashed under one variant never collides with the
// same password hashed under the other.
type Variant struct {
	versionHash [hashBytes]byte
	useGamma    bool
	usePhi      bool
}

// Safe is "Dragonfly_Safe_V1": runs γ but not φ.
var Safe = Variant{versionHash: safeVersionHash, useGamma: true, usePhi: false}

// Strong is "Dragonfly_Strong_V1": runs both γ and φ.
var Strong = Variant{versionHash: strongVersionHash, useGamma: true, usePhi: true}

var safeVersionHash = decodeHash(
	"79b5791e9aac02642aaa991bd547ed14744d72bf132254c9add6b9bee87018e2aa5150e21fcd9019b61f0ec60500d6ed7cf20353fd42a5a37a0ebbb4a7ebdbab",
)

var strongVersionHash = decodeHash(
	"1f2389584a4abba59f09cad4efac431dde9ab0f869aa50f3edccb47d6d4f10b98e6a68ab6e53bcd6cffca7639444bdc7b96d09f56631a3c5f326eb6fa6acb0a6",
)

func decodeHash(hex string) [hashBytes]byte {
	if len(hex) != hashBytes*2 {
		panic("catena: bad version-ID hash literal length")
	}
	var out [hashBytes]byte
	for i := range out {
		out[i] = hexByte(hex[i*2], hex[i*2+1])
	}
	return out
}

func hexByte(hi, lo byte) byte { return hexNibble(hi)<<4 | hexNibble(lo) }

func hexNibble(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		panic("catena: bad hex digit in version-ID hash literal")
	}
}

// buildTweak assembles version-ID-hash[64] || domain(1)=1 || lambda(1) || output-length-bits-u16-LE || salt-length-bits-u16-LE.
func buildTweak(versionHash [hashBytes]byte, lambda byte) []byte {
	tweak := make([]byte, hashBytes+1+1+2+2)
	off := copy(tweak, versionHash[:])
	tweak[off] = keyDerivationByte
	off++
	tweak[off] = lambda
	off++
	binary.LittleEndian.PutUint16(tweak[off:off+2], outputLengthBits)
	off += 2
	binary.LittleEndian.PutUint16(tweak[off:off+2], saltLengthBits)
	return tweak
}

// Call runs Catena(password, salt, g_low, g_high, lambda) under the
// given variant and writes the 64-byte result to out. password is
// zeroed in place once it has been folded into the initial state, as
// the original's password-buffer destruction step requires.
func (v Variant) Call(out *[hashBytes]byte, password []byte, salt *[SaltBytes]byte, gLow, gHigh, lambda byte) error {
	if gHigh > maxGarlic || gLow > gHigh {
		return ErrAllocFailure
	}

	graph := make([][hashBytes]byte, uint64(1)<<gHigh)

	tweak := buildTweak(v.versionHash, lambda)
	msg := make([]byte, 0, len(tweak)+len(password)+SaltBytes)
	msg = append(msg, tweak...)
	msg = append(msg, password...)
	msg = append(msg, salt[:]...)

	var x [hashBytes]byte
	skein.Hash(x[:], msg)
	wipe.Bytes(msg)
	wipe.Bytes(password)

	v.flap(&x, graph, (gLow+1)/2, lambda, salt)
	var rehashed [hashBytes]byte
	skein.HashNative(&rehashed, x[:])
	x = rehashed

	for g := gLow; g <= gHigh; g++ {
		v.flap(&x, graph, g, lambda, salt)

		var buf [1 + hashBytes]byte
		buf[0] = g
		copy(buf[1:], x[:])
		var next [hashBytes]byte
		skein.HashNative(&next, buf[:])
		x = next
	}

	for i := range graph {
		wipe.Bytes(graph[i][:])
	}
	*out = x
	return nil
}

// flap runs one garlic-level pass: it builds the bit-reversal-graph
// entries for 2^garlic words, applies the γ randomization pass and the
// bit-reversal-graph memory-hard function, then (for the strong
// variant) the φ pass. The recovered chaining value is written back
// to x.
func (v Variant) flap(x *[hashBytes]byte, graph [][hashBytes]byte, garlic, lambda byte, salt *[SaltBytes]byte) {
	n := uint64(1) << garlic
	g := graph[:n]

	var seed [2 * hashBytes]byte
	skein.Hash(seed[:], x[:])
	var a0 [hashBytes]byte
	copy(a0[:], seed[:hashBytes])
	var b0 [hashBytes]byte
	copy(b0[:], seed[hashBytes:])

	g[0] = hashTwo(a0, b0)
	if n > 1 {
		g[1] = hashTwo(g[0], a0)
	}
	for i := uint64(2); i < n; i++ {
		g[i] = hashTwo(g[i-1], g[i-2])
	}

	if v.useGamma {
		gamma(g, uint(garlic), salt)
	}

	bitReversalGraphMHF(g, uint(garlic), lambda)

	if v.usePhi {
		phi(x, g, uint(garlic))
	} else {
		*x = g[n-1]
	}
}

// hashTwo Skein-hashes the concatenation of two 64-byte chaining
// values into a fresh one.
func hashTwo(a, b [hashBytes]byte) [hashBytes]byte {
	var msg [2 * hashBytes]byte
	copy(msg[:hashBytes], a[:])
	copy(msg[hashBytes:], b[:])
	var out [hashBytes]byte
	skein.HashNative(&out, msg[:])
	return out
}

// brg reverses the bit order of i within its low g bits.
func brg(i uint64, g uint) uint64 {
	var r uint64
	for b := uint(0); b < g; b++ {
		if i&(1<<b) != 0 {
			r |= 1 << (g - 1 - b)
		}
	}
	return r
}

// bitReversalGraphMHF is Catena's memory-hard function: for each of
// lambda passes, every graph entry is rehashed against its bit-
// reversal-graph dependency.
func bitReversalGraphMHF(graph [][hashBytes]byte, g uint, lambda byte) {
	n := uint64(len(graph))
	for j := byte(0); j < lambda; j++ {
		graph[0] = hashTwo(graph[n-1], graph[brg(0, g)])
		for i := uint64(1); i < n; i++ {
			graph[i] = hashTwo(graph[i-1], graph[brg(i, g)])
		}
	}
}

// gamma runs Catena's randomizing pass: an RNG buffer seeded from
// (salt || g) repeatedly rehashes itself, each round deriving two
// graph indices from the hash output and folding one entry into
// another.
func gamma(graph [][hashBytes]byte, g uint, salt *[SaltBytes]byte) {
	var seedMsg [SaltBytes + 1]byte
	copy(seedMsg[:SaltBytes], salt[:])
	seedMsg[SaltBytes] = byte(g)
	var rng [hashBytes]byte
	skein.HashNative(&rng, seedMsg[:])

	count := uint64(1) << ((3*uint(g) + 3) / 4)
	for it := uint64(0); it < count; it++ {
		out := make([]byte, hashBytes+16)
		skein.Hash(out, rng[:])
		copy(rng[:], out[:hashBytes])

		j1 := binary.LittleEndian.Uint64(out[hashBytes:hashBytes+8]) >> (64 - g)
		j2 := binary.LittleEndian.Uint64(out[hashBytes+8:hashBytes+16]) >> (64 - g)
		graph[j1] = hashTwo(graph[j1], graph[j2])
	}
}

// phi runs Catena's data-dependent pass: each graph entry folds in the
// entry its predecessor's leading bits point to, then x is set to the
// final entry.
func phi(x *[hashBytes]byte, graph [][hashBytes]byte, g uint) {
	last := uint64(len(graph)) - 1
	j := binary.LittleEndian.Uint64(graph[last][:8]) >> (64 - g)
	graph[0] = hashTwo(graph[last], graph[j])
	for i := uint64(1); i <= last; i++ {
		j := binary.LittleEndian.Uint64(graph[i-1][:8]) >> (64 - g)
		graph[i] = hashTwo(graph[i-1], graph[j])
	}
	*x = graph[last]
}
