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

// Package ubi implements Unique Block Iteration, the Threefish-512
// chaining construction Skein is built from: it folds an arbitrary-
// length byte string into a 64-byte chaining value under a typed,
// positioned tweak, and can expand that chaining value back out to an
// arbitrary-length output stream.
package ubi

import (
	"encoding/binary"

	"github.com/threecrypt/threecrypt/crypto/threefish"
)

// Type is the 6-bit UBI "purpose" field that domain-separates one
// chaining operation from another sharing the same chaining value.
type Type byte

const (
	TypeKey Type = 0
	TypeCfg Type = 4
	TypePrs Type = 8
	TypePK  Type = 12
	TypeKDF Type = 16
	TypeNon Type = 20
	TypeMsg Type = 48
	TypeOut Type = 63
)

const (
	// BlockWords mirrors threefish.BlockWords; UBI's chaining value and
	// message blocks are always one Threefish-512 block wide.
	BlockWords = threefish.BlockWords
	// BlockBytes mirrors threefish.BlockBytes.
	BlockBytes = threefish.BlockBytes
)

// Chain folds msg into chain under the given type, in place. It is the
// shared mechanics behind chain_config, chain_message, and chain_type:
// callers pick the type and hand it the appropriately-formatted bytes
// (a 32-byte config string, key bytes, message bytes, ...).
//
// msg is processed in 64-byte blocks; the final block is zero-padded if
// short. Even an empty msg still runs one (all-zero) block, matching
// Skein's treatment of a zero-length key or message. The tweak position
// advances by the true number of bytes in each block, never the padded
// length.
func Chain(chain *[BlockWords]uint64, msg []byte, typ Type) {
	n := len(msg)
	blocks := (n + BlockBytes - 1) / BlockBytes
	if blocks == 0 {
		blocks = 1
	}
	var processed uint64
	for i := 0; i < blocks; i++ {
		start := i * BlockBytes
		end := start + BlockBytes
		if end > n {
			end = n
		}
		var block [BlockBytes]byte
		copy(block[:], msg[start:end])
		processed += uint64(end - start)

		var key threefish.Key
		copy(key[:BlockWords], chain[:])
		var tweak threefish.Tweak
		tweak[0] = processed
		tweak[1] = packTweak(i == 0, i == blocks-1, typ)

		c := threefish.NewOnDemand(&key, &tweak)
		var ct [BlockBytes]byte
		c.Encrypt(&ct, &block)

		for j := 0; j < BlockWords; j++ {
			chain[j] = binary.LittleEndian.Uint64(ct[j*8:j*8+8]) ^ binary.LittleEndian.Uint64(block[j*8:j*8+8])
		}
	}
}

// Output expands a finished chaining value into an arbitrary-length
// output stream: block c of the output is a fresh one-block chain
// keyed by the fixed input chain, with message equal to the little-
// endian 64-bit counter c and type Out. Unlike Chain, the caller's
// chain value is not mutated; every output block starts from the same
// key.
func Output(chain [BlockWords]uint64, out []byte) {
	var counter uint64
	pos := 0
	for pos < len(out) {
		var msg [8]byte
		binary.LittleEndian.PutUint64(msg[:], counter)

		block := chain
		Chain(&block, msg[:], TypeOut)

		var blockBytes [BlockBytes]byte
		for j := 0; j < BlockWords; j++ {
			binary.LittleEndian.PutUint64(blockBytes[j*8:j*8+8], block[j])
		}
		pos += copy(out[pos:], blockBytes[:])
		counter++
	}
}

// NativeOutput is Output specialized to exactly one 64-byte block,
// matching chain_native_output.
func NativeOutput(chain [BlockWords]uint64, out *[BlockBytes]byte) {
	Output(chain, out[:])
}

func packTweak(first, last bool, typ Type) uint64 {
	var w uint64
	if first {
		w |= 1 << 62
	}
	if last {
		w |= 1 << 63
	}
	w |= uint64(typ&0x3f) << 56
	return w
}
