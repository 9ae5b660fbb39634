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

// Package sspkdf implements the iterated, Skein-MAC-based password
// stretching KDF used by the CBC_V2 envelope. Unlike Catena it carries
// no memory-hardness parameters, only an iteration and a concatenation
// count.
package sspkdf

import (
	"encoding/binary"

	"github.com/threecrypt/threecrypt/crypto/skein"
	"github.com/threecrypt/threecrypt/internal/wipe"
)

const (
	// OutputBytes is the width of the derived key.
	OutputBytes = skein.BlockBytes
	// SaltBytes is the fixed salt width SSPKDF takes.
	SaltBytes = 16
)

// Derive fills out with the 64-byte key SSPKDF derives from password
// and salt using numIter MAC iterations over a concatenation buffer
// repeated numConcat times.
//
// The concatenation buffer is (len(password)+SaltBytes+4)*numConcat
// bytes long: numConcat copies of (password || salt || little-endian
// 32-bit counter), the counter starting at 0 and incrementing once per
// copy. That buffer is Skein-hashed to an initial 64-byte key; the key
// is then folded against itself through numIter rounds of Skein-MAC.
func Derive(out *[OutputBytes]byte, password []byte, salt *[SaltBytes]byte, numIter, numConcat uint32) {
	tupleLen := len(password) + SaltBytes + 4
	concat := make([]byte, tupleLen*int(numConcat))
	for i := 0; i < int(numConcat); i++ {
		off := i * tupleLen
		off += copy(concat[off:], password)
		off += copy(concat[off:], salt[:])
		binary.LittleEndian.PutUint32(concat[off:off+4], uint32(i))
	}

	var key [OutputBytes]byte
	skein.HashNative(&key, concat)

	var buffer [OutputBytes]byte
	skein.MAC(buffer[:], concat, key[:])
	wipe.Bytes(concat)
	xorInto(&key, &buffer)

	for i := uint32(1); i < numIter; i++ {
		var next [OutputBytes]byte
		skein.MAC(next[:], buffer[:], key[:])
		buffer = next
		xorInto(&key, &buffer)
	}

	skein.HashNative(out, buffer[:])

	wipe.Bytes(key[:])
	wipe.Bytes(buffer[:])
}

func xorInto(key, buffer *[OutputBytes]byte) {
	for i := range key {
		key[i] ^= buffer[i]
	}
}
