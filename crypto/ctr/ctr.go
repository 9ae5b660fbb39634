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

// Package ctr implements Threefish counter-mode: a keystream generator
// that turns an already-keyed Threefish block cipher into a byte-
// addressable stream cipher. It underlies the Dragonfly_V1 envelope.
package ctr

import (
	"encoding/binary"

	"github.com/threecrypt/threecrypt/crypto/threefish"
)

const (
	blockBytes = threefish.BlockBytes
	// NonceBytes is the width of the CTR nonce.
	NonceBytes = 32
)

// Stream is a Threefish-CTR keystream generator over an already-keyed
// cipher and a fixed 32-byte nonce.
type Stream struct {
	cipher threefish.Cipher
	nonce  [NonceBytes]byte
}

// New fixes the nonce for a keystream built on the given (already
// rekeyed) cipher. The cipher's key and tweak do the same job a
// dedicated "set key" call would; only the nonce is CTR-specific
// state, matching set_iv.
func New(cipher threefish.Cipher, nonce *[NonceBytes]byte) *Stream {
	s := &Stream{cipher: cipher}
	copy(s.nonce[:], nonce[:])
	return s
}

// XORCrypt XORs len(src) bytes of keystream into src, writing the
// result to dst (which may alias src), starting at logical keystream
// byte offset startingByte. Encryption and decryption are the same
// operation.
func (s *Stream) XORCrypt(dst, src []byte, startingByte uint64) {
	if len(dst) != len(src) {
		panic("ctr: dst and src length mismatch")
	}
	blockIndex := startingByte / blockBytes
	offset := int(startingByte % blockBytes)

	pos := 0
	for pos < len(src) {
		var in [blockBytes]byte
		binary.LittleEndian.PutUint64(in[0:8], blockIndex)
		copy(in[32:64], s.nonce[:])

		var keystream [blockBytes]byte
		s.cipher.Encrypt(&keystream, &in)

		start := 0
		if pos == 0 {
			start = offset
		}
		n := blockBytes - start
		if pos+n > len(src) {
			n = len(src) - pos
		}
		for i := 0; i < n; i++ {
			dst[pos+i] = src[pos+i] ^ keystream[start+i]
		}
		pos += n
		blockIndex++
	}
}
