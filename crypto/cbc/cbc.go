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

// Package cbc implements Threefish cipher-block-chaining with
// ISO/IEC 7816-4 padding, the block cipher mode backing the legacy
// CBC_V2 envelope.
package cbc

import (
	"errors"

	"github.com/threecrypt/threecrypt/crypto/threefish"
)

const blockBytes = threefish.BlockBytes

// ErrNoPaddingMarker is returned by Decrypt when the final ciphertext
// block, once decrypted, contains no 0x80 padding marker anywhere.
var ErrNoPaddingMarker = errors.New("cbc: no padding marker found in final block")

// ErrInvalidCiphertextLength is returned by Decrypt when the
// ciphertext is empty or not a whole number of blocks.
var ErrInvalidCiphertextLength = errors.New("cbc: ciphertext length is not a nonzero multiple of the block size")

// PaddedCiphertextSize returns the size of the ciphertext Encrypt
// produces for a plaintext of the given length: the input rounded up
// to the next block boundary, with a whole extra padding block
// appended when the input is already block-aligned.
func PaddedCiphertextSize(plaintextLen int) int {
	pad := blockBytes - plaintextLen%blockBytes
	return plaintextLen + pad
}

// Encrypt CBC-encrypts plaintext under cipher (already keyed) and iv,
// applying ISO/IEC 7816-4 padding, and returns the new ciphertext
// buffer.
func Encrypt(cipher threefish.Cipher, iv *[blockBytes]byte, plaintext []byte) []byte {
	total := PaddedCiphertextSize(len(plaintext))
	padded := make([]byte, total)
	copy(padded, plaintext)
	padded[len(plaintext)] = 0x80

	out := make([]byte, total)
	prev := *iv
	for i := 0; i < total; i += blockBytes {
		var block [blockBytes]byte
		for j := 0; j < blockBytes; j++ {
			block[j] = padded[i+j] ^ prev[j]
		}
		var ct [blockBytes]byte
		cipher.Encrypt(&ct, &block)
		copy(out[i:i+blockBytes], ct[:])
		prev = ct
	}
	return out
}

// Decrypt CBC-decrypts ciphertext under cipher and iv and strips the
// ISO/IEC 7816-4 padding, returning the recovered plaintext.
func Decrypt(cipher threefish.Cipher, iv *[blockBytes]byte, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) == 0 || len(ciphertext)%blockBytes != 0 {
		return nil, ErrInvalidCiphertextLength
	}

	out := make([]byte, len(ciphertext))
	prev := *iv
	for i := 0; i < len(ciphertext); i += blockBytes {
		var ct [blockBytes]byte
		copy(ct[:], ciphertext[i:i+blockBytes])
		var pt [blockBytes]byte
		cipher.Decrypt(&pt, &ct)
		for j := 0; j < blockBytes; j++ {
			out[i+j] = pt[j] ^ prev[j]
		}
		prev = ct
	}

	last := out[len(out)-blockBytes:]
	trailingZeros := 0
	for trailingZeros < blockBytes && last[blockBytes-1-trailingZeros] == 0 {
		trailingZeros++
	}
	if trailingZeros == blockBytes || last[blockBytes-1-trailingZeros] != 0x80 {
		return nil, ErrNoPaddingMarker
	}
	removed := trailingZeros + 1
	return out[:len(out)-removed], nil
}
