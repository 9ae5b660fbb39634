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

package ctr

import (
	"bytes"
	"testing"

	"github.com/threecrypt/threecrypt/crypto/threefish"
)

func newCipher(t *testing.T) threefish.Cipher {
	t.Helper()
	var key threefish.Key
	var tweak threefish.Tweak
	for i := 0; i < threefish.BlockWords; i++ {
		key[i] = uint64(i) + 1
	}
	tweak[0], tweak[1] = 0xaa, 0xbb
	return threefish.NewStored(&key, &tweak)
}

func TestXORCryptRoundTrip(t *testing.T) {
	cipher := newCipher(t)
	var nonce [NonceBytes]byte
	for i := range nonce {
		nonce[i] = byte(i * 7)
	}

	plaintext := bytes.Repeat([]byte("0123456789abcdef"), 20)
	ciphertext := make([]byte, len(plaintext))
	New(cipher, &nonce).XORCrypt(ciphertext, plaintext, 0)

	recovered := make([]byte, len(plaintext))
	New(cipher, &nonce).XORCrypt(recovered, ciphertext, 0)

	if !bytes.Equal(recovered, plaintext) {
		t.Fatalf("round trip failed: got %x, want %x", recovered, plaintext)
	}
	if bytes.Equal(ciphertext, plaintext) {
		t.Fatal("ciphertext equals plaintext")
	}
}

func TestXORCryptStartingByteMidBlockMatchesFullStreamSlice(t *testing.T) {
	cipher := newCipher(t)
	var nonce [NonceBytes]byte
	for i := range nonce {
		nonce[i] = byte(255 - i)
	}

	full := make([]byte, 200)
	keystreamOnly := make([]byte, 200)
	New(cipher, &nonce).XORCrypt(keystreamOnly, full, 0)

	const startAt = 100
	tail := make([]byte, len(full)-startAt)
	New(cipher, &nonce).XORCrypt(tail, full[startAt:], startAt)

	if !bytes.Equal(tail, keystreamOnly[startAt:]) {
		t.Fatalf("offset xorcrypt diverged from full-stream slice at byte %d", startAt)
	}
}

func TestXORCryptStartingByteBlockAligned(t *testing.T) {
	cipher := newCipher(t)
	var nonce [NonceBytes]byte

	full := make([]byte, 256)
	keystreamOnly := make([]byte, 256)
	New(cipher, &nonce).XORCrypt(keystreamOnly, full, 0)

	const startAt = 128
	tail := make([]byte, len(full)-startAt)
	New(cipher, &nonce).XORCrypt(tail, full[startAt:], startAt)

	if !bytes.Equal(tail, keystreamOnly[startAt:]) {
		t.Fatalf("block-aligned offset xorcrypt diverged at byte %d", startAt)
	}
}
