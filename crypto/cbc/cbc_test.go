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

package cbc

import (
	"bytes"
	"testing"

	"github.com/threecrypt/threecrypt/crypto/threefish"
)

func newCipher() threefish.Cipher {
	var key threefish.Key
	var tweak threefish.Tweak
	for i := 0; i < threefish.BlockWords; i++ {
		key[i] = uint64(i)*31 + 5
	}
	tweak[0], tweak[1] = 1, 2
	return threefish.NewStored(&key, &tweak)
}

func roundTrip(t *testing.T, plaintext []byte) {
	t.Helper()
	cipher := newCipher()
	var iv [blockBytes]byte
	for i := range iv {
		iv[i] = byte(i)
	}

	ct := Encrypt(cipher, &iv, plaintext)
	if len(ct) != PaddedCiphertextSize(len(plaintext)) {
		t.Fatalf("ciphertext length %d, want %d", len(ct), PaddedCiphertextSize(len(plaintext)))
	}
	if len(ct)%blockBytes != 0 {
		t.Fatalf("ciphertext length %d is not block-aligned", len(ct))
	}

	pt, err := Decrypt(cipher, &iv, ct)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(pt, plaintext) {
		t.Fatalf("recovered plaintext mismatch: got %x, want %x", pt, plaintext)
	}
}

func TestRoundTripUnaligned(t *testing.T) {
	roundTrip(t, []byte("not a multiple of sixty-four bytes long"))
}

func TestRoundTripBlockAligned(t *testing.T) {
	roundTrip(t, bytes.Repeat([]byte{0x5a}, blockBytes*2))
}

func TestRoundTripEmpty(t *testing.T) {
	roundTrip(t, nil)
}

func TestDecryptRejectsAllZeroFinalBlock(t *testing.T) {
	cipher := newCipher()
	var iv [blockBytes]byte

	plaintext := bytes.Repeat([]byte{0}, blockBytes)
	ct := Encrypt(cipher, &iv, plaintext)

	// Replace the final (padding) ciphertext block with the encryption
	// of the preceding ciphertext block, so it decrypts-and-XORs to an
	// all-zero plaintext block with no 0x80 marker anywhere in it.
	var forcedZero [blockBytes]byte
	var prevBlock [blockBytes]byte
	copy(prevBlock[:], ct[len(ct)-2*blockBytes:len(ct)-blockBytes])
	cipher.Encrypt(&forcedZero, &prevBlock)
	copy(ct[len(ct)-blockBytes:], forcedZero[:])

	if _, err := Decrypt(cipher, &iv, ct); err != ErrNoPaddingMarker {
		t.Fatalf("got err %v, want ErrNoPaddingMarker", err)
	}
}

func TestDecryptRejectsBadLength(t *testing.T) {
	cipher := newCipher()
	var iv [blockBytes]byte
	if _, err := Decrypt(cipher, &iv, make([]byte, 10)); err != ErrInvalidCiphertextLength {
		t.Fatalf("got err %v, want ErrInvalidCiphertextLength", err)
	}
}

func TestPaddedCiphertextSizeAddsWholeBlockWhenAligned(t *testing.T) {
	if got := PaddedCiphertextSize(blockBytes * 3); got != blockBytes*4 {
		t.Fatalf("got %d, want %d", got, blockBytes*4)
	}
}
