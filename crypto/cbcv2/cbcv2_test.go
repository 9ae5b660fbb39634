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

package cbcv2

import (
	"bytes"
	"testing"

	"github.com/threecrypt/threecrypt/crypto/csprng"
)

type fixedSource struct{ b byte }

func (f fixedSource) Fill(buf []byte) error {
	for i := range buf {
		buf[i] = f.b
	}
	return nil
}

func newRNG(t *testing.T, seed byte) *csprng.Generator {
	t.Helper()
	g := csprng.New()
	if err := g.InitializeSeed(fixedSource{seed}); err != nil {
		t.Fatalf("InitializeSeed: %v", err)
	}
	return g
}

func testParams() Options { return Options{NumIter: 4, NumConcat: 2} }

func TestEncryptDecryptRoundTrip(t *testing.T) {
	plaintext := []byte("legacy archives still need to open correctly")
	out, err := Encrypt(plaintext, []byte("hunter2"), testParams(), newRNG(t, 0x10))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	got, err := Decrypt(out, []byte("hunter2"), nil)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("round trip mismatch: got %q, want %q", got, plaintext)
	}
}

func TestEncryptDecryptRoundTripBlockAligned(t *testing.T) {
	plaintext := bytes.Repeat([]byte{0x5a}, 64*3)
	out, err := Encrypt(plaintext, []byte("hunter2"), testParams(), newRNG(t, 0x20))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	got, err := Decrypt(out, []byte("hunter2"), nil)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("round trip mismatch on aligned input")
	}
}

func TestEncryptOutputSizeMatchesFormula(t *testing.T) {
	plaintext := []byte("seventeen bytes!!")
	out, err := Encrypt(plaintext, []byte("pw"), testParams(), newRNG(t, 0x30))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if want := OutputSize(len(plaintext)); int64(len(out)) != want {
		t.Fatalf("output size = %d, want %d", len(out), want)
	}
}

func TestDecryptRejectsWrongPassword(t *testing.T) {
	out, err := Encrypt([]byte("secret contents"), []byte("right"), testParams(), newRNG(t, 0x40))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := Decrypt(out, []byte("wrong"), nil); err != ErrAuthenticationFailed {
		t.Fatalf("got err %v, want ErrAuthenticationFailed", err)
	}
}

func TestDecryptRejectsTamperedCiphertext(t *testing.T) {
	out, err := Encrypt([]byte("secret contents that span more than one block of data"), []byte("hunter2"), testParams(), newRNG(t, 0x50))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	out[headerBytes] ^= 0x01
	if _, err := Decrypt(out, []byte("hunter2"), nil); err != ErrAuthenticationFailed {
		t.Fatalf("got err %v, want ErrAuthenticationFailed", err)
	}
}

func TestDecryptRejectsForeignID(t *testing.T) {
	out, err := Encrypt([]byte("x"), []byte("hunter2"), testParams(), newRNG(t, 0x60))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	out[0] ^= 0xff
	if _, err := Decrypt(out, []byte("hunter2"), nil); err != ErrMalformedHeader {
		t.Fatalf("got err %v, want ErrMalformedHeader", err)
	}
}

func TestDecryptRejectsTooSmallFile(t *testing.T) {
	if _, err := Decrypt(make([]byte, headerBytes), []byte("hunter2"), nil); err != ErrMalformedHeader {
		t.Fatalf("got err %v, want ErrMalformedHeader", err)
	}
}

func TestEncryptZeroesPasswordCopy(t *testing.T) {
	password := []byte("zero-me-please")
	if _, err := Encrypt([]byte("payload"), password, testParams(), newRNG(t, 0x70)); err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	for i, b := range password {
		if b != 0 {
			t.Fatalf("password byte %d not zeroed: %x", i, password)
		}
	}
}
