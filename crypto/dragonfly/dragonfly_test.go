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

package dragonfly

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

func testParams() Options {
	return Options{GLow: 2, GHigh: 2, Lambda: 1, UsePhi: false}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	plaintext := []byte("the quick brown fox jumps over the lazy dog")
	out, err := Encrypt(plaintext, []byte("correct horse battery staple"), testParams(), 0, newRNG(t, 0x13))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	got, err := Decrypt(out, []byte("correct horse battery staple"), nil)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("round trip mismatch: got %q, want %q", got, plaintext)
	}
}

func TestEncryptSizeMatchesOutputSizeWithNoPadding(t *testing.T) {
	plaintext := []byte("twelve bytes")
	out, err := Encrypt(plaintext, []byte("hunter2"), testParams(), 0, newRNG(t, 0x42))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	want := OutputSize(len(plaintext), 0)
	if int64(len(out)) != want {
		t.Fatalf("output size = %d, want %d", len(out), want)
	}
	if want != int64(len(plaintext))+plainHeaderBytes+cipherHeaderBytes+macBytes {
		t.Fatalf("OutputSize formula drifted from the fixed header widths")
	}
}

func TestEncryptDecryptRoundTripWithPadding(t *testing.T) {
	plaintext := []byte("payload preceded by extra keystream padding bytes")
	out, err := Encrypt(plaintext, []byte("p4ssw0rd"), testParams(), 37, newRNG(t, 0x77))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if want := OutputSize(len(plaintext), 37); int64(len(out)) != want {
		t.Fatalf("output size = %d, want %d", len(out), want)
	}

	got, err := Decrypt(out, []byte("p4ssw0rd"), nil)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("round trip with padding mismatch: got %q, want %q", got, plaintext)
	}
}

func TestDecryptRejectsWrongPassword(t *testing.T) {
	plaintext := []byte("some secret")
	out, err := Encrypt(plaintext, []byte("right password"), testParams(), 0, newRNG(t, 0x5))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := Decrypt(out, []byte("wrong password"), nil); err != ErrAuthenticationFailed {
		t.Fatalf("got err %v, want ErrAuthenticationFailed", err)
	}
}

func TestDecryptRejectsTamperedPayload(t *testing.T) {
	plaintext := []byte("tamper with me and authentication must fail")
	out, err := Encrypt(plaintext, []byte("hunter2"), testParams(), 0, newRNG(t, 0x9))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	out[plainHeaderBytes+cipherHeaderBytes] ^= 0x01

	if _, err := Decrypt(out, []byte("hunter2"), nil); err != ErrAuthenticationFailed {
		t.Fatalf("got err %v, want ErrAuthenticationFailed", err)
	}
}

func TestDecryptRejectsForeignID(t *testing.T) {
	plaintext := []byte("x")
	out, err := Encrypt(plaintext, []byte("hunter2"), testParams(), 0, newRNG(t, 0x2))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	out[0] ^= 0xff
	if _, err := Decrypt(out, []byte("hunter2"), nil); err != ErrMalformedHeader {
		t.Fatalf("got err %v, want ErrMalformedHeader", err)
	}
}

func TestDecryptRejectsTruncatedFile(t *testing.T) {
	plaintext := []byte("truncate me")
	out, err := Encrypt(plaintext, []byte("hunter2"), testParams(), 0, newRNG(t, 0x3))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := Decrypt(out[:len(out)-1], []byte("hunter2"), nil); err != ErrMalformedHeader {
		t.Fatalf("got err %v, want ErrMalformedHeader", err)
	}
}

func TestEncryptZeroesPasswordCopy(t *testing.T) {
	password := []byte("zero-me-please")
	original := append([]byte(nil), password...)
	if _, err := Encrypt([]byte("payload"), password, testParams(), 0, newRNG(t, 0x21)); err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	allZero := true
	for _, b := range password {
		if b != 0 {
			allZero = false
			break
		}
	}
	if !allZero {
		t.Fatalf("password was not zeroed by Encrypt: %x (was %x)", password, original)
	}
}

func TestUsePhiSelectsStrongVariant(t *testing.T) {
	plaintext := []byte("variant selection must round-trip too")
	params := testParams()
	params.UsePhi = true
	out, err := Encrypt(plaintext, []byte("hunter2"), params, 0, newRNG(t, 0x64))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	got, err := Decrypt(out, []byte("hunter2"), nil)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("strong-variant round trip mismatch: got %q, want %q", got, plaintext)
	}
}
