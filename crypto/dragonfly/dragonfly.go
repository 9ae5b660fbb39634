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

// Package dragonfly implements the Dragonfly_V1 file envelope: Catena
// for password hashing, a Skein-derived key pair, Threefish-CTR for
// confidentiality, and a trailing Skein-MAC for authenticity.
//
// Encrypt and Decrypt operate on whole in-memory buffers; the caller
// (cmd/3crypt) is responsible for memory-mapping the input/output
// files and for deleting the output file on any error this package
// returns, per the teardown contract every envelope shares.
package dragonfly

import (
	"crypto/subtle"
	"encoding/binary"
	"errors"

	"github.com/threecrypt/threecrypt/crypto/catena"
	"github.com/threecrypt/threecrypt/crypto/csprng"
	"github.com/threecrypt/threecrypt/crypto/ctr"
	"github.com/threecrypt/threecrypt/crypto/skein"
	"github.com/threecrypt/threecrypt/crypto/threefish"
	"github.com/threecrypt/threecrypt/internal/wipe"
)

// ID is the literal 17-byte identifier every Dragonfly_V1 file opens
// with, including the trailing NUL.
const ID = "SSC_DRAGONFLY_V1\x00"

const (
	idBytes           = 17
	tweakBytes        = 16
	saltBytes         = catena.SaltBytes
	nonceBytes        = ctr.NonceBytes
	plainHeaderBytes  = idBytes + 8 + 1 + 1 + 1 + 1 + tweakBytes + saltBytes + nonceBytes // 109
	cipherHeaderBytes = 16
	macBytes          = skein.BlockBytes

	offsetTotalSize = idBytes
	offsetGLow      = offsetTotalSize + 8
	offsetGHigh     = offsetGLow + 1
	offsetLambda    = offsetGHigh + 1
	offsetUsePhi    = offsetLambda + 1
	offsetTweak     = offsetUsePhi + 1
	offsetSalt      = offsetTweak + tweakBytes
	offsetNonce     = offsetSalt + saltBytes
)

// Options carries the Catena cost parameters and variant selector that
// make it into the Dragonfly_V1 header, plus an optional progress
// logger. A nil Logf is a no-op.
type Options struct {
	GLow, GHigh, Lambda byte
	UsePhi              bool
	Logf                func(string, ...any)
}

func (o Options) logf(format string, args ...any) {
	if o.Logf != nil {
		o.Logf(format, args...)
	}
}

var (
	// ErrMalformedHeader is returned when the 17-byte ID does not
	// match or the recorded total size disagrees with the actual
	// buffer length.
	ErrMalformedHeader = errors.New("dragonfly: malformed or foreign header")
	// ErrAuthenticationFailed is returned when the trailing MAC does
	// not verify. Per the shared error-handling design this is also
	// returned for a structurally valid but wrong-password file, so
	// neither condition is distinguishable to an attacker.
	ErrAuthenticationFailed = errors.New("dragonfly: authentication failed; wrong password, corrupt, or tampered")
)

// OutputSize returns the exact file size Encrypt produces for a
// plaintext of the given length and the given amount of keystream
// padding.
func OutputSize(plaintextLen int, paddingBytes uint64) int64 {
	return int64(plaintextLen) + plainHeaderBytes + cipherHeaderBytes + int64(paddingBytes) + macBytes
}

// Header is the plaintext portion of a Dragonfly_V1 file: every field
// that can be read and printed without the password, plus the trailing
// MAC. It mirrors what the original's dump_header command reported.
type Header struct {
	TotalSize           uint64
	GLow, GHigh, Lambda byte
	UsePhi              bool
	Tweak               [tweakBytes]byte
	Salt                [saltBytes]byte
	Nonce               [nonceBytes]byte
	MAC                 [macBytes]byte
}

// ReadHeader parses the plaintext header and trailing MAC out of file
// without touching the password-derived fields or the ciphertext. It
// performs Decrypt's minimum-length and ID checks; it does not compare
// the recorded total size against len(file).
func ReadHeader(file []byte) (*Header, error) {
	if len(file) <= plainHeaderBytes+cipherHeaderBytes+macBytes {
		return nil, ErrMalformedHeader
	}
	if string(file[:idBytes]) != ID {
		return nil, ErrMalformedHeader
	}
	h := &Header{
		TotalSize: binary.LittleEndian.Uint64(file[offsetTotalSize : offsetTotalSize+8]),
		GLow:      file[offsetGLow],
		GHigh:     file[offsetGHigh],
		Lambda:    file[offsetLambda],
		UsePhi:    file[offsetUsePhi] != 0,
	}
	copy(h.Tweak[:], file[offsetTweak:offsetTweak+tweakBytes])
	copy(h.Salt[:], file[offsetSalt:offsetSalt+saltBytes])
	copy(h.Nonce[:], file[offsetNonce:offsetNonce+nonceBytes])
	copy(h.MAC[:], file[len(file)-macBytes:])
	return h, nil
}

func variantFor(usePhi bool) catena.Variant {
	if usePhi {
		return catena.Strong
	}
	return catena.Safe
}

// Encrypt builds a complete Dragonfly_V1 file for plaintext under
// password and params, drawing its tweak/nonce/salt from rng (which
// the caller must have already seeded from the OS and any optional
// supplemental entropy). password is zeroed as a side effect of the
// Catena call. paddingBytes extra keystream bytes, of no semantic
// value, are interleaved between the ciphertext header and the
// payload; the original software mixes them with whatever was in the
// freshly allocated output buffer, which for a zero-initialized Go
// slice is equivalent to encrypting zeros.
func Encrypt(plaintext, password []byte, params Options, paddingBytes uint64, rng *csprng.Generator) ([]byte, error) {
	total := OutputSize(len(plaintext), paddingBytes)
	out := make([]byte, total)

	var tweak [tweakBytes]byte
	var nonce [nonceBytes]byte
	var salt [saltBytes]byte
	rng.Get(tweak[:])
	rng.Get(nonce[:])
	rng.Get(salt[:])

	params.logf("dragonfly: hashing password with g_low=%d g_high=%d lambda=%d use_phi=%t", params.GLow, params.GHigh, params.Lambda, params.UsePhi)
	var catenaOut [skein.BlockBytes]byte
	if err := variantFor(params.UsePhi).Call(&catenaOut, password, &salt, params.GLow, params.GHigh, params.Lambda); err != nil {
		return nil, err
	}

	var hashOutput [skein.BlockBytes * 2]byte
	skein.Hash(hashOutput[:], catenaOut[:])
	var encKey, authKey [skein.BlockBytes]byte
	copy(encKey[:], hashOutput[:skein.BlockBytes])
	copy(authKey[:], hashOutput[skein.BlockBytes:])
	wipe.Bytes(hashOutput[:])
	wipe.Bytes(catenaOut[:])

	key := keyFromBytes(encKey[:])
	twk := tweakFromBytes(tweak[:])
	cipher := threefish.NewStored(&key, &twk)
	stream := ctr.New(cipher, &nonce)

	copy(out[:idBytes], ID)
	binary.LittleEndian.PutUint64(out[offsetTotalSize:offsetTotalSize+8], uint64(total))
	out[offsetGLow] = params.GLow
	out[offsetGHigh] = params.GHigh
	out[offsetLambda] = params.Lambda
	if params.UsePhi {
		out[offsetUsePhi] = 1
	}
	copy(out[offsetTweak:offsetTweak+tweakBytes], tweak[:])
	copy(out[offsetSalt:offsetSalt+saltBytes], salt[:])
	copy(out[offsetNonce:offsetNonce+nonceBytes], nonce[:])

	var cipherHeader [cipherHeaderBytes]byte
	binary.LittleEndian.PutUint64(cipherHeader[0:8], paddingBytes)
	stream.XORCrypt(out[plainHeaderBytes:plainHeaderBytes+cipherHeaderBytes], cipherHeader[:], 0)

	payloadOffset := plainHeaderBytes + cipherHeaderBytes + int(paddingBytes)
	if paddingBytes != 0 {
		padRegion := out[plainHeaderBytes+cipherHeaderBytes : payloadOffset]
		stream.XORCrypt(padRegion, padRegion, cipherHeaderBytes)
	}
	stream.XORCrypt(out[payloadOffset:payloadOffset+len(plaintext)], plaintext, cipherHeaderBytes+paddingBytes)

	skein.MAC(out[len(out)-macBytes:], out[:len(out)-macBytes], authKey[:])

	wipe.Bytes(encKey[:])
	wipe.Bytes(authKey[:])
	wipe.Words(key[:])
	wipe.Words(twk[:])

	return out, nil
}

// Decrypt verifies and recovers the plaintext from a complete
// Dragonfly_V1 file buffer. On ErrMalformedHeader or
// ErrAuthenticationFailed the caller must delete the output file it
// was writing into; this package never touches the filesystem itself.
// logf receives progress messages and may be nil.
func Decrypt(file, password []byte, logf func(string, ...any)) ([]byte, error) {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	if len(file) <= plainHeaderBytes+cipherHeaderBytes+macBytes {
		return nil, ErrMalformedHeader
	}
	if string(file[:idBytes]) != ID {
		return nil, ErrMalformedHeader
	}
	totalSize := binary.LittleEndian.Uint64(file[offsetTotalSize : offsetTotalSize+8])
	if totalSize != uint64(len(file)) {
		return nil, ErrMalformedHeader
	}

	gLow := file[offsetGLow]
	gHigh := file[offsetGHigh]
	lambda := file[offsetLambda]
	usePhi := file[offsetUsePhi] != 0
	var tweak [tweakBytes]byte
	copy(tweak[:], file[offsetTweak:offsetTweak+tweakBytes])
	var salt [saltBytes]byte
	copy(salt[:], file[offsetSalt:offsetSalt+saltBytes])
	var nonce [nonceBytes]byte
	copy(nonce[:], file[offsetNonce:offsetNonce+nonceBytes])

	logf("dragonfly: hashing password with g_low=%d g_high=%d lambda=%d use_phi=%t", gLow, gHigh, lambda, usePhi)
	var catenaOut [skein.BlockBytes]byte
	if err := variantFor(usePhi).Call(&catenaOut, password, &salt, gLow, gHigh, lambda); err != nil {
		return nil, err
	}

	var hashOutput [skein.BlockBytes * 2]byte
	skein.Hash(hashOutput[:], catenaOut[:])
	var encKey, authKey [skein.BlockBytes]byte
	copy(encKey[:], hashOutput[:skein.BlockBytes])
	copy(authKey[:], hashOutput[skein.BlockBytes:])
	wipe.Bytes(hashOutput[:])
	wipe.Bytes(catenaOut[:])

	var gotMAC [macBytes]byte
	skein.MAC(gotMAC[:], file[:len(file)-macBytes], authKey[:])
	if subtle.ConstantTimeCompare(gotMAC[:], file[len(file)-macBytes:]) != 1 {
		wipe.Bytes(encKey[:])
		wipe.Bytes(authKey[:])
		return nil, ErrAuthenticationFailed
	}
	logf("dragonfly: authentication succeeded, decrypting payload")

	key := keyFromBytes(encKey[:])
	twk := tweakFromBytes(tweak[:])
	cipher := threefish.NewStored(&key, &twk)
	stream := ctr.New(cipher, &nonce)

	var cipherHeader [cipherHeaderBytes]byte
	stream.XORCrypt(cipherHeader[:], file[plainHeaderBytes:plainHeaderBytes+cipherHeaderBytes], 0)
	paddingBytes := binary.LittleEndian.Uint64(cipherHeader[0:8])

	plaintextLen := uint64(len(file)) - plainHeaderBytes - cipherHeaderBytes - paddingBytes - macBytes
	payloadOffset := plainHeaderBytes + cipherHeaderBytes + int(paddingBytes)
	plaintext := make([]byte, plaintextLen)
	stream.XORCrypt(plaintext, file[payloadOffset:payloadOffset+int(plaintextLen)], cipherHeaderBytes+paddingBytes)

	wipe.Bytes(encKey[:])
	wipe.Bytes(authKey[:])
	wipe.Words(key[:])
	wipe.Words(twk[:])

	return plaintext, nil
}

func keyFromBytes(b []byte) threefish.Key {
	var k threefish.Key
	for i := 0; i < threefish.BlockWords; i++ {
		k[i] = binary.LittleEndian.Uint64(b[i*8 : i*8+8])
	}
	return k
}

func tweakFromBytes(b []byte) threefish.Tweak {
	var t threefish.Tweak
	t[0] = binary.LittleEndian.Uint64(b[0:8])
	t[1] = binary.LittleEndian.Uint64(b[8:16])
	return t
}
