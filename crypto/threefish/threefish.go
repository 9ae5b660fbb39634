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

// Package threefish implements the Threefish-512 tweakable block cipher:
// a 512-bit block, 512-bit key, 128-bit tweak, 72-round substitution-
// permutation cipher built entirely out of addition, XOR, and fixed
// rotations. It is the primitive every other package in this module's
// crypto/ tree (ubi, skein, ctr, cbc, ...) is built on top of.
//
// Threefish is not constant-time: its only data-dependent operations are
// additions and XORs of public-length buffers, so there is no secret-
// dependent branch or memory access to defend against. Constant-time
// behavior is required only of MAC verification, which lives in the
// envelope packages (dragonfly, cbcv2).
package threefish

import (
	"encoding/binary"
	"math/bits"
)

const (
	// BlockBytes is the width of a Threefish-512 block and of the
	// internal Skein-512 chaining value.
	BlockBytes = 64
	// BlockWords is BlockBytes expressed in 64-bit words.
	BlockWords = BlockBytes / 8
	// NumberRounds is fixed at 72 for the 512-bit block size.
	NumberRounds = 72
	// NumberSubkeys is (NumberRounds/4)+1: one subkey injected every
	// four rounds, plus the final subkey after the last round.
	NumberSubkeys = NumberRounds/4 + 1
	// ExternalKeyWords is BlockWords+1: the 9th word is the parity
	// word computed by Rekey.
	ExternalKeyWords = BlockWords + 1
	// ExternalTweakWords is 2+1: the 3rd word is the parity word
	// computed by Rekey.
	ExternalTweakWords = 3

	// c240 is the Threefish key-schedule parity constant.
	c240 = 0x1BD11BDAA9FC1A22
)

// Key is the external 512-bit key buffer, plus its parity word. Rekey
// fills Key[8]; callers supply Key[0:8].
type Key [ExternalKeyWords]uint64

// Tweak is the external 128-bit tweak buffer, plus its parity word.
// Rekey fills Tweak[2]; callers supply Tweak[0:2].
type Tweak [ExternalTweakWords]uint64

// Rekey computes the parity words of key and tweak in place:
//
//	key[8]   = c240 ^ key[0] ^ ... ^ key[7]
//	tweak[2] = tweak[0] ^ tweak[1]
//
// Every constructor in this package calls Rekey before it is safe to
// derive subkeys from key/tweak.
func Rekey(key *Key, tweak *Tweak) {
	key[BlockWords] = c240
	for i := 0; i < BlockWords; i++ {
		key[BlockWords] ^= key[i]
	}
	tweak[2] = tweak[0] ^ tweak[1]
}

// subkey computes the i-th (of 19) 512-bit subkey from a rekeyed
// key/tweak pair. Word j of subkey i is:
//
//	key[(i+j) mod 9] + tweak[i mod 3]       if j == 5
//	key[(i+j) mod 9] + tweak[(i+1) mod 3]   if j == 6
//	key[(i+j) mod 9] + i                    if j == 7
//	key[(i+j) mod 9]                        otherwise
func subkey(key *Key, tweak *Tweak, i int) [BlockWords]uint64 {
	var sk [BlockWords]uint64
	for j := 0; j < BlockWords; j++ {
		sk[j] = key[(i+j)%ExternalKeyWords]
	}
	sk[5] += tweak[i%3]
	sk[6] += tweak[(i+1)%3]
	sk[7] += uint64(i)
	return sk
}

// schedule supplies the i-th subkey to the round function, abstracting
// over the two subkey-generation strategies named in spec.md's
// REDESIGN FLAGS: precompute-once (Stored) or compute-on-demand
// (OnDemand).
type schedule interface {
	subkey(i int) [BlockWords]uint64
}

// rotation constants, Skein/Threefish-512, indexed [round mod 8][mix index].
var rotationConstants = [8][4]uint{
	{46, 36, 19, 37},
	{33, 27, 14, 42},
	{17, 49, 36, 39},
	{44, 9, 54, 56},
	{39, 30, 34, 24},
	{13, 50, 10, 17},
	{25, 29, 39, 43},
	{8, 35, 56, 22},
}

func mix(s *[BlockWords]uint64, i0, i1 int, rot uint) {
	s[i0] += s[i1]
	s[i1] = bits.RotateLeft64(s[i1], int(rot)) ^ s[i0]
}

func invMix(s *[BlockWords]uint64, i0, i1 int, rot uint) {
	s[i1] ^= s[i0]
	s[i1] = bits.RotateLeft64(s[i1], -int(rot))
	s[i0] -= s[i1]
}

// permute applies the fixed Threefish-512 word permutation: word 2 moves
// to position 0, word 4 to position 2, word 6 to position 4, word 0 to
// position 6; words 3 and 7 swap; words 1 and 5 are untouched.
func permute(s *[BlockWords]uint64) {
	s[0], s[2], s[4], s[6] = s[2], s[4], s[6], s[0]
	s[3], s[7] = s[7], s[3]
}

func invPermute(s *[BlockWords]uint64) {
	s[0], s[2], s[4], s[6] = s[6], s[0], s[2], s[4]
	s[3], s[7] = s[7], s[3]
}

func addSubkey(s *[BlockWords]uint64, sk [BlockWords]uint64) {
	for j := 0; j < BlockWords; j++ {
		s[j] += sk[j]
	}
}

func subSubkey(s *[BlockWords]uint64, sk [BlockWords]uint64) {
	for j := 0; j < BlockWords; j++ {
		s[j] -= sk[j]
	}
}

func bytesToState(in *[BlockBytes]byte) [BlockWords]uint64 {
	var s [BlockWords]uint64
	for i := range s {
		s[i] = binary.LittleEndian.Uint64(in[i*8 : i*8+8])
	}
	return s
}

func stateToBytes(out *[BlockBytes]byte, s [BlockWords]uint64) {
	for i := range s {
		binary.LittleEndian.PutUint64(out[i*8:i*8+8], s[i])
	}
}

func cipherCore(sch schedule, out, in *[BlockBytes]byte) {
	state := bytesToState(in)
	for r := 0; r < NumberRounds; r++ {
		if r%4 == 0 {
			addSubkey(&state, sch.subkey(r/4))
		}
		row := r % 8
		mix(&state, 0, 1, rotationConstants[row][0])
		mix(&state, 2, 3, rotationConstants[row][1])
		mix(&state, 4, 5, rotationConstants[row][2])
		mix(&state, 6, 7, rotationConstants[row][3])
		permute(&state)
	}
	addSubkey(&state, sch.subkey(NumberSubkeys-1))
	stateToBytes(out, state)
}

func inverseCipherCore(sch schedule, out, in *[BlockBytes]byte) {
	state := bytesToState(in)
	subSubkey(&state, sch.subkey(NumberSubkeys-1))
	for r := NumberRounds - 1; r >= 0; r-- {
		invPermute(&state)
		row := r % 8
		invMix(&state, 6, 7, rotationConstants[row][3])
		invMix(&state, 4, 5, rotationConstants[row][2])
		invMix(&state, 2, 3, rotationConstants[row][1])
		invMix(&state, 0, 1, rotationConstants[row][0])
		if r%4 == 0 {
			subSubkey(&state, sch.subkey(r/4))
		}
	}
	stateToBytes(out, state)
}
