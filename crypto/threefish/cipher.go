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

package threefish

// Cipher encrypts and decrypts single 64-byte Threefish-512 blocks under
// a fixed key and tweak. Both implementations below satisfy it; callers
// pick whichever trades memory for recompute the way they need.
type Cipher interface {
	Encrypt(dst, src *[BlockBytes]byte)
	Decrypt(dst, src *[BlockBytes]byte)
}

// storedSchedule holds all 19 subkeys precomputed once at construction.
// Faster per-block when a key is reused across many blocks, at the cost
// of 19*64 bytes of resident (and, for secret keys, lockable/zeroable)
// state.
type storedSchedule [NumberSubkeys][BlockWords]uint64

func (s *storedSchedule) subkey(i int) [BlockWords]uint64 { return s[i] }

// Stored is a Threefish-512 cipher instance whose subkey schedule is
// expanded once and held in memory for the lifetime of the instance.
type Stored struct {
	sched storedSchedule
}

// NewStored rekeys key/tweak and expands the full 19-subkey schedule.
// key and tweak are not retained; Wipe the schedule via Destroy (or let
// the caller's own secmem buffer cover it) once the instance is no
// longer needed, since it carries everything needed to invert the
// cipher.
func NewStored(key *Key, tweak *Tweak) *Stored {
	Rekey(key, tweak)
	c := &Stored{}
	for i := 0; i < NumberSubkeys; i++ {
		c.sched[i] = subkey(key, tweak, i)
	}
	return c
}

func (c *Stored) Encrypt(dst, src *[BlockBytes]byte) { cipherCore(&c.sched, dst, src) }
func (c *Stored) Decrypt(dst, src *[BlockBytes]byte) { inverseCipherCore(&c.sched, dst, src) }

// Destroy zeroes the expanded subkey schedule in place.
func (c *Stored) Destroy() {
	for i := range c.sched {
		for j := range c.sched[i] {
			c.sched[i][j] = 0
		}
	}
}

// onDemandSchedule recomputes each subkey from the retained key/tweak
// the moment the round function needs it, trading per-block CPU time
// for a much smaller resident footprint (no 19-subkey table).
type onDemandSchedule struct {
	key   *Key
	tweak *Tweak
}

func (s *onDemandSchedule) subkey(i int) [BlockWords]uint64 { return subkey(s.key, s.tweak, i) }

// OnDemand is a Threefish-512 cipher instance that regenerates each
// subkey from the key and tweak as the round function consumes it,
// rather than expanding and storing the full schedule up front.
type OnDemand struct {
	sched onDemandSchedule
}

// NewOnDemand rekeys key and tweak and retains pointers to them; both
// must outlive the returned Cipher and remain unmodified.
func NewOnDemand(key *Key, tweak *Tweak) *OnDemand {
	Rekey(key, tweak)
	return &OnDemand{sched: onDemandSchedule{key: key, tweak: tweak}}
}

func (c *OnDemand) Encrypt(dst, src *[BlockBytes]byte) { cipherCore(&c.sched, dst, src) }
func (c *OnDemand) Decrypt(dst, src *[BlockBytes]byte) { inverseCipherCore(&c.sched, dst, src) }
