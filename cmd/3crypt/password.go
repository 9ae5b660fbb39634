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

package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/threecrypt/threecrypt/internal/secmem"
	"golang.org/x/term"
)

const (
	minPasswordLength = 1
	maxPasswordLength = 1 << 20
)

// readPassword prompts once on the controlling terminal and returns
// the entered bytes with the trailing newline stripped, backed by a
// page-locked secmem.Buffer so the password is never swapped to disk
// while this process holds it. It retries on an empty or over-long
// entry rather than handing a degenerate password on to the crypto
// core. The caller owns the returned slice and must wipe it (the
// crypto packages do so as a side effect of Encrypt/Decrypt, and
// wipeBytes covers the discard paths here).
func readPassword(prompt string) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	for {
		fmt.Fprint(os.Stderr, prompt)
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, fmt.Errorf("reading password: %w", err)
		}
		if len(raw) < minPasswordLength {
			fmt.Fprintln(os.Stderr, "password must not be empty")
			continue
		}
		if len(raw) > maxPasswordLength {
			fmt.Fprintln(os.Stderr, "password is too long")
			continue
		}
		buf := secmem.New(len(raw))
		copy(buf.Bytes, raw)
		wipeBytes(raw)
		if err := buf.Lock(); err != nil {
			logf("password buffer could not be page-locked: %v", err)
		}
		return buf.Bytes, nil
	}
}

// readPasswordWithConfirmation prompts twice and retries the whole
// pair until both entries match, the way the original's
// obtain_password loops an entry buffer against a confirmation buffer
// before accepting either.
func readPasswordWithConfirmation() ([]byte, error) {
	for {
		first, err := readPassword("new password: ")
		if err != nil {
			return nil, err
		}
		second, err := readPassword("confirm password: ")
		if err != nil {
			return nil, err
		}
		if bytes.Equal(first, second) {
			wipeBytes(second)
			return first, nil
		}
		wipeBytes(first)
		wipeBytes(second)
		fmt.Fprintln(os.Stderr, "passwords did not match, try again")
	}
}

func wipeBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
