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
	"errors"

	"github.com/threecrypt/threecrypt/crypto/cbcv2"
	"github.com/threecrypt/threecrypt/crypto/dragonfly"
)

// method names a file envelope this binary knows how to read, the way
// determine_crypto_method identified one of a fixed, compiled-in list
// of candidate envelopes by comparing leading ID bytes.
type method int

const (
	methodNone method = iota
	methodDragonfly
	methodCBCV2
)

var errUnrecognizedEnvelope = errors.New("3crypt: file does not start with a recognized envelope ID")

// smallestIDLen is the shortest of the known envelope IDs; a file
// shorter than this cannot possibly be identified.
const smallestIDLen = len(cbcv2.ID)

// detectMethod inspects the leading bytes of file and reports which
// known envelope it belongs to, or methodNone if none match.
func detectMethod(file []byte) method {
	if len(file) < smallestIDLen {
		return methodNone
	}
	if len(file) >= len(dragonfly.ID) && string(file[:len(dragonfly.ID)]) == dragonfly.ID {
		return methodDragonfly
	}
	if string(file[:len(cbcv2.ID)]) == cbcv2.ID {
		return methodCBCV2
	}
	return methodNone
}

func (m method) String() string {
	switch m {
	case methodDragonfly:
		return "dragonfly"
	case methodCBCV2:
		return "cbcv2"
	default:
		return "none"
	}
}
