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

// Package config decodes the optional JSON defaults file cmd/3crypt
// reads before applying command-line flags, so that every invocation
// does not need to restate the Catena/SSPKDF cost parameters and
// envelope choice.
package config

import (
	"encoding/json"
	"fmt"
	"io"
)

// Envelope names a file envelope cmd/3crypt can select by default.
type Envelope string

const (
	Dragonfly Envelope = "dragonfly"
	CBCV2     Envelope = "cbcv2"
)

// Defaults describes the cost parameters and envelope choice that
// apply to an encrypt invocation unless overridden by a flag.
type Defaults struct {
	// Envelope is which file format encrypt produces by default.
	Envelope Envelope `json:"envelope"`

	// GLow, GHigh, Lambda, and UsePhi are Dragonfly_V1's Catena cost
	// parameters.
	GLow   uint8 `json:"g_low"`
	GHigh  uint8 `json:"g_high"`
	Lambda uint8 `json:"lambda"`
	UsePhi bool  `json:"use_phi"`

	// NumIter and NumConcat are CBC_V2's SSPKDF cost parameters.
	NumIter   uint32 `json:"num_iter"`
	NumConcat uint32 `json:"num_concat"`

	// SupplementEntropy mirrors the encrypt flag of the same name:
	// fold extra operator-supplied entropy into the CSPRNG seed.
	SupplementEntropy bool `json:"supplement_entropy"`
}

// Standard is what a freshly installed cmd/3crypt uses when no
// defaults file is present: Dragonfly_V1 at moderate Catena cost.
var Standard = Defaults{
	Envelope:  Dragonfly,
	GLow:      3,
	GHigh:     12,
	Lambda:    2,
	UsePhi:    false,
	NumIter:   100000,
	NumConcat: 1,
}

// Decode reads a JSON defaults document from src. Any field the
// document omits keeps its Standard value, since Decode starts from a
// copy of Standard rather than a zero value.
func Decode(src io.Reader) (*Defaults, error) {
	d := Standard
	if err := json.NewDecoder(src).Decode(&d); err != nil {
		return nil, fmt.Errorf("config: decoding defaults: %w", err)
	}
	return &d, nil
}

// Encode writes d to dst as indented JSON, the format Decode expects
// back.
func Encode(dst io.Writer, d *Defaults) error {
	enc := json.NewEncoder(dst)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("config: encoding defaults: %w", err)
	}
	return nil
}
