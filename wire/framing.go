// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package wire

import (
	"fmt"

	"github.com/fractalide/copernica/identity"
	"github.com/fractalide/copernica/linkpacket"
)

// EncodeLinkPacket serializes lp, optionally encrypting it hop-by-hop for
// lnkRxPid, then frames the result through Reed-Solomon(255,249) for
// transmission over an unreliable transport.
func EncodeLinkPacket(lp linkpacket.LinkPacket, lnkTxSid identity.PrivateIdentity, lnkRxPid *identity.PublicIdentity) ([]byte, error) {
	serialized, err := SerializeLinkPacket(lp, lnkTxSid, lnkRxPid)
	if err != nil {
		return nil, err
	}
	return Encode(serialized), nil
}

// DecodeLinkPacket reverses EncodeLinkPacket: it corrects the
// Reed-Solomon framing, then deserializes the recovered bytes as a
// LinkPacket, decrypting it if lnkRxSid is supplied. Callers at the link
// transport layer are responsible for attributing the resulting bytes and
// frame corrections to internal/metrics.Link* under the link's own name.
func DecodeLinkPacket(framed []byte, lnkRxSid *identity.PrivateIdentity) (identity.PublicIdentity, linkpacket.LinkPacket, error) {
	serialized, err := Decode(framed)
	if err != nil {
		return identity.PublicIdentity{}, linkpacket.LinkPacket{}, fmt.Errorf("wire: frame correction: %w", err)
	}
	return DeserializeLinkPacket(serialized, lnkRxSid)
}
