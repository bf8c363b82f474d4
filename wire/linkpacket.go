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
	"crypto/rand"
	"fmt"
	"time"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/fractalide/copernica/identity"
	"github.com/fractalide/copernica/internal/metrics"
	"github.com/fractalide/copernica/linkpacket"
)

const (
	linkPidSize        = identity.KeySize + identity.ChainCodeSize
	linkHeaderTailSize = 1 + 2 // reply_to_size byte + narrow waist u16 size
)

func linkAEAD(local identity.PrivateIdentity, remote identity.PublicIdentity, nonce [identity.NonceSize]byte) (interface {
	Seal(dst, nonce, plaintext, additionalData []byte) []byte
	Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
}, error) {
	derivedPriv, err := local.Derive(nonce)
	if err != nil {
		return nil, fmt.Errorf("wire: derive local link key: %w", err)
	}
	derivedPub, err := remote.Derive(nonce)
	if err != nil {
		return nil, fmt.Errorf("wire: derive remote link key: %w", err)
	}
	shared := derivedPriv.Exchange(derivedPub)
	aead, err := chacha20poly1305.New(shared[:])
	if err != nil {
		return nil, fmt.Errorf("wire: build link AEAD: %w", err)
	}
	return aead, nil
}

// SerializeLinkPacket renders lp to its wire form, addressed as coming
// from lnkTxSid. When lnkRxPid is non-nil, the narrow waist is sealed
// hop-by-hop with a key derived between lnkTxSid and lnkRxPid at a fresh
// nonce; otherwise the link carries clear text (e.g. a trusted in-process
// Mpsc link).
func SerializeLinkPacket(lp linkpacket.LinkPacket, lnkTxSid identity.PrivateIdentity, lnkRxPid *identity.PublicIdentity) ([]byte, error) {
	nwBytes, err := SerializeNarrowWaistPacket(lp.NarrowWaistPacket())
	if err != nil {
		return nil, fmt.Errorf("wire: serialize narrow waist: %w", err)
	}
	replyToSize, replyToBytes := SerializeReplyTo(lp.ReplyTo())

	txPub := lnkTxSid.PublicID()
	txKey := txPub.Key()
	txCC := txPub.ChainCode()

	if lnkRxPid == nil {
		buf := make([]byte, 0, linkPidSize+linkHeaderTailSize+len(replyToBytes)+len(nwBytes))
		buf = append(buf, txKey[:]...)
		buf = append(buf, txCC[:]...)
		buf = append(buf, replyToSize)
		var nwSize [2]byte
		putU16(nwSize[:], uint16(len(nwBytes)))
		buf = append(buf, nwSize[:]...)
		buf = append(buf, replyToBytes...)
		buf = append(buf, nwBytes...)
		return buf, nil
	}

	var nonce [identity.NonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("wire: generate link nonce: %w", err)
	}
	start := time.Now()
	aead, err := linkAEAD(lnkTxSid, *lnkRxPid, nonce)
	if err != nil {
		metrics.CryptoErrors.WithLabelValues("encrypt").Inc()
		return nil, err
	}
	sealed := aead.Seal(nil, nonce[:], nwBytes, nil)
	metrics.CryptoOperations.WithLabelValues("encrypt", "chacha20poly1305").Inc()
	metrics.CryptoOperationDuration.WithLabelValues("link_encrypt", "wire").Observe(time.Since(start).Seconds())
	encrypted := sealed[:len(nwBytes)]
	tag := sealed[len(nwBytes):]

	buf := make([]byte, 0, linkPidSize+identity.NonceSize+chacha20poly1305.Overhead+linkHeaderTailSize+len(replyToBytes)+len(encrypted))
	buf = append(buf, txKey[:]...)
	buf = append(buf, txCC[:]...)
	buf = append(buf, nonce[:]...)
	buf = append(buf, tag...)
	buf = append(buf, replyToSize)
	var nwSize [2]byte
	putU16(nwSize[:], uint16(len(encrypted)))
	buf = append(buf, nwSize[:]...)
	buf = append(buf, replyToBytes...)
	buf = append(buf, encrypted...)
	return buf, nil
}

// DeserializeLinkPacket recovers (sender identity, LinkPacket) from data.
// When lnkRxSid is non-nil, the narrow waist is assumed to be sealed and
// is decrypted using the key derived between lnkRxSid and the sender's
// advertised identity; otherwise it is assumed to be clear text.
func DeserializeLinkPacket(data []byte, lnkRxSid *identity.PrivateIdentity) (identity.PublicIdentity, linkpacket.LinkPacket, error) {
	if lnkRxSid == nil {
		return deserializeClearTextLinkPacket(data)
	}
	return deserializeCypherTextLinkPacket(data, *lnkRxSid)
}

func deserializeClearTextLinkPacket(data []byte) (identity.PublicIdentity, linkpacket.LinkPacket, error) {
	if len(data) < linkPidSize+linkHeaderTailSize {
		return identity.PublicIdentity{}, linkpacket.LinkPacket{}, fmt.Errorf("wire: clear-text link packet too short: %d", len(data))
	}
	var txKey [identity.KeySize]byte
	var txCC [identity.ChainCodeSize]byte
	copy(txKey[:], data[0:identity.KeySize])
	copy(txCC[:], data[identity.KeySize:linkPidSize])
	txPID, err := identity.Reconstitute(txKey, txCC)
	if err != nil {
		return identity.PublicIdentity{}, linkpacket.LinkPacket{}, fmt.Errorf("wire: reconstitute link sender: %w", err)
	}
	o := linkPidSize
	replyToSize := int(data[o])
	o++
	nwSize := int(getU16(data[o : o+2]))
	o += 2
	replyTo, err := DeserializeReplyTo(data[o : o+replyToSize])
	if err != nil {
		return identity.PublicIdentity{}, linkpacket.LinkPacket{}, fmt.Errorf("wire: deserialize reply-to: %w", err)
	}
	o += replyToSize
	nw, err := DeserializeNarrowWaistPacket(data[o : o+nwSize])
	if err != nil {
		return identity.PublicIdentity{}, linkpacket.LinkPacket{}, fmt.Errorf("wire: deserialize narrow waist: %w", err)
	}
	return txPID, linkpacket.New(replyTo, nw), nil
}

func deserializeCypherTextLinkPacket(data []byte, lnkRxSid identity.PrivateIdentity) (identity.PublicIdentity, linkpacket.LinkPacket, error) {
	minSize := linkPidSize + identity.NonceSize + chacha20poly1305.Overhead + linkHeaderTailSize
	if len(data) < minSize {
		return identity.PublicIdentity{}, linkpacket.LinkPacket{}, fmt.Errorf("wire: cypher-text link packet too short: %d", len(data))
	}
	var txKey [identity.KeySize]byte
	var txCC [identity.ChainCodeSize]byte
	copy(txKey[:], data[0:identity.KeySize])
	copy(txCC[:], data[identity.KeySize:linkPidSize])
	txPID, err := identity.Reconstitute(txKey, txCC)
	if err != nil {
		return identity.PublicIdentity{}, linkpacket.LinkPacket{}, fmt.Errorf("wire: reconstitute link sender: %w", err)
	}
	o := linkPidSize
	var nonce [identity.NonceSize]byte
	copy(nonce[:], data[o:o+identity.NonceSize])
	o += identity.NonceSize
	var tag [chacha20poly1305.Overhead]byte
	copy(tag[:], data[o:o+chacha20poly1305.Overhead])
	o += chacha20poly1305.Overhead

	replyToSize := int(data[o])
	o++
	nwSize := int(getU16(data[o : o+2]))
	o += 2
	replyTo, err := DeserializeReplyTo(data[o : o+replyToSize])
	if err != nil {
		return identity.PublicIdentity{}, linkpacket.LinkPacket{}, fmt.Errorf("wire: deserialize reply-to: %w", err)
	}
	o += replyToSize
	encrypted := data[o : o+nwSize]

	start := time.Now()
	aead, err := linkAEAD(lnkRxSid, txPID, nonce)
	if err != nil {
		metrics.CryptoErrors.WithLabelValues("decrypt").Inc()
		return identity.PublicIdentity{}, linkpacket.LinkPacket{}, err
	}
	sealed := make([]byte, 0, len(encrypted)+len(tag))
	sealed = append(sealed, encrypted...)
	sealed = append(sealed, tag[:]...)
	plain, err := aead.Open(nil, nonce[:], sealed, nil)
	if err != nil {
		metrics.CryptoErrors.WithLabelValues("decrypt").Inc()
		return identity.PublicIdentity{}, linkpacket.LinkPacket{}, fmt.Errorf("wire: failed to decrypt link packet: %w", err)
	}
	metrics.CryptoOperations.WithLabelValues("decrypt", "chacha20poly1305").Inc()
	metrics.CryptoOperationDuration.WithLabelValues("link_decrypt", "wire").Observe(time.Since(start).Seconds())

	nw, err := DeserializeNarrowWaistPacket(plain)
	if err != nil {
		return identity.PublicIdentity{}, linkpacket.LinkPacket{}, fmt.Errorf("wire: deserialize narrow waist: %w", err)
	}
	return txPID, linkpacket.New(replyTo, nw), nil
}
