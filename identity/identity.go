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

// Package identity implements the keypair, signing and hierarchical
// key-derivation primitives the packet algebra and link codec build on:
// Ed25519 signing keys and an X25519 Diffie-Hellman tweak derived per
// nonce from a public chain code, in the style of BIP32-ish non-hardened
// derivation (the public half can be derived without the private key) but
// over the Edwards25519 scalar field.
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"

	"filippo.io/edwards25519"
	"golang.org/x/crypto/hkdf"
)

const (
	// KeySize is the wire size of a public key. The distilled wire
	// contract names this ID_SIZE; 32 bytes is required to carry a real
	// Ed25519/X25519 point rather than a non-invertible fingerprint.
	KeySize = 32
	// ChainCodeSize is the wire size of a chain code (CC_SIZE).
	ChainCodeSize = 32
	// NonceSize is the wire size of a nonce (NONCE_SIZE).
	NonceSize = 12
	// SignatureSize is the wire size of an Ed25519 signature.
	SignatureSize = ed25519.SignatureSize
)

// PrivateIdentity is a long-lived signing keypair plus a public chain code
// used for per-nonce hierarchical key derivation.
type PrivateIdentity struct {
	seed      [32]byte
	priv      ed25519.PrivateKey
	scalar    *edwards25519.Scalar
	chainCode [32]byte
}

// PublicIdentity is the public half of a PrivateIdentity: a verify key plus
// the chain code needed to reproduce per-nonce derivations.
type PublicIdentity struct {
	key       [KeySize]byte
	point     *edwards25519.Point
	chainCode [ChainCodeSize]byte
}

// Generate creates a fresh PrivateIdentity from crypto/rand.
func Generate() (PrivateIdentity, error) {
	var seed [32]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return PrivateIdentity{}, fmt.Errorf("identity: generate seed: %w", err)
	}
	var chainCode [32]byte
	if _, err := rand.Read(chainCode[:]); err != nil {
		return PrivateIdentity{}, fmt.Errorf("identity: generate chain code: %w", err)
	}
	return FromSeed(seed, chainCode)
}

// FromSeed deterministically builds a PrivateIdentity from a 32-byte seed
// and chain code, mirroring the teacher's keys.GenerateEd25519KeyPair
// except taking the seed as an explicit argument so tests are reproducible.
func FromSeed(seed [32]byte, chainCode [32]byte) (PrivateIdentity, error) {
	priv := ed25519.NewKeyFromSeed(seed[:])
	scalar, err := scalarFromSeed(seed)
	if err != nil {
		return PrivateIdentity{}, err
	}
	return PrivateIdentity{seed: seed, priv: priv, scalar: scalar, chainCode: chainCode}, nil
}

// scalarFromSeed performs the standard Ed25519-seed-to-scalar clamping used
// to obtain the Curve25519 private scalar underlying an Ed25519 keypair.
func scalarFromSeed(seed [32]byte) (*edwards25519.Scalar, error) {
	h := sha512.Sum512(seed[:])
	var clamped [32]byte
	copy(clamped[:], h[:32])
	clamped[0] &= 248
	clamped[31] &= 127
	clamped[31] |= 64
	s, err := edwards25519.NewScalar().SetBytesWithClamping(clamped[:])
	if err != nil {
		return nil, fmt.Errorf("identity: clamp scalar: %w", err)
	}
	return s, nil
}

// ID is a short hex fingerprint of the public key, used for logging and
// link identification, mirroring the teacher's ed25519KeyPair.ID() scheme.
func (p PrivateIdentity) ID() string {
	return p.PublicID().ID()
}

// PublicID returns the public counterpart of this identity.
func (p PrivateIdentity) PublicID() PublicIdentity {
	point := new(edwards25519.Point).ScalarBaseMult(p.scalar)
	var key [KeySize]byte
	copy(key[:], point.Bytes())
	return PublicIdentity{key: key, point: point, chainCode: p.chainCode}
}

// SigningKey exposes the Ed25519 signing operation.
func (p PrivateIdentity) SigningKey() SigningKey {
	return SigningKey{priv: p.priv}
}

// Derive produces the per-nonce derived private scalar used for link and
// end-to-end key agreement.
func (p PrivateIdentity) Derive(nonce [NonceSize]byte) (DerivedPrivate, error) {
	tweak, err := deriveTweak(p.chainCode, nonce)
	if err != nil {
		return DerivedPrivate{}, err
	}
	derived := edwards25519.NewScalar().Add(p.scalar, tweak)
	return DerivedPrivate{scalar: derived}, nil
}

// ID is a short hex fingerprint of the public key.
func (p PublicIdentity) ID() string {
	sum := sha256.Sum256(p.key[:])
	return hex.EncodeToString(sum[:8])
}

// Key returns the wire-encoded public key bytes.
func (p PublicIdentity) Key() [KeySize]byte { return p.key }

// ChainCode returns the wire-encoded chain code bytes.
func (p PublicIdentity) ChainCode() [ChainCodeSize]byte { return p.chainCode }

// Equal reports whether two public identities carry the same key and chain
// code, the equality relation HBFI comparison and Bloom indexing rely on.
func (p PublicIdentity) Equal(o PublicIdentity) bool {
	return p.key == o.key && p.chainCode == o.chainCode
}

// Reconstitute rebuilds a PublicIdentity from wire bytes without requiring
// the corresponding private key, used when deserializing an HBFI or link
// frame.
func Reconstitute(key [KeySize]byte, chainCode [ChainCodeSize]byte) (PublicIdentity, error) {
	point, err := new(edwards25519.Point).SetBytes(key[:])
	if err != nil {
		return PublicIdentity{}, fmt.Errorf("identity: reconstitute point: %w", err)
	}
	return PublicIdentity{key: key, point: point, chainCode: chainCode}, nil
}

// VerifyKey exposes the Ed25519 verification operation.
func (p PublicIdentity) VerifyKey() VerifyKey {
	return VerifyKey{pub: ed25519.PublicKey(p.key[:])}
}

// Derive produces the per-nonce derived public point a peer can use to
// compute a shared secret without access to the private identity.
func (p PublicIdentity) Derive(nonce [NonceSize]byte) (DerivedPublic, error) {
	tweak, err := deriveTweak(p.chainCode, nonce)
	if err != nil {
		return DerivedPublic{}, err
	}
	tweakPoint := new(edwards25519.Point).ScalarBaseMult(tweak)
	derived := new(edwards25519.Point).Add(p.point, tweakPoint)
	return DerivedPublic{point: derived}, nil
}

// deriveTweak expands (chainCode, nonce) into a scalar via HKDF-SHA256,
// reducing the output uniformly modulo the Edwards25519 group order.
func deriveTweak(chainCode [ChainCodeSize]byte, nonce [NonceSize]byte) (*edwards25519.Scalar, error) {
	kdf := hkdf.New(sha256.New, chainCode[:], nonce[:], []byte("copernica-derive"))
	wide := make([]byte, 64)
	if _, err := kdf.Read(wide); err != nil {
		return nil, fmt.Errorf("identity: derive tweak: %w", err)
	}
	return edwards25519.NewScalar().SetUniformBytes(wide)
}

// SigningKey wraps an Ed25519 private key for manifest signing.
type SigningKey struct {
	priv ed25519.PrivateKey
}

// Sign returns a deterministic Ed25519 signature over msg.
func (s SigningKey) Sign(msg []byte) [SignatureSize]byte {
	var sig [SignatureSize]byte
	copy(sig[:], ed25519.Sign(s.priv, msg))
	return sig
}

// VerifyKey wraps an Ed25519 public key for manifest verification.
type VerifyKey struct {
	pub ed25519.PublicKey
}

// Verify reports whether sig is a valid Ed25519 signature of msg.
func (v VerifyKey) Verify(sig [SignatureSize]byte, msg []byte) bool {
	return ed25519.Verify(v.pub, msg, sig[:])
}

// DerivedPrivate is the per-nonce derived scalar used as one side of an
// X25519-equivalent exchange over the Edwards25519 curve.
type DerivedPrivate struct {
	scalar *edwards25519.Scalar
}

// Exchange computes a 32-byte shared secret with a peer's derived public
// point, symmetric regardless of which side initiates.
func (d DerivedPrivate) Exchange(peer DerivedPublic) [32]byte {
	shared := new(edwards25519.Point).ScalarMult(d.scalar, peer.point)
	return sha256.Sum256(shared.Bytes())
}

// DerivedPublic is the per-nonce derived point a peer computes from a
// PublicIdentity without needing the corresponding private key.
type DerivedPublic struct {
	point *edwards25519.Point
}
