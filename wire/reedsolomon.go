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

import "errors"

// Reed-Solomon(255,249) over GF(256): every outer frame is a 255-byte
// block carrying 249 data bytes and 6 parity bytes, correcting up to 3
// corrupted bytes per block. A block with 4 or more corrupted bytes
// usually fails with ErrTooManyErrors, but it can instead land within 3
// bytes of a different codeword and be "corrected" to wrong data without
// an error. There is
// no pack dependency that performs blind error-location decoding (only
// erasure correction, which needs to be told where the damage is), so
// this codec is self-authored: classic Berlekamp-Massey error-locator
// synthesis, Chien search for the roots, and the Forney algorithm for
// error magnitudes, following the standard byte-oriented GF(2^8)
// construction used by QR codes, DVDs and most RS libraries.

const (
	rsFieldSize  = 255
	rsPrimePoly  = 0x11d
	rsBlockSize  = 255
	rsParityLen  = 6
	rsDataPerBlk = rsBlockSize - rsParityLen
)

var (
	rsExpTable [512]byte
	rsLogTable [256]byte
)

func init() {
	x := 1
	for i := 0; i < 255; i++ {
		rsExpTable[i] = byte(x)
		rsLogTable[x] = byte(i)
		x <<= 1
		if x&0x100 != 0 {
			x ^= rsPrimePoly
		}
	}
	for i := 255; i < 512; i++ {
		rsExpTable[i] = rsExpTable[i-255]
	}
}

func gfMul(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}
	return rsExpTable[int(rsLogTable[a])+int(rsLogTable[b])]
}

func gfDiv(a, b byte) byte {
	if a == 0 {
		return 0
	}
	return rsExpTable[(int(rsLogTable[a])-int(rsLogTable[b])+255)%255]
}

func gfPow(a byte, power int) byte {
	p := ((int(rsLogTable[a]) * power) % 255)
	for p < 0 {
		p += 255
	}
	return rsExpTable[p]
}

func gfInverse(a byte) byte {
	return rsExpTable[255-int(rsLogTable[a])]
}

// gfPolyMul multiplies two polynomials given highest-degree-first
// coefficients.
func gfPolyMul(p, q []byte) []byte {
	out := make([]byte, len(p)+len(q)-1)
	for j := range q {
		for i := range p {
			out[i+j] ^= gfMul(p[i], q[j])
		}
	}
	return out
}

func gfPolyAdd(p, q []byte) []byte {
	n := len(p)
	if len(q) > n {
		n = len(q)
	}
	out := make([]byte, n)
	copy(out[n-len(p):], p)
	for i := range q {
		out[n-len(q)+i] ^= q[i]
	}
	return out
}

func gfPolyScale(p []byte, x byte) []byte {
	out := make([]byte, len(p))
	for i, c := range p {
		out[i] = gfMul(c, x)
	}
	return out
}

func gfPolyEval(poly []byte, x byte) byte {
	y := poly[0]
	for i := 1; i < len(poly); i++ {
		y = gfMul(y, x) ^ poly[i]
	}
	return y
}

func rsGeneratorPoly(nsym int) []byte {
	g := []byte{1}
	for i := 0; i < nsym; i++ {
		g = gfPolyMul(g, []byte{1, gfPow(2, i)})
	}
	return g
}

// rsEncodeBlock appends nsym parity bytes to a data block of exactly
// rsDataPerBlk bytes, producing a systematic rsBlockSize-byte codeword.
func rsEncodeBlock(data []byte) []byte {
	gen := rsGeneratorPoly(rsParityLen)
	msgOut := make([]byte, len(data)+rsParityLen)
	copy(msgOut, data)
	for i := 0; i < len(data); i++ {
		coef := msgOut[i]
		if coef != 0 {
			for j, g := range gen {
				msgOut[i+j] ^= gfMul(g, coef)
			}
		}
	}
	out := make([]byte, len(data)+rsParityLen)
	copy(out, data)
	copy(out[len(data):], msgOut[len(data):])
	return out
}

// ErrTooManyErrors is returned when a Reed-Solomon block carries more
// corrupted bytes than its parity can locate and correct.
var ErrTooManyErrors = errors.New("wire: reed-solomon block has too many errors to correct")

func rsCalcSyndromes(msg []byte, nsym int) []byte {
	synd := make([]byte, nsym+1)
	for i := 0; i < nsym; i++ {
		synd[i+1] = gfPolyEval(msg, gfPow(2, i))
	}
	return synd
}

func rsSyndromesAllZero(synd []byte) bool {
	for _, s := range synd {
		if s != 0 {
			return false
		}
	}
	return true
}

func rsFindErrorLocator(synd []byte, nsym int) ([]byte, error) {
	errLoc := []byte{1}
	oldLoc := []byte{1}
	syndShift := 0
	if len(synd) > nsym {
		syndShift = len(synd) - nsym
	}
	for i := 0; i < nsym; i++ {
		k := i + syndShift
		delta := synd[k]
		for j := 1; j < len(errLoc); j++ {
			delta ^= gfMul(errLoc[len(errLoc)-1-j], synd[k-j])
		}
		oldLoc = append(oldLoc, 0)
		if delta != 0 {
			if len(oldLoc) > len(errLoc) {
				newLoc := gfPolyScale(oldLoc, delta)
				oldLoc = gfPolyScale(errLoc, gfInverse(delta))
				errLoc = newLoc
			}
			errLoc = gfPolyAdd(errLoc, gfPolyScale(oldLoc, delta))
		}
	}
	// trim leading zero coefficients
	start := 0
	for start < len(errLoc)-1 && errLoc[start] == 0 {
		start++
	}
	errLoc = errLoc[start:]
	errs := len(errLoc) - 1
	if errs*2 > nsym {
		return nil, ErrTooManyErrors
	}
	return errLoc, nil
}

// rsFindErrors performs a Chien search over the reciprocal of the error
// locator polynomial (errLoc is expected already reversed from the form
// rsFindErrorLocator returns), recovering the corrupted byte positions
// directly from its roots.
func rsFindErrors(errLoc []byte, nmess int) ([]int, error) {
	errs := len(errLoc) - 1
	var errPos []int
	for i := 0; i < nmess; i++ {
		if gfPolyEval(errLoc, gfPow(2, i)) == 0 {
			errPos = append(errPos, nmess-1-i)
		}
	}
	if len(errPos) != errs {
		return nil, ErrTooManyErrors
	}
	return errPos, nil
}

// gfPolyEvalAscending evaluates a polynomial given lowest-degree-first
// coefficients (the reversed locator), using Horner's method from the
// high end.
func gfPolyEvalAscending(poly []byte, x byte) byte {
	y := poly[len(poly)-1]
	for i := len(poly) - 2; i >= 0; i-- {
		y = gfMul(y, x) ^ poly[i]
	}
	return y
}

func reverseBytes(p []byte) []byte {
	out := make([]byte, len(p))
	for i, b := range p {
		out[len(p)-1-i] = b
	}
	return out
}

func rsFindErrataLocator(errPos []int) []byte {
	eLoc := []byte{1}
	for _, i := range errPos {
		eLoc = gfPolyMul(eLoc, []byte{gfPow(2, i), 1})
	}
	return eLoc
}

func rsFindErrorEvaluator(synd, errLoc []byte, nsym int) []byte {
	product := gfPolyMul(synd, errLoc)
	divisor := make([]byte, nsym+2)
	divisor[0] = 1
	_, remainder := gfPolyDiv(product, divisor)
	return remainder
}

func gfPolyDiv(dividend, divisor []byte) (quotient, remainder []byte) {
	out := make([]byte, len(dividend))
	copy(out, dividend)
	for i := 0; i < len(dividend)-(len(divisor)-1); i++ {
		coef := out[i]
		if coef != 0 {
			for j := 1; j < len(divisor); j++ {
				if divisor[j] != 0 {
					out[i+j] ^= gfMul(divisor[j], coef)
				}
			}
		}
	}
	separator := len(dividend) - (len(divisor) - 1)
	return out[:separator], out[separator:]
}

func rsCorrectErrata(msgIn []byte, synd []byte, errPos []int) ([]byte, error) {
	coefPos := make([]int, len(errPos))
	for i, p := range errPos {
		coefPos[i] = len(msgIn) - 1 - p
	}
	errLoc := rsFindErrataLocator(coefPos)
	revSynd := reverseBytes(synd)
	errEvalRev := rsFindErrorEvaluator(revSynd, errLoc, len(errLoc)-1)
	errEval := reverseBytes(errEvalRev)

	x := make([]byte, len(coefPos))
	for i, cp := range coefPos {
		l := 255 - cp
		x[i] = gfPow(2, -l)
	}

	out := make([]byte, len(msgIn))
	copy(out, msgIn)
	e := make([]byte, len(msgIn))
	for i, xi := range x {
		xiInv := gfInverse(xi)
		errLocPrime := byte(1)
		for j, xj := range x {
			if j != i {
				errLocPrime = gfMul(errLocPrime, 1^gfMul(xiInv, xj))
			}
		}
		y := gfPolyEvalAscending(errEval, xiInv)
		y = gfMul(xi, y)
		if errLocPrime == 0 {
			return nil, errors.New("wire: reed-solomon could not find error magnitude")
		}
		magnitude := gfDiv(y, errLocPrime)
		e[errPos[i]] = magnitude
	}
	for i := range out {
		out[i] ^= e[i]
	}
	return out, nil
}

// rsDecodeBlock recovers the rsDataPerBlk data bytes from a (possibly
// corrupted) rsBlockSize-byte codeword.
func rsDecodeBlock(block []byte) ([]byte, error) {
	synd := rsCalcSyndromes(block, rsParityLen)
	if rsSyndromesAllZero(synd) {
		return block[:rsDataPerBlk], nil
	}
	errLocRev, err := rsFindErrorLocator(synd, rsParityLen)
	if err != nil {
		return nil, err
	}
	errLoc := reverseBytes(errLocRev)
	errPos, err := rsFindErrors(errLoc, len(block))
	if err != nil {
		return nil, err
	}
	corrected, err := rsCorrectErrata(block, synd, errPos)
	if err != nil {
		return nil, err
	}
	verifySynd := rsCalcSyndromes(corrected, rsParityLen)
	if !rsSyndromesAllZero(verifySynd) {
		return nil, ErrTooManyErrors
	}
	return corrected[:rsDataPerBlk], nil
}

// Encode frames data into Reed-Solomon-protected 255-byte blocks, the
// outermost layer every LinkPacket passes through before it reaches a
// transport.
func Encode(data []byte) []byte {
	out := make([]byte, 0, (len(data)/rsDataPerBlk+1)*rsBlockSize)
	for i := 0; i < len(data); i += rsDataPerBlk {
		end := i + rsDataPerBlk
		var chunk []byte
		if end > len(data) {
			chunk = make([]byte, rsDataPerBlk)
			copy(chunk, data[i:])
		} else {
			chunk = data[i:end]
		}
		out = append(out, rsEncodeBlock(chunk)...)
	}
	return out
}

// Decode reverses Encode, correcting up to 3 corrupted bytes per 255-byte
// block. A block carrying more usually fails with ErrTooManyErrors, but may
// be miscorrected to wrong data without an error. The output keeps the
// final block's zero padding.
func Decode(framed []byte) ([]byte, error) {
	if len(framed)%rsBlockSize != 0 {
		return nil, errors.New("wire: framed data is not a multiple of the reed-solomon block size")
	}
	out := make([]byte, 0, (len(framed)/rsBlockSize)*rsDataPerBlk)
	for i := 0; i < len(framed); i += rsBlockSize {
		block := framed[i : i+rsBlockSize]
		decoded, err := rsDecodeBlock(block)
		if err != nil {
			return nil, err
		}
		out = append(out, decoded...)
	}
	return out, nil
}
