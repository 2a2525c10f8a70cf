package vmsys

import "math"

// FloatToMFLPT and MFLPTToFloat implement the 5-byte Microsoft-format
// floating point encoding the 8-bit home computers of this VM's target era
// used: a biased exponent byte, a sign bit folded into the top mantissa
// byte (in place of the implied leading 1), and 31 further mantissa bits.
func FloatToMFLPT(f float64) [5]byte {
	if f == 0 {
		return [5]byte{}
	}
	sign := byte(0)
	if f < 0 {
		sign = 0x80
		f = -f
	}
	exp := 0
	for f >= 1 {
		f /= 2
		exp++
	}
	for f < 0.5 {
		f *= 2
		exp--
	}
	exp += 128
	if exp < 0 {
		exp = 0
	}
	if exp > 255 {
		exp = 255
	}
	mantissa := uint32(f * 4294967296.0) // f in [0.5,1) * 2^32
	mantissa &^= 0x80000000              // the leading 1 is implied, not stored
	return [5]byte{
		byte(exp),
		byte(mantissa>>24) | sign,
		byte(mantissa >> 16),
		byte(mantissa >> 8),
		byte(mantissa),
	}
}

func MFLPTToFloat(b [5]byte) float64 {
	if b[0] == 0 {
		return 0
	}
	exp := int(b[0]) - 128
	mantissa := uint32(b[1]&0x7f)<<24 | uint32(b[2])<<16 | uint32(b[3])<<8 | uint32(b[4])
	mantissa |= 0x80000000
	f := float64(mantissa) / 4294967296.0
	f *= math.Pow(2, float64(exp))
	if b[1]&0x80 != 0 {
		f = -f
	}
	return f
}
