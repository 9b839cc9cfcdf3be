// internal/device/decode.go
package device

import "math"

// DecodeFloat32 joins two consecutive registers into an IEEE-754 float.
// Register order is big-endian: high register first.
func DecodeFloat32(hi, lo uint16) float32 {
	return math.Float32frombits(uint32(hi)<<16 | uint32(lo))
}

// decodeFloats decodes every register pair. Length must be even.
func decodeFloats(regs []uint16) []float32 {
	out := make([]float32, len(regs)/2)
	for i := range out {
		out[i] = DecodeFloat32(regs[2*i], regs[2*i+1])
	}
	return out
}
