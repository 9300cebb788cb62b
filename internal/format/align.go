package format

// Align16 returns n aligned up to the next 16-byte boundary.
//
// Example:
//
//	Align16(1)  = 16
//	Align16(16) = 16
//	Align16(17) = 32
func Align16(n int) int {
	return (n + Align16Mask) & ^Align16Mask
}

// IsAligned16 reports whether off sits on a 16-byte boundary.
func IsAligned16(off int) bool {
	return off&Align16Mask == 0
}

// IsWordAligned reports whether off sits on an 8-byte boundary.
func IsWordAligned(off int) bool {
	return off&(WordSize-1) == 0
}
