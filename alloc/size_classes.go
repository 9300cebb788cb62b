package alloc

import "github.com/joshuapare/heapkit/internal/format"

// NumClasses is the number of segregated free lists.
const NumClasses = 15

// exactClasses is the number of classes that hold exactly one payload size.
const exactClasses = 10

// rangeLimits are the inclusive payload upper bounds of classes 10-13.
// Class 14 takes everything larger.
var rangeLimits = [...]int{256, 512, 1024, 4096}

// Classify maps a payload size to its bucket index. It is total: every int
// maps to exactly one index in [0, NumClasses).
//
// Payloads up to 160 get one class per 16-byte step, rounded up, so a block
// of an aligned payload p sits in class p/16-1.
func Classify(payload int) int {
	if payload <= exactClasses*format.Alignment {
		if payload <= format.MinPayload {
			return 0
		}
		return (payload+format.Align16Mask)/format.Alignment - 1
	}
	for i, limit := range rangeLimits {
		if payload <= limit {
			return exactClasses + i
		}
	}
	return NumClasses - 1
}

// ClassBounds returns the smallest and largest payload a class holds. The
// last class has no upper bound and reports -1.
func ClassBounds(class int) (lo, hi int) {
	switch {
	case class < exactClasses:
		size := (class + 1) * format.Alignment
		return size, size
	case class == exactClasses:
		return exactClasses*format.Alignment + format.Alignment, rangeLimits[0]
	case class < NumClasses-1:
		i := class - exactClasses
		return rangeLimits[i-1] + format.Alignment, rangeLimits[i]
	default:
		return rangeLimits[len(rangeLimits)-1] + format.Alignment, -1
	}
}
