//go:build heapdebug

package alloc

// CheckHeap validates the heap and panics on the first broken invariant.
// Built with the heapdebug tag, every public operation calls it.
func (h *Heap) CheckHeap(tag string) bool {
	if err := h.Validate(tag); err != nil {
		panic(err)
	}
	return true
}
