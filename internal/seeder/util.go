package seeder

// statusSymbols maps a sibling's quartile position to one branch-path symbol.
var statusSymbols = []byte(" .oO0")

// statusSymbol returns the branch-path symbol for sibling index i out of
// total. The symbol encodes how far through the subdivision the traversal is,
// which is all the human-readable progress string needs.
func statusSymbol(i, total int) string {
	i++
	if total == 0 || i > total {
		return "?"
	}
	idx := (i*4 + total - 1) / total
	return string(statusSymbols[idx])
}
