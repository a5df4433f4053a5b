package catalog

import "strings"

// Match reports whether an event type name satisfies a subscription pattern.
//
// A pattern is a dot-separated list of segments where "*" stands for exactly
// one segment. The bare pattern "*" matches any name.
//
//	payment.captured   matches only payment.captured
//	payment.*          matches payment.captured, payment.refunded
//	*.captured         matches payment.captured, order.captured
func Match(pattern, name string) bool {
	if pattern == "*" || pattern == name {
		return true
	}

	// Walk both strings one segment at a time. Segment counts must line
	// up; a "*" segment accepts whatever it is paired with.
	for {
		pseg, prest, pmore := strings.Cut(pattern, ".")
		nseg, nrest, nmore := strings.Cut(name, ".")

		if pseg != "*" && pseg != nseg {
			return false
		}
		if pmore != nmore {
			return false
		}
		if !pmore {
			return true
		}
		pattern, name = prest, nrest
	}
}
