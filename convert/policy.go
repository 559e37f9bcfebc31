package convert

type Decision int

const (
	PROCEED Decision = iota
	SKIP
)

func (d Decision) String() string {
	if d == SKIP {
		return "skip"
	}
	return "proceed"
}

// Decide is the output conflict policy: an existing output is kept
// unless replacing is enabled.
func Decide(replaceExisting bool, exists bool) Decision {
	if exists && !replaceExisting {
		return SKIP
	}
	return PROCEED
}
