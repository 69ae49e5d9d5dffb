package directedinputs

//go:generate go tool stringer -type=Kind -trimprefix=Kind

// Kind names a coercion target for values pulled out of the input context.
// KindAny leaves the value untouched.
type Kind int

const (
	KindAny Kind = iota
	KindString
	KindBool
	KindInt
	KindFloat
	KindPath
	KindTime
	KindDuration
	KindMap
	KindSlice

	// KindTotal is a constant that represents the total number of kinds defined
	KindTotal = int(iota)
)
