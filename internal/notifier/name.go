package notifier

// Name identifies an event channel. Names compare equal when their string
// values are equal and can be used as map keys.
type Name struct {
	value string
}

func NewName(s string) Name { return Name{value: s} }

func (n Name) String() string { return n.value }
