package heap

// A Trap is a fatal runtime error raised by the object model. It is carried
// by panic rather than an error return because generated code has no error
// channel on allocation paths; the unit-of-work boundary recovers it with
// Catch and abandons that unit only.
type Trap struct {
	Prefix string
	Msg    string
}

func (t Trap) Error() string { return t.Prefix + t.Msg }

const (
	rtsPrefix = "RTS error: "
	idlPrefix = "IDL error: "
)

// rtsTrap aborts the current unit of work with a general runtime trap.
func rtsTrap(msg string) {
	panic(Trap{Prefix: rtsPrefix, Msg: msg})
}

// IDLTrap aborts the current unit of work with an interface-decoding trap.
// Deserialization code uses this to distinguish malformed wire input from
// general runtime faults.
func IDLTrap(msg string) {
	panic(Trap{Prefix: idlPrefix, Msg: msg})
}

// Catch runs fn, converting a Trap raised inside it into an error. Panics
// that are not Traps propagate unchanged.
func Catch(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			t, ok := r.(Trap)
			if !ok {
				panic(r)
			}
			err = t
		}
	}()
	fn()
	return nil
}
