// Package policy models the three-valued (force-on, force-off, automatic)
// options the launcher exposes for automount and init mode
// (spec §9, Design Notes: "model as a small enum with an explicit resolve
// step turning auto into a concrete value before the sequence begins").
package policy

// Tristate is a force-on/force-off/automatic option.
type Tristate int

const (
	// Auto defers to the caller-supplied default.
	Auto Tristate = iota
	// On forces the option on regardless of the default.
	On
	// Off forces the option off regardless of the default.
	Off
)

// Resolve turns Auto into autoDefault, and otherwise returns the forced
// value.
func (t Tristate) Resolve(autoDefault bool) bool {
	switch t {
	case On:
		return true
	case Off:
		return false
	default:
		return autoDefault
	}
}
