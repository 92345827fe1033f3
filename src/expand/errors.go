package expand

import "fmt"

// MissingPackageError reports a package index outside 1..len(packages).
type MissingPackageError struct {
	Index int
	Count int
}

func (e *MissingPackageError) Error() string {
	return fmt.Sprintf("package %d does not exist (spec defines %d)", e.Index, e.Count)
}

// FieldCollisionError reports a template whose name collides with an existing
// context key. Silently overwriting would mask a spec authoring mistake, so
// the collision is surfaced instead.
type FieldCollisionError struct {
	Field string
}

func (e *FieldCollisionError) Error() string {
	return fmt.Sprintf("template %q collides with an existing field of the same name", e.Field)
}
