//go:build filterdebug

package filter

// assertSameScheme verifies that a field reference belongs to the
// context's scheme. The check only runs in builds tagged filterdebug;
// production lookups skip it since the filter compiler already
// guarantees the invariant.
func assertSameScheme(ctx, field *Scheme) {
	if !ctx.Equal(field) {
		panic("field does not belong to the context's scheme")
	}
}
