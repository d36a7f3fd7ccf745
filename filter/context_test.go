package filter

import (
	"errors"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"
)

func testScheme(t *testing.T) *Scheme {
	t.Helper()
	scheme := NewScheme()
	require.NoError(t, scheme.AddField("ip.src", TypeIP))
	require.NoError(t, scheme.AddField("http.host", TypeBytes))
	require.NoError(t, scheme.AddField("tcp.port", TypeInt))
	require.NoError(t, scheme.AddField("ssl", TypeBool))
	require.NoError(t, scheme.AddField("http.headers", MapType(TypeBytes)))
	require.NoError(t, scheme.AddField("http.parts", MapType(MapType(TypeInt))))
	return scheme
}

func TestSetGetRoundTrip(t *testing.T) {
	scheme := testScheme(t)
	ctx := NewExecutionContext(scheme)

	headers := NewMapValue(TypeBytes)
	_, err := headers.Insert("host", String("example.org"))
	require.NoError(t, err)

	values := map[string]LhsValue{
		"ip.src":       IP(netip.MustParseAddr("10.0.0.1")),
		"http.host":    String("example.org"),
		"tcp.port":     Int(443),
		"ssl":          Bool(true),
		"http.headers": headers,
	}
	for name, value := range values {
		require.NoError(t, ctx.SetFieldValue(name, value))
	}

	for name, want := range values {
		field, ok := scheme.GetField(name)
		require.True(t, ok)
		got := ctx.GetFieldValueUnchecked(field)
		require.True(t, got.Equal(want), "field %s: got %s, want %s", name, got, want)
	}
}

func TestSetFieldValueTypeMismatch(t *testing.T) {
	scheme := NewScheme()
	require.NoError(t, scheme.AddField("foo", TypeInt))
	ctx := NewExecutionContext(scheme)

	err := ctx.SetFieldValue("foo", Bool(false))
	var mismatch *TypeMismatchError
	require.True(t, errors.As(err, &mismatch))
	require.True(t, mismatch.Expected.Equal(TypeInt))
	require.True(t, mismatch.Actual.Equal(TypeBool))

	// The slot keeps its prior state.
	require.NoError(t, ctx.SetFieldValue("foo", Int(1)))
	require.Error(t, ctx.SetFieldValue("foo", String("2")))
	field, _ := scheme.GetField("foo")
	require.True(t, ctx.GetFieldValueUnchecked(field).Equal(Int(1)))
}

func TestSetFieldValueUnknownFieldPanics(t *testing.T) {
	ctx := NewExecutionContext(NewScheme())
	require.Panics(t, func() {
		_ = ctx.SetFieldValue("nope", Int(1))
	})
}

func TestSetFieldValueWithPath(t *testing.T) {
	t.Run("empty path behaves like a plain set", func(t *testing.T) {
		scheme := testScheme(t)
		ctx := NewExecutionContext(scheme)

		require.NoError(t, ctx.SetFieldValueWithPath("tcp.port", nil, Int(80)))
		field, _ := scheme.GetField("tcp.port")
		require.True(t, ctx.GetFieldValueUnchecked(field).Equal(Int(80)))
	})

	t.Run("nested round trip materializes intermediate maps", func(t *testing.T) {
		scheme := testScheme(t)
		ctx := NewExecutionContext(scheme)

		path := []FieldPathItem{PathName("a"), PathName("b")}
		require.NoError(t, ctx.SetFieldValueWithPath("http.parts", path, Int(5)))

		field, _ := scheme.GetField("http.parts")
		ref, err := field.WithPath(PathName("a"), PathName("b"))
		require.NoError(t, err)
		require.True(t, ctx.GetFieldValueUnchecked(ref).Equal(Int(5)))

		// The intermediate map "a" was created automatically.
		refA, err := field.WithPath(PathName("a"))
		require.NoError(t, err)
		inner := ctx.GetFieldValueUnchecked(refA).(*MapValue)
		require.Equal(t, 1, inner.Len())
	})

	t.Run("single segment into declared map", func(t *testing.T) {
		scheme := testScheme(t)
		ctx := NewExecutionContext(scheme)

		path := []FieldPathItem{PathName("host")}
		require.NoError(t, ctx.SetFieldValueWithPath("http.headers", path, String("example.org")))

		field, _ := scheme.GetField("http.headers")
		ref, err := field.WithPath(PathName("host"))
		require.NoError(t, err)
		require.True(t, ctx.GetFieldValueUnchecked(ref).Equal(String("example.org")))
	})

	t.Run("scalar field cannot host a path", func(t *testing.T) {
		scheme := testScheme(t)
		ctx := NewExecutionContext(scheme)

		err := ctx.SetFieldValueWithPath("tcp.port", []FieldPathItem{PathName("x")}, Int(1))
		var voidable *VoidableTypeError
		require.True(t, errors.As(err, &voidable), "want a non-materializable error, got %v", err)
		require.True(t, voidable.Type.Equal(TypeInt))
	})

	t.Run("path deeper than declared nesting, entry missing", func(t *testing.T) {
		scheme := testScheme(t)
		ctx := NewExecutionContext(scheme)

		// Descending past Map(Bytes) would need to materialize a Bytes
		// placeholder for the intermediate entry, which is impossible.
		path := []FieldPathItem{PathName("a"), PathName("b")}
		err := ctx.SetFieldValueWithPath("http.headers", path, String("x"))
		var voidable *VoidableTypeError
		require.True(t, errors.As(err, &voidable), "got %v", err)
		require.True(t, voidable.Type.Equal(TypeBytes))
	})

	t.Run("path deeper than declared nesting, entry present", func(t *testing.T) {
		scheme := testScheme(t)
		ctx := NewExecutionContext(scheme)

		require.NoError(t, ctx.SetFieldValueWithPath("http.headers",
			[]FieldPathItem{PathName("a")}, String("x")))

		// The intermediate entry exists but its type has no next level.
		path := []FieldPathItem{PathName("a"), PathName("b")}
		err := ctx.SetFieldValueWithPath("http.headers", path, String("y"))
		var mismatch *TypeMismatchError
		require.True(t, errors.As(err, &mismatch), "got %v", err)
		require.True(t, mismatch.Expected.Equal(TypeBytes))
		require.True(t, mismatch.Actual.Equal(MapType(TypeBytes)))
	})

	t.Run("final segment type mismatch", func(t *testing.T) {
		scheme := testScheme(t)
		ctx := NewExecutionContext(scheme)

		path := []FieldPathItem{PathName("a"), PathName("b")}
		err := ctx.SetFieldValueWithPath("http.parts", path, Bool(true))
		var mismatch *TypeMismatchError
		require.True(t, errors.As(err, &mismatch))
		require.True(t, mismatch.Expected.Equal(TypeInt))
		require.True(t, mismatch.Actual.Equal(TypeBool))
	})

	t.Run("failed final segment keeps intermediate maps", func(t *testing.T) {
		scheme := testScheme(t)
		ctx := NewExecutionContext(scheme)

		path := []FieldPathItem{PathName("a"), PathName("b")}
		require.Error(t, ctx.SetFieldValueWithPath("http.parts", path, Bool(true)))

		// Partial materialization is visible: the outer map now holds
		// an empty map under "a".
		field, _ := scheme.GetField("http.parts")
		ref, err := field.WithPath(PathName("a"))
		require.NoError(t, err)
		inner := ctx.GetFieldValueUnchecked(ref).(*MapValue)
		require.Equal(t, 0, inner.Len())
	})
}

func TestGetFieldValueUncheckedPanicsOnUnset(t *testing.T) {
	scheme := testScheme(t)
	ctx := NewExecutionContext(scheme)

	field, _ := scheme.GetField("tcp.port")
	require.Panics(t, func() {
		ctx.GetFieldValueUnchecked(field)
	})
}

func TestGetFieldValueUncheckedPanicsOnMissingPathEntry(t *testing.T) {
	scheme := testScheme(t)
	ctx := NewExecutionContext(scheme)

	require.NoError(t, ctx.SetFieldValue("http.headers", NewMapValue(TypeBytes)))

	field, _ := scheme.GetField("http.headers")
	ref, err := field.WithPath(PathName("missing"))
	require.NoError(t, err)
	require.Panics(t, func() {
		ctx.GetFieldValueUnchecked(ref)
	})
}

func TestGetFieldValueUncheckedReturnsView(t *testing.T) {
	scheme := testScheme(t)
	ctx := NewExecutionContext(scheme)

	require.NoError(t, ctx.SetFieldValue("http.host", OwnedBytes([]byte("example.org"))))

	field, _ := scheme.GetField("http.host")
	got := ctx.GetFieldValueUnchecked(field).(BytesValue)
	require.False(t, got.Owned(), "the evaluator receives a borrowed view")
	require.True(t, got.Equal(String("example.org")))
}

func TestIndependentContextsShareAScheme(t *testing.T) {
	scheme := testScheme(t)

	a := NewExecutionContext(scheme)
	b := NewExecutionContext(scheme)

	require.NoError(t, a.SetFieldValue("tcp.port", Int(80)))
	require.NoError(t, b.SetFieldValue("tcp.port", Int(443)))

	field, _ := scheme.GetField("tcp.port")
	require.True(t, a.GetFieldValueUnchecked(field).Equal(Int(80)))
	require.True(t, b.GetFieldValueUnchecked(field).Equal(Int(443)))
	require.True(t, a.Scheme().Equal(b.Scheme()))
}
