package store

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wbrown/janus-filter/filter"
)

func openTestStore(t *testing.T) *RecordStore {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testRecord() Record {
	return Record{
		"ip.src":    json.RawMessage(`"10.0.0.1"`),
		"http.host": json.RawMessage(`"example.org"`),
		"tcp.port":  json.RawMessage(`443`),
		"ssl":       json.RawMessage(`true`),
	}
}

func testScheme(t *testing.T) *filter.Scheme {
	t.Helper()
	scheme, err := filter.ParseScheme([]byte(`{
		"ip.src": "Ip",
		"http.host": "Bytes",
		"tcp.port": "Int",
		"ssl": "Bool"
	}`))
	require.NoError(t, err)
	return scheme
}

func TestPutGetRoundTrip(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Put("req-1", testRecord()))

	got, err := s.Get("req-1")
	require.NoError(t, err)
	require.Equal(t, testRecord(), got)
}

func TestGetMissing(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Get("nope")
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Put("req-1", testRecord()))
	require.NoError(t, s.Delete("req-1"))

	_, err := s.Get("req-1")
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestEachIteratesInKeyOrder(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Put("b", Record{"tcp.port": json.RawMessage(`2`)}))
	require.NoError(t, s.Put("a", Record{"tcp.port": json.RawMessage(`1`)}))
	require.NoError(t, s.Put("c", Record{"tcp.port": json.RawMessage(`3`)}))

	var ids []string
	err := s.Each(func(id string, record Record) error {
		ids = append(ids, id)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestPopulateContext(t *testing.T) {
	scheme := testScheme(t)
	ctx := filter.NewExecutionContext(scheme)

	require.NoError(t, PopulateContext(ctx, testRecord()))

	port, _ := scheme.GetField("tcp.port")
	require.True(t, ctx.GetFieldValueUnchecked(port).Equal(filter.Int(443)))

	host, _ := scheme.GetField("http.host")
	require.True(t, ctx.GetFieldValueUnchecked(host).Equal(filter.String("example.org")))
}

func TestPopulateContextRejects(t *testing.T) {
	scheme := testScheme(t)

	t.Run("unknown field", func(t *testing.T) {
		ctx := filter.NewExecutionContext(scheme)
		err := PopulateContext(ctx, Record{"nope": json.RawMessage(`1`)})
		require.Error(t, err)
	})

	t.Run("type mismatch", func(t *testing.T) {
		ctx := filter.NewExecutionContext(scheme)
		err := PopulateContext(ctx, Record{"tcp.port": json.RawMessage(`"443"`)})
		var mismatch *filter.TypeMismatchError
		require.True(t, errors.As(err, &mismatch), "got %v", err)
		require.True(t, mismatch.Expected.Equal(filter.TypeInt))
		require.True(t, mismatch.Actual.Equal(filter.TypeBytes))
	})

	t.Run("undecodable value", func(t *testing.T) {
		ctx := filter.NewExecutionContext(scheme)
		err := PopulateContext(ctx, Record{"tcp.port": json.RawMessage(`1.5`)})
		require.Error(t, err)
	})
}

func TestStoreThenPopulate(t *testing.T) {
	s := openTestStore(t)
	scheme := testScheme(t)

	require.NoError(t, s.Put("req-1", testRecord()))

	record, err := s.Get("req-1")
	require.NoError(t, err)

	ctx := filter.NewExecutionContext(scheme)
	require.NoError(t, PopulateContext(ctx, record))

	src, _ := scheme.GetField("ip.src")
	got := ctx.GetFieldValueUnchecked(src)
	require.True(t, got.GetType().Equal(filter.TypeIP))
}
