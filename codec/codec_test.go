package codec_test

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/bindkit"
	"github.com/reoring/bindkit/codec"
	"github.com/reoring/bindkit/json5"
	"github.com/reoring/bindkit/record"
)

type job struct {
	Name    string
	Started time.Time
	Timeout time.Duration
}

type port int

func registry(t *testing.T) *bindkit.Registry {
	t.Helper()
	b := bindkit.NewBuilder()
	codec.Register(b)
	record.Of[job]().
		Field("name", record.Ref(func(j *job) *string { return &j.Name })).
		Field("started", record.Ref(func(j *job) *time.Time { return &j.Started })).
		Field("timeout", record.Ref(func(j *job) *time.Duration { return &j.Timeout })).
		Register(b)
	// port travels as a decimal string and must stay in range
	bindkit.Register(b, codec.New(
		func(s string) (port, error) {
			n, err := strconv.ParseUint(s, 10, 16)
			return port(n), err
		},
		func(p port) (string, error) { return strconv.Itoa(int(p)), nil },
	))
	reg, err := b.Build()
	require.NoError(t, err)
	return reg
}

func TestRFC3339_Parse(t *testing.T) {
	reg := registry(t)
	got, err := json5.BindString[job](reg, `{name: 'a', started: '2024-01-02T03:04:05.120+09:00', timeout: '1m30s'}`, json5.Options{})
	require.NoError(t, err)
	want := time.Date(2024, 1, 1, 18, 4, 5, 120_000_000, time.UTC)
	assert.True(t, want.Equal(got.Started))
	assert.Equal(t, 90*time.Second, got.Timeout)

	plain, err := bindkit.Transform[time.Time](reg, "2024-01-02T03:04:05Z")
	require.NoError(t, err)
	assert.Equal(t, 2024, plain.Year())
}

func TestRFC3339_CanonicalOutput(t *testing.T) {
	reg := registry(t)
	in := job{
		Name:    "a",
		Started: time.Date(2024, 1, 2, 3, 4, 5, 500_000_000, time.FixedZone("JST", 9*3600)),
		Timeout: 2 * time.Hour,
	}
	out, err := bindkit.Transform[map[string]any](reg, in)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"name":    "a",
		"started": "2024-01-01T18:04:05.5Z",
		"timeout": "2h0m0s",
	}, out)

	back, err := bindkit.Transform[job](reg, out)
	require.NoError(t, err)
	assert.True(t, in.Started.Equal(back.Started))
	assert.Equal(t, in.Timeout, back.Timeout)
}

func TestRFC3339_Invalid(t *testing.T) {
	reg := registry(t)
	_, err := json5.BindString[job](reg, `{started: 'yesterday'}`, json5.Options{})
	var ute *bindkit.UnsupportedTypeError
	require.ErrorAs(t, err, &ute)
	assert.Equal(t, "/started", ute.Location.Pointer())
	var pe *time.ParseError
	assert.ErrorAs(t, err, &pe)

	_, err = json5.BindString[job](reg, `{started: 1700000000}`, json5.Options{})
	require.ErrorIs(t, err, bindkit.ErrUnsupportedType)
}

func TestCodec_NullIsZero(t *testing.T) {
	reg := registry(t)
	got, err := json5.BindString[job](reg, `{started: null, timeout: null}`, json5.Options{})
	require.NoError(t, err)
	assert.True(t, got.Started.IsZero())
	assert.Zero(t, got.Timeout)
}

func TestCodec_Custom(t *testing.T) {
	reg := registry(t)
	p, err := bindkit.Transform[port](reg, "8080")
	require.NoError(t, err)
	assert.Equal(t, port(8080), p)

	s, err := bindkit.Transform[string](reg, port(443))
	require.NoError(t, err)
	assert.Equal(t, "443", s)

	_, err = bindkit.Transform[port](reg, "70000")
	require.ErrorIs(t, err, bindkit.ErrUnsupportedType)
	assert.Contains(t, err.Error(), "out of range")
}

func TestCodec_MissingWireType(t *testing.T) {
	b := bindkit.NewBuilder()
	bindkit.Register(b, codec.New(
		func(c chan int) (port, error) { return 0, nil },
		func(port) (chan int, error) { return nil, nil },
	))
	reg, err := b.Build()
	require.NoError(t, err)
	_, err = bindkit.Transform[port](reg, "1")
	require.ErrorIs(t, err, bindkit.ErrUnsupportedType)
	assert.Contains(t, err.Error(), "no factory registered")
}
