package event_test

import (
	"encoding/binary"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanmouse/lanmouse/event"
)

func allEvents() []event.Event {
	return []event.Event{
		event.Motion{Time: 1234, DX: 5.0, DY: -3.2},
		event.Motion{Time: math.MaxUint32, DX: math.MaxFloat64, DY: -math.SmallestNonzeroFloat64},
		event.Button{Time: 7, Button: 0x10, Pressed: true},
		event.Button{Time: 8, Button: 0xff, Pressed: false},
		event.Scroll{Time: 9, Axis: event.AxisVertical, Amount: -15},
		event.Scroll{Time: 10, Axis: event.AxisHorizontal, Amount: 0.5},
		event.Key{Time: 11, Keycode: 30, Pressed: true},
		event.Key{Time: 12, Keycode: math.MaxUint32, Pressed: false},
		event.Modifiers{Time: 13, Depressed: 1, Latched: 2, Locked: 16, Group: 3},
		event.Enter{Time: 14, Edge: event.EdgeLeft, Offset: 0.25},
		event.Enter{Time: 15, Edge: event.EdgeBottom, Offset: 1},
		event.Leave{Time: 16},
		event.Return{Time: 17},
	}
}

func TestRoundTrip(t *testing.T) {
	for _, ev := range allEvents() {
		t.Run(ev.Kind().String(), func(t *testing.T) {
			buf, err := event.Encode(ev)
			require.NoError(t, err)
			assert.Len(t, buf, event.Size(ev.Kind()))
			assert.Equal(t, byte(ev.Kind()), buf[0])

			got, err := event.Decode(buf)
			require.NoError(t, err)
			assert.Equal(t, ev, got)
		})
	}
}

func TestMotionExample(t *testing.T) {
	ev := event.Motion{Time: 1234, DX: 5.0, DY: -3.2}
	buf, err := event.Encode(ev)
	require.NoError(t, err)

	require.Len(t, buf, 21)
	assert.Equal(t, byte(event.KindMotion), buf[0])
	assert.Equal(t, uint32(1234), binary.BigEndian.Uint32(buf[1:5]))
	assert.Equal(t, math.Float64bits(5.0), binary.BigEndian.Uint64(buf[5:13]))
	assert.Equal(t, math.Float64bits(-3.2), binary.BigEndian.Uint64(buf[13:21]))

	got, err := event.Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, ev, got)
}

func TestSizes(t *testing.T) {
	cases := []struct {
		kind event.Kind
		size int
	}{
		{event.KindMotion, 21},
		{event.KindButton, 7},
		{event.KindScroll, 14},
		{event.KindKey, 10},
		{event.KindModifiers, 21},
		{event.KindEnter, 14},
		{event.KindLeave, 5},
		{event.KindReturn, 5},
		{event.Kind(8), 0},
		{event.Kind(0xff), 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.size, event.Size(tc.kind), tc.kind.String())
		assert.LessOrEqual(t, tc.size, event.MaxSize)
	}
}

func TestPut(t *testing.T) {
	var buf [event.MaxSize]byte
	n, err := event.Put(buf[:], event.Key{Time: 1, Keycode: 42, Pressed: true})
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	got, err := event.Decode(buf[:n])
	require.NoError(t, err)
	assert.Equal(t, event.Key{Time: 1, Keycode: 42, Pressed: true}, got)

	_, err = event.Put(buf[:4], event.Leave{})
	assert.ErrorIs(t, err, event.ErrShortBuffer)

	_, err = event.Put(buf[:], nil)
	assert.Error(t, err)
}

func TestDecodeErrors(t *testing.T) {
	type testCase struct {
		name    string
		input   []byte
		wantErr error
	}

	cases := []testCase{
		{name: "empty", input: nil, wantErr: event.ErrTruncated},
		{name: "unknown tag", input: []byte{8, 0, 0, 0, 0}, wantErr: event.ErrUnknownKind},
		{name: "unknown tag max", input: []byte{0xff}, wantErr: event.ErrUnknownKind},
		{name: "header only motion", input: []byte{0, 0, 0, 0, 1}, wantErr: event.ErrTruncated},
		{name: "tag only leave", input: []byte{6}, wantErr: event.ErrTruncated},
		{name: "bad button state", input: []byte{1, 0, 0, 0, 0, 1, 2}, wantErr: event.ErrInvalidField},
		{name: "bad key state", input: []byte{3, 0, 0, 0, 0, 0, 0, 0, 1, 9}, wantErr: event.ErrInvalidField},
		{name: "bad axis", input: append([]byte{2, 0, 0, 0, 0, 2}, make([]byte, 8)...), wantErr: event.ErrInvalidField},
		{name: "bad edge", input: append([]byte{5, 0, 0, 0, 0, 4}, make([]byte, 8)...), wantErr: event.ErrInvalidField},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := event.Decode(tc.input)
			assert.Nil(t, ev)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantErr)

			var de *event.DecodeError
			assert.True(t, errors.As(err, &de))
			assert.NotEmpty(t, de.Error())
		})
	}
}

func TestDecodeRejectsNonFiniteFloats(t *testing.T) {
	encode := func(ev event.Event) []byte {
		buf, err := event.Encode(ev)
		require.NoError(t, err)
		return buf
	}
	cases := map[string][]byte{
		"motion dx nan":     encode(event.Motion{DX: math.NaN(), DY: 1}),
		"motion dy +inf":    encode(event.Motion{DX: 1, DY: math.Inf(1)}),
		"scroll -inf":       encode(event.Scroll{Axis: event.AxisVertical, Amount: math.Inf(-1)}),
		"enter offset nan":  encode(event.Enter{Edge: event.EdgeRight, Offset: math.NaN()}),
		"enter offset +inf": encode(event.Enter{Edge: event.EdgeTop, Offset: math.Inf(1)}),
	}
	for name, buf := range cases {
		t.Run(name, func(t *testing.T) {
			ev, err := event.Decode(buf)
			assert.Nil(t, ev)
			assert.ErrorIs(t, err, event.ErrInvalidField)
			var de *event.DecodeError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, event.Kind(buf[0]), de.Kind)
		})
	}
}

func TestDecodeTruncatedPrefixes(t *testing.T) {
	for _, ev := range allEvents() {
		buf, err := event.Encode(ev)
		require.NoError(t, err)
		for i := 1; i < len(buf); i++ {
			_, err := event.Decode(buf[:i])
			assert.ErrorIs(t, err, event.ErrTruncated, "%s prefix %d", ev.Kind(), i)
		}
	}
}

func TestDecodeIgnoresTrailingBytes(t *testing.T) {
	buf, err := event.Encode(event.Return{Time: 99})
	require.NoError(t, err)
	got, err := event.Decode(append(buf, 0xde, 0xad))
	require.NoError(t, err)
	assert.Equal(t, event.Return{Time: 99}, got)
}

func TestDecodeRandomNeverPanics(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	buf := make([]byte, event.MaxSize+4)
	for i := 0; i < 20000; i++ {
		n := rng.Intn(len(buf) + 1)
		rng.Read(buf[:n])
		assert.NotPanics(t, func() {
			ev, err := event.Decode(buf[:n])
			if err == nil {
				assert.NotNil(t, ev)
			}
		})
	}
}
