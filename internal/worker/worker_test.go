package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const helperEnv = "ILLO_WORKER_TEST_HELPER"

func TestMain(m *testing.M) {
	if os.Getenv(helperEnv) == "1" {
		if err := Serve(context.Background(), os.Stdin, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		os.Exit(0)
	}
	os.Exit(m.Run())
}

var testAnimation = []byte(`{"v":"5.7.4","ip":0,"op":60,"fr":30,"layers":[]}`)

func TestMessageJSONShape(t *testing.T) {
	surface := &Surface{ID: "s-1", Width: 100, Height: 50}
	msg := AnimationMessage(testAnimation, Size{Width: 200, Height: 100}, Params{Loop: true, Autoplay: false}, surface)

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Contains(t, decoded, "animationData")
	require.Equal(t, map[string]any{"width": 200.0, "height": 100.0}, decoded["drawSize"])
	require.Equal(t, map[string]any{"loop": true, "autoplay": false}, decoded["params"])
	require.Contains(t, decoded, "canvas")
	require.NotContains(t, decoded, "control")

	data, err = json.Marshal(ResizeMessage(Size{Width: 10, Height: 20}))
	require.NoError(t, err)
	require.JSONEq(t, `{"drawSize":{"width":10,"height":20}}`, string(data))

	data, err = json.Marshal(PlayMessage(false, 7))
	require.NoError(t, err)
	require.JSONEq(t, `{"control":{"play":false,"id":7}}`, string(data))

	data, err = json.Marshal(StopMessage(3))
	require.NoError(t, err)
	require.JSONEq(t, `{"control":{"stop":true,"id":3}}`, string(data))
}

func TestDecodeAck(t *testing.T) {
	cases := []struct {
		raw  string
		want Ack
	}{
		{`{"name":"initialized"}`, Initialized{}},
		{`{"name":"playing","id":4}`, Playing{ID: 4}},
		{`{"name":"paused"}`, Paused{}},
		{`{"name":"stopped","id":9}`, Stopped{ID: 9}},
		{`{"name":"resized","size":{"width":640,"height":480}}`, Resized{Size: Size{Width: 640, Height: 480}}},
	}
	for _, tc := range cases {
		got, err := DecodeAck([]byte(tc.raw))
		require.NoError(t, err, tc.raw)
		require.Equal(t, tc.want, got)

		encoded, err := EncodeAck(got)
		require.NoError(t, err)
		require.JSONEq(t, tc.raw, string(encoded))
	}

	_, err := DecodeAck([]byte(`{"name":"exploded"}`))
	require.ErrorIs(t, err, ErrUnknownAck)

	_, err = DecodeAck([]byte(`not json`))
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrUnknownAck))
}

func TestRequestID(t *testing.T) {
	require.Equal(t, uint64(5), RequestID(Paused{ID: 5}))
	require.Zero(t, RequestID(Initialized{}))
	require.Zero(t, RequestID(Resized{}))
}

func TestPlayerLifecycle(t *testing.T) {
	p := NewPlayer(zerolog.Nop())

	surface := NewSurface(100, 100)
	acks := p.Handle(AnimationMessage(testAnimation, Size{Width: 100, Height: 100}, Params{Loop: false, Autoplay: true}, surface))
	require.Equal(t, []Ack{Initialized{}}, acks)

	state := p.State()
	require.True(t, state.Loaded)
	require.True(t, state.Playing)
	require.Equal(t, 60.0, state.OutPoint)
	require.Equal(t, 1, state.Transfers)
	require.Equal(t, time.Second/30, p.FrameInterval())

	p.Advance(time.Second)
	assert.InDelta(t, 30.0, p.State().Frame, 0.001)

	p.Advance(5 * time.Second)
	require.Equal(t, 60.0, p.State().Frame)
	require.False(t, p.State().Playing)

	require.Equal(t, []Ack{Playing{ID: 1}}, p.Handle(PlayMessage(true, 1)))
	require.Equal(t, []Ack{Paused{ID: 2}}, p.Handle(PlayMessage(false, 2)))
	require.Equal(t, []Ack{Stopped{ID: 3}}, p.Handle(StopMessage(3)))
	require.Zero(t, p.State().Frame)

	size := Size{Width: 300, Height: 150}
	require.Equal(t, []Ack{Resized{Size: size}}, p.Handle(ResizeMessage(size)))
	require.Equal(t, size, p.State().DrawSize)
}

func TestPlayerLoopsAndRejectsSecondSurface(t *testing.T) {
	p := NewPlayer(zerolog.Nop())
	p.Handle(AnimationMessage(testAnimation, Size{}, Params{Loop: true, Autoplay: true}, NewSurface(1, 1)))

	p.Advance(2500 * time.Millisecond)
	require.True(t, p.State().Playing)
	assert.InDelta(t, 15.0, p.State().Frame, 0.001)

	acks := p.Handle(AnimationMessage(testAnimation, Size{}, Params{}, NewSurface(1, 1)))
	require.Equal(t, []Ack{Initialized{}}, acks)
	require.Equal(t, 1, p.State().Transfers)
}

func TestPlayerIgnoresMalformedAnimation(t *testing.T) {
	p := NewPlayer(zerolog.Nop())
	acks := p.Handle(Message{AnimationData: []byte(`[1,2`), DrawSize: &Size{}})
	require.Empty(t, acks)
	require.False(t, p.State().Loaded)
}

func collect(t *testing.T, acks <-chan Ack, n int) []Ack {
	t.Helper()
	var out []Ack
	timeout := time.After(5 * time.Second)
	for len(out) < n {
		select {
		case ack, ok := <-acks:
			require.True(t, ok, "ack channel closed early")
			out = append(out, ack)
		case <-timeout:
			t.Fatalf("timed out after %d of %d acks", len(out), n)
		}
	}
	return out
}

func TestLocalWorker(t *testing.T) {
	w := NewLocal()

	require.NoError(t, w.Post(AnimationMessage(testAnimation, Size{Width: 10, Height: 10}, Params{Autoplay: false}, NewSurface(10, 10))))
	require.NoError(t, w.Post(ResizeMessage(Size{Width: 20, Height: 20})))
	require.NoError(t, w.Post(PlayMessage(true, 1)))
	require.NoError(t, w.Post(StopMessage(2)))

	acks := collect(t, w.Acks(), 4)
	require.Equal(t, []Ack{
		Initialized{},
		Resized{Size: Size{Width: 20, Height: 20}},
		Playing{ID: 1},
		Stopped{ID: 2},
	}, acks)
	require.Equal(t, 1, w.State().Transfers)

	require.NoError(t, w.Terminate())
	require.NoError(t, w.Terminate())
	require.ErrorIs(t, w.Post(StopMessage(3)), ErrTerminated)

	_, open := <-w.Acks()
	require.False(t, open)
}

func TestLocalWorkerAdvancesFrames(t *testing.T) {
	w := NewLocal()
	defer w.Terminate()

	require.NoError(t, w.Post(AnimationMessage(testAnimation, Size{}, Params{Loop: true, Autoplay: true}, nil)))
	collect(t, w.Acks(), 1)

	require.Eventually(t, func() bool {
		return w.State().Frame > 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestServe(t *testing.T) {
	var in bytes.Buffer
	enc := json.NewEncoder(&in)
	require.NoError(t, enc.Encode(AnimationMessage(testAnimation, Size{Width: 1, Height: 1}, Params{}, nil)))
	in.WriteString("\n")
	in.WriteString("garbage\n")
	require.NoError(t, enc.Encode(PlayMessage(false, 11)))

	var out bytes.Buffer
	require.NoError(t, Serve(context.Background(), &in, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	require.JSONEq(t, `{"name":"initialized"}`, lines[0])
	require.JSONEq(t, `{"name":"paused","id":11}`, lines[1])
}

func TestServeStopsOnContext(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, r, io.Discard)
	}()

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return")
	}
}

func TestProcessWorker(t *testing.T) {
	exe, err := os.Executable()
	require.NoError(t, err)
	t.Setenv(helperEnv, "1")

	factory := ProcessFactory([]string{exe, "-test.run=^$"})
	w, err := factory(context.Background())
	require.NoError(t, err)

	require.NoError(t, w.Post(AnimationMessage(testAnimation, Size{Width: 5, Height: 5}, Params{}, NewSurface(5, 5))))
	require.NoError(t, w.Post(PlayMessage(true, 21)))

	acks := collect(t, w.Acks(), 2)
	require.Equal(t, []Ack{Initialized{}, Playing{ID: 21}}, acks)

	require.NoError(t, w.Terminate())
	require.ErrorIs(t, w.Post(StopMessage(1)), ErrTerminated)
}

func TestProcessMissingCommand(t *testing.T) {
	_, err := StartProcess(context.Background(), nil)
	require.ErrorIs(t, err, ErrMissingCommand)
}

func TestLineRing(t *testing.T) {
	ring := NewLineRing(2)
	require.Empty(t, ring.Snapshot())
	ring.Add("a")
	ring.Add("b")
	ring.Add("c")
	require.Equal(t, []string{"b", "c"}, ring.Snapshot())

	var nilRing *LineRing
	nilRing.Add("x")
	require.Nil(t, nilRing.Snapshot())
}
