// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vishalm/LlamaBot/internal/model"
)

// chunkReader hands out data in the given chunk sizes, then the remainder.
type chunkReader struct {
	data  []byte
	sizes []int
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	n := len(r.data)
	if len(r.sizes) > 0 {
		n = min(r.sizes[0], n)
		r.sizes = r.sizes[1:]
	}
	n = copy(p, r.data[:n])
	r.data = r.data[n:]
	return n, nil
}

func drain(t *testing.T, d *Decoder) []model.StreamEvent {
	t.Helper()
	var out []model.StreamEvent
	for {
		ev, err := d.Next()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, ev)
	}
}

const sampleStream = `{"type":"start","request_id":"req_1","model":"llama3"}
{"type":"update","node":"respond_naturally","value":"Hel"}
{"type":"update","node":"respond_naturally","value":"lo \"wörld\" ✓"}
{"type":"final","node":"final","value":"final","messages":[{"type":"ai","content":"Hello"}]}
{"type":"update","value":"trailing partial`

func TestDecoder_ArbitraryChunking(t *testing.T) {
	data := []byte(sampleStream)
	want := drain(t, NewDecoder(bytes.NewReader(data), logr.Discard()))
	require.Len(t, want, 4)
	assert.Equal(t, model.EventStart, want[0].Kind)
	assert.Equal(t, `lo "wörld" ✓`, want[2].Value)
	assert.Equal(t, model.EventFinal, want[3].Kind)

	t.Run("one byte at a time", func(t *testing.T) {
		got := drain(t, NewDecoder(iotest.OneByteReader(bytes.NewReader(data)), logr.Discard()))
		assert.Equal(t, want, got)
	})

	t.Run("every two-way split", func(t *testing.T) {
		for i := 1; i < len(data); i++ {
			r := &chunkReader{data: data, sizes: []int{i}}
			got := drain(t, NewDecoder(r, logr.Discard()))
			require.Equal(t, want, got, "split at byte %d", i)
		}
	})

	t.Run("irregular chunks", func(t *testing.T) {
		r := &chunkReader{data: data, sizes: []int{3, 1, 17, 2, 64, 5, 1, 1, 40}}
		got := drain(t, NewDecoder(r, logr.Discard()))
		assert.Equal(t, want, got)
	})

	t.Run("half reader", func(t *testing.T) {
		got := drain(t, NewDecoder(iotest.HalfReader(bytes.NewReader(data)), logr.Discard()))
		assert.Equal(t, want, got)
	})
}

func TestDecoder_SkipsMalformedLines(t *testing.T) {
	input := "{\"type\":\"update\",\"value\":\"a\"}\n" +
		"{not json\n" +
		"\n" +
		"   \r\n" +
		"{\"type\":\"update\",\"value\":\"b\"}\n"

	d := NewDecoder(strings.NewReader(input), logr.Discard())
	got := drain(t, d)

	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Value)
	assert.Equal(t, "b", got[1].Value)
	assert.Equal(t, 1, d.Skipped())
}

func TestDecoder_DeliversBeforeStreamEnds(t *testing.T) {
	pr, pw := io.Pipe()
	d := NewDecoder(pr, logr.Discard())

	go func() {
		_, _ = pw.Write([]byte("{\"type\":\"start\"}\n{\"type\":\"upd"))
	}()

	ev, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, model.EventStart, ev.Kind)

	go func() {
		_, _ = pw.Write([]byte("ate\",\"value\":\"x\"}\n"))
		_ = pw.Close()
	}()

	ev, err = d.Next()
	require.NoError(t, err)
	assert.Equal(t, "x", ev.Value)

	_, err = d.Next()
	assert.Equal(t, io.EOF, err)
}

func TestDecoder_ReadFailure(t *testing.T) {
	boom := errors.New("connection reset")
	r := io.MultiReader(
		strings.NewReader("{\"type\":\"update\",\"value\":\"kept\"}\n{\"type\":"),
		iotest.ErrReader(boom),
	)
	d := NewDecoder(r, logr.Discard())

	ev, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, "kept", ev.Value)

	_, err = d.Next()
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, ErrTypeNetwork, te.Type)
	assert.Zero(t, te.StatusCode)
	assert.ErrorIs(t, err, boom)

	// Sticky.
	_, err2 := d.Next()
	assert.Equal(t, err, err2)
}

func TestEventStream_All(t *testing.T) {
	body := io.NopCloser(strings.NewReader("{\"type\":\"update\",\"value\":\"a\"}\n{\"type\":\"update\",\"value\":\"b\"}\n"))
	s := NewEventStream(body, "rid", logr.Discard())
	defer s.Close()

	var values []string
	for ev, err := range s.All() {
		require.NoError(t, err)
		values = append(values, ev.Value)
	}
	assert.Equal(t, []string{"a", "b"}, values)
	assert.Equal(t, "rid", s.RequestID())
}

func TestEventStream_AllYieldsError(t *testing.T) {
	r := io.MultiReader(strings.NewReader("{\"type\":\"start\"}\n"), iotest.ErrReader(errors.New("reset")))
	s := NewEventStream(io.NopCloser(r), "rid", logr.Discard())

	var kinds []model.EventKind
	var errs []error
	for ev, err := range s.All() {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []model.EventKind{model.EventStart}, kinds)
	require.Len(t, errs, 1)
}

type countingCloser struct {
	io.Reader
	closed int
}

func (c *countingCloser) Close() error {
	c.closed++
	return nil
}

func TestEventStream_CloseOnce(t *testing.T) {
	body := &countingCloser{Reader: strings.NewReader("")}
	s := NewEventStream(body, "rid", logr.Discard())
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, 1, body.closed)
}
