// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package block

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRestartWriterReaderRoundTrip(t *testing.T) {
	w := NewRestartWriter(4)
	keys := []string{"abc", "abcdef", "abd", "b", "ba", "c"}
	for i, k := range keys {
		w.Add([]byte(k), []byte{byte(i)})
	}
	payload := w.Finish()

	r, err := NewRestartReader(payload)
	require.NoError(t, err)
	require.Equal(t, len(keys), r.ItemCount())

	entries := r.All()
	require.Len(t, entries, len(keys))
	for i, e := range entries {
		require.Equal(t, keys[i], string(e.Key))
		require.Equal(t, []byte{byte(i)}, e.Payload)
	}
}

func TestRestartWriterWideBlockUsesFourByteIndex(t *testing.T) {
	w := NewRestartWriter(16)
	big := bytes.Repeat([]byte("x"), 70000)
	w.Add([]byte("a"), big)
	payload := w.Finish()
	r, err := NewRestartReader(payload)
	require.NoError(t, err)
	require.EqualValues(t, 4, r.stepSize)
}

func TestSeekRestartFindsContainingInterval(t *testing.T) {
	w := NewRestartWriter(2)
	keys := []string{"a", "b", "c", "d", "e", "f"}
	for _, k := range keys {
		w.Add([]byte(k), []byte(k))
	}
	payload := w.Finish()
	r, err := NewRestartReader(payload)
	require.NoError(t, err)
	cmp := bytes.Compare
	require.Equal(t, 0, r.SeekRestart([]byte("a"), cmp))
	require.Equal(t, 1, r.SeekRestart([]byte("d"), cmp))
	require.Equal(t, 2, r.SeekRestart([]byte("f"), cmp))
}
