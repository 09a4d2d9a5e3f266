// Copyright 2026 The DriftKV Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package block

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTripAllCompressionKinds(t *testing.T) {
	payload := bytes.Repeat([]byte("hello world, this is a block payload. "), 50)

	miniz5, err := Miniz(5)
	require.NoError(t, err)

	for _, ct := range []CompressionType{None, Lz4, miniz5} {
		var buf bytes.Buffer
		n, err := WriteTo(&buf, payload, ct, 0)
		require.NoError(t, err)
		require.EqualValues(t, buf.Len(), n)

		decoded, err := ReadFrom(bytes.NewReader(buf.Bytes()), ct)
		require.NoError(t, err)
		require.Equal(t, payload, decoded.Payload)
	}
}

func TestReadAtDetectsChecksumMismatch(t *testing.T) {
	payload := []byte("some payload bytes")
	var buf bytes.Buffer
	_, err := WriteTo(&buf, payload, None, 0)
	require.NoError(t, err)

	corrupted := buf.Bytes()
	corrupted[HeaderSize] ^= 0xFF

	_, err = ReadAt(corrupted, 0, None)
	require.Error(t, err)
}

func TestCompressionTagRoundTrip(t *testing.T) {
	miniz7, err := Miniz(7)
	require.NoError(t, err)
	for _, ct := range []CompressionType{None, Lz4, miniz7} {
		tag := ct.EncodeTag()
		got, err := DecodeCompressionTag(tag)
		require.NoError(t, err)
		require.Equal(t, ct, got)
	}
}
