// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

// Compression is the algorithm applied to the encoded payloads
type Compression int

const (
	// NoCompression sends the payloads as encoded
	NoCompression Compression = iota
	// ZstdCompression uses Zstandard. Fast on both ends, the right choice
	// for most clusters.
	ZstdCompression
	// BrotliCompression uses Brotli. Smaller payloads at a higher CPU cost.
	BrotliCompression
)

// frame formats, written as the first byte of every payload
const (
	formatPlain  byte = 0x01
	formatZstd   byte = 0x02
	formatBrotli byte = 0x03
)

// upper bound of a decompressed payload
const maxDecodedSize = 64 << 20

var errPayloadTooLarge = errors.New("decompressed payload too large")

// String returns the name of the algorithm
func (c Compression) String() string {
	switch c {
	case NoCompression:
		return "none"
	case ZstdCompression:
		return "zstd"
	case BrotliCompression:
		return "brotli"
	default:
		return fmt.Sprintf("Compression(%d)", int(c))
	}
}

// ParseCompression returns the algorithm of the given name.
// An empty name means no compression.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "", "none":
		return NoCompression, nil
	case "zstd":
		return ZstdCompression, nil
	case "brotli", "br":
		return BrotliCompression, nil
	default:
		return NoCompression, fmt.Errorf("unsupported compression %q", name)
	}
}

var (
	zstdOnce    sync.Once
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
	zstdErr     error
)

// the encoder and decoder are safe for concurrent EncodeAll/DecodeAll calls
func zstdCodecs() (*zstd.Encoder, *zstd.Decoder, error) {
	zstdOnce.Do(func() {
		zstdEncoder, zstdErr = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedFastest),
			zstd.WithEncoderConcurrency(1),
		)
		if zstdErr != nil {
			return
		}
		zstdDecoder, zstdErr = zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(0),
			zstd.WithDecoderMaxMemory(maxDecodedSize),
		)
	})
	return zstdEncoder, zstdDecoder, zstdErr
}

func zstdCompress(raw []byte) ([]byte, error) {
	encoder, _, err := zstdCodecs()
	if err != nil {
		return nil, err
	}
	out := make([]byte, 1, len(raw)/2+1)
	out[0] = formatZstd
	return encoder.EncodeAll(raw, out), nil
}

func zstdDecompress(compressed []byte) ([]byte, error) {
	_, decoder, err := zstdCodecs()
	if err != nil {
		return nil, err
	}
	return decoder.DecodeAll(compressed, nil)
}

var (
	brotliWriters = sync.Pool{
		New: func() any {
			return brotli.NewWriterLevel(nil, brotli.DefaultCompression)
		},
	}
	brotliReaders = sync.Pool{
		New: func() any {
			return brotli.NewReader(nil)
		},
	}
)

func brotliCompress(raw []byte) ([]byte, error) {
	writer := brotliWriters.Get().(*brotli.Writer)
	defer brotliWriters.Put(writer)

	out := bytes.NewBuffer(make([]byte, 0, len(raw)/2+1))
	out.WriteByte(formatBrotli)
	writer.Reset(out)

	if _, err := writer.Write(raw); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func brotliDecompress(compressed []byte) ([]byte, error) {
	reader := brotliReaders.Get().(*brotli.Reader)
	defer brotliReaders.Put(reader)

	if err := reader.Reset(bytes.NewReader(compressed)); err != nil {
		return nil, err
	}

	raw, err := io.ReadAll(io.LimitReader(reader, maxDecodedSize+1))
	if err != nil {
		return nil, err
	}
	if len(raw) > maxDecodedSize {
		return nil, errPayloadTooLarge
	}
	return raw, nil
}
