// Package sigv4 implements AWS Signature Version 4 request signing for the
// s3 service: header signing, query presigning, POST-policy signing, and
// the chunked streaming-payload variant.
/*
 * Copyright (c) 2024-2026, CloudRift Systems. All rights reserved.
 */
package sigv4

import (
	"encoding/hex"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cloudrift/s3core/cmn"
)

const (
	// ChunkSize is the data length of every full streaming chunk.
	ChunkSize = 64 * 1024

	chunkSigHeader = ";chunk-signature="
	crlf           = "\r\n"
)

// StreamingReader wraps a payload and emits it as aws-chunked frames, each
// carrying a signature chained off the previous one. The first chunk chains
// off the seed signature produced by signing the request headers.
type StreamingReader struct {
	src        io.Reader
	signingKey []byte
	prevSig    string
	scope      string
	amzDate    string

	remaining int64
	buf       []byte
	frame     []byte
	off       int
	done      bool
}

// NewStreamingReader returns a reader producing the signed chunked encoding
// of src. dataLen is the decoded payload length; seedSignature is the hex
// signature of the surrounding request.
func NewStreamingReader(src io.Reader, dataLen int64, t time.Time, region, secretKey, seedSignature string) *StreamingReader {
	return &StreamingReader{
		src:        src,
		signingKey: SigningKey(secretKey, region, t),
		prevSig:    seedSignature,
		scope:      Scope(region, t),
		amzDate:    t.Format(AmzDateFormat),
		remaining:  dataLen,
		buf:        make([]byte, ChunkSize),
	}
}

// ChunkedLen returns the wire length of the chunked encoding of a payload of
// dataLen bytes, including the zero-length terminator frame.
func ChunkedLen(dataLen int64) int64 {
	frameLen := func(n int64) int64 {
		hexLen := int64(len(strconv.FormatInt(n, 16)))
		return hexLen + int64(len(chunkSigHeader)) + 64 + 2 + n + 2
	}
	var total int64
	for remaining := dataLen; remaining > 0; {
		n := min(remaining, int64(ChunkSize))
		total += frameLen(n)
		remaining -= n
	}
	return total + frameLen(0)
}

// chunkStringToSign binds the chunk hash to the previous signature, forming
// the chain that lets the server verify each chunk incrementally.
func (r *StreamingReader) chunkStringToSign(chunkHash string) string {
	return strings.Join([]string{
		streamingAlgorithm,
		r.amzDate,
		r.scope,
		r.prevSig,
		EmptySHA256,
		chunkHash,
	}, "\n")
}

func (r *StreamingReader) signChunk(data []byte) string {
	hash := hex.EncodeToString(sumSHA256(data))
	sig := hex.EncodeToString(sumHMAC(r.signingKey, []byte(r.chunkStringToSign(hash))))
	r.prevSig = sig
	return sig
}

// nextFrame reads up to ChunkSize bytes from the source and assembles the
// next wire frame. The zero-length frame terminates the stream.
func (r *StreamingReader) nextFrame() error {
	want := min(r.remaining, int64(ChunkSize))
	var data []byte
	if want > 0 {
		n, err := io.ReadFull(r.src, r.buf[:want])
		if err != nil {
			return err
		}
		data = r.buf[:n]
		r.remaining -= int64(n)
	} else {
		r.done = true
	}

	sig := r.signChunk(data)
	var b strings.Builder
	b.WriteString(strconv.FormatInt(int64(len(data)), 16))
	b.WriteString(chunkSigHeader)
	b.WriteString(sig)
	b.WriteString(crlf)
	b.Write(data)
	b.WriteString(crlf)
	r.frame = []byte(b.String())
	r.off = 0
	return nil
}

func (r *StreamingReader) Read(p []byte) (int, error) {
	if r.off == len(r.frame) {
		if r.done {
			return 0, io.EOF
		}
		if err := r.nextFrame(); err != nil {
			return 0, err
		}
	}
	n := copy(p, r.frame[r.off:])
	r.off += n
	return n, nil
}

// SignV4Chunked prepares req for a streaming-signed upload: it sets the
// chunked content headers, signs the request with the streaming payload
// marker, and swaps the body for the chunked reader. dataLen is the decoded
// payload length.
func SignV4Chunked(req *http.Request, body io.Reader, dataLen int64, accessKey, secretKey, sessionToken, region string) {
	enc := cmn.ContentEncAWS
	if prior := req.Header.Values(cmn.HdrContentEncoding); len(prior) > 0 {
		enc = strings.Join(append([]string{enc}, prior...), ",")
	}
	req.Header.Set(cmn.HdrContentEncoding, enc)
	req.Header.Set(cmn.HdrAmzDecodedLength, strconv.FormatInt(dataLen, 10))
	req.Header.Set(cmn.HdrAmzContentSHA256, cmn.StreamingPayload)

	wireLen := ChunkedLen(dataLen)
	req.ContentLength = wireLen
	req.Header.Set(cmn.HdrContentLength, strconv.FormatInt(wireLen, 10))

	t := requestTime(req)
	seed := SignV4(req, accessKey, secretKey, sessionToken, region)
	req.Body = io.NopCloser(NewStreamingReader(body, dataLen, t, region, secretKey, seed))
}
