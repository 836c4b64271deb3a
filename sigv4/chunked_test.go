// Package sigv4 implements AWS Signature Version 4 request signing for the
// s3 service: header signing, query presigning, POST-policy signing, and
// the chunked streaming-payload variant.
/*
 * Copyright (c) 2024-2026, CloudRift Systems. All rights reserved.
 */
package sigv4

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/cloudrift/s3core/cmn"
)

// The chunked-upload vector: 66560 'a' bytes in 64 KiB chunks, PUT to
// examplebucket/chunkObject.txt with REDUCED_REDUNDANCY storage class.
const chunkedSeedSignature = "4f232c4386841ef735655705268965c44a0e4690baa4adea153f7db9fa80a0a9"

func newChunkedRequest(t *testing.T) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodPut, "https://s3.amazonaws.com/examplebucket/chunkObject.txt", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("x-amz-storage-class", "REDUCED_REDUNDANCY")
	req.Header.Set(cmn.HdrAmzDate, testDate)
	return req
}

func TestChunkedLen(t *testing.T) {
	tests := []struct{ dataLen, want int64 }{
		{66560, 66824},
		{0, 86},
	}
	for _, tc := range tests {
		if got := ChunkedLen(tc.dataLen); got != tc.want {
			t.Errorf("ChunkedLen(%d) = %d, want %d", tc.dataLen, got, tc.want)
		}
	}
	// A single full chunk: 5-digit hex length + 17 + 64 + 2 + data + 2,
	// plus the 86-byte terminator.
	if got := ChunkedLen(ChunkSize); got != int64(5+17+64+2+ChunkSize+2+86) {
		t.Errorf("ChunkedLen(ChunkSize) = %d", got)
	}
}

func TestSignV4ChunkedSeedSignature(t *testing.T) {
	req := newChunkedRequest(t)
	payload := bytes.Repeat([]byte{'a'}, 66560)

	SignV4Chunked(req, bytes.NewReader(payload), int64(len(payload)),
		testAccessKey, testSecretKey, "", testRegion)

	auth := req.Header.Get(cmn.HdrAuthorization)
	if !strings.Contains(auth, "Signature="+chunkedSeedSignature) {
		t.Errorf("seed signature wrong: %s", auth)
	}
	wantHeaders := "SignedHeaders=content-encoding;content-length;host;" +
		"x-amz-content-sha256;x-amz-date;x-amz-decoded-content-length;x-amz-storage-class"
	if !strings.Contains(auth, wantHeaders) {
		t.Errorf("signed headers wrong: %s", auth)
	}
	if req.Header.Get(cmn.HdrContentEncoding) != cmn.ContentEncAWS {
		t.Error("content-encoding not aws-chunked")
	}
	if req.Header.Get(cmn.HdrAmzDecodedLength) != "66560" {
		t.Error("decoded length header wrong")
	}
	if req.ContentLength != 66824 {
		t.Errorf("wire content length = %d, want 66824", req.ContentLength)
	}
}

func TestStreamingReaderChunkChain(t *testing.T) {
	payload := bytes.Repeat([]byte{'a'}, 66560)
	r := NewStreamingReader(bytes.NewReader(payload), int64(len(payload)),
		testTime(t), testRegion, testSecretKey, chunkedSeedSignature)

	encoded, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if int64(len(encoded)) != ChunkedLen(66560) {
		t.Fatalf("encoded length = %d, want %d", len(encoded), ChunkedLen(66560))
	}

	wantSigs := []string{
		"ad80c730a21e5b8d04586a2213dd63b9a0e99e0e2307b0ade35a65485a288648",
		"0055627c9e194cb4542bae2aa5492e3c1575bbb81b612b7d234b86a503ef5497",
		"b6c6ea8a5354eaf15b3cb7646744f4275b71ea724fed81ceb9323e279d449df9",
	}
	wantLens := []int{65536, 1024, 0}

	var decoded []byte
	rest := string(encoded)
	for i, wantSig := range wantSigs {
		header, after, ok := strings.Cut(rest, "\r\n")
		if !ok {
			t.Fatalf("chunk %d: missing header terminator", i)
		}
		lenHex, sig, ok := strings.Cut(header, ";chunk-signature=")
		if !ok {
			t.Fatalf("chunk %d: malformed header %q", i, header)
		}
		if sig != wantSig {
			t.Errorf("chunk %d signature = %s, want %s", i, sig, wantSig)
		}
		n := 0
		for _, c := range lenHex {
			n = n*16 + int(hexVal(c))
		}
		if n != wantLens[i] {
			t.Errorf("chunk %d length = %d, want %d", i, n, wantLens[i])
		}
		decoded = append(decoded, after[:n]...)
		if after[n:n+2] != "\r\n" {
			t.Fatalf("chunk %d: missing data terminator", i)
		}
		rest = after[n+2:]
	}
	if rest != "" {
		t.Errorf("trailing bytes after final chunk: %q", rest)
	}
	if !bytes.Equal(decoded, payload) {
		t.Error("decoded payload differs from input")
	}
}

func hexVal(c rune) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	}
	return 0
}

func TestStreamingReaderSmallReads(t *testing.T) {
	payload := []byte("hello chunked world")
	r := NewStreamingReader(bytes.NewReader(payload), int64(len(payload)),
		testTime(t), testRegion, testSecretKey, chunkedSeedSignature)

	var out []byte
	buf := make([]byte, 7)
	for {
		n, err := r.Read(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
	}
	if int64(len(out)) != ChunkedLen(int64(len(payload))) {
		t.Errorf("length = %d, want %d", len(out), ChunkedLen(int64(len(payload))))
	}
	if !bytes.Contains(out, payload) {
		t.Error("payload not present in encoding")
	}
	if !bytes.HasSuffix(out, []byte("\r\n\r\n")) {
		t.Error("missing terminator frame suffix")
	}
}

func TestStreamingReaderEmptyPayload(t *testing.T) {
	r := NewStreamingReader(bytes.NewReader(nil), 0,
		testTime(t), testRegion, testSecretKey, chunkedSeedSignature)
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if int64(len(out)) != ChunkedLen(0) {
		t.Errorf("length = %d, want %d", len(out), ChunkedLen(0))
	}
	if !strings.HasPrefix(string(out), "0;chunk-signature=") {
		t.Errorf("empty payload must emit only the terminator frame: %q", out)
	}
}
