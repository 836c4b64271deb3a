// Package s3core is a client for Amazon S3 compatible object storage:
// bucket and object CRUD, multipart and compose orchestration, listings,
// presigned URLs, POST policies, select streams, and bucket notifications.
/*
 * Copyright (c) 2024-2026, CloudRift Systems. All rights reserved.
 */
package s3core

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/xml"
	"hash/crc32"
	"io"
	"net/http"

	"github.com/cloudrift/s3core/cmn"
)

// Select expression type of the query body.
const SelectExpressionSQL = "SQL"

type (
	// SelectCompressionType names the input compression.
	SelectCompressionType string

	// CSVInput configures CSV input serialization.
	CSVInput struct {
		FileHeaderInfo  string `xml:"FileHeaderInfo,omitempty"`
		RecordDelimiter string `xml:"RecordDelimiter,omitempty"`
		FieldDelimiter  string `xml:"FieldDelimiter,omitempty"`
		QuoteCharacter  string `xml:"QuoteCharacter,omitempty"`
	}

	// JSONInput configures JSON input serialization.
	JSONInput struct {
		Type string `xml:"Type,omitempty"` // DOCUMENT or LINES
	}

	// SelectInput describes how the stored object is parsed.
	SelectInput struct {
		CompressionType SelectCompressionType `xml:"CompressionType,omitempty"`
		CSV             *CSVInput             `xml:"CSV,omitempty"`
		JSON            *JSONInput            `xml:"JSON,omitempty"`
	}

	// CSVOutput configures CSV output serialization.
	CSVOutput struct {
		RecordDelimiter string `xml:"RecordDelimiter,omitempty"`
		FieldDelimiter  string `xml:"FieldDelimiter,omitempty"`
	}

	// JSONOutput configures JSON output serialization.
	JSONOutput struct {
		RecordDelimiter string `xml:"RecordDelimiter,omitempty"`
	}

	// SelectOutput describes how matched records are rendered.
	SelectOutput struct {
		CSV  *CSVOutput  `xml:"CSV,omitempty"`
		JSON *JSONOutput `xml:"JSON,omitempty"`
	}

	// SelectOptions is the full query: an SQL expression plus the input
	// and output serialization.
	SelectOptions struct {
		Expression      string
		Input           SelectInput
		Output          SelectOutput
		RequestProgress bool
		SSE             cmn.SSE
	}

	selectRequest struct {
		XMLName        xml.Name `xml:"http://s3.amazonaws.com/doc/2006-03-01/ SelectObjectContentRequest"`
		Expression     string   `xml:"Expression"`
		ExpressionType string   `xml:"ExpressionType"`
		Input          struct {
			CompressionType SelectCompressionType `xml:"CompressionType,omitempty"`
			CSV             *CSVInput             `xml:"CSV,omitempty"`
			JSON            *JSONInput            `xml:"JSON,omitempty"`
		} `xml:"InputSerialization"`
		Output struct {
			CSV  *CSVOutput  `xml:"CSV,omitempty"`
			JSON *JSONOutput `xml:"JSON,omitempty"`
		} `xml:"OutputSerialization"`
		Progress struct {
			Enabled bool `xml:"Enabled"`
		} `xml:"RequestProgress"`
	}

	// SelectProgress is the byte accounting of a progress or stats frame.
	SelectProgress struct {
		BytesScanned   int64 `xml:"BytesScanned"`
		BytesProcessed int64 `xml:"BytesProcessed"`
		BytesReturned  int64 `xml:"BytesReturned"`
	}

	// SelectResults streams the records of one select query. Read returns
	// record payload bytes across frames; io.EOF follows the End frame.
	// Close releases the connection whether or not the stream is drained.
	SelectResults struct {
		resp    *http.Response
		frames  *frameReader
		payload io.Reader
		stats   *SelectProgress
		prog    *SelectProgress
		done    bool
		err     error
	}
)

// SelectObjectContent runs an SQL expression against one object and
// returns the matched records as a stream.
func (c *Client) SelectObjectContent(ctx context.Context, bucket, object string, opts SelectOptions) (*SelectResults, error) {
	if opts.Expression == "" {
		return nil, argErr("select requires an expression")
	}
	if err := c.checkSSE(opts.SSE); err != nil {
		return nil, err
	}

	req := selectRequest{
		Expression:     opts.Expression,
		ExpressionType: SelectExpressionSQL,
	}
	req.Input.CompressionType = opts.Input.CompressionType
	req.Input.CSV, req.Input.JSON = opts.Input.CSV, opts.Input.JSON
	req.Output.CSV, req.Output.JSON = opts.Output.CSV, opts.Output.JSON
	req.Progress.Enabled = opts.RequestProgress

	body, err := xmlBody(req)
	if err != nil {
		return nil, err
	}
	q := subresourceQuery(cmn.QparamSelect)
	q.Set(cmn.QparamSelectType, "2")

	var header http.Header
	if opts.SSE != nil {
		header = http.Header{}
		opts.SSE.Apply(header)
	}
	resp, err := c.executeMethod(ctx, http.MethodPost, requestMetadata{
		bucketName:   bucket,
		objectName:   object,
		queryValues:  q,
		customHeader: header,
		content:      body,
		contentMD5:   true,
	})
	if err != nil {
		return nil, err
	}
	return &SelectResults{
		resp:   resp,
		frames: &frameReader{src: resp.Body},
	}, nil
}

// Read yields record payload bytes, consuming progress and stats frames
// transparently.
func (r *SelectResults) Read(p []byte) (int, error) {
	for {
		if r.err != nil {
			return 0, r.err
		}
		if r.payload != nil {
			n, err := r.payload.Read(p)
			if err == io.EOF {
				r.payload = nil
				if n > 0 {
					return n, nil
				}
				continue
			}
			return n, err
		}
		if r.done {
			return 0, io.EOF
		}
		if err := r.advance(); err != nil {
			r.err = err
			return 0, err
		}
	}
}

// advance decodes the next frame and routes it by event type.
func (r *SelectResults) advance() error {
	frame, err := r.frames.next()
	if err != nil {
		return err
	}
	switch frame.messageType {
	case "error":
		return protocolErr("select error %s: %s", frame.errorCode, frame.errorMessage)
	case "event":
	default:
		return protocolErr("select frame has unknown message type %q", frame.messageType)
	}

	switch frame.eventType {
	case "Records":
		r.payload = frame.body()
	case "Progress":
		var prog SelectProgress
		if err := xml.NewDecoder(frame.body()).Decode(&prog); err != nil {
			return protocolErr("malformed select progress frame: %v", err)
		}
		r.prog = &prog
	case "Stats":
		var st SelectProgress
		if err := xml.NewDecoder(frame.body()).Decode(&st); err != nil {
			return protocolErr("malformed select stats frame: %v", err)
		}
		r.stats = &st
	case "Cont":
		// keep-alive
	case "End":
		r.done = true
	default:
		return protocolErr("select frame has unknown event type %q", frame.eventType)
	}
	return nil
}

// Stats returns the final byte accounting; nil until the Stats frame has
// been consumed.
func (r *SelectResults) Stats() *SelectProgress { return r.stats }

// Progress returns the latest progress accounting; nil unless progress
// reporting was requested.
func (r *SelectResults) Progress() *SelectProgress { return r.prog }

// Close releases the underlying connection.
func (r *SelectResults) Close() error {
	closeResponse(r.resp)
	return nil
}

///////////////////////////
// event-stream decoding //
///////////////////////////

type (
	// selectFrame is one decoded event-stream message.
	selectFrame struct {
		messageType  string
		eventType    string
		errorCode    string
		errorMessage string
		payload      []byte
	}

	frameReader struct {
		src io.Reader
	}
)

func (f *selectFrame) body() io.Reader { return bytes.NewReader(f.payload) }

// next reads one framed message: 4-byte total length, 4-byte header
// length, 4-byte prelude CRC, headers, payload, 4-byte message CRC. Both
// CRCs are IEEE CRC-32 and both are validated.
func (fr *frameReader) next() (*selectFrame, error) {
	var prelude [12]byte
	if _, err := io.ReadFull(fr.src, prelude[:]); err != nil {
		if err == io.EOF {
			return nil, protocolErr("select stream ended without an End frame")
		}
		return nil, transportErr(err)
	}
	totalLen := binary.BigEndian.Uint32(prelude[0:4])
	headerLen := binary.BigEndian.Uint32(prelude[4:8])
	preludeCRC := binary.BigEndian.Uint32(prelude[8:12])
	if crc32.ChecksumIEEE(prelude[:8]) != preludeCRC {
		return nil, protocolErr("select frame prelude CRC mismatch")
	}
	if totalLen < 16 || headerLen > totalLen-16 {
		return nil, protocolErr("select frame lengths are inconsistent")
	}

	rest := make([]byte, totalLen-12)
	if _, err := io.ReadFull(fr.src, rest); err != nil {
		return nil, transportErr(err)
	}
	bodyEnd := len(rest) - 4
	msgCRC := binary.BigEndian.Uint32(rest[bodyEnd:])
	whole := crc32.NewIEEE()
	whole.Write(prelude[:])
	whole.Write(rest[:bodyEnd])
	if whole.Sum32() != msgCRC {
		return nil, protocolErr("select frame message CRC mismatch")
	}

	frame := &selectFrame{payload: rest[headerLen:bodyEnd]}
	if err := frame.parseHeaders(rest[:headerLen]); err != nil {
		return nil, err
	}
	return frame, nil
}

// parseHeaders walks the header block: 1-byte name length, name, 1-byte
// value type (7 = string), 2-byte value length, value.
func (f *selectFrame) parseHeaders(b []byte) error {
	for len(b) > 0 {
		nameLen := int(b[0])
		if len(b) < 1+nameLen+3 {
			return protocolErr("select frame header block is truncated")
		}
		name := string(b[1 : 1+nameLen])
		b = b[1+nameLen:]
		if b[0] != 7 {
			return protocolErr("select frame header %q has unsupported value type %d", name, b[0])
		}
		valLen := int(binary.BigEndian.Uint16(b[1:3]))
		if len(b) < 3+valLen {
			return protocolErr("select frame header block is truncated")
		}
		value := string(b[3 : 3+valLen])
		b = b[3+valLen:]

		switch name {
		case ":message-type":
			f.messageType = value
		case ":event-type":
			f.eventType = value
		case ":error-code":
			f.errorCode = value
			f.messageType = "error"
		case ":error-message":
			f.errorMessage = value
		}
	}
	return nil
}

