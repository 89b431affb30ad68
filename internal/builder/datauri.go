package builder

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNotDataURI is returned by DecodeDataURI for input that is not of the
// form data:<mime>;base64,<payload>.
var ErrNotDataURI = errors.New("not a base64 data URI")

// DataURI is a decoded embedded data reference.
type DataURI struct {
	MIMEType string
	Data     []byte
}

// String encodes the reference as data:<mime>;base64,<payload>.
func (d DataURI) String() string {
	return EncodeDataURI(d.MIMEType, d.Data)
}

// EncodeDataURI builds a self-describing embedded data reference.
func EncodeDataURI(mimeType string, data []byte) string {
	var b strings.Builder
	b.Grow(len("data:;base64,") + len(mimeType) + base64.StdEncoding.EncodedLen(len(data)))
	b.WriteString("data:")
	b.WriteString(mimeType)
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(data))
	return b.String()
}

// DecodeDataURI parses data:<mime>[;params];base64,<payload>. Only base64
// payloads are accepted.
func DecodeDataURI(uri string) (DataURI, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return DataURI{}, ErrNotDataURI
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return DataURI{}, ErrNotDataURI
	}
	params := strings.Split(header, ";")
	if len(params) < 2 || params[len(params)-1] != "base64" {
		return DataURI{}, ErrNotDataURI
	}
	mimeType := strings.ToLower(strings.TrimSpace(params[0]))
	if mimeType == "" || !strings.Contains(mimeType, "/") {
		return DataURI{}, fmt.Errorf("%w: missing media type", ErrNotDataURI)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return DataURI{}, fmt.Errorf("%w: %v", ErrNotDataURI, err)
	}
	return DataURI{MIMEType: mimeType, Data: data}, nil
}

// ReadDataURI reads r completely and encodes its content. It reads at most
// limit+1 bytes when limit > 0 so that callers can detect oversized input
// without buffering it all. Read failures are returned as *ReadError.
func ReadDataURI(ctx context.Context, name, mimeType string, r io.Reader, limit int64) (DataURI, error) {
	if err := ctx.Err(); err != nil {
		return DataURI{}, &ReadError{Name: name, Err: err}
	}
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}
	data, err := io.ReadAll(&ctxReader{ctx: ctx, r: r})
	if err != nil {
		return DataURI{}, &ReadError{Name: name, Err: err}
	}
	return DataURI{MIMEType: mimeType, Data: data}, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
