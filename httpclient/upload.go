package httpclient

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

const (
	defaultUploadContentType = "application/octet-stream"
	defaultFileFieldName     = "file"
	boundaryPrefix           = "restkit"
)

// encodeBinary returns the payload bytes unchanged and resolves the
// content type: descriptor header first, then the payload MIME type,
// then application/octet-stream.
func encodeBinary(p UploadPayload, headerContentType string) ([]byte, string) {
	ct := headerContentType
	if ct == "" {
		ct = p.MIMEType
	}
	if ct == "" {
		ct = defaultUploadContentType
	}
	return p.Data, ct
}

// newBoundary generates a random multipart boundary token. 128 bits of
// randomness rendered as hex behind a fixed marker.
func newBoundary() string {
	return boundaryPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// encodeMultipart frames the payload as multipart/form-data: form
// fields in sorted key order, then the file part, then the closing
// delimiter. Field values are not escaped; a value containing the
// boundary token is rejected rather than silently corrupting the body.
func encodeMultipart(p UploadPayload) ([]byte, string, error) {
	return encodeMultipartWithBoundary(p, newBoundary())
}

func encodeMultipartWithBoundary(p UploadPayload, boundary string) ([]byte, string, error) {
	keys := make([]string, 0, len(p.Fields))
	for k := range p.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	for _, k := range keys {
		v := p.Fields[k]
		if strings.Contains(v, boundary) {
			return nil, "", NewEncodingError(fmt.Errorf("form field %q contains the multipart boundary", k))
		}
		buf.WriteString("--" + boundary + "\r\n")
		buf.WriteString(`Content-Disposition: form-data; name="` + escapeQuotes(k) + `"` + "\r\n\r\n")
		buf.WriteString(v)
		buf.WriteString("\r\n")
	}

	fileName := p.FileName
	if fileName == "" {
		fileName = defaultFileFieldName
	}
	mimeType := p.MIMEType
	if mimeType == "" {
		mimeType = defaultUploadContentType
	}

	buf.WriteString("--" + boundary + "\r\n")
	buf.WriteString(`Content-Disposition: form-data; name="` + defaultFileFieldName +
		`"; filename="` + escapeQuotes(fileName) + `"` + "\r\n")
	buf.WriteString("Content-Type: " + mimeType + "\r\n\r\n")
	buf.Write(p.Data)
	buf.WriteString("\r\n")
	buf.WriteString("--" + boundary + "--\r\n")

	return buf.Bytes(), "multipart/form-data; boundary=" + boundary, nil
}

// escapeQuotes replaces special characters in header values.
func escapeQuotes(s string) string {
	var buf bytes.Buffer
	for _, b := range []byte(s) {
		if b == '"' || b == '\\' {
			buf.WriteByte('\\')
		}
		buf.WriteByte(b)
	}
	return buf.String()
}
