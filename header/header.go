package header

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/emersion/go-message/textproto"

	"github.com/dhcgn/emltouch/model"
)

// DefaultMaxBytes bounds how much of a file is read when looking for headers.
const DefaultMaxBytes int64 = 64 * 1024

var (
	ErrHeaderNotFound = errors.New("date header not found")
	ErrIO             = errors.New("read message")
)

// Read loads the header section of the message stored at path. At most limit
// bytes are read; the result is cut at the blank line separating headers from
// the body.
func Read(path string, limit int64) (model.MessageFile, error) {
	if limit <= 0 {
		limit = DefaultMaxBytes
	}

	file, err := os.Open(path)
	if err != nil {
		return model.MessageFile{}, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, limit))
	if err != nil {
		return model.MessageFile{}, fmt.Errorf("%w: %w", ErrIO, err)
	}

	head, _ := Split(raw)
	return model.MessageFile{Path: path, Header: head}, nil
}

// Split splits a raw message into header and body parts.
func Split(raw []byte) (header, body []byte) {
	if len(raw) == 0 {
		return nil, nil
	}

	crlf := bytes.Index(raw, []byte("\r\n\r\n"))
	lf := bytes.Index(raw, []byte("\n\n"))
	switch {
	case crlf >= 0 && (lf < 0 || crlf < lf):
		return raw[:crlf], raw[crlf+4:]
	case lf >= 0:
		return raw[:lf], raw[lf+2:]
	}

	return raw, nil
}

// Date returns the unfolded value of the first Date field in the header block.
func Date(raw []byte) (string, error) {
	if value, ok := strictDate(raw); ok {
		return value, nil
	}
	if value, ok := lenientDate(raw); ok {
		return value, nil
	}
	return "", ErrHeaderNotFound
}

// strictDate reads the block with the RFC 5322 header reader. Fields read
// before a malformed line are still returned by ReadHeader, so a Date that
// precedes garbage is found here too.
func strictDate(raw []byte) (string, bool) {
	block := raw
	if !bytes.HasSuffix(block, []byte("\n")) {
		block = append(append([]byte{}, block...), '\r', '\n')
	}
	h, _ := textproto.ReadHeader(bufio.NewReader(bytes.NewReader(block)))
	if !h.Has("Date") {
		return "", false
	}
	value := strings.TrimSpace(h.Get("Date"))
	if value == "" {
		return "", false
	}
	return value, true
}

// lenientDate walks the block line by line, skipping anything that does not
// look like a header field, e.g. an mbox "From " envelope line.
func lenientDate(raw []byte) (string, bool) {
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 4096), len(raw)+1)

	var (
		value   []string
		inField bool
	)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			break
		}

		if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
			if inField {
				value = append(value, strings.TrimSpace(line))
			}
			continue
		}

		if inField {
			break
		}

		i := strings.Index(line, ":")
		if i < 0 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(line[:i]), "date") {
			inField = true
			value = append(value, strings.TrimSpace(line[i+1:]))
		}
	}

	joined := strings.TrimSpace(strings.Join(value, " "))
	if !inField || joined == "" {
		return "", false
	}
	return joined, true
}
