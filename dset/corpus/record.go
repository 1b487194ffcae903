package corpus

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// domainDepth is how many leading "/"-separated segments of the category
// string identify a domain. Deeper segments are product noise.
const domainDepth = 3

// Record is one tagged entry of the corpus file: a header line carrying
// identifier, category path and rating, followed by free-text body lines.
type Record struct {
	ID     string
	Rating string
	Domain string
	Body   []string
}

// MalformedRecordError reports a header line that cannot be split into at
// least an identifier and a rating.
type MalformedRecordError struct {
	Line   int
	Header string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record header at line %d: %q", e.Line, e.Header)
}

// ParseHeader splits a header line into identifier, domain and rating.
// The first whitespace token is the identifier, the last is the rating, and
// everything between is re-joined with single spaces and truncated to the
// first three "/" segments to form the domain.
func ParseHeader(line string, lineNo int) (id, domain, rating string, err error) {
	segs := strings.Fields(line)
	if len(segs) < 2 {
		return "", "", "", &MalformedRecordError{Line: lineNo, Header: line}
	}
	id = segs[0]
	rating = segs[len(segs)-1]
	parts := strings.Split(strings.Join(segs[1:len(segs)-1], " "), "/")
	if len(parts) > domainDepth {
		parts = parts[:domainDepth]
	}
	domain = strings.Join(parts, "/")
	return id, domain, rating, nil
}

// Parser streams Records from a blank-line separated corpus file. It keeps no
// lookahead beyond the current line, so arbitrarily large files stream in
// constant memory.
type Parser struct {
	scanner *bufio.Scanner
	lineNo  int
	err     error
}

// NewParser wraps a line source. The scanner buffer is grown past the bufio
// default since review bodies routinely exceed 64KiB lines.
func NewParser(r io.Reader) *Parser {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &Parser{scanner: sc}
}

// Next returns the next Record, or io.EOF once the stream is exhausted.
// Records with zero body lines are returned as-is; they are valid.
func (p *Parser) Next() (*Record, error) {
	if p.err != nil {
		return nil, p.err
	}

	var rec *Record
	for p.scanner.Scan() {
		p.lineNo++
		text := strings.TrimSpace(p.scanner.Text())
		if len(text) == 0 {
			if rec != nil {
				return rec, nil
			}
			continue
		}
		if rec == nil {
			id, domain, rating, err := ParseHeader(text, p.lineNo)
			if err != nil {
				p.err = err
				return nil, err
			}
			rec = &Record{ID: id, Domain: domain, Rating: rating}
			continue
		}
		rec.Body = append(rec.Body, text)
	}
	if err := p.scanner.Err(); err != nil {
		p.err = fmt.Errorf("failed to read corpus stream: %w", err)
		return nil, p.err
	}
	p.err = io.EOF
	if rec != nil {
		return rec, nil
	}
	return nil, io.EOF
}
