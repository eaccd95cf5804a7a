// Package fcs reads list-mode FCS 2.0, 3.0 and 3.1 data files.
package fcs

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/flowviz/flowgate/internal/keyword"
)

const headerSize = 58

// FormatError describes a malformed FCS file.
type FormatError struct {
	Path   string
	Offset int64
	Msg    string
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("fcs: offset %d: %s", e.Offset, e.Msg)
	}
	return fmt.Sprintf("fcs %s: offset %d: %s", e.Path, e.Offset, e.Msg)
}

// Sample is a decoded FCS file. Event values are raw, untransformed
// instrument units.
type Sample struct {
	Path     string
	Version  string
	Keywords keyword.List
	// Channels holds $PnN, Labels holds $PnS ("" when absent).
	Channels []string
	Labels   []string
	// Events is row-major: Events[i][j] is parameter j of event i.
	Events [][]float64
}

// ReadFile reads the FCS file at path.
func ReadFile(path string) (*Sample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fcs: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		var fe *FormatError
		if errors.As(err, &fe) {
			fe.Path = path
		}
		return nil, err
	}
	s.Path = path
	return s, nil
}

// Read reads a whole FCS file from r.
func Read(r io.Reader) (*Sample, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("fcs: %w", err)
	}
	return Parse(data)
}

// Parse decodes an in-memory FCS file.
func Parse(data []byte) (*Sample, error) {
	if len(data) < headerSize {
		return nil, &FormatError{Msg: "file shorter than header"}
	}
	version := string(data[:6])
	if !strings.HasPrefix(version, "FCS") {
		return nil, &FormatError{Msg: fmt.Sprintf("bad magic %q", version)}
	}

	offsets := make([]int64, 4)
	for i := range offsets {
		start := 10 + 8*i
		v := strings.TrimSpace(string(data[start : start+8]))
		if v == "" {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, &FormatError{Offset: int64(start), Msg: fmt.Sprintf("bad header offset %q", v)}
		}
		offsets[i] = n
	}
	textStart, textEnd, dataStart, dataEnd := offsets[0], offsets[1], offsets[2], offsets[3]
	if textStart <= 0 || textEnd >= int64(len(data)) || textEnd <= textStart {
		return nil, &FormatError{Offset: 10, Msg: "TEXT segment out of range"}
	}

	kw, err := parseText(data[textStart:textEnd+1], textStart)
	if err != nil {
		return nil, err
	}
	text := textIndex(kw)

	// FCS 3.x moves large DATA offsets into TEXT.
	if dataStart == 0 || dataEnd == 0 {
		dataStart, _ = strconv.ParseInt(strings.TrimSpace(text["$BEGINDATA"]), 10, 64)
		dataEnd, _ = strconv.ParseInt(strings.TrimSpace(text["$ENDDATA"]), 10, 64)
	}

	s := &Sample{Version: version, Keywords: kw}
	npar, err := intKeyword(text, "$PAR", textStart)
	if err != nil {
		return nil, err
	}
	for i := 1; i <= npar; i++ {
		s.Channels = append(s.Channels, text[fmt.Sprintf("$P%dN", i)])
		s.Labels = append(s.Labels, text[fmt.Sprintf("$P%dS", i)])
	}

	if mode := text["$MODE"]; mode != "" && mode != "L" {
		return nil, &FormatError{Offset: textStart, Msg: fmt.Sprintf("unsupported $MODE %q", mode)}
	}
	if dataEnd < dataStart || dataEnd >= int64(len(data)) || dataStart <= 0 {
		return nil, &FormatError{Offset: 26, Msg: "DATA segment out of range"}
	}

	events, err := decodeData(data[dataStart:dataEnd+1], text, npar, dataStart)
	if err != nil {
		return nil, err
	}
	s.Events = events
	return s, nil
}

// parseText splits the TEXT segment. The first byte is the delimiter; a
// doubled delimiter inside a key or value is a literal delimiter.
func parseText(seg []byte, offset int64) (keyword.List, error) {
	if len(seg) < 2 {
		return nil, &FormatError{Offset: offset, Msg: "empty TEXT segment"}
	}
	delim := seg[0]
	var fields []string
	var cur bytes.Buffer
	for i := 1; i < len(seg); i++ {
		c := seg[i]
		if c != delim {
			cur.WriteByte(c)
			continue
		}
		if i+1 < len(seg) && seg[i+1] == delim {
			cur.WriteByte(delim)
			i++
			continue
		}
		fields = append(fields, cur.String())
		cur.Reset()
	}
	if cur.Len() > 0 {
		fields = append(fields, cur.String())
	}
	if len(fields)%2 != 0 {
		return nil, &FormatError{Offset: offset, Msg: "odd number of TEXT fields"}
	}
	kw := make(keyword.List, 0, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		kw = append(kw, keyword.Entry{Key: strings.TrimSpace(fields[i]), Value: fields[i+1]})
	}
	return kw, nil
}

// textIndex maps upper-cased keys to values for standard keyword lookup.
func textIndex(kw keyword.List) map[string]string {
	m := make(map[string]string, len(kw))
	for _, e := range kw {
		m[strings.ToUpper(e.Key)] = e.Value
	}
	return m
}

func intKeyword(text map[string]string, key string, offset int64) (int, error) {
	v, ok := text[key]
	if !ok {
		return 0, &FormatError{Offset: offset, Msg: "missing " + key}
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return 0, &FormatError{Offset: offset, Msg: fmt.Sprintf("bad %s %q", key, v)}
	}
	return n, nil
}

func byteOrder(text map[string]string) binary.ByteOrder {
	switch strings.ReplaceAll(text["$BYTEORD"], " ", "") {
	case "4,3,2,1", "2,1", "4,3,2,1,8,7,6,5":
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func decodeData(seg []byte, text map[string]string, npar int, offset int64) ([][]float64, error) {
	order := byteOrder(text)
	dtype := strings.ToUpper(strings.TrimSpace(text["$DATATYPE"]))

	widths := make([]int, npar)
	for j := 0; j < npar; j++ {
		switch dtype {
		case "F":
			widths[j] = 4
		case "D":
			widths[j] = 8
		case "I":
			bits, err := intKeyword(text, fmt.Sprintf("$P%dB", j+1), offset)
			if err != nil {
				return nil, err
			}
			if bits != 8 && bits != 16 && bits != 32 && bits != 64 {
				return nil, &FormatError{Offset: offset, Msg: fmt.Sprintf("unsupported $P%dB %d", j+1, bits)}
			}
			widths[j] = bits / 8
		default:
			return nil, &FormatError{Offset: offset, Msg: fmt.Sprintf("unsupported $DATATYPE %q", dtype)}
		}
	}
	rowSize := 0
	for _, w := range widths {
		rowSize += w
	}
	if rowSize == 0 {
		return nil, nil
	}

	total := len(seg) / rowSize
	if v, ok := text["$TOT"]; ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n <= total {
			total = n
		}
	}

	events := make([][]float64, total)
	pos := 0
	for i := 0; i < total; i++ {
		row := make([]float64, npar)
		for j, w := range widths {
			b := seg[pos : pos+w]
			switch {
			case dtype == "F":
				row[j] = float64(math.Float32frombits(order.Uint32(b)))
			case dtype == "D":
				row[j] = math.Float64frombits(order.Uint64(b))
			case w == 1:
				row[j] = float64(b[0])
			case w == 2:
				row[j] = float64(order.Uint16(b))
			case w == 4:
				row[j] = float64(order.Uint32(b))
			default:
				row[j] = float64(order.Uint64(b))
			}
			pos += w
		}
		events[i] = row
	}
	return events, nil
}

// Channel returns the index of the first parameter whose $PnN or $PnS
// contains name, ignoring case. An exact $PnN match wins.
func (s *Sample) Channel(name string) (int, bool) {
	if name == "" {
		return 0, false
	}
	for i, c := range s.Channels {
		if c == name {
			return i, true
		}
	}
	lower := strings.ToLower(name)
	for i := range s.Channels {
		if strings.Contains(strings.ToLower(s.Channels[i]), lower) ||
			strings.Contains(strings.ToLower(s.Labels[i]), lower) {
			return i, true
		}
	}
	return 0, false
}

// Column returns a copy of parameter j across all events.
func (s *Sample) Column(j int) []float64 {
	out := make([]float64, len(s.Events))
	for i, row := range s.Events {
		out[i] = row[j]
	}
	return out
}
