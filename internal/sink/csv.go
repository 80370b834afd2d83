package sink

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/gocarina/gocsv"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// CSVSink writes rows as UTF-8 CSV prefixed with a byte order mark and
// terminated by CRLF, the header comes from the `csv` struct tags of R.
type CSVSink[R any] struct {
	mutex  sync.Mutex
	file   *os.File
	bom    io.WriteCloser
	writer *gocsv.SafeCSVWriter
	closed bool
}

// OpenCSV truncates (or creates) the file at path and writes the header.
func OpenCSV[R any](path string) (*CSVSink[R], error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("open csv sink: %w", err)
	}

	bom := transform.NewWriter(file, unicode.UTF8BOM.NewEncoder())
	lines := csv.NewWriter(bom)
	lines.UseCRLF = true
	writer := gocsv.NewSafeCSVWriter(lines)

	// marshaling an empty slice only writes the header
	err = gocsv.MarshalCSV([]R{}, writer)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	return &CSVSink[R]{
		file:   file,
		bom:    bom,
		writer: writer,
	}, nil
}

func (s *CSVSink[R]) Append(rows []R) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return ErrClosed
	}
	if len(rows) == 0 {
		return nil
	}
	err := gocsv.MarshalCSVWithoutHeaders(rows, s.writer)
	if err != nil {
		return fmt.Errorf("append %d rows: %w", len(rows), err)
	}
	return nil
}

func (s *CSVSink[R]) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	s.writer.Flush()
	err := s.writer.Error()
	if cerr := s.bom.Close(); err == nil {
		err = cerr
	}
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	return err
}
