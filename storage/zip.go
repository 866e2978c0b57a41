package storage

import (
	"bytes"
	"context"
	"fmt"
	"imgstego-backend/imaging"
	"imgstego-backend/stego"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
)

// ZipSink streams encoded carriers into a zip archive. PNG data is
// already deflated, so entries are stored without recompression.
type ZipSink struct {
	zw    *zip.Writer
	count int
}

func NewZipSink(w io.Writer) *ZipSink {
	return &ZipSink{zw: zip.NewWriter(w)}
}

func (s *ZipSink) Put(_ context.Context, enc stego.Encoded) error {
	header := &zip.FileHeader{
		Name:     EncodedName(enc.Tag),
		Method:   zip.Store,
		Modified: time.Now(),
	}
	w, err := s.zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to add %s to archive: %v", header.Name, err)
	}
	if err := imaging.EncodePNG(w, enc.Carrier); err != nil {
		return err
	}
	s.count++
	return nil
}

// Count is the number of entries written.
func (s *ZipSink) Count() int {
	return s.count
}

// Close finishes the archive. The underlying writer is left open.
func (s *ZipSink) Close() error {
	return s.zw.Close()
}

var _ stego.Sink = (*ZipSink)(nil)

// ReadZipPNGs returns the PNG entries of an archive in name order.
func ReadZipPNGs(data []byte) (map[string][]byte, []string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open archive: %v", err)
	}

	files := make(map[string][]byte)
	var names []string
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(strings.ToLower(f.Name), ".png") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open %s: %v", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %v", f.Name, err)
		}
		files[f.Name] = content
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return files, names, nil
}
