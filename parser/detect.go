package parser

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// FileType is a supported activity file format.
type FileType string

const (
	FileTypeFIT     FileType = "fit"
	FileTypeTCX     FileType = "tcx"
	FileTypeUnknown FileType = "unknown"
)

const sniffLen = 512

// DetectFileType inspects the first bytes of a file.
func DetectFileType(path string) (FileType, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileTypeUnknown, fmt.Errorf("open activity file: %w", err)
	}
	defer f.Close()

	header := make([]byte, sniffLen)
	n, err := io.ReadFull(f, header)
	if err != nil && n == 0 {
		return FileTypeUnknown, fmt.Errorf("read activity file header: %w", err)
	}
	return DetectFileTypeFromData(header[:n]), nil
}

// DetectFileTypeFromData recognizes FIT by its ".FIT" header tag and TCX by its root element.
func DetectFileTypeFromData(data []byte) FileType {
	if len(data) >= 12 && bytes.Equal(data[8:12], []byte(".FIT")) {
		return FileTypeFIT
	}

	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	trimmed := bytes.TrimLeft(head, " \t\r\n\xef\xbb\xbf")
	if bytes.HasPrefix(trimmed, []byte("<")) && bytes.Contains(head, []byte("TrainingCenterDatabase")) {
		return FileTypeTCX
	}
	return FileTypeUnknown
}
