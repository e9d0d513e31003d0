package fs

import (
	"bytes"
	"fmt"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
)

// SniffLen is the number of leading bytes used for the control character ratio.
const SniffLen = 8192

// Document formats that are never shown as text, whatever their bytes look like.
var binaryExtensions = map[string]string{
	".xlsx": "spreadsheet",
	".xls":  "spreadsheet",
	".docx": "document",
	".doc":  "document",
	".pdf":  "document",
	".zip":  "archive",
	".png":  "image",
	".jpg":  "image",
	".jpeg": "image",
}

// IsText reports whether data looks like UTF-8 text. A NUL byte or invalid
// UTF-8 anywhere in data classifies it as binary, as does a high share of
// control characters within the first SniffLen bytes.
func IsText(data []byte) bool {
	if len(data) == 0 {
		return true
	}
	if bytes.IndexByte(data, 0) >= 0 || !utf8.Valid(data) {
		return false
	}

	window := data
	if len(window) > SniffLen {
		window = window[:SniffLen]
	}
	var nonPrintable int
	for _, b := range window {
		switch b {
		case '\n', '\r', '\t', '\f':
			continue
		}
		if b < 0x20 || b == 0x7f {
			nonPrintable++
		}
	}
	return nonPrintable*20 < len(window)
}

// Classify turns raw file bytes into the content returned to callers. name is
// the caller's relative path and is echoed in the placeholder.
func Classify(name string, data []byte) *FileContent {
	mime := mimetype.Detect(data)
	content := &FileContent{
		Size:     int64(len(data)),
		MIMEType: mime.String(),
	}

	ext := strings.ToLower(path.Ext(name))
	if kind, ok := binaryExtensions[ext]; ok {
		content.IsBinary = true
		content.Text = placeholder(name, kind, mime.String(), content.Size)
		return content
	}
	if !IsText(data) {
		content.IsBinary = true
		content.Text = placeholder(name, "", mime.String(), content.Size)
		return content
	}

	content.Text = string(data)
	return content
}

func placeholder(name, kind, mime string, size int64) string {
	if kind == "spreadsheet" {
		return fmt.Sprintf("This file is an Excel spreadsheet (%s). "+
			"I can only display plain text file contents. "+
			"Describe the columns or sample entries in the file to get help, "+
			"or export the sheet to CSV and ask again.", name)
	}
	return fmt.Sprintf("This file is binary (%s, %s, %s). "+
		"I can only display plain text. "+
		"Describe what you need (e.g. columns, sample data) to get help.",
		name, mime, humanize.IBytes(uint64(size)))
}
