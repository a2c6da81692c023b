package convert

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/h2non/filetype"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/transform"
)

// srcEncoding is encoding of source document as detected by BOM.
type srcEncoding int

const (
	encUnknown srcEncoding = iota
	encUTF8
	encUTF16BigEndian
	encUTF16LittleEndian
	encUTF32BigEndian
	encUTF32LittleEndian
)

// documentExts lists extensions of files considered documents.
var documentExts = []string{".html", ".htm", ".xhtml", ".value"}

// sniffLen is how much of the file is looked at to recognize it.
const sniffLen = 512

func isUTF8BOM3(buf []byte) bool {
	return len(buf) >= 3 && buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF
}

func isUTF16BigEndianBOM2(buf []byte) bool {
	return len(buf) >= 2 && buf[0] == 0xFE && buf[1] == 0xFF
}

func isUTF16LittleEndianBOM2(buf []byte) bool {
	return len(buf) >= 2 && buf[0] == 0xFF && buf[1] == 0xFE
}

func isUTF32BigEndianBOM4(buf []byte) bool {
	return len(buf) >= 4 && buf[0] == 0x00 && buf[1] == 0x00 && buf[2] == 0xFE && buf[3] == 0xFF
}

func isUTF32LittleEndianBOM4(buf []byte) bool {
	return len(buf) >= 4 && buf[0] == 0xFF && buf[1] == 0xFE && buf[2] == 0x00 && buf[3] == 0x00
}

// detectUTF recognizes byte order mark. UTF-32 LE is checked before UTF-16
// LE since its mark starts with the same bytes.
func detectUTF(buf []byte) srcEncoding {
	switch {
	case isUTF8BOM3(buf):
		return encUTF8
	case isUTF32BigEndianBOM4(buf):
		return encUTF32BigEndian
	case isUTF32LittleEndianBOM4(buf):
		return encUTF32LittleEndian
	case isUTF16BigEndianBOM2(buf):
		return encUTF16BigEndian
	case isUTF16LittleEndianBOM2(buf):
		return encUTF16LittleEndian
	}
	return encUnknown
}

// isArchiveFile reports whether file has zip extension and zip content.
func isArchiveFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		return false, nil
	}
	head := make([]byte, 262)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, err
	}
	return filetype.Is(head[:n], "zip"), nil
}

// isDocumentFile reports whether file looks like a document and what
// encoding its BOM names.
func isDocumentFile(path string) (bool, srcEncoding, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, encUnknown, err
	}
	defer f.Close()
	return checkDocument(path, f)
}

// isDocumentInArchive is isDocumentFile for archive entries.
func isDocumentInArchive(f *zip.File) (bool, srcEncoding, error) {
	r, err := f.Open()
	if err != nil {
		return false, encUnknown, err
	}
	defer r.Close()
	return checkDocument(f.FileHeader.Name, r)
}

// checkDocument recognizes documents by extension, then rejects known
// binary content and content without any markup.
func checkDocument(name string, r io.Reader) (bool, srcEncoding, error) {
	if !slices.Contains(documentExts, strings.ToLower(filepath.Ext(name))) {
		return false, encUnknown, nil
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, encUnknown, err
	}
	head = head[:n]

	if kind, err := filetype.Match(head); err == nil && kind != filetype.Unknown {
		return false, encUnknown, nil
	}

	enc := detectUTF(head)
	text, err := io.ReadAll(selectReader(bytes.NewReader(head), enc))
	if err != nil && len(text) == 0 {
		return false, enc, nil
	}
	return bytes.ContainsRune(text, '<'), enc, nil
}

// selectReader returns reader producing UTF-8 from r. Without BOM encoding
// is sniffed from markup (meta tags) and defaults to UTF-8.
func selectReader(r io.Reader, enc srcEncoding) io.Reader {
	switch enc {
	case encUTF8:
		return transform.NewReader(r, unicode.UTF8BOM.NewDecoder())
	case encUTF16BigEndian:
		return transform.NewReader(r, unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder())
	case encUTF16LittleEndian:
		return transform.NewReader(r, unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder())
	case encUTF32BigEndian:
		return transform.NewReader(r, utf32.UTF32(utf32.BigEndian, utf32.ExpectBOM).NewDecoder())
	case encUTF32LittleEndian:
		return transform.NewReader(r, utf32.UTF32(utf32.LittleEndian, utf32.ExpectBOM).NewDecoder())
	case encUnknown:
		if cr, err := charset.NewReader(r, "text/html"); err == nil {
			return cr
		}
		return r
	}
	// this should never happen
	panic(fmt.Sprintf("unexpected source encoding %d", enc))
}
