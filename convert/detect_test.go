package convert

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/transform"
)

const sampleDocument = `<p>Hello <strong>world</strong></p><p>caf` + "é" + `</p>`

func encodeWith(t *testing.T, data []byte, encoder transform.Transformer) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := transform.NewWriter(&buf, encoder)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("encode sample: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("finalize encoded sample: %v", err)
	}
	return buf.Bytes()
}

func encodeSample(t *testing.T, enc srcEncoding) []byte {
	t.Helper()
	data := []byte(sampleDocument)
	switch enc {
	case encUnknown:
		return data
	case encUTF8:
		return append([]byte{0xEF, 0xBB, 0xBF}, data...)
	case encUTF16BigEndian:
		return encodeWith(t, data, unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder())
	case encUTF16LittleEndian:
		return encodeWith(t, data, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder())
	case encUTF32BigEndian:
		return encodeWith(t, data, utf32.UTF32(utf32.BigEndian, utf32.UseBOM).NewEncoder())
	case encUTF32LittleEndian:
		return encodeWith(t, data, utf32.UTF32(utf32.LittleEndian, utf32.UseBOM).NewEncoder())
	}
	t.Fatalf("unsupported encoding: %v", enc)
	return nil
}

func TestIsArchiveFile(t *testing.T) {
	tmpDir := t.TempDir()

	write := func(name string, data []byte) string {
		path := filepath.Join(tmpDir, name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
		return path
	}

	var zipped bytes.Buffer
	w := zip.NewWriter(&zipped)
	f, err := w.Create("doc.html")
	if err != nil {
		t.Fatal(err)
	}
	f.Write([]byte(sampleDocument))
	w.Close()

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"non-zip extension", write("test.txt", []byte("not a zip")), false},
		{"zip content without extension", write("test.bin", zipped.Bytes()), false},
		{"zip extension but invalid content", write("test.zip", []byte("not a real zip file")), false},
		{"valid zip file", write("real.ZIP", zipped.Bytes()), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := isArchiveFile(tt.path)
			if err != nil {
				t.Fatalf("isArchiveFile() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("isArchiveFile() = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := isArchiveFile("/nonexistent/file.zip"); err == nil {
		t.Error("Expected error for non-existent file, got nil")
	}
}

func TestDetectUTF(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		want srcEncoding
	}{
		{"UTF-8 BOM", []byte{0xEF, 0xBB, 0xBF, 0x00}, encUTF8},
		{"UTF-16 Big Endian BOM", []byte{0xFE, 0xFF, 0x00, 0x00}, encUTF16BigEndian},
		{"UTF-16 Little Endian BOM", []byte{0xFF, 0xFE, 0x01, 0x00}, encUTF16LittleEndian},
		{"UTF-32 Big Endian BOM", []byte{0x00, 0x00, 0xFE, 0xFF}, encUTF32BigEndian},
		{"UTF-32 Little Endian BOM", []byte{0xFF, 0xFE, 0x00, 0x00}, encUTF32LittleEndian},
		{"No BOM", []byte{0x00, 0x01, 0x02, 0x03}, encUnknown},
		{"short", []byte{0xEF}, encUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectUTF(tt.buf); got != tt.want {
				t.Errorf("detectUTF() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBOMDetectionFunctions(t *testing.T) {
	if !isUTF8BOM3([]byte{0xEF, 0xBB, 0xBF}) || isUTF8BOM3([]byte{0x00, 0x00, 0x00}) {
		t.Error("isUTF8BOM3 misdetects")
	}
	if !isUTF16BigEndianBOM2([]byte{0xFE, 0xFF}) || isUTF16BigEndianBOM2([]byte{0xFF, 0xFE}) {
		t.Error("isUTF16BigEndianBOM2 misdetects")
	}
	if !isUTF16LittleEndianBOM2([]byte{0xFF, 0xFE}) || isUTF16LittleEndianBOM2([]byte{0xFE, 0xFF}) {
		t.Error("isUTF16LittleEndianBOM2 misdetects")
	}
	if !isUTF32BigEndianBOM4([]byte{0x00, 0x00, 0xFE, 0xFF}) || isUTF32BigEndianBOM4([]byte{0xFF, 0xFE, 0x00, 0x00}) {
		t.Error("isUTF32BigEndianBOM4 misdetects")
	}
	if !isUTF32LittleEndianBOM4([]byte{0xFF, 0xFE, 0x00, 0x00}) || isUTF32LittleEndianBOM4([]byte{0x00, 0x00, 0xFE, 0xFF}) {
		t.Error("isUTF32LittleEndianBOM4 misdetects")
	}
}

func TestIsDocumentFile(t *testing.T) {
	tmpDir := t.TempDir()
	png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}

	tests := []struct {
		name    string
		file    string
		content []byte
		wantDoc bool
		wantEnc srcEncoding
	}{
		{"html file", "a.html", []byte(sampleDocument), true, encUnknown},
		{"html with UTF-8 BOM", "b.htm", encodeSample(t, encUTF8), true, encUTF8},
		{"xhtml UTF-16", "c.xhtml", encodeSample(t, encUTF16LittleEndian), true, encUTF16LittleEndian},
		{"value UTF-32", "d.value", encodeSample(t, encUTF32BigEndian), true, encUTF32BigEndian},
		{"uppercase extension", "e.HTML", []byte(sampleDocument), true, encUnknown},
		{"other extension", "f.txt", []byte(sampleDocument), false, encUnknown},
		{"no markup", "g.html", []byte("just text"), false, encUnknown},
		{"binary content", "h.html", png, false, encUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, tt.file)
			if err := os.WriteFile(path, tt.content, 0644); err != nil {
				t.Fatal(err)
			}
			gotDoc, gotEnc, err := isDocumentFile(path)
			if err != nil {
				t.Fatalf("isDocumentFile() error = %v", err)
			}
			if gotDoc != tt.wantDoc || gotEnc != tt.wantEnc {
				t.Errorf("isDocumentFile() = %v, %v, want %v, %v", gotDoc, gotEnc, tt.wantDoc, tt.wantEnc)
			}
		})
	}

	if _, _, err := isDocumentFile("/nonexistent/file.html"); err == nil {
		t.Error("Expected error for non-existent file")
	}
}

func TestIsDocumentInArchive(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "test.zip")
	zipFile, err := os.Create(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	w := zip.NewWriter(zipFile)
	for _, e := range []struct {
		name string
		data []byte
	}{
		{"doc.html", []byte(sampleDocument)},
		{"notes.txt", []byte("not a document")},
		{"bom.html", encodeSample(t, encUTF8)},
	} {
		f, err := w.Create(e.name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.Write(e.data); err != nil {
			t.Fatal(err)
		}
	}
	w.Close()
	zipFile.Close()

	r, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	tests := []struct {
		idx     int
		wantDoc bool
		wantEnc srcEncoding
	}{
		{0, true, encUnknown},
		{1, false, encUnknown},
		{2, true, encUTF8},
	}
	for _, tt := range tests {
		t.Run(r.File[tt.idx].Name, func(t *testing.T) {
			gotDoc, gotEnc, err := isDocumentInArchive(r.File[tt.idx])
			if err != nil {
				t.Fatalf("isDocumentInArchive() error = %v", err)
			}
			if gotDoc != tt.wantDoc || gotEnc != tt.wantEnc {
				t.Errorf("isDocumentInArchive() = %v, %v, want %v, %v", gotDoc, gotEnc, tt.wantDoc, tt.wantEnc)
			}
		})
	}
}

func TestSelectReader(t *testing.T) {
	for _, enc := range []srcEncoding{encUnknown, encUTF8, encUTF16BigEndian, encUTF16LittleEndian, encUTF32BigEndian, encUTF32LittleEndian} {
		t.Run("", func(t *testing.T) {
			got, err := io.ReadAll(selectReader(bytes.NewReader(encodeSample(t, enc)), enc))
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if string(got) != sampleDocument {
				t.Errorf("encoding %d decoded to %q", enc, got)
			}
		})
	}

	t.Run("charset from meta", func(t *testing.T) {
		src := encodeWith(t, []byte(`<meta charset="windows-1251"><p>`+"Привет"+`</p>`), charmap.Windows1251.NewEncoder())
		got, err := io.ReadAll(selectReader(bytes.NewReader(src), encUnknown))
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Contains(got, []byte("Привет")) {
			t.Errorf("decoded %q", got)
		}
	})
}

func TestSelectReader_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for invalid encoding, but didn't panic")
		}
	}()
	selectReader(bytes.NewReader([]byte("test")), srcEncoding(999))
}
