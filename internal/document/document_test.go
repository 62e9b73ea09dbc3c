package document

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func buildDOCX(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("zip create: %v", err)
	}
	xmlDoc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body + `</w:body></w:document>`
	if _, err := w.Write([]byte(xmlDoc)); err != nil {
		t.Fatalf("zip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func para(text string) string {
	return `<w:p><w:r><w:t xml:space="preserve">` + text + `</w:t></w:r></w:p>`
}

func TestTypeFromName(t *testing.T) {
	tests := []struct {
		name string
		want FileType
		ok   bool
	}{
		{"a.pdf", TypePDF, true},
		{"A.PDF", TypePDF, true},
		{"notes.docx", TypeDOCX, true},
		{"data.csv", TypeCSV, true},
		{"report.txt", "", false},
		{"noext", "", false},
	}
	for _, tt := range tests {
		got, ok := TypeFromName(tt.name)
		if got != tt.want || ok != tt.ok {
			t.Errorf("TypeFromName(%q) = %q, %v; want %q, %v", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}

func TestExtractDOCX_ParagraphsConcatenated(t *testing.T) {
	data := buildDOCX(t, para("First paragraph.")+para(" Second one."))
	text, err := ExtractDOCX(Document{Name: "a.docx", Type: TypeDOCX, Data: data})
	if err != nil {
		t.Fatalf("ExtractDOCX() error: %v", err)
	}
	if text != "First paragraph. Second one." {
		t.Errorf("text = %q", text)
	}
}

func TestExtractDOCX_SkipsTables(t *testing.T) {
	table := `<w:tbl><w:tr><w:tc>` + para("cell") + `</w:tc></w:tr></w:tbl>`
	data := buildDOCX(t, para("before")+table+para("after"))
	text, err := ExtractDOCX(Document{Name: "t.docx", Type: TypeDOCX, Data: data})
	if err != nil {
		t.Fatalf("ExtractDOCX() error: %v", err)
	}
	if text != "beforeafter" {
		t.Errorf("text = %q, want %q", text, "beforeafter")
	}
}

func TestExtractDOCX_TabsAndBreaks(t *testing.T) {
	body := `<w:p><w:r><w:t>a</w:t><w:tab/><w:t>b</w:t><w:br/><w:t>c</w:t></w:r></w:p>`
	text, err := ExtractDOCX(Document{Name: "x.docx", Type: TypeDOCX, Data: buildDOCX(t, body)})
	if err != nil {
		t.Fatalf("ExtractDOCX() error: %v", err)
	}
	if text != "a\tb\nc" {
		t.Errorf("text = %q", text)
	}
}

func TestExtractDOCX_Corrupt(t *testing.T) {
	_, err := ExtractDOCX(Document{Name: "bad.docx", Type: TypeDOCX, Data: []byte("not a zip")})
	if !errors.Is(err, ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
	var ee *ExtractionError
	if !errors.As(err, &ee) || ee.Name != "bad.docx" {
		t.Errorf("expected ExtractionError for bad.docx, got %#v", err)
	}
}

func TestExtractDOCX_MissingBody(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("other.xml")
	w.Write([]byte("<x/>"))
	zw.Close()

	_, err := ExtractDOCX(Document{Name: "empty.docx", Type: TypeDOCX, Data: buf.Bytes()})
	if !errors.Is(err, ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
}

func TestExtract_EmptyList(t *testing.T) {
	text, err := NewExtractor(t.TempDir()).Extract(context.Background(), nil)
	if err != nil || text != "" {
		t.Fatalf("Extract(nil) = %q, %v", text, err)
	}
}

func TestExtract_DOCXBatchInOrder(t *testing.T) {
	docs := []Document{
		{Name: "1.docx", Type: TypeDOCX, Data: buildDOCX(t, para("one"))},
		{Name: "2.docx", Type: TypeDOCX, Data: buildDOCX(t, para("two"))},
	}
	text, err := NewExtractor(t.TempDir()).Extract(context.Background(), docs)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if text != "onetwo" {
		t.Errorf("text = %q, want onetwo", text)
	}
}

func TestExtract_MixedTypes(t *testing.T) {
	docs := []Document{
		{Name: "1.docx", Type: TypeDOCX, Data: buildDOCX(t, para("one"))},
		{Name: "2.pdf", Type: TypePDF, Data: []byte("%PDF")},
	}
	if _, err := NewExtractor(t.TempDir()).Extract(context.Background(), docs); err == nil {
		t.Fatal("expected error for mixed types")
	}
}

func TestExtract_CorruptPDF(t *testing.T) {
	docs := []Document{{Name: "broken.pdf", Type: TypePDF, Data: []byte("definitely not a pdf")}}
	_, err := NewExtractor(t.TempDir()).Extract(context.Background(), docs)
	if !errors.Is(err, ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
}

func TestExtract_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	docs := []Document{{Name: "1.docx", Type: TypeDOCX, Data: buildDOCX(t, para("one"))}}
	if _, err := NewExtractor(t.TempDir()).Extract(ctx, docs); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDecodeContentText(t *testing.T) {
	tests := []struct {
		name   string
		stream string
		want   string
	}{
		{"tj", "BT /F1 12 Tf 72 712 Td (Hello World) Tj ET", "Hello World"},
		{"hex", "BT <48656C6C6F> Tj ET", "Hello"},
		{"escapes", `BT (a\(b\)c\\d) Tj ET`, `a(b)c\d`},
		{"octal", `BT (\101\102) Tj ET`, "AB"},
		{"tj array kerning", "BT [(Hel) -20 (lo) -400 (there)] TJ ET", "Hello there"},
		{"line moves", "BT (one) Tj 0 -14 Td (two) Tj T* (three) Tj ET", "one\ntwo\nthree"},
		{"horizontal move", "BT (a) Tj 10 0 Td (b) Tj ET", "ab"},
		{"quote operator", "BT (first) Tj (second) ' ET", "first\nsecond"},
		{"comment", "% comment (ignored) Tj\nBT (kept) Tj ET", "kept"},
		{"inline image", "BI /W 1 /H 1 ID \x00\xff(junk) EI BT (after) Tj ET", "after"},
		{"dict operand", "/Span <</MCID 0>> BDC BT (marked) Tj ET EMC", "marked"},
		{"winansi octal", `BT /F1 12 Tf (Ceci est un r\351sum\351) Tj ET`, "Ceci est un résumé"},
		{"winansi tj array", `BT [(Caf\351) -400 (cr\350me)] TJ ET`, "Café crème"},
		{"winansi quote", `BT (na\357ve) ' ET`, "naïve"},
		{"utf16 hex", "BT <FEFF00E9007400E9> Tj ET", "été"},
		{"utf8 passthrough", "BT (d\xc3\xa9j\xc3\xa0) Tj ET", "déjà"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeContentText([]byte(tt.stream))
			if got != tt.want {
				t.Errorf("decodeContentText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStageCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "staging")
	doc := Document{Name: "sales.csv", Type: TypeCSV, Data: []byte("a,b\n1,2\n")}

	path, err := StageCSV(dir, doc)
	if err != nil {
		t.Fatalf("StageCSV() error: %v", err)
	}
	if filepath.Base(path) != "sales.csv" {
		t.Errorf("staged path = %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading staged file: %v", err)
	}
	if string(data) != "a,b\n1,2\n" {
		t.Errorf("staged content = %q", data)
	}

	if _, err := StageCSV(dir, Document{Name: "x.pdf", Type: TypePDF}); err == nil {
		t.Error("expected error staging a non-csv document")
	}
}

func TestCollect(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		"a.pdf":               "pdf",
		"docs/b.docx":         "docx",
		"docs/deep/c.csv":     "csv",
		"notes.txt":           "skip",
		".git/d.pdf":          "skip",
		"node_modules/e.docx": "skip",
	}
	for rel, content := range files {
		p := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := Collect(CollectConfig{RootDir: root})
	if err != nil {
		t.Fatalf("Collect() error: %v", err)
	}
	var rels []string
	for _, f := range got {
		rels = append(rels, f.RelPath)
		if f.Size != int64(len(files[f.RelPath])) {
			t.Errorf("%s: size = %d", f.RelPath, f.Size)
		}
	}
	want := "a.pdf,docs/b.docx,docs/deep/c.csv"
	if strings.Join(rels, ",") != want {
		t.Errorf("Collect() = %v, want %s", rels, want)
	}

	got, err = Collect(CollectConfig{RootDir: root, Include: []string{"docs/**/*.csv"}})
	if err != nil {
		t.Fatalf("Collect() error: %v", err)
	}
	if len(got) != 1 || got[0].Type != TypeCSV {
		t.Errorf("include filter: got %+v", got)
	}

	got, err = Collect(CollectConfig{RootDir: root, Exclude: []string{"*.pdf"}})
	if err != nil {
		t.Fatalf("Collect() error: %v", err)
	}
	for _, f := range got {
		if f.Type == TypePDF {
			t.Errorf("exclude filter let %s through", f.RelPath)
		}
	}

	got, err = Collect(CollectConfig{RootDir: root, MaxFileSize: 3})
	if err != nil {
		t.Fatalf("Collect() error: %v", err)
	}
	for _, f := range got {
		if f.Size > 3 {
			t.Errorf("size filter let %s (%d bytes) through", f.RelPath, f.Size)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "Report.PDF")
	if err := os.WriteFile(p, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := Load(p)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if doc.Name != "Report.PDF" || doc.Type != TypePDF || string(doc.Data) != "%PDF-1.4" {
		t.Errorf("Load() = %+v", doc)
	}
	txt := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(txt, []byte("plain"), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err = Load(txt)
	if err != nil {
		t.Fatalf("Load(notes.txt) error: %v", err)
	}
	if doc.Name != "notes.txt" || doc.Type != "" || string(doc.Data) != "plain" {
		t.Errorf("Load(notes.txt) = %+v", doc)
	}
	if _, err := Load(filepath.Join(dir, "missing.pdf")); err == nil {
		t.Error("expected error for missing file")
	}
}
