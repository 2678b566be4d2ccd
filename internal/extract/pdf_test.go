package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
)

// onePagePDF builds a minimal PDF whose page draws each line with Helvetica.
func onePagePDF(lines ...string) []byte {
	var content strings.Builder
	content.WriteString("BT /F1 12 Tf 72 720 Td")
	for i, line := range lines {
		if i > 0 {
			content.WriteString(" 0 -20 Td")
		}
		fmt.Fprintf(&content, " (%s) Tj", line)
	}
	content.WriteString(" ET")

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", content.Len(), content.String()),
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%EOF\n", len(objects)+1, xref)

	return buf.Bytes()
}

func TestPDFTextReadsTextLayer(t *testing.T) {
	t.Parallel()

	got, err := PDFText(context.Background(), onePagePDF("Jane Doe", "Go developer"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"Jane Doe", "Go developer"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in extracted text %q", want, got)
		}
	}
}

func TestPDFTextWithoutTextLayer(t *testing.T) {
	t.Parallel()

	if _, err := PDFText(context.Background(), onePagePDF()); err == nil {
		t.Fatalf("expected an error for a page without text")
	}
}

func TestPDFTextRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "not a pdf", data: []byte("hello world, definitely not a pdf")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := PDFText(context.Background(), tt.data); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestPDFTextHonoursContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := PDFText(ctx, []byte("%PDF")); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	input := "  Jane   Doe \r\n\n\n Go   developer\n\nSkills:  Go,  SQL  "
	expect := "Jane Doe\n\nGo developer\n\nSkills: Go, SQL"

	if got := normalize(input); got != expect {
		t.Fatalf("expected %q, got %q", expect, got)
	}
}
