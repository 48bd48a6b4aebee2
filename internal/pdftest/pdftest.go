// Package pdftest builds small, well-formed PDF documents for tests.
package pdftest

import (
	"fmt"
	"strings"
)

// Size is a page MediaBox in points.
type Size struct {
	W, H float64
}

// Letter is US Letter portrait.
var Letter = Size{W: 612, H: 792}

// Pages returns n Letter-sized pages.
func Pages(n int) []Size {
	out := make([]Size, n)
	for i := range out {
		out[i] = Letter
	}
	return out
}

// Build returns a PDF with one page per size. Each page shows "Page k" in Helvetica.
// Objects: 1 catalog, 2 page tree, 3 font, then a page and a content stream per page.
func Build(sizes ...Size) []byte {
	if len(sizes) == 0 {
		sizes = []Size{Letter}
	}
	n := len(sizes)
	total := 3 + 2*n

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, total+1)

	kids := make([]string, n)
	for i := 0; i < n; i++ {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}

	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	offsets[2] = b.Len()
	fmt.Fprintf(&b, "2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n", strings.Join(kids, " "), n)

	offsets[3] = b.Len()
	b.WriteString("3 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")

	for i, sz := range sizes {
		pageObj, contentObj := 4+2*i, 5+2*i
		offsets[pageObj] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %s %s] /Contents %d 0 R /Resources << /Font << /F1 3 0 R >> >> >>\nendobj\n",
			pageObj, num(sz.W), num(sz.H), contentObj)

		stream := fmt.Sprintf("BT\n/F1 24 Tf\n72 %s Td\n(Page %d) Tj\nET", num(sz.H-96), i+1)
		offsets[contentObj] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", contentObj, len(stream), stream)
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", total+1)
	b.WriteString("0000000000 65535 f \n")
	for i := 1; i <= total; i++ {
		fmt.Fprintf(&b, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", total+1, xref)
	return []byte(b.String())
}

func num(f float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", f), "0"), ".")
}
