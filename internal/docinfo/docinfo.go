// Package docinfo inspects local files before upload: size, kind and,
// for PDFs, the page count shown alongside the file in listings.
package docinfo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// Info describes one local document.
type Info struct {
	Name string
	Size int64
	// Pages is the PDF page count, 0 for non-PDF files.
	Pages int
}

// Inspect stats a file and, for PDFs, reads its page count. A PDF that
// cannot be parsed is still reported, with Pages left at 0.
func Inspect(path string) (Info, error) {
	st, err := os.Stat(path)
	if err != nil {
		return Info{}, fmt.Errorf("inspecting %s: %w", filepath.Base(path), err)
	}
	if st.IsDir() {
		return Info{}, fmt.Errorf("inspecting %s: is a directory", filepath.Base(path))
	}

	info := Info{Name: st.Name(), Size: st.Size()}
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		info.Pages = pageCount(path)
	}
	return info, nil
}

func pageCount(path string) int {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()
	return reader.NumPage()
}
