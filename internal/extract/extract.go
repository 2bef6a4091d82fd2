// Package extract turns uploaded files into plain text. Supported types are
// plain text, markdown, PDF, DOCX and HTML; anything else fails with
// ErrUnsupportedType.
package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-shiori/go-readability"
	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

// ErrUnsupportedType is returned for file extensions we cannot extract.
var ErrUnsupportedType = errors.New("unsupported file type")

// SetLicenseKey registers the UniDoc metered license key. Without a key PDF
// extraction fails at read time.
func SetLicenseKey(key string) error {
	if key == "" {
		return nil
	}
	return license.SetMeteredKey(key)
}

// FromFile reads the file at path and returns its text content.
func FromFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return FromReader(f, filepath.Base(path))
}

// FromReader extracts text from r, picking the extractor by the filename's
// extension.
func FromReader(r io.Reader, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".txt", ".md":
		content, err := io.ReadAll(r)
		if err != nil {
			return "", err
		}
		return normalize(string(content)), nil
	case ".pdf":
		return fromPDF(r)
	case ".docx":
		return fromDOCX(r)
	case ".html", ".htm":
		return fromHTML(r)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}
}

// fromPDF walks every page and concatenates the extracted text, one blank
// line between pages.
func fromPDF(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	pdfReader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			return "", err
		}

		ex, err := extractor.New(page)
		if err != nil {
			return "", err
		}

		text, err := ex.ExtractText()
		if err != nil {
			return "", err
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}

	return normalize(sb.String()), nil
}

// fromDOCX unpacks the OOXML container and streams word/document.xml,
// collecting w:t runs and ending each w:p with a blank line.
func fromDOCX(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var doc io.ReadCloser
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc, err = f.Open()
			if err != nil {
				return "", err
			}
			break
		}
	}
	if doc == nil {
		return "", errors.New("docx: missing word/document.xml")
	}
	defer doc.Close()

	var sb strings.Builder
	dec := xml.NewDecoder(doc)
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteString("\n\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return normalize(sb.String()), nil
}

// fromHTML strips markup and boilerplate, keeping the readable article text.
func fromHTML(r io.Reader) (string, error) {
	article, err := readability.FromReader(r, &url.URL{Scheme: "http", Host: "localhost"})
	if err != nil {
		return "", err
	}
	return normalize(article.TextContent), nil
}

func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.TrimSpace(text)
}
