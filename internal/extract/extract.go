// Package extract converts uploaded documents into plain text for brief
// chat context. Extraction is best-effort: every failure becomes a
// placeholder string so the upload itself never fails.
package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeDOC  = "application/msword"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimeXLS  = "application/vnd.ms-excel"
)

// ExtractText extracts plain text from a file buffer, dispatching by MIME
// type and filename extension. Unsupported formats and extraction errors
// return descriptive placeholder strings; this function never returns an
// error and never panics past its boundary.
func ExtractText(buf []byte, mimeType, fileName string) (text string) {
	defer func() {
		// The PDF parser panics on some malformed files.
		if r := recover(); r != nil {
			log.Printf("Panic extracting text from %s: %v", fileName, r)
			text = errorPlaceholder(fileName)
		}
	}()

	var err error
	switch {
	case mimeType == mimePDF:
		text, err = extractPDF(buf)
	case mimeType == mimeDOCX || mimeType == mimeDOC ||
		strings.HasSuffix(fileName, ".docx") || strings.HasSuffix(fileName, ".doc"):
		text, err = extractDOCX(buf)
	case mimeType == mimeXLSX || mimeType == mimeXLS ||
		strings.HasSuffix(fileName, ".xlsx") || strings.HasSuffix(fileName, ".xls"):
		text, err = extractXLSX(buf)
	case strings.HasPrefix(mimeType, "text/"):
		return string(buf)
	default:
		return fmt.Sprintf("[Файл: %s — формат не поддерживается для извлечения текста]", fileName)
	}

	if err != nil {
		log.Printf("Error extracting text from %s: %v", fileName, err)
		return errorPlaceholder(fileName)
	}

	return text
}

func errorPlaceholder(fileName string) string {
	return fmt.Sprintf("[Ошибка извлечения текста из файла: %s]", fileName)
}

func extractPDF(buf []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(buf), int64(len(buf)))
	if err != nil {
		return "", err
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if _, err := io.Copy(&sb, plain); err != nil {
		return "", err
	}

	return strings.TrimSpace(sb.String()), nil
}

// extractDOCX pulls raw paragraph text out of word/document.xml.
// A .docx is a zip archive; text lives in <w:t> runs, paragraphs end at </w:p>.
func extractDOCX(buf []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(buf), int64(len(buf)))
	if err != nil {
		return "", err
	}

	var docXML io.ReadCloser
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docXML, err = f.Open()
			if err != nil {
				return "", err
			}
			break
		}
	}
	if docXML == nil {
		return "", fmt.Errorf("word/document.xml not found in archive")
	}
	defer docXML.Close()

	decoder := xml.NewDecoder(docXML)
	var sb strings.Builder
	inText := false
	for {
		tok, err := decoder.Token()
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
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}

	return strings.TrimSpace(sb.String()), nil
}

// extractXLSX serializes each sheet to a CSV-like block prefixed with the
// sheet name, blocks concatenated.
func extractXLSX(buf []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(buf))
	if err != nil {
		return "", err
	}
	defer f.Close()

	var lines []string
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			return "", err
		}

		lines = append(lines, fmt.Sprintf("=== Лист: %s ===", sheetName))
		for _, row := range rows {
			lines = append(lines, strings.Join(row, ","))
		}
	}

	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}
