package parser

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"webrag/internal/config"
	"webrag/internal/loader"
	"webrag/internal/models"
)

const defaultPageNumber = 1

// Parser turns a local file into overlapping text chunks.
type Parser struct {
	chunkSize    int
	chunkOverlap int
}

func New(cfg *config.Config) *Parser {
	return &Parser{
		chunkSize:    cfg.RAG.ChunkSize,
		chunkOverlap: cfg.RAG.ChunkOverlap,
	}
}

// ParseFile dispatches on the file extension. Page numbers are real for PDFs,
// slide/sheet indices for office formats, and 1 otherwise.
func (p *Parser) ParseFile(filePath string) ([]models.Chunk, error) {
	switch ext := strings.ToLower(filepath.Ext(filePath)); ext {
	case ".pdf":
		return p.parsePDF(filePath)
	case ".docx":
		return p.parseDOCX(filePath)
	case ".pptx":
		return p.parsePPTX(filePath)
	case ".xlsx":
		return p.parseXLSX(filePath)
	case ".ods":
		return p.parseODS(filePath)
	case ".md", ".markdown":
		return p.parseMarkdown(filePath)
	case ".txt", ".html", ".htm":
		return p.parseText(filePath)
	default:
		return nil, fmt.Errorf("unsupported file format: %s", ext)
	}
}

func (p *Parser) parsePDF(filePath string) ([]models.Chunk, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, err
	}

	var chunks []models.Chunk
	for i := 1; i <= reader.NumPage(); i++ {
		pageText, err := reader.Page(i).GetPlainText(nil)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, p.chunkPage(pageText, i)...)
	}
	return chunks, nil
}

func (p *Parser) parseDOCX(filePath string) ([]models.Chunk, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	content := r.Editable().GetContent()
	return p.chunkPage(content, defaultPageNumber), nil
}

func (p *Parser) parsePPTX(filePath string) ([]models.Chunk, error) {
	f, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var chunks []models.Chunk
	slide := 0
	for _, file := range f.File {
		if !strings.HasPrefix(file.Name, "ppt/slides/slide") {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		slide++
		chunks = append(chunks, p.chunkPage(extractDrawingText(string(data)), slide)...)
	}
	return chunks, nil
}

func (p *Parser) parseXLSX(filePath string) ([]models.Chunk, error) {
	f, err := xlsx.OpenFile(filePath)
	if err != nil {
		return nil, err
	}

	var chunks []models.Chunk
	for sheetNum, sheet := range f.Sheets {
		var text strings.Builder
		fmt.Fprintf(&text, "## Sheet: %s\n", sheet.Name)
		for _, row := range sheet.Rows {
			for _, cell := range row.Cells {
				text.WriteString(cell.String() + "\t")
			}
			text.WriteString("\n")
		}
		chunks = append(chunks, p.chunkPage(text.String(), sheetNum+1)...)
	}
	return chunks, nil
}

func (p *Parser) parseODS(filePath string) ([]models.Chunk, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var chunks []models.Chunk
	for sheetNum, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		var text strings.Builder
		fmt.Fprintf(&text, "## Sheet: %s\n", sheetName)
		for _, row := range rows {
			for _, cell := range row {
				text.WriteString(cell + "\t")
			}
			text.WriteString("\n")
		}
		chunks = append(chunks, p.chunkPage(text.String(), sheetNum+1)...)
	}
	return chunks, nil
}

// parseMarkdown renders the markdown to HTML with goldmark and strips the
// tags, so headings and lists come out as clean text lines.
func (p *Parser) parseMarkdown(filePath string) ([]models.Chunk, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var buf bytes.Buffer
	if err := md.Convert(data, &buf); err != nil {
		return nil, err
	}
	return p.chunkPage(loader.StripHTML(buf.String()), defaultPageNumber), nil
}

func (p *Parser) parseText(filePath string) ([]models.Chunk, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	text := string(data)
	if strings.EqualFold(filepath.Ext(filePath), ".html") || strings.EqualFold(filepath.Ext(filePath), ".htm") {
		text = loader.StripHTML(text)
	}
	return p.chunkPage(text, defaultPageNumber), nil
}

// chunkPage splits one page's text and numbers the resulting chunks.
func (p *Parser) chunkPage(content string, pageNumber int) []models.Chunk {
	var chunks []models.Chunk
	for i, piece := range ChunkContent(content, p.chunkSize, p.chunkOverlap) {
		chunks = append(chunks, models.Chunk{
			Content:    piece,
			PageNumber: pageNumber,
			ChunkID:    i + 1,
		})
	}
	return chunks
}

// ChunkContent splits content into pieces of at most maxChars characters with
// overlapChars of trailing context repeated at each boundary. Breaks prefer
// whitespace or sentence ends within the last tenth of a piece.
func ChunkContent(content string, maxChars, overlapChars int) []string {
	if maxChars <= 0 {
		return nil
	}
	if overlapChars < 0 {
		overlapChars = 0
	}
	if overlapChars >= maxChars {
		overlapChars = maxChars / 2
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	if len(content) <= maxChars {
		return []string{content}
	}

	var chunks []string
	start := 0
	for start < len(content) {
		end := min(start+maxChars, len(content))
		if end < len(content) {
			lookBack := min(maxChars/10, end-start)
			for i := end - 1; i >= end-lookBack && i > start; i-- {
				if content[i] == ' ' || content[i] == '\n' || content[i] == '.' {
					end = i + 1
					break
				}
			}
		}
		if piece := strings.TrimSpace(content[start:end]); piece != "" {
			chunks = append(chunks, piece)
		}
		// the break point may land before the fixed stride; never skip
		// past it or the text in between would be lost
		start = min(start+maxChars-overlapChars, end)
	}
	return chunks
}

// extractDrawingText pulls the text runs out of DrawingML slide XML.
func extractDrawingText(xmlContent string) string {
	var text strings.Builder
	parts := strings.Split(xmlContent, "<a:t>")
	for i, part := range parts {
		if i == 0 {
			continue
		}
		if end := strings.Index(part, "</a:t>"); end >= 0 {
			text.WriteString(part[:end] + " ")
		}
	}
	return text.String()
}
