package domain

import (
	"fmt"
	"time"
)

// Page is one page of extracted document text.
type Page struct {
	// Number is the 1-based page number.
	Number int

	// Text is the raw extracted text (markdown-ish, may be empty).
	Text string
}

// PageMeta identifies the document a page belongs to.
// Chunk processors copy it onto every chunk they create.
type PageMeta struct {
	DocumentID    string
	DocumentTitle string
	TenantID      string
}

// Chunk represents a searchable unit within a document.
// Chunks are immutable once created and are only removed by
// deleting the whole document.
type Chunk struct {
	// ID is deterministic: {document_id}_p{page}_c{ordinal}.
	ID string `json:"chunk_id"`

	// DocumentID links to the parent document.
	DocumentID string `json:"document_id"`

	// DocumentTitle is the human-readable title of the parent document.
	DocumentTitle string `json:"document_title"`

	// TenantID is the isolation boundary that owns the chunk.
	TenantID string `json:"tenant_id"`

	// PageNumber is the 1-based page the chunk was cut from.
	PageNumber int `json:"page_number"`

	// SectionTitle is the section detected on the page, if any.
	SectionTitle string `json:"section_title,omitempty"`

	// Text is the chunk content.
	Text string `json:"text"`

	// TokenCount is the tokenizer count of Text.
	TokenCount int `json:"token_count"`
}

// ChunkID builds the deterministic chunk identifier.
func ChunkID(documentID string, page, ordinal int) string {
	return fmt.Sprintf("%s_p%d_c%d", documentID, page, ordinal)
}

// ProcessedDocument is the transient result of chunking an upload.
// After ingestion the vector store is the authoritative copy of the chunks.
type ProcessedDocument struct {
	ID            string
	Title         string
	TenantID      string
	PageCount     int
	Chunks        []Chunk
	Sections      []string
	FileSizeBytes int64
	UploadedAt    time.Time
}

// StoredDocument is a document summary reconstructed from its chunks.
type StoredDocument struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	PageCount  int      `json:"page_count"`
	ChunkCount int      `json:"chunk_count"`
	Sections   []string `json:"sections,omitempty"`
}

// DocumentDetail is a stored document together with its chunks.
type DocumentDetail struct {
	StoredDocument
	Chunks []Chunk `json:"chunks"`
}

// SummariseChunks rebuilds document summaries from a flat chunk scan.
// Documents are returned in first-seen order; sections keep first-seen order.
func SummariseChunks(chunks []Chunk) []StoredDocument {
	var order []string
	docs := make(map[string]*StoredDocument)
	seenSections := make(map[string]map[string]bool)

	for i := range chunks {
		c := &chunks[i]
		doc, ok := docs[c.DocumentID]
		if !ok {
			title := c.DocumentTitle
			if title == "" {
				title = "Unknown"
			}
			doc = &StoredDocument{ID: c.DocumentID, Title: title}
			docs[c.DocumentID] = doc
			seenSections[c.DocumentID] = make(map[string]bool)
			order = append(order, c.DocumentID)
		}
		doc.ChunkCount++
		if c.PageNumber > doc.PageCount {
			doc.PageCount = c.PageNumber
		}
		if c.SectionTitle != "" && !seenSections[c.DocumentID][c.SectionTitle] {
			seenSections[c.DocumentID][c.SectionTitle] = true
			doc.Sections = append(doc.Sections, c.SectionTitle)
		}
	}

	result := make([]StoredDocument, 0, len(order))
	for _, id := range order {
		result = append(result, *docs[id])
	}
	return result
}

// IngestRequest is an uploaded file to be chunked and indexed.
type IngestRequest struct {
	TenantID string
	Filename string
	// Title overrides the title derived from Filename.
	Title   string
	Content []byte
}

// IngestResult summarises a successful ingestion.
type IngestResult struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	PageCount      int           `json:"page_count"`
	ChunkCount     int           `json:"chunk_count"`
	Sections       []string      `json:"sections_detected"`
	ProcessingTime time.Duration `json:"processing_time"`
}
