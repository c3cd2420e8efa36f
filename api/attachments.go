package api

import (
	"context"
	"encoding/base64"
	"math"
	"net/url"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/tonyzorin/youtrack-mcp/tracker"
)

// MaxAttachmentSize is the largest attachment transferred through the bridge.
const MaxAttachmentSize = 10 * 1024 * 1024

// Attachments reads and uploads issue attachments.
type Attachments struct {
	client *tracker.Client
}

// AttachmentContent is a base64 encoded attachment.
type AttachmentContent struct {
	Content             string  `json:"content"`
	SizeBytesOriginal   int     `json:"size_bytes_original"`
	SizeBytesBase64     int     `json:"size_bytes_base64"`
	SizeIncreasePercent float64 `json:"size_increase_percent"`
	SizeHuman           string  `json:"size_human"`
	Filename            string  `json:"filename,omitempty"`
	MimeType            string  `json:"mime_type,omitempty"`
	Status              string  `json:"status"`
}

// List returns attachment metadata.
func (s *Attachments) List(ctx context.Context, issueID string) ([]*Attachment, error) {
	if strings.TrimSpace(issueID) == "" {
		return nil, tracker.BadInput("issue id is required")
	}
	var attachments []*Attachment
	if err := s.client.Get(ctx, issuePath(issueID, "attachments"), fieldsQuery(AttachmentFields), &attachments); err != nil {
		return nil, err
	}
	return attachments, nil
}

// Get returns one attachment's metadata.
func (s *Attachments) Get(ctx context.Context, issueID, attachmentID string) (*Attachment, error) {
	if strings.TrimSpace(issueID) == "" || strings.TrimSpace(attachmentID) == "" {
		return nil, tracker.BadInput("issue id and attachment id are required")
	}
	attachment := &Attachment{}
	err := s.client.Get(ctx, issuePath(issueID, "attachments", url.PathEscape(attachmentID)), fieldsQuery(AttachmentFields), attachment)
	if err != nil {
		return nil, err
	}
	return attachment, nil
}

// Content downloads an attachment and returns it base64 encoded.
func (s *Attachments) Content(ctx context.Context, issueID, attachmentID string) (*AttachmentContent, error) {
	attachment, err := s.Get(ctx, issueID, attachmentID)
	if err != nil {
		return nil, err
	}
	if attachment.Size > MaxAttachmentSize {
		return nil, tooLarge(attachment.Name, attachment.Size)
	}
	if attachment.URL == "" {
		return nil, tracker.NotFound("attachment %v has no download url", attachmentID)
	}
	data, err := s.client.Download(ctx, attachment.URL, MaxAttachmentSize)
	if err != nil {
		return nil, err
	}
	if len(data) > MaxAttachmentSize {
		return nil, tooLarge(attachment.Name, int64(len(data)))
	}
	result := Encode(data)
	result.Filename = attachment.Name
	result.MimeType = attachment.MimeType
	return result, nil
}

// Encode base64 encodes data and reports the size overhead.
func Encode(data []byte) *AttachmentContent {
	encoded := base64.StdEncoding.EncodeToString(data)
	result := &AttachmentContent{
		Content:           encoded,
		SizeBytesOriginal: len(data),
		SizeBytesBase64:   len(encoded),
		SizeHuman:         humanize.IBytes(uint64(len(data))),
		Status:            "success",
	}
	if len(data) > 0 {
		increase := float64(len(encoded)-len(data)) / float64(len(data)) * 100
		result.SizeIncreasePercent = math.Round(increase*100) / 100
	}
	return result
}

// Upload attaches a file to an issue.
func (s *Attachments) Upload(ctx context.Context, issueID, filename string, data []byte) ([]*Attachment, error) {
	if strings.TrimSpace(issueID) == "" {
		return nil, tracker.BadInput("issue id is required")
	}
	if strings.TrimSpace(filename) == "" {
		return nil, tracker.BadInput("filename is required")
	}
	if len(data) > MaxAttachmentSize {
		return nil, tooLarge(filename, int64(len(data)))
	}
	var attachments []*Attachment
	if err := s.client.Upload(ctx, issuePath(issueID, "attachments"), fieldsQuery(AttachmentFields), filename, data, &attachments); err != nil {
		return nil, err
	}
	return attachments, nil
}

func tooLarge(name string, size int64) *tracker.Error {
	return tracker.Validation("attachment %v is %v, larger than the %v limit", name,
		humanize.IBytes(uint64(size)), humanize.IBytes(MaxAttachmentSize))
}
