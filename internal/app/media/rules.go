package media

import (
	"github.com/yigit/practicelog/internal/pkg/notion"
)

// BlockURL extracts the media URL carried by a block, or "".
// External URLs are preferred over provider-hosted ones for every type.
func BlockURL(b notion.Block) string {
	switch b.Type {
	case notion.BlockImage, notion.BlockVideo, notion.BlockFile, notion.BlockAudio, notion.BlockPDF, notion.BlockUnsupported:
		return hostedOrExternal(b.Payload)
	case notion.BlockEmbed, notion.BlockBookmark, notion.BlockLinkPreview:
		if b.Payload != nil {
			return b.Payload.URL
		}
		return ""
	default:
		return attachmentURL(b.Attachment)
	}
}

func hostedOrExternal(p *notion.BlockPayload) string {
	if p == nil {
		return ""
	}
	if p.External != nil && p.External.URL != "" {
		return p.External.URL
	}
	if p.File != nil && p.File.URL != "" {
		return p.File.URL
	}
	return ""
}

// attachmentURL reads root-level file metadata of types without a dedicated rule
func attachmentURL(p *notion.BlockPayload) string {
	if p == nil {
		return ""
	}
	if u := hostedOrExternal(p); u != "" {
		return u
	}
	return p.URL
}
