package dto

type InboundMessage struct {
	UID         uint32
	Subject     string
	Attachments []InboundAttachment
}

type InboundAttachment struct {
	FileName    string
	ContentType string
	Content     []byte
}

func (m *InboundMessage) HasAttachments() bool {
	return m != nil && len(m.Attachments) > 0
}
