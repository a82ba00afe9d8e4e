package gmail

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/emersion/go-message/mail"
	"google.golang.org/api/gmail/v1"
)

// Message is a mailbox message reduced to what the history store keeps.
type Message struct {
	ID              string
	ThreadID        string
	From            string
	To              string
	Subject         string
	BodyText        string
	BodyHTML        string
	HeaderMessageID string
	InReplyTo       string
	InternalDate    time.Time
	LabelIDs        []string
}

// FromAddress is the lowercased bare address of the From header.
func (m *Message) FromAddress() string {
	return ExtractAddress(m.From)
}

// ToAddresses are the lowercased bare addresses of the To header.
func (m *Message) ToAddresses() []string {
	return ExtractAddresses(m.To)
}

// OutgoingMessage is a plain-text message to send.
type OutgoingMessage struct {
	From      string
	FromName  string
	To        string
	Subject   string
	Body      string
	InReplyTo string
	ThreadID  string
}

// SentMessage identifies a delivered message.
type SentMessage struct {
	MessageID string
	ThreadID  string
}

// ExtractAddress turns `"Name" <addr>` or a bare address into a lowercased address.
func ExtractAddress(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	if addr, err := mail.ParseAddress(header); err == nil {
		return strings.ToLower(addr.Address)
	}
	if start := strings.LastIndex(header, "<"); start != -1 {
		if end := strings.Index(header[start:], ">"); end != -1 {
			return strings.ToLower(strings.TrimSpace(header[start+1 : start+end]))
		}
	}
	return strings.ToLower(header)
}

// ExtractAddresses splits an address-list header.
func ExtractAddresses(header string) []string {
	if strings.TrimSpace(header) == "" {
		return nil
	}
	if list, err := mail.ParseAddressList(header); err == nil {
		out := make([]string, 0, len(list))
		for _, a := range list {
			out = append(out, strings.ToLower(a.Address))
		}
		return out
	}
	var out []string
	for _, part := range strings.Split(header, ",") {
		if addr := ExtractAddress(part); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

func encodeHeader(value string) string {
	for _, r := range value {
		if r > 127 {
			// RFC 2047 for non-ASCII
			return fmt.Sprintf("=?utf-8?B?%s?=", base64.StdEncoding.EncodeToString([]byte(value)))
		}
	}
	return value
}

func buildRawMessage(out OutgoingMessage) []byte {
	var b bytes.Buffer

	if out.FromName != "" {
		fmt.Fprintf(&b, "From: %s <%s>\r\n", encodeHeader(out.FromName), out.From)
	} else if out.From != "" {
		fmt.Fprintf(&b, "From: %s\r\n", out.From)
	}
	fmt.Fprintf(&b, "To: %s\r\n", out.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", encodeHeader(out.Subject))
	if out.InReplyTo != "" {
		fmt.Fprintf(&b, "In-Reply-To: %s\r\n", out.InReplyTo)
		fmt.Fprintf(&b, "References: %s\r\n", out.InReplyTo)
	}
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
	b.WriteString(strings.ReplaceAll(out.Body, "\n", "\r\n"))
	b.WriteString("\r\n")

	return b.Bytes()
}

func encodeRaw(raw []byte) string {
	return base64.URLEncoding.EncodeToString(raw)
}

func convertGmailMessage(msg *gmail.Message) *Message {
	m := &Message{
		ID:           msg.Id,
		ThreadID:     msg.ThreadId,
		InternalDate: time.UnixMilli(msg.InternalDate).UTC(),
		LabelIDs:     msg.LabelIds,
	}
	if msg.Payload == nil {
		return m
	}

	headers := msg.Payload.Headers
	m.From = getHeader(headers, "From")
	m.To = getHeader(headers, "To")
	m.Subject = getHeader(headers, "Subject")
	m.HeaderMessageID = getHeader(headers, "Message-ID")
	if m.HeaderMessageID == "" {
		m.HeaderMessageID = getHeader(headers, "Message-Id")
	}
	m.InReplyTo = getHeader(headers, "In-Reply-To")

	m.BodyText, m.BodyHTML = getEmailBody(msg.Payload)
	if m.BodyText == "" && m.BodyHTML != "" {
		m.BodyText = HTMLToText(m.BodyHTML)
	}

	return m
}

func getHeader(headers []*gmail.MessagePartHeader, name string) string {
	for _, header := range headers {
		if strings.EqualFold(header.Name, name) {
			return header.Value
		}
	}
	return ""
}

func decodePart(part *gmail.MessagePart) string {
	if part.Body == nil || part.Body.Data == "" {
		return ""
	}
	data, err := base64.URLEncoding.DecodeString(part.Body.Data)
	if err != nil {
		data, err = base64.RawURLEncoding.DecodeString(part.Body.Data)
		if err != nil {
			return ""
		}
	}
	return string(data)
}

// getEmailBody returns the plain and HTML bodies found anywhere in the part tree.
func getEmailBody(payload *gmail.MessagePart) (string, string) {
	var plainBody, htmlBody string

	var walk func(part *gmail.MessagePart)
	walk = func(part *gmail.MessagePart) {
		switch part.MimeType {
		case "text/plain":
			if plainBody == "" {
				plainBody = decodePart(part)
			}
		case "text/html":
			if htmlBody == "" {
				htmlBody = decodePart(part)
			}
		}
		for _, child := range part.Parts {
			walk(child)
		}
	}
	walk(payload)

	return plainBody, htmlBody
}

// HTMLToText flattens an HTML body to readable text.
func HTMLToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("script,style").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p,div,tr").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	lines := strings.Split(doc.Text(), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
