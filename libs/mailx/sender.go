// Package mailx sends plain-text mail over SMTP, optionally with one attachment.
package mailx

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"
)

type Attachment struct {
	FileName    string
	ContentType string
	Data        []byte
}

type Message struct {
	To         string
	Subject    string
	Text       string
	Attachment *Attachment
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender sends email via unauthenticated SMTP (Mailpit-compatible) unless a
// username is configured, in which case PLAIN auth is used.
type SMTPSender struct {
	host string
	addr string
	from string
	auth smtp.Auth
}

type SMTPConfig struct {
	Host     string
	Port     string
	From     string
	Username string
	Password string
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	host := strings.TrimSpace(cfg.Host)
	from := strings.TrimSpace(cfg.From)
	if from == "" {
		from = "no-reply@booking.local"
	}
	s := &SMTPSender{
		host: host,
		addr: fmt.Sprintf("%s:%s", host, strings.TrimSpace(cfg.Port)),
		from: from,
	}
	if cfg.Username != "" {
		s.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, host)
	}
	return s
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := BuildMessage(s.from, msg)
	if err != nil {
		return err
	}
	return smtp.SendMail(s.addr, s.auth, s.from, []string{msg.To}, raw)
}

// BuildMessage renders an RFC 5322 message. Without an attachment it is a single
// text/plain part; with one it is multipart/mixed.
func BuildMessage(from string, msg Message) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")

	if msg.Attachment == nil {
		buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		buf.WriteString(toCRLF(msg.Text))
		buf.WriteString("\r\n")
		return buf.Bytes(), nil
	}

	mw := multipart.NewWriter(&buf)
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mw.Boundary())

	textPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=utf-8"},
	})
	if err != nil {
		return nil, err
	}
	if _, err := textPart.Write([]byte(toCRLF(msg.Text))); err != nil {
		return nil, err
	}

	contentType := msg.Attachment.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	attPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {contentType},
		"Content-Transfer-Encoding": {"base64"},
		"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": msg.Attachment.FileName})},
	})
	if err != nil {
		return nil, err
	}
	if _, err := attPart.Write(wrapBase64(msg.Attachment.Data)); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toCRLF(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\n", "\r\n")
}

// wrapBase64 encodes data in 76-column lines.
func wrapBase64(data []byte) []byte {
	enc := base64.StdEncoding.EncodeToString(data)
	var out bytes.Buffer
	for len(enc) > 76 {
		out.WriteString(enc[:76])
		out.WriteString("\r\n")
		enc = enc[76:]
	}
	out.WriteString(enc)
	out.WriteString("\r\n")
	return out.Bytes()
}
