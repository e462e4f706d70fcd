package mailer

import "fmt"

// Tags are provider-side labels. Presence-only tags use struct{}{} values.
type Tags map[string]any

// SimpleTags creates presence-only tags from a list of tag names.
func SimpleTags(names ...string) Tags {
	t := make(Tags, len(names))
	for _, n := range names {
		t[n] = struct{}{}
	}
	return t
}

// Recipient formats a name and email into RFC 5322 address format.
// Returns "Name <email>" if name is provided, otherwise just email.
func Recipient(name, email string) string {
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}

// Email is a fully-prepared message ready for a Sender.
type Email struct {
	Headers map[string]string
	Tags    Tags
	Subject string
	HTML    string
	Text    string // plain text alternative
	From    string
	ReplyTo string
	To      []string
	CC      []string
	BCC     []string
}

// Recipients returns the number of addresses across To, CC and BCC.
func (e *Email) Recipients() int {
	return len(e.To) + len(e.CC) + len(e.BCC)
}
