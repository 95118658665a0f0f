package core

import (
	"fmt"
	"regexp"
	"strings"
)

// ContactKind classifies a donor's free-text contact.
type ContactKind string

const (
	ContactEmail ContactKind = "email"
	ContactPhone ContactKind = "phone"
	ContactPlain ContactKind = "plain"
)

// browserSpace is the whitespace set browsers use for \s: ASCII space and
// controls, vertical tab, every Zs separator, U+2028, U+2029 and U+FEFF.
// RE2's \s is ASCII only.
const browserSpace = `\t\n\v\f\r\p{Zs}\x{2028}\x{2029}\x{FEFF}`

var (
	emailPattern = regexp.MustCompile(`[^` + browserSpace + `]+@[^` + browserSpace + `]+\.[^` + browserSpace + `]+`)
	phonePattern = regexp.MustCompile(`^[\d` + browserSpace + `()+-]{6,20}$`)
)

const mailSubject = "Regarding%20Donation"

// ContactAction is what a presentation layer should do with a contact: follow
// Href for email and phone, or show Message for anything else.
type ContactAction struct {
	Kind    ContactKind `json:"kind"`
	Href    string      `json:"href,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ClassifyContact applies the email test first, then the phone test.
func ClassifyContact(contact string) ContactKind {
	switch {
	case emailPattern.MatchString(contact):
		return ContactEmail
	case phonePattern.MatchString(contact):
		return ContactPhone
	default:
		return ContactPlain
	}
}

// ResolveContact builds the action for contact.
func ResolveContact(contact string) ContactAction {
	kind := ClassifyContact(contact)
	switch kind {
	case ContactEmail:
		return ContactAction{Kind: kind, Href: "mailto:" + encodeURIComponent(contact) + "?subject=" + mailSubject}
	case ContactPhone:
		return ContactAction{Kind: kind, Href: "tel:" + contact}
	default:
		return ContactAction{Kind: kind, Message: "Contact saved: " + contact}
	}
}

// CopyText is the clipboard payload for a donor.
func CopyText(name, contact string) string {
	return name + " — " + contact
}

// encodeURIComponent percent-encodes every byte outside the unreserved URI
// component set A-Z a-z 0-9 - _ . ! ~ * ' ( ).
func encodeURIComponent(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isURIUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

func isURIUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}
