package core

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"donorregistry/pkg/domain"
)

// Display labels for absent optional values.
const (
	MissingBloodLabel = "—"
	MissingOrganLabel = "No organ listed"
)

// Card is the display projection of one donor.
type Card struct {
	domain.Donor
	Initials    string      `json:"initials"`
	BloodLabel  string      `json:"blood_label"`
	OrganLabel  string      `json:"organ_label"`
	ContactKind ContactKind `json:"contact_kind"`
}

// View is one rendered frame: the filtered cards, the stats over the full
// collection and the query that produced them.
type View struct {
	Donors []Card       `json:"donors"`
	Stats  domain.Stats `json:"stats"`
	Query  Query        `json:"query"`
}

// Empty reports whether no donor matched.
func (v View) Empty() bool { return len(v.Donors) == 0 }

// Renderer receives every frame produced after a mutation or query change.
type Renderer interface {
	Render(ctx context.Context, view View)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, view View)

// Render implements Renderer.
func (f RendererFunc) Render(ctx context.Context, view View) { f(ctx, view) }

// Notifier receives short status messages ("Registered successfully").
type Notifier interface {
	Notify(ctx context.Context, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, message string)

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, message string) { f(ctx, message) }

// Confirmer answers the removal prompt.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

// Confirmed answers yes without asking. Callers use it when the affirmative
// answer was given out of band (a flag or request parameter).
var Confirmed Confirmer = ConfirmFunc(func(context.Context, string) bool { return true })

// Clipboard accepts copied text.
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// BuildView projects filtered donors into cards.
func BuildView(filtered []domain.Donor, stats domain.Stats, q Query) View {
	cards := make([]Card, 0, len(filtered))
	for _, d := range filtered {
		cards = append(cards, NewCard(d))
	}
	return View{Donors: cards, Stats: stats, Query: q}
}

// NewCard builds the display projection for d.
func NewCard(d domain.Donor) Card {
	card := Card{
		Donor:       d,
		Initials:    Initials(d.Name),
		BloodLabel:  d.Blood,
		OrganLabel:  d.Organ,
		ContactKind: ClassifyContact(d.Contact),
	}
	if !d.HasBlood() {
		card.BloodLabel = MissingBloodLabel
	}
	if !d.HasOrgan() {
		card.OrganLabel = MissingOrganLabel
	}
	return card
}

// Initials takes the first character of the first two space-separated parts
// of name, upper-cased. An empty name yields "A".
func Initials(name string) string {
	if name == "" {
		name = "A"
	}
	parts := strings.Split(name, " ")
	if len(parts) > 2 {
		parts = parts[:2]
	}
	var b strings.Builder
	for _, p := range parts {
		r, _ := utf8.DecodeRuneInString(p)
		if r == utf8.RuneError {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
