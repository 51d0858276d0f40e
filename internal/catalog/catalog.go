// Package catalog defines the closed set of screens the bot can show and
// the static content rendered for each of them.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Payload tokens carried by inline buttons. Book buttons use the book key.
const (
	PayloadReady = "ready"
	PayloadBack  = "back"
	PayloadAbout = "about_project"
)

// booksPerRow is how many book buttons share one keyboard row on the catalog screen.
const booksPerRow = 2

// ErrUnknownScreen is returned by Render for a screen outside the catalog.
var ErrUnknownScreen = errors.New("unknown screen")

//go:embed content.yaml
var embeddedContent []byte

// Kind enumerates the screen kinds.
type Kind int

const (
	KindWelcome Kind = iota + 1
	KindCatalog
	KindBookDetail
	KindAbout
)

// BookKey identifies a catalog entry.
type BookKey string

// ScreenID identifies a screen. Book is set only for KindBookDetail.
type ScreenID struct {
	Kind Kind
	Book BookKey
}

var (
	Welcome = ScreenID{Kind: KindWelcome}
	Catalog = ScreenID{Kind: KindCatalog}
	About   = ScreenID{Kind: KindAbout}
)

// BookDetail returns the detail screen for key.
func BookDetail(key BookKey) ScreenID {
	return ScreenID{Kind: KindBookDetail, Book: key}
}

func (s ScreenID) String() string {
	switch s.Kind {
	case KindWelcome:
		return "welcome"
	case KindCatalog:
		return "catalog"
	case KindBookDetail:
		return "book:" + string(s.Book)
	case KindAbout:
		return "about"
	default:
		return fmt.Sprintf("screen(%d)", int(s.Kind))
	}
}

// Button is a single inline button.
type Button struct {
	Label   string
	Payload string
}

// Keyboard is an ordered list of button rows.
type Keyboard [][]Button

// Attachment describes the file that follows a book description.
type Attachment struct {
	Asset       string
	Caption     string
	MissingText string
}

// RenderSpec is everything needed to draw one screen. Photo is a media file
// name; when set the primary message is a photo with Text as its caption.
type RenderSpec struct {
	Text       string
	Photo      string
	Keyboard   Keyboard
	Attachment *Attachment
}

// Entry is a static catalog record for one book.
type Entry struct {
	Key            BookKey `yaml:"key"             validate:"required,ne=ready,ne=back,ne=about_project"`
	Title          string  `yaml:"title"           validate:"required"`
	Button         string  `yaml:"button"          validate:"required"`
	Body           string  `yaml:"body"            validate:"required"`
	Asset          string  `yaml:"asset"           validate:"required"`
	Caption        string  `yaml:"caption"         validate:"required"`
	MissingCaption string  `yaml:"missing_caption" validate:"required"`
}

// Content mirrors content.yaml.
type Content struct {
	Welcome struct {
		Text        string `yaml:"text"         validate:"required"`
		Photo       string `yaml:"photo"`
		ReadyButton string `yaml:"ready_button" validate:"required"`
	} `yaml:"welcome"`
	Catalog struct {
		Text string `yaml:"text" validate:"required"`
	} `yaml:"catalog"`
	About struct {
		Text   string `yaml:"text"   validate:"required"`
		Button string `yaml:"button" validate:"required"`
	} `yaml:"about"`
	BackButton string  `yaml:"back_button" validate:"required"`
	Books      []Entry `yaml:"books"       validate:"required,min=1,unique=Key,dive"`
}

// Screens is the immutable screen catalog.
type Screens struct {
	content Content
	books   map[BookKey]Entry
}

// Load parses the content embedded in the binary.
func Load() (*Screens, error) {
	return Parse(embeddedContent)
}

// Parse decodes and validates catalog content.
func Parse(data []byte) (*Screens, error) {
	var content Content
	if err := yaml.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("failed to decode catalog content: %w", err)
	}
	if err := validator.New().Struct(&content); err != nil {
		return nil, fmt.Errorf("invalid catalog content: %w", err)
	}

	books := make(map[BookKey]Entry, len(content.Books))
	for _, e := range content.Books {
		books[e.Key] = e
	}
	return &Screens{content: content, books: books}, nil
}

// Resolve maps a button payload to its destination. ok is false for
// payloads that name no screen.
func (s *Screens) Resolve(payload string) (ScreenID, bool) {
	switch payload {
	case PayloadReady, PayloadBack:
		return Catalog, true
	case PayloadAbout:
		return About, true
	}
	key := BookKey(payload)
	if _, ok := s.books[key]; ok {
		return BookDetail(key), true
	}
	return ScreenID{}, false
}

// Books returns the catalog entries in display order.
func (s *Screens) Books() []Entry {
	out := make([]Entry, len(s.content.Books))
	copy(out, s.content.Books)
	return out
}

// Render returns the content for id.
func (s *Screens) Render(id ScreenID) (RenderSpec, error) {
	switch id.Kind {
	case KindWelcome:
		return RenderSpec{
			Text:     s.content.Welcome.Text,
			Photo:    s.content.Welcome.Photo,
			Keyboard: Keyboard{{{Label: s.content.Welcome.ReadyButton, Payload: PayloadReady}}},
		}, nil
	case KindCatalog:
		return RenderSpec{
			Text:     s.content.Catalog.Text,
			Keyboard: s.catalogKeyboard(),
		}, nil
	case KindAbout:
		return RenderSpec{
			Text:     s.content.About.Text,
			Keyboard: s.backKeyboard(),
		}, nil
	case KindBookDetail:
		e, ok := s.books[id.Book]
		if !ok {
			return RenderSpec{}, fmt.Errorf("%w: %s", ErrUnknownScreen, id)
		}
		return RenderSpec{
			Text:     e.Body,
			Keyboard: s.backKeyboard(),
			Attachment: &Attachment{
				Asset:       e.Asset,
				Caption:     e.Caption,
				MissingText: e.MissingCaption,
			},
		}, nil
	}
	return RenderSpec{}, fmt.Errorf("%w: %s", ErrUnknownScreen, id)
}

func (s *Screens) catalogKeyboard() Keyboard {
	var kb Keyboard
	var row []Button
	for _, e := range s.content.Books {
		row = append(row, Button{Label: e.Button, Payload: string(e.Key)})
		if len(row) == booksPerRow {
			kb = append(kb, row)
			row = nil
		}
	}
	if len(row) > 0 {
		kb = append(kb, row)
	}
	return append(kb, []Button{{Label: s.content.About.Button, Payload: PayloadAbout}})
}

func (s *Screens) backKeyboard() Keyboard {
	return Keyboard{{{Label: s.content.BackButton, Payload: PayloadBack}}}
}
