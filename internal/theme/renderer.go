package theme

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
)

//go:embed templates/menu.html
var templateFS embed.FS

// Renderer draws a Menu as a standalone HTML page.
type Renderer struct {
	page *template.Template
}

type itemContext struct {
	Page Page
	Item Item
}

var funcs = template.FuncMap{
	"dict": func(p Page, item Item) itemContext {
		return itemContext{Page: p, Item: item}
	},
}

func NewRenderer() (*Renderer, error) {
	page, err := template.New("menu.html").Funcs(funcs).ParseFS(templateFS, "templates/menu.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse menu template: %w", err)
	}
	return &Renderer{page: page}, nil
}

// Page is the template data. Its methods are called from the template.
type Page struct {
	Menu    *Menu
	Style   Style
	Locale  string
	Tracker string // events endpoint for item-view beacons
}

func (p Page) T(key string) string {
	return Label(p.Locale, key)
}

func (p Page) Price(amount float64) string {
	return FormatPrice(p.Locale, p.Menu.Currency, amount)
}

func (p Page) Allergens(list []string) string {
	return strings.Join(list, ", ")
}

// Render writes the page for menu in locale. tracker may be empty.
func (r *Renderer) Render(w io.Writer, menu *Menu, locale, tracker string) error {
	return r.page.Execute(w, Page{
		Menu:    menu,
		Style:   menu.Style,
		Locale:  NormalizeLocale(locale),
		Tracker: tracker,
	})
}
