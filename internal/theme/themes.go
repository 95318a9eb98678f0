package theme

import (
	"strings"

	"github.com/tablemenu/menu-backend/internal/app/model"
	"github.com/tablemenu/menu-backend/internal/entitlement"
)

// Theme is the full look of one menu template. Every template renders
// through the same page; only these values differ.
type Theme struct {
	ID           entitlement.Template `json:"id"`
	Name         string               `json:"name"`
	Primary      string               `json:"primary"`
	Secondary    string               `json:"secondary"`
	Background   string               `json:"background"`
	Text         string               `json:"text"`
	Muted        string               `json:"muted"`
	Font         string               `json:"font"`
	FontFallback string               `json:"font_fallback"`
	Motif        string               `json:"motif"` // selects the decoration rules in the page CSS
	Radius       string               `json:"radius"`
}

var themes = map[entitlement.Template]Theme{
	entitlement.TemplateClassic: {
		ID: entitlement.TemplateClassic, Name: "Classic",
		Primary: "#b45309", Secondary: "#f3f4f6", Background: "#ffffff", Text: "#1f2937", Muted: "#6b7280",
		Font: "Georgia", FontFallback: "serif", Motif: "classic", Radius: "4px",
	},
	entitlement.TemplateMinimal: {
		ID: entitlement.TemplateMinimal, Name: "Minimal",
		Primary: "#111827", Secondary: "#f4f4f5", Background: "#fafafa", Text: "#18181b", Muted: "#71717a",
		Font: "Inter", FontFallback: "sans-serif", Motif: "minimal", Radius: "0",
	},
	entitlement.TemplateModern: {
		ID: entitlement.TemplateModern, Name: "Modern",
		Primary: "#2563eb", Secondary: "#e0e7ff", Background: "#f8fafc", Text: "#0f172a", Muted: "#64748b",
		Font: "Montserrat", FontFallback: "sans-serif", Motif: "modern", Radius: "12px",
	},
	entitlement.TemplateElegant: {
		ID: entitlement.TemplateElegant, Name: "Elegant",
		Primary: "#7c2d12", Secondary: "#f5e6da", Background: "#fdf8f3", Text: "#292524", Muted: "#78716c",
		Font: "Playfair Display", FontFallback: "serif", Motif: "elegant", Radius: "2px",
	},
	entitlement.TemplateRustic: {
		ID: entitlement.TemplateRustic, Name: "Rustic",
		Primary: "#78350f", Secondary: "#e7d3b0", Background: "#f5ecd7", Text: "#3f2d1c", Muted: "#8a6d4b",
		Font: "Merriweather", FontFallback: "serif", Motif: "rustic", Radius: "6px",
	},
	entitlement.TemplateLuxury: {
		ID: entitlement.TemplateLuxury, Name: "Luxury",
		Primary: "#d4af37", Secondary: "#1c1c1c", Background: "#0b0b0b", Text: "#f5f5f5", Muted: "#a3a3a3",
		Font: "Playfair Display", FontFallback: "serif", Motif: "luxury", Radius: "0",
	},
	entitlement.TemplateNeon: {
		ID: entitlement.TemplateNeon, Name: "Neon",
		Primary: "#ff2bd6", Secondary: "#00f0ff", Background: "#0a0a1a", Text: "#e5e7eb", Muted: "#9ca3af",
		Font: "Poppins", FontFallback: "sans-serif", Motif: "neon", Radius: "10px",
	},
	entitlement.TemplateModernGlass: {
		ID: entitlement.TemplateModernGlass, Name: "Modern Glass",
		Primary: "#38bdf8", Secondary: "#1e293b", Background: "#0f172a", Text: "#f8fafc", Muted: "#94a3b8",
		Font: "Inter", FontFallback: "sans-serif", Motif: "glass", Radius: "18px",
	},
	entitlement.TemplateVintage: {
		ID: entitlement.TemplateVintage, Name: "Vintage",
		Primary: "#8b5e34", Secondary: "#e9d8bd", Background: "#f4e9d8", Text: "#3e2c1c", Muted: "#7c6650",
		Font: "Lato", FontFallback: "serif", Motif: "vintage", Radius: "3px",
	},
}

// Lookup returns the theme for id, classic for unknown ids.
func Lookup(id entitlement.Template) Theme {
	if t, ok := themes[id]; ok {
		return t
	}
	return themes[entitlement.TemplateClassic]
}

// All lists the themes in template order.
func All() []Theme {
	out := make([]Theme, 0, len(entitlement.AllTemplates))
	for _, id := range entitlement.AllTemplates {
		out = append(out, themes[id])
	}
	return out
}

// Style is a theme after the owner's customization was applied.
type Style struct {
	Theme
	ShowPrices    bool `json:"show_prices"`
	ShowAllergens bool `json:"show_allergens"`
}

// Apply overlays non-empty customization values on the theme.
func (t Theme) Apply(c model.Customization) Style {
	s := Style{Theme: t, ShowPrices: true, ShowAllergens: true}
	if c.PrimaryColor != "" {
		s.Primary = c.PrimaryColor
	}
	if c.SecondaryColor != "" {
		s.Secondary = c.SecondaryColor
	}
	if c.BackgroundColor != "" {
		s.Background = c.BackgroundColor
	}
	if c.TextColor != "" {
		s.Text = c.TextColor
	}
	if c.FontFamily != "" {
		s.Font = strings.ReplaceAll(c.FontFamily, "-", " ")
	}
	if c.ShowPrices != nil {
		s.ShowPrices = *c.ShowPrices
	}
	if c.ShowAllergens != nil {
		s.ShowAllergens = *c.ShowAllergens
	}
	return s
}
