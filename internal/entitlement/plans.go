package entitlement

// PlanType is a subscription tier.
type PlanType string

const (
	PlanFree        PlanType = "free"
	PlanPremium     PlanType = "premium"
	PlanPremiumPlus PlanType = "premium_plus"
)

// rank orders tiers so "premium or above" is a comparison.
func (p PlanType) rank() int {
	switch p {
	case PlanPremium:
		return 1
	case PlanPremiumPlus:
		return 2
	default:
		return 0
	}
}

// IsValid reports whether p is one of the known tiers.
func (p PlanType) IsValid() bool {
	switch p {
	case PlanFree, PlanPremium, PlanPremiumPlus:
		return true
	}
	return false
}

// AtLeast reports whether p is the same tier as other or higher.
func (p PlanType) AtLeast(other PlanType) bool {
	return p.rank() >= other.rank()
}

// Template identifies one of the public menu themes.
type Template string

const (
	TemplateClassic     Template = "classic"
	TemplateMinimal     Template = "minimal"
	TemplateModern      Template = "modern"
	TemplateElegant     Template = "elegant"
	TemplateRustic      Template = "rustic"
	TemplateLuxury      Template = "luxury"
	TemplateNeon        Template = "neon"
	TemplateModernGlass Template = "modern-glass"
	TemplateVintage     Template = "vintage"
)

// templateTier is the lowest plan that unlocks each template.
var templateTier = map[Template]PlanType{
	TemplateClassic:     PlanFree,
	TemplateMinimal:     PlanFree,
	TemplateModern:      PlanPremium,
	TemplateElegant:     PlanPremium,
	TemplateRustic:      PlanPremium,
	TemplateLuxury:      PlanPremium,
	TemplateNeon:        PlanPremium,
	TemplateModernGlass: PlanPremiumPlus,
	TemplateVintage:     PlanPremiumPlus,
}

// AllTemplates lists templates in display order.
var AllTemplates = []Template{
	TemplateClassic, TemplateMinimal,
	TemplateModern, TemplateElegant, TemplateRustic, TemplateLuxury, TemplateNeon,
	TemplateModernGlass, TemplateVintage,
}

func (t Template) IsValid() bool {
	_, ok := templateTier[t]
	return ok
}

// RequiredPlan returns the lowest tier that unlocks t. ok is false for unknown templates.
func (t Template) RequiredPlan() (PlanType, bool) {
	p, ok := templateTier[t]
	return p, ok
}

// Plan describes what a tier grants.
type Plan struct {
	Type           PlanType   `json:"plan_type"`
	Name           string     `json:"name"`
	MaxRestaurants int        `json:"max_restaurants"`
	Templates      []Template `json:"templates"`
	Analytics      bool       `json:"analytics"`
	CustomDomain   bool       `json:"custom_domain"`
	CustomBranding bool       `json:"custom_branding"`
	MonthlyPrice   float64    `json:"monthly_price"`
}

// Catalog is the static set of plans.
type Catalog struct {
	plans map[PlanType]Plan
}

// DefaultCatalog is the plan table used in production.
var DefaultCatalog = NewCatalog()

func NewCatalog() *Catalog {
	c := &Catalog{plans: make(map[PlanType]Plan, 3)}
	c.plans[PlanFree] = Plan{
		Type:           PlanFree,
		Name:           "Free",
		MaxRestaurants: 2,
		MonthlyPrice:   0,
	}
	c.plans[PlanPremium] = Plan{
		Type:           PlanPremium,
		Name:           "Premium",
		MaxRestaurants: 4,
		Analytics:      true,
		CustomDomain:   true,
		CustomBranding: true,
		MonthlyPrice:   9.99,
	}
	c.plans[PlanPremiumPlus] = Plan{
		Type:           PlanPremiumPlus,
		Name:           "Premium Plus",
		MaxRestaurants: 10,
		Analytics:      true,
		CustomDomain:   true,
		CustomBranding: true,
		MonthlyPrice:   19.99,
	}

	for pt, plan := range c.plans {
		for _, t := range AllTemplates {
			if pt.AtLeast(templateTier[t]) {
				plan.Templates = append(plan.Templates, t)
			}
		}
		c.plans[pt] = plan
	}
	return c
}

// Plan returns the plan for tier. Unknown tiers get the free plan.
func (c *Catalog) Plan(tier PlanType) Plan {
	if p, ok := c.plans[tier]; ok {
		return p
	}
	return c.plans[PlanFree]
}

// Plans lists all plans from cheapest to most expensive.
func (c *Catalog) Plans() []Plan {
	return []Plan{c.plans[PlanFree], c.plans[PlanPremium], c.plans[PlanPremiumPlus]}
}
