package wizard

// Известные поля черновика. Неизвестные ключи сохраняются как есть.
const (
	FieldName         = "name"
	FieldTagline      = "tagline"
	FieldWebsite      = "website"
	FieldCategory     = "category"
	FieldDescription  = "description"
	FieldLogo         = "logo"
	FieldFeatures     = "features"
	FieldPricingModel = "pricingModel"
	FieldPricingTiers = "pricingTiers"
	FieldScreenshots  = "screenshots"
	FieldContactName  = "contactName"
	FieldContactEmail = "contactEmail"
	FieldAgreeToTerms = "agreeToTerms"
)

// PricingModelFree не требует тарифов.
const PricingModelFree = "free"

// Draft - частично заполненная заявка. Значения приходят из JSON.
type Draft map[string]any

// Clone возвращает глубокую копию вложенных map и slice.
func (d Draft) Clone() Draft {
	if d == nil {
		return Draft{}
	}
	out := make(Draft, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, inner := range t {
			m[k] = cloneValue(inner)
		}
		return m
	case Draft:
		return t.Clone()
	case []any:
		s := make([]any, len(t))
		for i, inner := range t {
			s[i] = cloneValue(inner)
		}
		return s
	case []string:
		s := make([]string, len(t))
		copy(s, t)
		return s
	default:
		return v
	}
}

// String возвращает строковое поле или "".
func (d Draft) String(field string) string {
	s, _ := d[field].(string)
	return s
}
