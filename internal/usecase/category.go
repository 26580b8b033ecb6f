package usecase

import (
	"sort"
	"strings"

	"github.com/partlens/backend/internal/domain"
)

// categoryEntry maps one title keyword to a coarse part category
type categoryEntry struct {
	keyword  string
	category string
}

// CategoryTable classifies a normalized title into a coarse part category.
// Keywords are tried longest-first so a specific phrase like "kit arrastre"
// is never shadowed by a short substring like "kit".
type CategoryTable struct {
	entries   []categoryEntry
	templates map[string]domain.CategoryTemplate
}

// defaultCategoryKeywords maps title keywords to part categories for the
// moto spare-parts catalogs this service reconciles.
var defaultCategoryKeywords = map[string]string{
	"kit arrastre": "transmision",
	"arrastre":     "transmision",
	"cadena":       "transmision",
	"pinon":        "transmision",
	"sprocket":     "transmision",
	"pastilla":     "frenos",
	"freno":        "frenos",
	"banda freno":  "frenos",
	"campana":      "frenos",
	"filtro":       "filtros",
	"bujia":        "electrico",
	"bateria":      "electrico",
	"bombillo":     "electrico",
	"regulador":    "electrico",
	"cdi":          "electrico",
	"amortiguador": "suspension",
	"tijera":       "suspension",
	"barra":        "suspension",
	"aceite":       "lubricantes",
	"lubricante":   "lubricantes",
	"grasa":        "lubricantes",
	"llanta":       "llantas",
	"neumatico":    "llantas",
	"guaya":        "guayas",
	"cable":        "guayas",
	"espejo":       "accesorios",
	"direccional":  "accesorios",
	"manubrio":     "controles",
	"manigueta":    "controles",
	"empaque":      "empaques",
	"kit cilindro": "motor",
	"cilindro":     "motor",
	"piston":       "motor",
	"valvula":      "motor",
	"carburador":   "motor",
}

// defaultCategoryTemplates carries the same-kind boilerplate returned by the
// fallback tier. Template text is generic by design: it describes a kind of
// part, never a specific source record.
var defaultCategoryTemplates = map[string]domain.CategoryTemplate{
	"transmision": {Category: "transmision", Material: "acero templado", Benefit: "transmision de potencia estable y menor desgaste"},
	"frenos":      {Category: "frenos", Material: "compuesto semimetalico", Benefit: "frenado estable en seco y mojado"},
	"filtros":     {Category: "filtros", Material: "papel plisado de alta densidad", Benefit: "retencion de particulas y flujo constante"},
	"electrico":   {Category: "electrico", Material: "componentes electricos sellados", Benefit: "encendido confiable en todo clima"},
	"suspension":  {Category: "suspension", Material: "acero y sellos hidraulicos", Benefit: "absorcion de impactos y estabilidad"},
	"lubricantes": {Category: "lubricantes", Material: "base mineral o sintetica", Benefit: "proteccion contra friccion y calor"},
	"llantas":     {Category: "llantas", Material: "compuesto de caucho reforzado", Benefit: "agarre y durabilidad en carretera"},
	"guayas":      {Category: "guayas", Material: "cable de acero con funda", Benefit: "accionamiento suave y preciso"},
	"accesorios":  {Category: "accesorios", Material: "segun referencia", Benefit: "reposicion directa de fabrica"},
	"controles":   {Category: "controles", Material: "aluminio y polimero", Benefit: "manejo firme y ergonomico"},
	"empaques":    {Category: "empaques", Material: "fibra prensada", Benefit: "sellado hermetico del motor"},
	"motor":       {Category: "motor", Material: "aleacion de aluminio", Benefit: "ajuste de fabrica y compresion correcta"},
}

// NewCategoryTable builds a table from keyword->category and
// category->template maps. Nil maps fall back to the shipped defaults.
func NewCategoryTable(keywords map[string]string, templates map[string]domain.CategoryTemplate) *CategoryTable {
	if keywords == nil {
		keywords = defaultCategoryKeywords
	}
	if templates == nil {
		templates = defaultCategoryTemplates
	}

	entries := make([]categoryEntry, 0, len(keywords))
	for kw, cat := range keywords {
		entries = append(entries, categoryEntry{keyword: kw, category: cat})
	}
	// Longest keyword first; alphabetical within a length for determinism
	sort.Slice(entries, func(i, j int) bool {
		if len(entries[i].keyword) != len(entries[j].keyword) {
			return len(entries[i].keyword) > len(entries[j].keyword)
		}
		return entries[i].keyword < entries[j].keyword
	})

	return &CategoryTable{entries: entries, templates: templates}
}

// Classify returns the template for the first (longest) keyword contained in
// the normalized title. The boolean reports whether any keyword matched.
func (t *CategoryTable) Classify(normalizedTitle string) (domain.CategoryTemplate, bool) {
	if normalizedTitle == "" {
		return domain.CategoryTemplate{}, false
	}
	for _, entry := range t.entries {
		if strings.Contains(normalizedTitle, entry.keyword) {
			if tmpl, ok := t.templates[entry.category]; ok {
				return tmpl, true
			}
			return domain.CategoryTemplate{Category: entry.category}, true
		}
	}
	return domain.CategoryTemplate{}, false
}
