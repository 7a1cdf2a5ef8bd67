package finance

import "strings"

// The closed category taxonomy. Labels are fixed; the assistant never invents
// new ones and falls back to CategoryOther only when nothing better maps.
const (
	// Esencial
	CategoryGroceries  = "Supermercado"
	CategoryFood       = "Restaurantes y comida"
	CategoryHousing    = "Vivienda"
	CategoryTransport  = "Transporte"
	CategoryHealth     = "Salud"
	CategoryEducation  = "Educación"
	CategoryUtilities  = "Servicios del hogar"

	// Discrecional
	CategoryLeisure       = "Ocio y entretenimiento"
	CategoryTravel        = "Viajes"
	CategoryClothing      = "Ropa y calzado"
	CategoryTech          = "Tecnología"
	CategorySubscriptions = "Suscripciones"
	CategoryGifts         = "Regalos"
	CategoryPersonalCare  = "Cuidado personal"
	CategoryPets          = "Mascotas"

	// Movimiento financiero
	CategorySalary      = "Salario"
	CategoryExtraIncome = "Ingresos extra"
	CategoryDebts       = "Deudas"
	CategoryLending     = "Préstamos otorgados"
	CategoryTransfers   = "Transferencias"
	CategorySavings     = "Ahorro e inversión"
	CategoryOther       = "Otros"
)

// Categories lists every label in the closed taxonomy.
var Categories = []string{
	CategoryGroceries, CategoryFood, CategoryHousing, CategoryTransport,
	CategoryHealth, CategoryEducation, CategoryUtilities,
	CategoryLeisure, CategoryTravel, CategoryClothing, CategoryTech,
	CategorySubscriptions, CategoryGifts, CategoryPersonalCare, CategoryPets,
	CategorySalary, CategoryExtraIncome, CategoryDebts, CategoryLending,
	CategoryTransfers, CategorySavings, CategoryOther,
}

var categorySet = func() map[string]string {
	m := make(map[string]string, len(Categories))
	for _, c := range Categories {
		m[normalizeLabel(c)] = c
	}
	return m
}()

// knownMerchants maps well-known merchant names to categories. Checked before
// concept keywords because a merchant is a stronger signal than free text.
var knownMerchants = map[string]string{
	"walmart":      CategoryGroceries,
	"soriana":      CategoryGroceries,
	"chedraui":     CategoryGroceries,
	"la comer":     CategoryGroceries,
	"costco":       CategoryGroceries,
	"oxxo":         CategoryGroceries,
	"la trattoria": CategoryFood,
	"starbucks":    CategoryFood,
	"uber":         CategoryTransport,
	"didi":         CategoryTransport,
	"pemex":        CategoryTransport,
	"netflix":      CategorySubscriptions,
	"spotify":      CategorySubscriptions,
	"amazon":       CategoryTech,
	"mercado libre": CategoryTech,
	"farmacia guadalajara": CategoryHealth,
	"farmacias similares":  CategoryHealth,
	"cfe":     CategoryUtilities,
	"telmex":  CategoryUtilities,
	"izzi":    CategoryUtilities,
	"totalplay": CategoryUtilities,
}

// conceptKeywords is scanned in order against the concept text when the
// merchant is unknown. First hit wins, so the more specific entries go first.
var conceptKeywords = []struct {
	keyword  string
	category string
}{
	{"super", CategoryGroceries},
	{"despensa", CategoryGroceries},
	{"mandado", CategoryGroceries},
	{"cena", CategoryFood},
	{"comida", CategoryFood},
	{"desayuno", CategoryFood},
	{"restaurante", CategoryFood},
	{"tacos", CategoryFood},
	{"café", CategoryFood},
	{"cafe", CategoryFood},
	{"renta", CategoryHousing},
	{"hipoteca", CategoryHousing},
	{"gasolina", CategoryTransport},
	{"taxi", CategoryTransport},
	{"camión", CategoryTransport},
	{"metro", CategoryTransport},
	{"doctor", CategoryHealth},
	{"medicina", CategoryHealth},
	{"farmacia", CategoryHealth},
	{"consulta", CategoryHealth},
	{"colegiatura", CategoryEducation},
	{"curso", CategoryEducation},
	{"libro", CategoryEducation},
	{"luz", CategoryUtilities},
	{"agua", CategoryUtilities},
	{"internet", CategoryUtilities},
	{"gas", CategoryUtilities},
	{"cine", CategoryLeisure},
	{"concierto", CategoryLeisure},
	{"fiesta", CategoryLeisure},
	{"viaje", CategoryTravel},
	{"vuelo", CategoryTravel},
	{"hotel", CategoryTravel},
	{"ropa", CategoryClothing},
	{"zapatos", CategoryClothing},
	{"tenis", CategoryClothing},
	{"celular", CategoryTech},
	{"computadora", CategoryTech},
	{"suscripción", CategorySubscriptions},
	{"suscripcion", CategorySubscriptions},
	{"regalo", CategoryGifts},
	{"corte de pelo", CategoryPersonalCare},
	{"estética", CategoryPersonalCare},
	{"gimnasio", CategoryPersonalCare},
	{"veterinario", CategoryPets},
	{"croquetas", CategoryPets},
	{"sueldo", CategorySalary},
	{"salario", CategorySalary},
	{"nómina", CategorySalary},
	{"nomina", CategorySalary},
	{"quincena", CategorySalary},
	{"deuda", CategoryDebts},
	{"préstamo", CategoryLending},
	{"prestamo", CategoryLending},
	{"presté", CategoryLending},
	{"transferencia", CategoryTransfers},
	{"ahorro", CategorySavings},
	{"inversión", CategorySavings},
}

// Categorize picks a category for a transaction: known merchant first, then
// concept keywords, then a type-appropriate default bucket.
func Categorize(concept string, merchant *string, txType Type) string {
	if merchant != nil {
		if cat, ok := knownMerchants[normalizeLabel(*merchant)]; ok {
			return cat
		}
	}

	lower := strings.ToLower(concept)
	for _, kw := range conceptKeywords {
		if strings.Contains(lower, kw.keyword) {
			return kw.category
		}
	}

	switch txType {
	case TypeIncome:
		return CategoryExtraIncome
	case TypeDebt:
		return CategoryDebts
	default:
		return CategoryOther
	}
}

// ValidCategory reports whether the label belongs to the closed taxonomy and
// returns its canonical spelling.
func ValidCategory(label string) (string, bool) {
	canonical, ok := categorySet[normalizeLabel(label)]
	return canonical, ok
}

func normalizeLabel(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
