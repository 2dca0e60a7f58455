package core

// ExpenseCategory groups the subcategories offered when recording an expense.
type ExpenseCategory struct {
	Name          string   `json:"name"`
	Subcategories []string `json:"subcategories"`
}

// DefaultUserColor is used for users stored without a color.
const DefaultUserColor = "#10B981"

// UserColors is the palette offered at registration, in display order.
var UserColors = []string{
	"#3B82F6", // blue
	"#10B981", // emerald
	"#F59E0B", // amber
	"#EF4444", // red
	"#8B5CF6", // violet
	"#F97316", // orange
	"#06B6D4", // cyan
	"#84CC16", // lime
	"#EC4899", // pink
	"#6B7280", // gray
}

var ExpenseCategories = []ExpenseCategory{
	{
		Name: "Wohnen & Haushalt",
		Subcategories: []string{
			"Miete / Hypothek",
			"Nebenkosten (Strom, Gas, Wasser, Heizung)",
			"Internet & Telekommunikation (Festnetz, Handy)",
			"Müllgebühren",
			"GEZ (Rundfunkbeitrag)",
			"Hausratversicherung / Wohngebäudeversicherung",
			"Reparaturen & Instandhaltung",
			"Reinigungsmittel / Haushaltswaren",
		},
	},
	{
		Name: "Lebensmittel & Ernährung",
		Subcategories: []string{
			"Einkäufe im Supermarkt",
			"Restaurantbesuche / Essen bestellen",
			"Getränke (außerhalb des Haushalts)",
		},
	},
	{
		Name: "Transport & Mobilität",
		Subcategories: []string{
			"Benzin / Diesel / Strom (für E-Autos)",
			"Öffentliche Verkehrsmittel (Monatskarte, Einzeltickets)",
			"KFZ-Versicherung",
			"KFZ-Steuer",
			"Reparaturen & Wartung Auto",
			"Parkgebühren",
			"Fahrradreparaturen",
		},
	},
	{
		Name: "Gesundheit & Körperpflege",
		Subcategories: []string{
			"Medikamente (nicht von Krankenkasse übernommen)",
			"Arztbesuche / Zuzahlungen",
			"Krankenversicherungsbeiträge (falls privat oder Zusatzversicherungen)",
			"Friseur",
			"Kosmetik / Pflegeprodukte",
			"Fitnessstudio / Sportvereine",
		},
	},
	{
		Name: "Freizeit & Unterhaltung",
		Subcategories: []string{
			"Streaming-Dienste (Netflix, Spotify etc.)",
			"Kino / Konzerte / Theater",
			"Bücher / Zeitschriften",
			"Hobbies & Sportausrüstung",
			"Urlaub / Reisen",
			"Geschenke",
			"Ausflüge",
		},
	},
	{
		Name: "Bildung & Weiterbildung",
		Subcategories: []string{
			"Kursgebühren",
			"Bücher / Lernmaterialien",
			"Seminare",
		},
	},
	{
		Name: "Persönliche Ausgaben",
		Subcategories: []string{
			"Kleidung & Schuhe",
			"Friseur",
			"Taschengeld",
			"Spenden",
			"Abos (nicht-Streaming, z.B. Software)",
		},
	},
	{
		Name: "Finanzen & Versicherungen",
		Subcategories: []string{
			"Bankgebühren",
			"Lebensversicherung / Rentenversicherung",
			"Haftpflichtversicherung",
			"Rechtsschutzversicherung",
			"Kreditraten",
		},
	},
}

var IncomeCategories = []string{
	"Gehalt/Lohn",
	"Beamtenbesoldung",
	"Selbstständigkeit/Freelance",
	"Nebenjob",
	"Minijob",
	"Rente",
	"Pension",
	"Betriebsrente",
	"Arbeitslosengeld I",
	"Bürgergeld",
	"Kindergeld",
	"Elterngeld",
	"Wohngeld",
	"BAföG",
	"Stipendium",
	"Weihnachtsgeld",
	"Urlaubsgeld",
	"13. Gehalt",
	"Bonus/Prämie",
	"Zinsen & Dividenden",
	"Mieteinnahmen",
	"Sonstiges",
}

// IsPaletteColor reports whether c is one of UserColors.
func IsPaletteColor(c string) bool {
	for _, p := range UserColors {
		if p == c {
			return true
		}
	}
	return false
}
