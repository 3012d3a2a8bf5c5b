package datatables

import (
	"strconv"
	"strings"
)

// Translations holds the texts rendered by a table.
//
// ShowedItemsText may contain the placeholders {from}, {to} and {total}.
type Translations struct {
	ActionTitle          string `mapstructure:"action_title" json:"actionTitle"`
	ShowedItemsText      string `mapstructure:"showed_items_text" json:"showedItemsText"`
	SearchToolTip        string `mapstructure:"search_tool_tip" json:"searchToolTip"`
	ClearSearchToolTip   string `mapstructure:"clear_search_tool_tip" json:"clearSearchToolTip"`
	ItemsPerPageDropdown string `mapstructure:"items_per_page_dropdown" json:"itemsPerPageDropdown"`
	NoEntries            string `mapstructure:"no_entries" json:"noEntries"`
	InvalidInput         string `mapstructure:"invalid_input" json:"invalidInput"`
}

// DefaultTranslations returns the default, German, texts. Every call
// returns a new value.
func DefaultTranslations() Translations {
	return Translations{
		ActionTitle:          "Aktionen",
		ShowedItemsText:      "Zeige {from} bis {to} von insgesamt {total} Resultaten",
		SearchToolTip:        "Suchen",
		ClearSearchToolTip:   "Suche zurücksetzen",
		ItemsPerPageDropdown: "Anzahl pro Seite",
		NoEntries:            "Keine Einträge vorhanden",
		InvalidInput:         "Ungültige Eingabe",
	}
}

// withDefaults fills every empty text from DefaultTranslations.
func (t Translations) withDefaults() Translations {
	d := DefaultTranslations()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&t.ActionTitle, d.ActionTitle)
	fill(&t.ShowedItemsText, d.ShowedItemsText)
	fill(&t.SearchToolTip, d.SearchToolTip)
	fill(&t.ClearSearchToolTip, d.ClearSearchToolTip)
	fill(&t.ItemsPerPageDropdown, d.ItemsPerPageDropdown)
	fill(&t.NoEntries, d.NoEntries)
	fill(&t.InvalidInput, d.InvalidInput)
	return t
}

// ShowedItems renders ShowedItemsText for the given 1-based row range.
func (t Translations) ShowedItems(from, to, total int) string {
	return strings.NewReplacer(
		"{from}", strconv.Itoa(from),
		"{to}", strconv.Itoa(to),
		"{total}", strconv.Itoa(total),
	).Replace(t.ShowedItemsText)
}
