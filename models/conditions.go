package models

import "strings"

// Canonical item conditions. Queries and extracted offers arrive in whatever
// language the source page used, so matching goes through a synonym table.
const (
	ConditionNew         = "new"
	ConditionUsed        = "used"
	ConditionRefurbished = "refurbished"
)

var conditionSynonyms = map[string]string{
	"new":             ConditionNew,
	"nuovo":           ConditionNew,
	"nuova":           ConditionNew,
	"nueva":           ConditionNew,
	"nuevo":           ConditionNew,
	"neuf":            ConditionNew,
	"neu":             ConditionNew,
	"brand new":       ConditionNew,
	"used":            ConditionUsed,
	"usato":           ConditionUsed,
	"usata":           ConditionUsed,
	"usado":           ConditionUsed,
	"usada":           ConditionUsed,
	"occasion":        ConditionUsed,
	"second hand":     ConditionUsed,
	"gebraucht":       ConditionUsed,
	"refurbished":     ConditionRefurbished,
	"ricondizionato":  ConditionRefurbished,
	"ricondizionata":  ConditionRefurbished,
	"recondicionado":  ConditionRefurbished,
	"reconditionne":   ConditionRefurbished,
	"reconditionné":   ConditionRefurbished,
	"generalüberholt": ConditionRefurbished,
}

// NormalizeCondition maps a free-form condition string to one of the canonical
// constants. Unknown values return "" so callers can tell "no signal" apart
// from a real mismatch.
func NormalizeCondition(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return ""
	}
	if canonical, ok := conditionSynonyms[key]; ok {
		return canonical
	}
	return ""
}
