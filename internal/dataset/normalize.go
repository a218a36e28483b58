package dataset

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Accent folding: decompose, drop combining marks, recompose.
var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func stripAccents(s string) string {
	out, _, err := transform.String(accentStripper, s)
	if err != nil {
		return s
	}
	return out
}

// provinceAliases maps folded dataset spellings to canonical province ids.
var provinceAliases = map[string]string{
	"azuay":                          "azuay",
	"bolivar":                        "bolivar",
	"canar":                          "canar",
	"carchi":                         "carchi",
	"chimborazo":                     "chimborazo",
	"cotopaxi":                       "cotopaxi",
	"el oro":                         "el_oro",
	"esmeraldas":                     "esmeraldas",
	"galapagos":                      "galapagos",
	"guayas":                         "guayas",
	"imbabura":                       "imbabura",
	"loja":                           "loja",
	"los rios":                       "los_rios",
	"manabi":                         "manabi",
	"morona santiago":                "morona_santiago",
	"napo":                           "napo",
	"orellana":                       "orellana",
	"pastaza":                        "pastaza",
	"pichincha":                      "pichincha",
	"santa elena":                    "santa_elena",
	"santo domingo":                  "santo_domingo",
	"santo domingo de los tsachilas": "santo_domingo",
	"sucumbios":                      "sucumbios",
	"tungurahua":                     "tungurahua",
	"zamora chinchipe":               "zamora_chinchipe",
}

// NormalizeProvince folds a free-text province name (case, accents,
// underscore/space variants) to its canonical id. Names outside the alias
// table become a best-effort slug so callers always get a usable key.
func NormalizeProvince(name string) string {
	n := strings.ToLower(strings.TrimSpace(stripAccents(name)))
	n = strings.ReplaceAll(n, "_", " ")
	n = strings.Join(strings.Fields(n), " ")
	if id, ok := provinceAliases[n]; ok {
		return id
	}
	return strings.ReplaceAll(n, " ", "_")
}
