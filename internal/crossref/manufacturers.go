package crossref

import (
	"strings"
	"unicode"
)

// manufacturerGroups lists known competitor manufacturers. The first entry of
// each group is the canonical name; the rest are aliases users type.
var manufacturerGroups = [][]string{
	{"hikvision", "hik", "hik vision", "hikvision digital"},
	{"dahua", "dahua technology"},
	{"hanwha", "hanwha vision", "hanwha techwin", "wisenet", "samsung", "samsung techwin"},
	{"uniview", "unv"},
	{"bosch", "bosch security"},
	{"pelco"},
	{"avigilon", "motorola avigilon"},
	{"vivotek"},
	{"sony"},
	{"panasonic"},
	{"i-pro", "ipro", "panasonic i-pro"},
	{"honeywell"},
	{"verkada"},
	{"mobotix"},
	{"arecont vision", "arecont"},
	{"flir", "teledyne flir"},
	{"illustra"},
	{"lorex"},
	{"ezviz"},
	{"reolink"},
	{"amcrest"},
	{"acti"},
	{"idis"},
	{"rhombus"},
	{"meraki", "cisco meraki"},
	{"ubiquiti", "unifi"},
	{"milesight"},
	{"geovision"},
	{"march networks"},
}

// capitalizationExceptions covers names that generic title case gets wrong.
var capitalizationExceptions = map[string]string{
	"flir":      "FLIR",
	"acti":      "ACTi",
	"idis":      "IDIS",
	"unv":       "UNV",
	"i-pro":     "i-PRO",
	"geovision": "GeoVision",
	"ezviz":     "EZVIZ",
}

// CanonicalManufacturer returns the display spelling of a manufacturer name.
func CanonicalManufacturer(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return ""
	}
	if fixed, ok := capitalizationExceptions[key]; ok {
		return fixed
	}
	return titleCase(key)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		for j := 1; j < len(r); j++ {
			r[j] = unicode.ToLower(r[j])
		}
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
