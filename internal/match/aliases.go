package match

// DefaultAliases is the built-in alias table for names the normalizer
// cannot reconcile on its own: abbreviations, mascot names and market
// shorthand that differ across feeds. Keys and values are normalized at
// construction, so any casing or punctuation works here.
//
// The table is closed transitively when loaded; listing one direction is
// enough.
var DefaultAliases = map[string][]string{
	// Soccer shorthand
	"wolves":         {"wolverhampton", "wolverhamptonwanderers"},
	"spurs":          {"tottenham", "tottenhamhotspur"},
	"manutd":         {"manchesterunited", "manunited"},
	"mancity":        {"manchestercity"},
	"newcastle":      {"newcastleunited"},
	"nottmforest":    {"nottinghamforest", "nottforest"},
	"sheffieldutd":   {"sheffieldunited"},
	"westbrom":       {"westbromwich", "westbromwichalbion"},
	"westham":        {"westhamunited"},
	"intermilan":     {"inter", "internazionale"},
	"psg":            {"parissaintgermain", "parissg"},
	"atleticomadrid": {"atletico", "atlmadrid"},

	// US team-city shorthand
	"washington":   {"washingtoncommanders", "commanders"},
	"detroit":      {"detroitlions"},
	"dallas":       {"dallascowboys"},
	"baltimore":    {"baltimoreravens"},
	"greenbay":     {"greenbaypackers"},
	"cincinnati":   {"cincinnatibengals"},
	"arizona":      {"arizonacardinals"},
	"indianapolis": {"indianapoliscolts"},
	"jacksonville": {"jacksonvillejaguars"},
	"nygiants":     {"newyorkgiants"},
	"nyjets":       {"newyorkjets"},

	// College names vs mascots
	"usc":         {"southerncalifornia", "usctrojans"},
	"byu":         {"brighamyoung", "byucougars"},
	"uconn":       {"connecticut", "uconnhuskies"},
	"olemiss":     {"mississippi", "olemissrebels"},
	"ncstate":     {"northcarolinastate"},
	"unlv":        {"nevadalasvegas", "unlvrunninrebels"},
	"fresnostate": {"calstfresno", "fresnostatebulldogs"},
	"georgiatech": {"georgiatechyellowjackets"},
	"army":        {"armywestpoint", "armyblackknights"},
}
