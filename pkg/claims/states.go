package claims

import "strings"

// State is one FRA-implementing state tracked by the atlas.
type State struct {
	Code            string `json:"code"`
	Name            string `json:"name"`
	PrimaryLanguage string `json:"primaryLanguage"`
}

// States is the registry of covered states. Claim identifiers embed
// the state code, so the set is part of the identifier contract.
var States = []State{
	{Code: "MP", Name: "Madhya Pradesh", PrimaryLanguage: "Hindi"},
	{Code: "OR", Name: "Odisha", PrimaryLanguage: "Odia"},
	{Code: "TG", Name: "Telangana", PrimaryLanguage: "Telugu"},
	{Code: "TR", Name: "Tripura", PrimaryLanguage: "Bengali"},
	{Code: "MH", Name: "Maharashtra", PrimaryLanguage: "Marathi"},
	{Code: "GJ", Name: "Gujarat", PrimaryLanguage: "Gujarati"},
}

// CodeForState resolves a state name, as extracted from a document, to
// its registry code. Unrecognized states get the "XX" placeholder so
// materialization never blocks on a misread state line.
func CodeForState(name string) string {
	needle := strings.ToLower(strings.TrimSpace(name))
	for _, s := range States {
		if strings.ToLower(s.Name) == needle || strings.ToLower(s.Code) == needle {
			return s.Code
		}
	}
	return "XX"
}
