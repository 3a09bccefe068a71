package model

// Categories is the fixed, closed category vocabulary shared by the
// categorizer, summarizer, web view builder, and replicator. The upstream
// system embedded copies of this list in several places, which allowed
// drift; here it has a single definition.
var Categories = []string{
	"Politics",
	"Business",
	"Economy",
	"Finance",
	"Markets",
	"Trade",
	"Health",
	"Science",
	"Technology",
	"Artificial Intelligence",
	"Cybersecurity",
	"Space",
	"Environment",
	"Climate",
	"Energy",
	"Weather",
	"World",
	"Diplomacy",
	"Military",
	"Immigration",
	"Elections",
	"Law",
	"Crime",
	"Education",
	"Labor",
	"Agriculture",
	"Transportation",
	"Automotive",
	"Aviation",
	"Real Estate",
	"Retail",
	"Telecom",
	"Pharmaceuticals",
	"Biotechnology",
	"Startups",
	"Sports",
	"Entertainment",
	"Culture",
	"Art",
	"Music",
	"Film",
	"Television",
	"Gaming",
	"Social Media",
	"Travel",
	"Food",
	"Fashion",
	"Religion",
	"Royalty",
	"Obituaries",
}

var categorySet = func() map[string]bool {
	s := make(map[string]bool, len(Categories))
	for _, c := range Categories {
		s[c] = true
	}
	return s
}()

// IsCategory reports whether name belongs to the fixed vocabulary.
func IsCategory(name string) bool {
	return categorySet[name]
}
