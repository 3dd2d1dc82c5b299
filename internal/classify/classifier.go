// Package classify maps freeform room labels from listing pages onto the
// closed set of canonical room categories used by the property model.
package classify

import (
	"regexp"
	"strings"
)

// Category is one canonical room category.
type Category string

const (
	CategoryKitchen         Category = "cuisine"
	CategoryBedroom         Category = "chambre"
	CategoryBathroomWithWC  Category = "salle de bain avec wc"
	CategoryBathroom        Category = "salle de bain sans wc"
	CategoryToilet          Category = "wc separe"
	CategoryLivingRoom      Category = "salon"
	CategoryDiningRoom      Category = "salle a manger"
	CategoryEntry           Category = "entree / couloir / escalier"
	CategoryLaundry         Category = "buanderie"
	CategoryOutdoor         Category = "exterieur"
	CategoryGarage          Category = "garage / parking"
	CategoryOffice          Category = "bureau"
	CategoryUncategorized   Category = "uncategorized"
	uncategorizedFallback            = "Piece sans nom"
)

// Result is the outcome of classifying one raw label. Uncategorized results
// keep the cleaned original label so distinct unknown rooms stay distinct.
type Result struct {
	Category Category
	Label    string
}

// Uncategorized reports whether the label did not match any rule.
func (r Result) Uncategorized() bool {
	return r.Category == CategoryUncategorized
}

// BucketKey is the merge key used by the aggregator: every room of one
// canonical category collapses into one bucket, while each distinct
// uncategorized label keeps its own.
func (r Result) BucketKey() string {
	if r.Uncategorized() {
		return string(CategoryUncategorized) + ":" + r.Label
	}
	return string(r.Category)
}

type rule struct {
	keywords []string
	category Category
}

// Rules are matched in order, first match wins. Specific forms come before
// generic ones: a full bathroom must match before the bare "bain"/"bath"
// family, and a bathroom-with-toilet before a lone toilet.
var rules = []rule{
	{[]string{"salle de bain avec wc", "salle de bain avec toilette", "bathroom with toilet", "full bathroom", "salle d'eau avec wc"}, CategoryBathroomWithWC},
	{[]string{"salle de bain", "salle d'eau", "bathroom", "shower room", "douche", "bain"}, CategoryBathroom},
	{[]string{"wc", "toilette", "toilet", "lavatory"}, CategoryToilet},
	{[]string{"cuisine", "kitchen", "kitchenette", "coin cuisine"}, CategoryKitchen},
	{[]string{"chambre", "bedroom", "suite", "dortoir", "master", "chambre parentale"}, CategoryBedroom},
	{[]string{"salle a manger", "salle à manger", "dining"}, CategoryDiningRoom},
	{[]string{"salon", "living", "sejour", "séjour", "lounge", "piece de vie", "pièce de vie"}, CategoryLivingRoom},
	{[]string{"entree", "entrée", "couloir", "escalier", "hall", "corridor", "entry", "stairs", "palier"}, CategoryEntry},
	{[]string{"buanderie", "laundry", "lingerie", "cellier"}, CategoryLaundry},
	{[]string{"jardin", "terrasse", "balcon", "garden", "terrace", "balcony", "patio", "exterieur", "extérieur", "outdoor", "piscine", "pool", "cour"}, CategoryOutdoor},
	{[]string{"garage", "parking", "carport"}, CategoryGarage},
	{[]string{"bureau", "office", "study"}, CategoryOffice},
}

// Classify maps a freeform room label to its canonical category. Matching is
// case-insensitive and ignores trailing numbering, so "Chambre 2" lands in
// the same bucket as "Chambre". Unmatched labels come back uncategorized,
// keyed by the cleaned label. Pure function, safe for concurrent use.
func Classify(label string) Result {
	cleaned := strings.TrimSpace(label)
	if cleaned == "" {
		return Result{Category: CategoryUncategorized, Label: uncategorizedFallback}
	}

	normalized := strings.ToLower(stripTrailingOrdinal(cleaned))
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(normalized, kw) {
				return Result{Category: r.category, Label: string(r.category)}
			}
		}
	}

	return Result{Category: CategoryUncategorized, Label: cleaned}
}

var trailingOrdinal = regexp.MustCompile(`(?i)\s*(?:n[o°]?\s*)?#?\s*\d+\s*$`)

// stripTrailingOrdinal removes a trailing instance number ("Chambre 2",
// "Bedroom #3", "Suite n°1") so numbered rooms match the un-numbered rule.
func stripTrailingOrdinal(s string) string {
	trimmed := strings.TrimSpace(trailingOrdinal.ReplaceAllString(s, ""))
	if trimmed == "" {
		return s
	}
	return trimmed
}
