package catalog

import "strings"

const DefaultCategory = "Other"

// categoryKeywords lists, per category, the words and phrases that identify
// it. Phrases are matched before single words so "ice cream" wins over
// "cream".
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"Frozen", []string{"ice cream", "frozen", "popsicle", "waffles", "tater tots", "fish sticks"}},
	{"Meat & Seafood", []string{
		"ground beef", "ground turkey", "chicken", "beef", "pork", "turkey", "bacon", "sausage", "ham",
		"steak", "salmon", "tuna", "shrimp", "fish", "lamb", "hot dog",
	}},
	{"Dairy", []string{
		"cream cheese", "sour cream", "heavy cream", "milk", "cheese", "yogurt", "butter", "egg", "cream",
	}},
	{"Bakery", []string{"bread", "bagel", "muffin", "tortilla", "bun", "roll", "croissant", "baguette"}},
	{"Produce", []string{
		"apple", "banana", "orange", "lemon", "lime", "avocado", "tomato", "potato", "onion", "garlic",
		"lettuce", "spinach", "kale", "broccoli", "carrot", "celery", "cucumber", "pepper", "mushroom",
		"corn", "berry", "berries", "grape", "fruit",
	}},
	{"Pantry", []string{
		"peanut butter", "olive oil", "rice", "pasta", "flour", "sugar", "salt", "oil", "cereal", "oat",
		"bean", "soup", "sauce", "spice", "honey", "vinegar", "noodle", "canned",
	}},
	{"Beverages", []string{"sparkling water", "water", "juice", "soda", "coffee", "tea", "beer", "wine"}},
	{"Snacks", []string{"potato chips", "tortilla chips", "chips", "cracker", "cookie", "pretzel", "popcorn", "granola bar", "nuts", "candy"}},
	{"Household", []string{"paper towel", "toilet paper", "detergent", "dish soap", "trash bag", "sponge", "foil"}},
	{"Personal Care", []string{"shampoo", "conditioner", "toothpaste", "deodorant", "soap", "lotion", "razor"}},
}

// Categorize guesses a category from an item name: multi-word phrases first,
// then single words (ignoring a plural "s"/"es"), falling back to Other.
func Categorize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return DefaultCategory
	}

	for _, entry := range categoryKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(kw, " ") && strings.Contains(name, kw) {
				return entry.category
			}
		}
	}

	words := strings.FieldsFunc(name, func(r rune) bool {
		return !(r >= 'a' && r <= 'z')
	})
	for _, entry := range categoryKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(kw, " ") {
				continue
			}
			for _, w := range words {
				if w == kw || singular(w) == kw {
					return entry.category
				}
			}
		}
	}
	return DefaultCategory
}

func singular(w string) string {
	switch {
	case strings.HasSuffix(w, "ies") && len(w) > 4:
		return w[:len(w)-3] + "y"
	case strings.HasSuffix(w, "oes"):
		return w[:len(w)-2]
	case strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss"):
		return w[:len(w)-1]
	}
	return w
}
