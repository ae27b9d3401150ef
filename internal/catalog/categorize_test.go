package catalog

import "testing"

func TestCategorize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"milk", "Dairy"},
		{"Eggs", "Dairy"},
		{"ice cream", "Frozen"},
		{"vanilla ice cream", "Frozen"},
		{"sour cream", "Dairy"},
		{"chicken breast", "Meat & Seafood"},
		{"whole wheat bread", "Bakery"},
		{"organic baby spinach", "Produce"},
		{"mixed berries", "Produce"},
		{"tomatoes", "Produce"},
		{"peanut butter", "Pantry"},
		{"butter", "Dairy"},
		{"canned black beans", "Pantry"},
		{"sparkling water bottles", "Beverages"},
		{"paper towels", "Household"},
		{"shampoo", "Personal Care"},
		{"potato chips", "Snacks"},
		{"  ", "Other"},
		{"widget", "Other"},
	}
	for _, tt := range tests {
		if got := Categorize(tt.input); got != tt.want {
			t.Errorf("Categorize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSingular(t *testing.T) {
	tests := map[string]string{
		"berries":  "berry",
		"potatoes": "potato",
		"apples":   "apple",
		"glass":    "glass",
		"rice":     "rice",
	}
	for in, want := range tests {
		if got := singular(in); got != want {
			t.Errorf("singular(%q) = %q, want %q", in, got, want)
		}
	}
}
