package names

import "testing"

func TestRemoveDiacritics(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Honza", "Honza"},
		{"Jiří", "Jiri"},
		{"café", "cafe"},
		{"naïve", "naive"},
		{"Žluťoučký kůň", "Zlutoucky kun"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := RemoveDiacritics(tt.input)
			if result != tt.expected {
				t.Errorf("RemoveDiacritics(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Jan Novák", "jan novak"},
		{"jan-novak", "jan novak"},
		{"JOHN DOE", "john doe"},
		{"Jan_Novák", "jan novak"},
		{"  Alice  ", "alice"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := Normalize(tt.input)
			if result != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestParseLabel(t *testing.T) {
	tests := []struct {
		filename string
		expected string
	}{
		{"Alice_2.jpg", "Alice"},
		{"Alice_10.png", "Alice"},
		{"Jan_Novak_1.jpeg", "Jan_Novak"},
		{"Bob.jpg", "Bob"},
		{"Bob_x.jpg", "Bob_x"},
		{"_1.jpg", "_1"},
		{"photos/Alice_3.jpg", "Alice"},
		{"Eva_.jpg", "Eva_"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			result := ParseLabel(tt.filename)
			if result != tt.expected {
				t.Errorf("ParseLabel(%q) = %q, want %q", tt.filename, result, tt.expected)
			}
		})
	}
}
