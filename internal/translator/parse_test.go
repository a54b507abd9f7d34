package translator

import (
	"reflect"
	"testing"
)

func TestExtractPayload(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "clean object",
			input: `{"translations": []}`,
			want:  `{"translations": []}`,
		},
		{
			name:  "payload inside prose",
			input: "Sure, here you go: {\"a\": 1} hope that helps",
			want:  `{"a": 1}`,
		},
		{
			name:  "trailing comma repaired",
			input: `{"refined": ["a", "b",], }`,
			want:  `{"refined": ["a", "b"]}`,
		},
		{
			name:  "array payload",
			input: `[{"source": "x", "target": "y"}]`,
			want:  `[{"source": "x", "target": "y"}]`,
		},
		{
			name:  "control characters stripped",
			input: "{\"a\": \x021}",
			want:  `{"a": 1}`,
		},
		{
			name:  "no payload",
			input: "I could not translate that.",
			want:  "",
		},
		{
			name:  "irreparable json",
			input: `{"a": unquoted}`,
			want:  "",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(extractPayload(tt.input))
			if got != tt.want {
				t.Errorf("extractPayload(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDecodeTranslations(t *testing.T) {
	payload := []byte(`{"translations": [
		{"source": "Hello.", "target": "Сайн уу."},
		{"source": "", "target": "dropped"},
		{"source": "No target yet."}
	]}`)

	got := decodeTranslations(payload)
	if len(got) != 2 {
		t.Fatalf("expected 2 translations, got %d: %v", len(got), got)
	}
	if got[0].Source != "Hello." || got[0].Target != "Сайн уу." {
		t.Errorf("unexpected first translation: %+v", got[0])
	}
	if got[1].Source != "No target yet." || got[1].Target != "" {
		t.Errorf("unexpected second translation: %+v", got[1])
	}
}

func TestDecodeTranslations_MissingKey(t *testing.T) {
	if got := decodeTranslations([]byte(`{"something_else": 1}`)); len(got) != 0 {
		t.Errorf("expected no translations, got %v", got)
	}
	if got := decodeTranslations(nil); got != nil {
		t.Errorf("expected nil for nil payload, got %v", got)
	}
}

func TestDecodeRefined(t *testing.T) {
	got := decodeRefined([]byte(`{"refined": ["one", "two"]}`))
	want := []string{"one", "two"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("decodeRefined() = %v, want %v", got, want)
	}

	if got := decodeRefined([]byte(`{"refined": "not a list"}`)); got != nil {
		t.Errorf("expected nil for wrong shape, got %v", got)
	}
}
