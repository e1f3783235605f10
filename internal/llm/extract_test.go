package llm

import "testing"

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"fenced object", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"prose around object", "Here is the outline:\n{\"sections\": []}\nHope that helps!", `{"sections": []}`},
		{"nested braces", `{"a": {"b": 2}}`, `{"a": {"b": 2}}`},
		{"braces inside strings", `{"a": "closing } inside"}`, `{"a": "closing } inside"}`},
		{"escaped quotes", `{"a": "she said \"hi\""}`, `{"a": "she said \"hi\""}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractJSONObject(tc.input)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("Expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestExtractJSONObjectErrors(t *testing.T) {
	if _, err := ExtractJSONObject("no json here"); err == nil {
		t.Error("Expected error when no object present")
	}
	if _, err := ExtractJSONObject(`{"unterminated": `); err == nil {
		t.Error("Expected error for unbalanced braces")
	}
}

func TestExtractJSONArray(t *testing.T) {
	got, err := ExtractJSONArray("Scores:\n```json\n[{\"title\": \"x\", \"score\": 80}]\n```")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != `[{"title": "x", "score": 80}]` {
		t.Errorf("Unexpected extraction %q", got)
	}

	if _, err := ExtractJSONArray("nothing"); err == nil {
		t.Error("Expected error when no array present")
	}
}
