package llm

import (
	"encoding/json"
	"testing"
)

func TestSalvageJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{
			name: "clean json passes through",
			in:   `{"atributos":{}}`,
			want: `{"atributos":{}}`,
			ok:   true,
		},
		{
			name: "markdown fences stripped",
			in:   "```json\n{\"atributos\":{}}\n```",
			want: `{"atributos":{}}`,
			ok:   true,
		},
		{
			name: "chatter around object",
			in:   `Claro! Aqui esta o JSON pedido: {"requisitos":{"tensao_v":{"valor_min":12}}} Espero ter ajudado.`,
			want: `{"requisitos":{"tensao_v":{"valor_min":12}}}`,
			ok:   true,
		},
		{
			name: "array payload",
			in:   `resultado: [1, 2, 3]`,
			want: `[1, 2, 3]`,
			ok:   true,
		},
		{
			name: "no json at all",
			in:   `Nao consegui processar o documento.`,
			ok:   false,
		},
		{
			name: "broken json rejected",
			in:   `{"atributos": {`,
			ok:   false,
		},
		{
			name: "empty input",
			in:   "",
			ok:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SalvageJSON(tt.in)
			if ok != tt.ok {
				t.Fatalf("SalvageJSON(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if !ok {
				return
			}
			if got != tt.want {
				t.Errorf("SalvageJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if !json.Valid([]byte(got)) {
				t.Errorf("salvaged payload is not valid JSON: %q", got)
			}
		})
	}
}

func TestClipText(t *testing.T) {
	if got := clipText("abcdef", 4); got != "abcd" {
		t.Errorf("clipText = %q, want abcd", got)
	}
	if got := clipText("abc", 4); got != "abc" {
		t.Errorf("clipText = %q, want abc", got)
	}
}
