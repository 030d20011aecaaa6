package security

import "testing"

// サニタイズがHTMLタグを全て除去することを検証
func TestContentSanitizer_Sanitize(t *testing.T) {
	s := NewContentSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain text passes through",
			input: "How do I prepare for a system design interview?",
			want:  "How do I prepare for a system design interview?",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "script tag removed",
			input: `hello <script>alert("xss")</script> world`,
			want:  "hello  world",
		},
		{
			name:  "formatting tags stripped but text kept",
			input: "<strong>important</strong> advice",
			want:  "important advice",
		},
		{
			name:  "event handler attributes removed",
			input: `<img src="x" onerror="alert(1)">resume tips`,
			want:  "resume tips",
		},
		{
			name:  "anchor stripped to text",
			input: `check <a href="javascript:alert(1)">this</a>`,
			want:  "check this",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// 同一入力に対するサニタイズが冪等であることを検証
func TestContentSanitizer_Idempotent(t *testing.T) {
	s := NewContentSanitizer()
	input := `<p>Networking <em>tips</em> for introverts</p>`
	once := s.Sanitize(input)
	twice := s.Sanitize(once)
	if once != twice {
		t.Errorf("sanitize not idempotent: %q != %q", once, twice)
	}
}

// contentSanitizerはContentSanitizerServiceインターフェースを満たすことを検証
func TestContentSanitizer_ImplementsInterface(t *testing.T) {
	var _ ContentSanitizerService = NewContentSanitizer()
}
