package token

import "testing"

func TestKeywordsPerLanguage(t *testing.T) {
	tests := []struct {
		text string
		cxx  bool
		want Kind
		ok   bool
	}{
		{"int", false, KwInt, true},
		{"class", false, Ident, false},
		{"class", true, KwClass, true},
		{"restrict", false, KwRestrict, true},
		{"restrict", true, Ident, false},
		{"_Bool", false, KwCBool, true},
		{"template", true, KwTemplate, true},
		{"foo", true, Ident, false},
	}
	for _, tt := range tests {
		got, ok := LookupKeyword(tt.text, tt.cxx)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Fatalf("LookupKeyword(%q, %v) = %v,%v; want %v,%v", tt.text, tt.cxx, got, ok, tt.want, tt.ok)
		}
	}
}

func TestKindString(t *testing.T) {
	if KwTemplate.String() != "template" {
		t.Fatalf("keyword spelling: %q", KwTemplate.String())
	}
	if ArrowStar.String() != "->*" {
		t.Fatalf("punct spelling: %q", ArrowStar.String())
	}
	if !KwUnsigned.IsBuiltinType() || KwIf.IsDeclSpecifier() {
		t.Fatalf("classification mismatch")
	}
}
