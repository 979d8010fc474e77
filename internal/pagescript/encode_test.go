package pagescript

import "testing"

func TestEncodedVariants_ContainsRawSingleDoubleAndJSONForms(t *testing.T) {
	variants := EncodedVariants("The--P@s5w0rd")

	if len(variants) != 4 {
		t.Fatalf("EncodedVariants: got %d variants, want 4", len(variants))
	}
	if variants[0] != "The--P@s5w0rd" {
		t.Errorf("variants[0] (raw): got %q, want unchanged password", variants[0])
	}
	if variants[1] != urlQueryEscape("The--P@s5w0rd") {
		t.Errorf("variants[1] (single-encoded): got %q, want %q", variants[1], urlQueryEscape("The--P@s5w0rd"))
	}
	if variants[2] != urlQueryEscape(urlQueryEscape("The--P@s5w0rd")) {
		t.Errorf("variants[2] (double-encoded): got %q, want the single form re-encoded", variants[2])
	}
	if variants[3] != `"The--P@s5w0rd"` {
		t.Errorf("variants[3] (JSON-quoted): got %q, want %q", variants[3], `"The--P@s5w0rd"`)
	}
}

func TestEncodedVariants_DistinctPasswordsDoNotCollide(t *testing.T) {
	a := EncodedVariants("password-one")
	b := EncodedVariants("password-two")
	for i := range a {
		if a[i] == b[i] {
			t.Errorf("variant[%d]: distinct passwords produced the same encoding %q", i, a[i])
		}
	}
}
