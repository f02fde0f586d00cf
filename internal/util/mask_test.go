package util

import "testing"

func TestMaskEmail(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"ana@example.com":  "a…@e….com",
		"Ana@Example.COM":  "a…@e….com",
		"a@b.io":           "a@b.io",
		"user04@e2e.local": "u…@e….local",
		"con.puntos@x.y.z": "c…@x.y.z",
		"":                 "",
		"ab":               "***",
		"sin-arroba-largo": "s…o",
		"@dominio.com":     "@…m", // '@' en posición 0 cae en la rama sin usuario
	}
	for in, want := range cases {
		if got := MaskEmail(in); got != want {
			t.Fatalf("MaskEmail(%q) = %q, want %q", in, got, want)
		}
	}
}
