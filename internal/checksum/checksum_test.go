package checksum

import (
	"testing"
)

func TestRowHash(t *testing.T) {
	gen := NewGenerator()

	row := []string{"Sunny Garden Studio", "http://sfbay.craigslist.org/sfc/apa/111.html", "$1200", "Noe Valley"}

	hash1 := gen.RowHash(row)
	hash2 := gen.RowHash(row)

	if hash1 != hash2 {
		t.Errorf("Hash not deterministic: %s != %s", hash1, hash2)
	}

	if len(hash1) != 64 {
		t.Errorf("Hash wrong length: %d, expected 64", len(hash1))
	}

	changed := []string{"Sunny Garden Studio", "http://sfbay.craigslist.org/sfc/apa/111.html", "$1300", "Noe Valley"}
	if hash1 == gen.RowHash(changed) {
		t.Errorf("Hash should change when price changes")
	}

	// empty input is still SHA256("")
	if got := gen.RowHash(nil); got != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Errorf("RowHash(nil) = %s", got)
	}
}
