package checksum

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// RowHash returns the hex SHA256 of the row's cells joined with "|".
// Formula: SHA256(name|url|price|location)
func (g *Generator) RowHash(row []string) string {
	hash := sha256.Sum256([]byte(strings.Join(row, "|")))
	return fmt.Sprintf("%x", hash)
}
