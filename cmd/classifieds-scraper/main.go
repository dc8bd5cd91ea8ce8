package main

import (
	"context"

	"classifieds-scraper/cmd/classifieds-scraper/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
