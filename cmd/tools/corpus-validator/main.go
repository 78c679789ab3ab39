// cmd/tools/corpus-validator checks a bulk corpus file against the corpus
// schema before it is handed to the audit runners.
package main

import (
	"fmt"
	"os"

	"search-audit/internal/audit/corpus"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: corpus-validator <corpus-file.json>")
		os.Exit(2)
	}

	specs, err := corpus.LoadFile(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid corpus: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("corpus OK: %d queries\n", len(specs))
	for _, category := range corpus.Categories(specs) {
		fmt.Printf("  %-15s %d\n", category, corpus.CountByCategory(specs)[category])
	}
}
