package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Checks a master output file: the first column must be Source_File and
// filled on every row. Prints the row count per source file.
func main() {
	filename := "Master_ERP_Output.xlsx"
	if len(os.Args) > 1 {
		filename = os.Args[1]
	}

	f, err := excelize.OpenFile(filename)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	rows, err := f.GetRows(sheetName)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("=== MASTER CHECK: %s ===\n", filename)
	fmt.Printf("Checking sheet: %s\n", sheetName)
	fmt.Printf("Total rows: %d\n\n", len(rows))

	if len(rows) == 0 || len(rows[0]) == 0 || rows[0][0] != "Source_File" {
		fmt.Println("❌ First column is not Source_File")
		os.Exit(1)
	}

	counts := map[string]int{}
	var order []string
	bad := 0
	for i, row := range rows[1:] {
		name := ""
		if len(row) > 0 {
			name = strings.TrimSpace(row[0])
		}
		if name == "" {
			fmt.Printf("❌ EMPTY Source_File at row %d\n", i+2)
			bad++
			continue
		}
		if counts[name] == 0 {
			order = append(order, name)
		}
		counts[name]++
	}

	for _, name := range order {
		fmt.Printf("  %-40s %6d\n", name, counts[name])
	}

	fmt.Println()
	if bad > 0 {
		fmt.Printf("❌ %d row(s) without Source_File\n", bad)
		os.Exit(1)
	}
	fmt.Printf("✅ %d row(s) from %d file(s)\n", len(rows)-1, len(order))
}
