package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/tablemenu/menu-backend/config"
	"github.com/tablemenu/menu-backend/internal/app/repository"
	"github.com/tablemenu/menu-backend/internal/app/service"
	"github.com/tablemenu/menu-backend/internal/db"
	"github.com/tablemenu/menu-backend/pkg/logger"
	"github.com/xuri/excelize/v2"
)

func main() {
	yes := flag.Bool("y", false, "import without asking for confirmation")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: menu-import [-y] <restaurant_slug> <xlsx_file_path>")
	}
	flag.Parse()
	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}
	slug, filePath := flag.Arg(0), flag.Arg(1)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.Initialize(logger.Config{Level: cfg.Log.Level, Format: "console", EnableColor: true})

	rows, err := countRows(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}
	fmt.Printf("Reading XLSX file: %s\n", filePath)
	fmt.Printf("Rows to import into %q: %d\n", slug, rows)

	if !*yes {
		fmt.Print("Do you want to proceed with the import? (yes/no): ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" && confirm != "y" {
			fmt.Println("Import cancelled.")
			return
		}
	}

	conn, err := db.Initialize(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close(conn)

	// ImportBySlug needs neither the ownership check nor live notifications
	sheets := service.NewMenuSheetService(
		repository.NewRestaurantRepository(conn),
		repository.NewCategoryRepository(conn),
		repository.NewMenuItemRepository(conn),
		repository.NewActivityRepository(conn),
		nil,
		nil,
	)

	file, err := os.Open(filePath)
	if err != nil {
		log.Fatal("Failed to open XLSX:", err)
	}
	defer file.Close()

	report, err := sheets.ImportBySlug(slug, file)
	if err != nil {
		log.Fatal("Import failed:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Items created: %d\n", report.ItemsCreated)
	fmt.Printf("Categories created: %d\n", report.CategoriesCreated)
	for _, skipped := range report.Skipped {
		fmt.Printf("  skipped row %d: %s\n", skipped.Row, skipped.Reason)
	}
}

// countRows returns the data rows of the first sheet, header excluded.
func countRows(filePath string) (int, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return 0, fmt.Errorf("no sheets found in XLSX file")
	}
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return 0, fmt.Errorf("failed to get rows: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return len(rows) - 1, nil
}
