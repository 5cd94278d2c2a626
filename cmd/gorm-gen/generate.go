// Generate typed query code for all tables in the connected database.
package main

import (
	"fmt"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gen"
	"gorm.io/gorm"
)

func main() {
	g := gen.NewGenerator(gen.Config{
		OutPath: "../../dao/query",
		Mode:    gen.WithDefaultQuery | gen.WithQueryInterface,
	})

	// Connect to the database
	password := os.Getenv("PGPASSWORD")
	port := os.Getenv("PGPORT")
	if password == "" || port == "" {
		panic("PGPASSWORD and PGPORT must be set to run the generator.")
	}
	dsnPattern := "host=localhost user=postgres password=%s dbname=warden port=%s sslmode=disable TimeZone=UTC"
	dsn := fmt.Sprintf(dsnPattern, password, port)
	db, err := gorm.Open(postgres.Open(dsn))
	if err != nil {
		panic(fmt.Errorf("connect to postgres: %w", err))
	}
	g.UseDB(db)

	g.ApplyBasic(g.GenerateAllTable()...)

	g.Execute()
}
