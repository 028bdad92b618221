package main

import (
	"fmt"
	"log"

	"gorm.io/datatypes"

	"github.com/armansyah-dev/inventaris/internal/config"
	"github.com/armansyah-dev/inventaris/internal/database"
	"github.com/armansyah-dev/inventaris/internal/models"
	"github.com/armansyah-dev/inventaris/internal/services/inventory"
	"github.com/armansyah-dev/inventaris/internal/utils"
)

func main() {
	fmt.Println("🌱 Inventaris Demo Data Seeder")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	fmt.Println("✅ Connected to database")

	fmt.Println("🔨 Running database migrations...")
	err = db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.SubCategory{},
		&models.Document{},
		&models.Item{},
	)
	if err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	fmt.Println("✅ Migrations complete")

	var userCount int64
	db.Model(&models.User{}).Count(&userCount)
	if userCount > 0 {
		fmt.Printf("⚠️  Database already has %d users. Aborting, nothing modified.\n", userCount)
		return
	}

	password, err := utils.HashPassword("admin12345")
	if err != nil {
		log.Fatalf("❌ Failed to hash password: %v", err)
	}
	admin := models.User{
		Username: "admin",
		Email:    "admin@example.com",
		Name:     "Administrator",
		Role:     "admin",
		Password: password,
		IsActive: true,
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Fatalf("❌ Failed to create admin user: %v", err)
	}
	fmt.Println("👤 Created admin user (admin@example.com / admin12345)")

	ceilingATK := 100000.0
	ceilingElektronik := 15000000.0

	categories := []struct {
		category models.Category
		subs     []models.SubCategory
	}{
		{
			category: models.Category{Code: "ATK", Name: "Alat Tulis Kantor"},
			subs: []models.SubCategory{
				{Name: "Alat Tulis", PriceCeiling: &ceilingATK},
				{Name: "Kertas dan Amplop"},
			},
		},
		{
			category: models.Category{Code: "ELK", Name: "Elektronik"},
			subs: []models.SubCategory{
				{Name: "Komputer dan Laptop", PriceCeiling: &ceilingElektronik},
			},
		},
	}

	var firstSub *models.SubCategory
	var firstCat *models.Category
	for i := range categories {
		c := &categories[i]
		if err := db.Create(&c.category).Error; err != nil {
			log.Fatalf("❌ Failed to create category %s: %v", c.category.Code, err)
		}
		for j := range c.subs {
			c.subs[j].CategoryID = c.category.ID
			if err := db.Create(&c.subs[j]).Error; err != nil {
				log.Fatalf("❌ Failed to create sub-category %s: %v", c.subs[j].Name, err)
			}
			if firstSub == nil {
				firstSub = &c.subs[j]
				firstCat = &c.category
			}
		}
		fmt.Printf("📁 Created category %s with %d sub-categories\n", c.category.Code, len(c.subs))
	}

	lines := []models.LineItem{
		{Name: "Pulpen", UnitPrice: 2500, Quantity: 10, Unit: "pcs"},
		{Name: "Kertas A4", UnitPrice: 50000, Quantity: 4, Unit: "rim"},
	}
	count, total := inventory.ComputeTotals(lines)
	item := models.Item{
		UserID:         admin.ID,
		CategoryID:     firstCat.ID,
		SubCategoryID:  firstSub.ID,
		PriceCeiling:   ceilingATK,
		DocumentNumber: "BA/001/2025",
		Source:         "Pengadaan langsung",
		LineItems:      datatypes.NewJSONSlice(lines),
		TotalItems:     count,
		TotalPrice:     total,
	}
	if err := db.Create(&item).Error; err != nil {
		log.Fatalf("❌ Failed to create sample item: %v", err)
	}
	fmt.Printf("📦 Created sample item %s (%d lines, total %.2f)\n", item.DocumentNumber, count, total)

	fmt.Println("✅ Seeding complete")
}
