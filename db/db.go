package db

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var db *gorm.DB

func ConnectDB() {
	// Load environment variables
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, using process environment")
	}
	dbHost := os.Getenv("DB_HOST")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbPort := os.Getenv("DB_PORT")

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		dbHost, dbUser, dbPassword, dbName, dbPort)
	db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Migrate the schema
	if err := db.AutoMigrate(&User{}, &Category{}, &HabitTemplate{}, &UserHabit{}, &HabitLog{}, &RefreshToken{}); err != nil {
		log.Fatal("Failed to migrate schema:", err)
	}
	seedGlobalCategories(db)

	log.Println("Connected to database")
}

func GetDB() *gorm.DB {
	return db
}

// seedGlobalCategories inserts the shared categories every user sees. Rows
// are matched by name so repeated startups do not duplicate them.
func seedGlobalCategories(db *gorm.DB) {
	for _, name := range []string{"Health", "Fitness", "Productivity", "Mindfulness", "Learning"} {
		var count int64
		db.Model(&Category{}).Where("name = ? AND user_id IS NULL", name).Count(&count)
		if count == 0 {
			db.Create(&Category{Name: name})
		}
	}
}
