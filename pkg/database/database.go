package database

import (
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lucasnhandang/TheMillionaireGame/internal/config"
	"github.com/lucasnhandang/TheMillionaireGame/internal/model"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	err = db.AutoMigrate(
		&model.User{},
		&model.Question{},
		&model.Game{},
		&model.GameQuestion{},
		&model.GameAnswer{},
		&model.LeaderboardEntry{},
		&model.Friendship{},
		&model.FriendRequest{},
		&model.ChatMessage{},
	)
	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	seedAdmin(db)
	seedQuestions(db)

	return db, nil
}

// seedAdmin creates the default admin account on an empty users table.
// The password must be changed on first login.
func seedAdmin(db *gorm.DB) {
	var count int64
	db.Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&count)
	if count > 0 {
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("Admin123!"), bcrypt.DefaultCost)
	if err != nil {
		return
	}
	db.Create(&model.User{
		Username: "admin",
		Password: string(hashed),
		Role:     model.RoleAdmin,
	})
	log.Println("Default admin account seeded")
}

// seedQuestions fills an empty question bank with a small starter set,
// a few per difficulty level, so a fresh install is playable.
func seedQuestions(db *gorm.DB) {
	var count int64
	db.Model(&model.Question{}).Count(&count)
	if count > 0 {
		return
	}

	starter := []model.Question{
		{Text: "Which planet is known as the Red Planet?",
			OptionA: "Venus", OptionB: "Mars", OptionC: "Jupiter", OptionD: "Saturn",
			CorrectAnswer: 1, Level: 0, Active: true},
		{Text: "How many continents are there on Earth?",
			OptionA: "5", OptionB: "6", OptionC: "7", OptionD: "8",
			CorrectAnswer: 2, Level: 0, Active: true},
		{Text: "What is the capital of Australia?",
			OptionA: "Sydney", OptionB: "Melbourne", OptionC: "Canberra", OptionD: "Perth",
			CorrectAnswer: 2, Level: 0, Active: true},
		{Text: "Which element has the chemical symbol Au?",
			OptionA: "Silver", OptionB: "Gold", OptionC: "Aluminium", OptionD: "Argon",
			CorrectAnswer: 1, Level: 1, Active: true},
		{Text: "In which year did the Berlin Wall fall?",
			OptionA: "1987", OptionB: "1989", OptionC: "1991", OptionD: "1993",
			CorrectAnswer: 1, Level: 1, Active: true},
		{Text: "Who composed the opera The Magic Flute?",
			OptionA: "Beethoven", OptionB: "Bach", OptionC: "Mozart", OptionD: "Haydn",
			CorrectAnswer: 2, Level: 1, Active: true},
		{Text: "What is the smallest prime number greater than 100?",
			OptionA: "101", OptionB: "103", OptionC: "107", OptionD: "109",
			CorrectAnswer: 0, Level: 2, Active: true},
		{Text: "Which scientist introduced the uncertainty principle?",
			OptionA: "Bohr", OptionB: "Heisenberg", OptionC: "Schrodinger", OptionD: "Planck",
			CorrectAnswer: 1, Level: 2, Active: true},
		{Text: "The Treaty of Tordesillas divided the New World between which two countries?",
			OptionA: "Spain and Portugal", OptionB: "England and France",
			OptionC: "Spain and England", OptionD: "Portugal and France",
			CorrectAnswer: 0, Level: 2, Active: true},
	}
	for i := range starter {
		db.Create(&starter[i])
	}
	log.Println("Question bank seeded")
}
