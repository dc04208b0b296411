package seeders

import (
	"log"

	"github.com/zevi-app/zevi_api/model"
	"gorm.io/gorm"
)

// MainSeeder coordinates all database seeding operations
type MainSeeder struct {
	db             *gorm.DB
	questionSeeder *QuestionSeeder
}

// NewMainSeeder creates a new main seeder with all sub-seeders
func NewMainSeeder(db *gorm.DB) *MainSeeder {
	return &MainSeeder{
		db:             db,
		questionSeeder: NewQuestionSeeder(db),
	}
}

// SeedAll migrates the schema and runs every seeder
func (s *MainSeeder) SeedAll() error {
	log.Println("Migrating schema...")
	if err := s.db.AutoMigrate(
		&model.User{},
		&model.Question{},
		&model.PracticeSession{},
		&model.Draft{},
	); err != nil {
		return err
	}

	return s.questionSeeder.SeedQuestions()
}

// SeedQuestionsOnly runs just the question catalog seeder
func (s *MainSeeder) SeedQuestionsOnly() error {
	return s.questionSeeder.SeedQuestions()
}
