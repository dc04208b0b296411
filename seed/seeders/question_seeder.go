package seeders

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/zevi-app/zevi_api/model"
	"gorm.io/gorm"
)

// QuestionSeeder populates the question catalog
type QuestionSeeder struct {
	db *gorm.DB
}

func NewQuestionSeeder(db *gorm.DB) *QuestionSeeder {
	return &QuestionSeeder{db: db}
}

var standardRubric = json.RawMessage(`{
  "structure": {"weight": 0.3, "criteria": ["Clear structure", "Logical flow", "Organized points"]},
  "depth": {"weight": 0.3, "criteria": ["In-depth analysis", "Specific examples", "Data-driven"]},
  "completeness": {"weight": 0.2, "criteria": ["All aspects covered", "Comprehensive", "No gaps"]},
  "clarity": {"weight": 0.2, "criteria": ["Clear communication", "Concise", "Easy to understand"]}
}`)

type seedQuestion struct {
	Text         string
	Category     string
	Difficulty   string
	Company      string
	ExpertAnswer string
	MCQOptions   json.RawMessage
}

var catalog = []seedQuestion{
	{
		Text:         "How would you improve the onboarding experience of a ride-sharing app?",
		Category:     "product_sense",
		Difficulty:   "intermediate",
		Company:      "General",
		ExpertAnswer: "1) Clarify the goal metric (activation rate) 2) Segment new users by intent 3) Identify drop-off points in the current funnel 4) Propose targeted improvements per segment 5) Define success metrics and a rollout plan",
	},
	{
		Text:         "Your CEO asks you to cut 30% of your product roadmap. How do you respond?",
		Category:     "strategy",
		Difficulty:   "advanced",
		Company:      "General",
		ExpertAnswer: "1) Understand the why - financial constraints? strategic shift? 2) Present data on impact of cuts 3) Propose phased approach 4) Identify minimum viable set 5) Plan for recovery",
	},
	{
		Text:         "How do you decide whether to build vs buy vs partner for a capability?",
		Category:     "strategy",
		Difficulty:   "advanced",
		Company:      "General",
		ExpertAnswer: "Build: core differentiator, long-term advantage. Buy: speed to market, non-core. Partner: ecosystem play, mutual benefit. Consider: cost, time, talent, strategic control.",
	},
	{
		Text:         "How do you prioritize across multiple product lines with limited resources?",
		Category:     "execution",
		Difficulty:   "advanced",
		Company:      "General",
		ExpertAnswer: "1) Align with company OKRs 2) Assess market opportunity 3) Evaluate dependencies 4) Consider team capacity 5) Balance short-term vs long-term",
	},
	{
		Text:         "Daily active users of your messaging app dropped 15% week over week. How would you investigate?",
		Category:     "execution",
		Difficulty:   "intermediate",
		Company:      "General",
		ExpertAnswer: "1) Verify the data (tracking bug?) 2) Segment by platform, region, cohort 3) Check recent releases and experiments 4) Look for external factors (seasonality, competitors, outages) 5) Form and test hypotheses before proposing fixes",
	},
	{
		Text:         "Tell me about a time you had to influence stakeholders without authority.",
		Category:     "behavioral",
		Difficulty:   "intermediate",
		Company:      "General",
		ExpertAnswer: "Use STAR: Situation, Task, Action, Result. Emphasize empathy for stakeholder incentives, data-backed persuasion, and a concrete measurable outcome.",
	},
	{
		Text:         "Estimate the number of elevator rides taken per day in your city.",
		Category:     "estimation",
		Difficulty:   "beginner",
		Company:      "General",
		ExpertAnswer: "Structure top-down: population, share in multi-storey buildings, rides per person per day. State assumptions explicitly, sanity-check the result against a second approach.",
	},
	{
		Text:         "Design a feature to reduce food wastage for restaurants on a delivery platform.",
		Category:     "product_sense",
		Difficulty:   "intermediate",
		Company:      "Swiggy",
		ExpertAnswer: "Segment restaurants by size, quantify wastage sources, propose demand-prediction and end-of-day discount features, define success metrics per segment.",
	},
	{
		Text:         "Which metric best captures the health of a subscription product?",
		Category:     "analytical",
		Difficulty:   "beginner",
		Company:      "General",
		ExpertAnswer: "Net revenue retention combines churn, expansion and contraction in one number, which is why it is preferred over raw signup counts.",
		MCQOptions: json.RawMessage(`{
			"options": [
				{"id": "a", "text": "Monthly signups"},
				{"id": "b", "text": "Net revenue retention"},
				{"id": "c", "text": "App store rating"},
				{"id": "d", "text": "Total registered users"}
			],
			"correct": "b"
		}`),
	},
	{
		Text:         "A/B test shows +2% conversion but -5% retention. What do you ship?",
		Category:     "analytical",
		Difficulty:   "intermediate",
		Company:      "General",
		ExpertAnswer: "Retention losses usually compound while conversion gains are one-shot; model the LTV impact of both before deciding, and prefer a follow-up experiment isolating the retention driver.",
		MCQOptions: json.RawMessage(`{
			"options": [
				{"id": "a", "text": "Ship it, conversion wins"},
				{"id": "b", "text": "Hold, model LTV impact of retention loss first"},
				{"id": "c", "text": "Revert the test entirely"},
				{"id": "d", "text": "Ship to 50% of users permanently"}
			],
			"correct": "b"
		}`),
	},
}

// SeedQuestions inserts the catalog, skipping questions that already exist so
// the seeder can run against a live database.
func (s *QuestionSeeder) SeedQuestions() error {
	created := 0

	for _, q := range catalog {
		var count int64
		if err := s.db.Model(&model.Question{}).Where("question_text = ?", q.Text).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		id, _ := uuid.NewV7()
		question := model.Question{
			ID:           id.String(),
			QuestionText: q.Text,
			Category:     q.Category,
			Difficulty:   q.Difficulty,
			Company:      q.Company,
			ExpertAnswer: q.ExpertAnswer,
			Rubric:       standardRubric,
			MCQOptions:   q.MCQOptions,
			IsActive:     true,
			CreatedAt:    time.Now(),
			UpdatedAt:    time.Now(),
		}

		if err := s.db.Create(&question).Error; err != nil {
			log.Printf("Error creating question %q: %v", q.Text, err)
			return err
		}
		created++
	}

	log.Printf("Seeded %d new questions (%d already present)", created, len(catalog)-created)
	return nil
}
