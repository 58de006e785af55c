package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"github.com/KazeemKazeem/Relationship-Reality-Check/internal/evaluation"
	"github.com/KazeemKazeem/Relationship-Reality-Check/internal/model"
	"github.com/KazeemKazeem/Relationship-Reality-Check/internal/repository"
)

// Seeds a demo account plus one finished evaluation so the dashboard has
// something to show on a fresh database.
func main() {
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}
	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "realitycheck"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	if err := evaluation.ValidateCatalog(); err != nil {
		log.Fatalf("Catalog invariant violated: %v", err)
	}

	db := client.Database(dbName)
	userRepo := repository.NewUserRepo(db)
	evalRepo := repository.NewEvaluationRepo(db)

	email := "demo@example.com"
	user, err := userRepo.GetByEmail(ctx, email)
	if err != nil {
		log.Fatalf("Failed to look up demo user: %v", err)
	}
	if user == nil {
		hash, err := bcrypt.GenerateFromPassword([]byte("demo-password"), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("Failed to hash demo password: %v", err)
		}
		user = &model.User{
			ID:           uuid.New().String(),
			Email:        email,
			PasswordHash: string(hash),
			DisplayName:  "Demo User",
			CreatedAt:    time.Now(),
		}
		if err := userRepo.Create(ctx, user); err != nil {
			log.Fatalf("Failed to create demo user: %v", err)
		}
		log.Printf("Created demo user %s", email)
	}

	// A plausible friendship: mostly agreement, one standout answer.
	session := evaluation.NewSession(uuid.New().String(), user.ID, model.CategoryFriend, "Sam", &model.RelationshipMetadata{
		Subtype:         "close friend",
		DurationMonths:  36,
		ClosenessLevel:  8,
		LivingSituation: "separate",
	}, time.Now())
	for _, q := range session.Questions() {
		session.Responses[q.ID] = model.Agree
	}
	session.Responses["f6"] = model.StronglyAgree
	if err := session.Finish(); err != nil {
		log.Fatalf("Seed session did not finish: %v", err)
	}

	breakdown, total := evaluation.Score(session.Category, session.Responses)
	result := evaluation.AssembleResult(uuid.New().String(), session, breakdown, total, time.Now())

	if err := evalRepo.Save(ctx, result); err != nil {
		log.Fatalf("Failed to save seed evaluation: %v", err)
	}

	fmt.Printf("Seeded evaluation %s for %s: total=%d (%s)\n",
		result.ID, email, total, evaluation.ScoreBand(total))
}
