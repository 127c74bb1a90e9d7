// Package seed creates demo listings, agents and inquiries for development
// databases. It is not used in production.
package seed

import (
	"context"
	"fmt"
	"time"

	"estatehub/internal/middleware"
	"estatehub/internal/models"
	"estatehub/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "password123"

var propertyTypes = []string{"house", "apartment", "condo", "townhouse", "villa", "land"}

// Options control how much demo data is created.
type Options struct {
	Listings  int
	Agents    int
	Inquiries int
	// MaxDays spreads listing creation dates over the last MaxDays days.
	MaxDays int
	// Seed makes the generated data reproducible. Zero picks a random seed.
	Seed int64
}

// Result reports what was created.
type Result struct {
	Agents    []models.User
	Listings  []models.ListingRow
	Inquiries []models.Message
}

// Seeder writes demo data through the regular repositories so change
// notifications fire the same way they do for user edits.
type Seeder struct {
	db       *gorm.DB
	users    repository.UserRepository
	listings repository.ListingRepository
	messages repository.MessageRepository
	faker    *gofakeit.Faker
	now      func() time.Time
}

// NewSeeder creates a seeder. listings may carry a change publisher.
func NewSeeder(db *gorm.DB, listings repository.ListingRepository, seed int64) *Seeder {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Seeder{
		db:       db,
		users:    repository.NewUserRepository(db),
		listings: listings,
		messages: repository.NewMessageRepository(db),
		faker:    gofakeit.New(seed),
		now:      time.Now,
	}
}

// Run creates opts.Agents agents, opts.Listings listings spread across them and
// opts.Inquiries inquiries about random listings.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Agents <= 0 {
		opts.Agents = 3
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}

	res := &Result{}
	hashed, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}

	for i := 0; i < opts.Agents; i++ {
		agent := models.User{
			Name:     s.faker.Name(),
			Email:    fmt.Sprintf("agent%d.%s@estatehub.local", i+1, s.faker.Username()),
			Password: string(hashed),
			Role:     "agent",
			Active:   true,
		}
		if err := s.users.Create(ctx, &agent); err != nil {
			return nil, fmt.Errorf("create agent: %w", err)
		}
		res.Agents = append(res.Agents, agent)
	}

	for i := 0; i < opts.Listings; i++ {
		agent := res.Agents[i%len(res.Agents)]
		row := s.BuildListing(agent.Name, opts.MaxDays)
		row.DealerID = agent.ID
		if err := s.listings.Create(ctx, &row); err != nil {
			return nil, fmt.Errorf("create listing: %w", err)
		}
		res.Listings = append(res.Listings, row)
	}

	for i := 0; i < opts.Inquiries && len(res.Listings) > 0; i++ {
		ref := res.Listings[s.faker.Number(0, len(res.Listings)-1)]
		msg := models.Message{
			SenderName:  s.faker.Name(),
			SenderEmail: s.faker.Email(),
			Subject:     "Question about " + ref.Title,
			Body:        s.faker.Paragraph(1, 3, 12, " "),
			ListingRef:  ref.ID,
			Status:      models.MessageStatus(s.faker.RandomString([]string{"unread", "read", "replied"})),
		}
		if err := s.messages.Create(ctx, &msg); err != nil {
			return nil, fmt.Errorf("create inquiry: %w", err)
		}
		res.Inquiries = append(res.Inquiries, msg)
	}

	middleware.Logger.InfoContext(ctx, "Seeded demo data",
		"agents", len(res.Agents),
		"listings", len(res.Listings),
		"inquiries", len(res.Inquiries),
	)
	return res, nil
}

// BuildListing returns an unsaved listing row for agent with realistic values.
func (s *Seeder) BuildListing(agent string, maxDays int) models.ListingRow {
	lt := models.ListingType(s.faker.RandomString([]string{"sale", "sale", "rent"}))
	price := float64(s.faker.Number(90, 1500)) * 1000
	if lt == models.ListingRent {
		price = float64(s.faker.Number(8, 60)) * 100
	}
	propertyType := s.faker.RandomString(propertyTypes)
	bedrooms := s.faker.Number(0, 6)
	if propertyType == "land" {
		bedrooms = 0
	}
	sqft := s.faker.Number(450, 6000)
	addr := s.faker.Address()

	daysBack := s.faker.Number(0, maxDays)
	created := s.now().Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(s.faker.Number(0, 1439))*time.Minute)

	return models.ListingRow{
		Title:        fmt.Sprintf("%s %s in %s", s.faker.AdjectiveDescriptive(), propertyType, addr.City),
		Description:  s.faker.Paragraph(2, 4, 14, " "),
		Price:        price,
		PricePeriod:  string(models.PeriodFor(lt)),
		Location:     fmt.Sprintf("%s, %s", addr.City, addr.State),
		PropertyType: propertyType,
		Bedrooms:     bedrooms,
		Bathrooms:    s.faker.Number(1, max(bedrooms, 1)),
		Sqft:         &sqft,
		ListingType:  string(lt),
		Status:       s.faker.RandomString([]string{"approved", "approved", "approved", "pending", "rejected"}),
		DealerName:   agent,
		ImageURL:     fmt.Sprintf("https://picsum.photos/seed/%s/800/600", s.faker.UUID()),
		CreatedAt:    created,
	}
}

// Clear removes all listings and inquiries. Accounts are kept.
func (s *Seeder) Clear(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.ListingRow{}).Error
	})
}
