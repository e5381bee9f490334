/*
seed.go - Reference data set for demos and development

PURPOSE:
  Populates the database with tax rates for ten countries and 25 employees
  spread across them, so every endpoint has something to show.

HOW SEEDING WORKS:
 1. Reset database (clear employees and tax rates)
 2. Create tax rates through the store (validated like any admin write)
 3. Create employees through the service, so currency, tax and net
    salary are derived exactly as for API writes

USAGE VIA API:

	POST /api/v1/admin/seed

NOTE:

	Seeding resets the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Seed handler
  - cmd/server/main.go: -seed flag
*/
package api

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/compensation-engine/payroll"
)

type seedRate struct {
	country string
	rate    int64
}

type seedEmployee struct {
	first, last, title, country string
	gross                       int64
}

// =============================================================================
// DATA
// =============================================================================

var seedRates = []seedRate{
	{"IN", 10}, {"US", 12}, {"GB", 20}, {"CA", 15}, {"AU", 18},
	{"DE", 25}, {"FR", 22}, {"JP", 16}, {"SG", 8}, {"BR", 14},
}

var seedEmployees = []seedEmployee{
	{"Rajesh", "Kumar", "Senior Software Engineer", "IN", 120000},
	{"Priya", "Sharma", "Product Manager", "IN", 150000},
	{"Amit", "Patel", "DevOps Engineer", "IN", 95000},
	{"Sneha", "Reddy", "Data Scientist", "IN", 110000},

	{"John", "Smith", "Engineering Manager", "US", 180000},
	{"Sarah", "Johnson", "UX Designer", "US", 95000},
	{"Michael", "Brown", "Backend Developer", "US", 125000},
	{"Emily", "Davis", "Frontend Developer", "US", 115000},

	{"James", "Wilson", "Solutions Architect", "GB", 85000},
	{"Emma", "Taylor", "QA Engineer", "GB", 65000},
	{"Oliver", "Anderson", "Technical Lead", "GB", 95000},

	{"Sophie", "Martin", "Full Stack Developer", "CA", 105000},
	{"Lucas", "Dubois", "Backend Developer", "CA", 115000},

	{"Liam", "Murphy", "Mobile Developer", "AU", 98000},
	{"Olivia", "Chen", "Cloud Engineer", "AU", 108000},

	{"Hans", "Mueller", "Database Administrator", "DE", 75000},
	{"Anna", "Schmidt", "Backend Developer", "DE", 68000},

	{"Pierre", "Dubois", "System Administrator", "FR", 62000},
	{"Marie", "Bernard", "Frontend Developer", "FR", 70000},

	{"Yuki", "Tanaka", "AI Engineer", "JP", 92000},
	{"Haruto", "Sato", "Backend Developer", "JP", 78000},

	{"Wei", "Tan", "Site Reliability Engineer", "SG", 105000},
	{"Mei", "Lim", "Software Architect", "SG", 135000},

	{"Carlos", "Silva", "Platform Engineer", "BR", 55000},
	{"Ana", "Santos", "Backend Developer", "BR", 48000},
}

// =============================================================================
// LOADER
// =============================================================================

// LoadSeed resets the store and loads the reference data set.
func (h *Handler) LoadSeed(ctx context.Context) (SeedResponse, error) {
	if err := h.Store.Reset(ctx); err != nil {
		return SeedResponse{}, fmt.Errorf("failed to reset database: %w", err)
	}

	now := time.Now().UTC()
	for _, sr := range seedRates {
		entry := payroll.NewTaxRateEntry(sr.country, decimal.NewFromInt(sr.rate))
		entry.CreatedAt = now
		if err := h.Store.CreateTaxRate(ctx, entry); err != nil {
			return SeedResponse{}, fmt.Errorf("failed to create tax rate for %s: %w", sr.country, err)
		}
	}

	for _, se := range seedEmployees {
		gross := decimal.NewFromInt(se.gross).String()
		in := payroll.EmployeeInput{
			FirstName:   &se.first,
			LastName:    &se.last,
			JobTitle:    &se.title,
			CountryCode: &se.country,
			GrossSalary: &gross,
		}
		if _, err := h.Service.Create(ctx, in); err != nil {
			return SeedResponse{}, fmt.Errorf("failed to create employee %s %s: %w", se.first, se.last, err)
		}
	}

	h.Logger.Info("database seeded",
		zap.Int("tax_rates", len(seedRates)),
		zap.Int("employees", len(seedEmployees)))
	return SeedResponse{TaxRates: len(seedRates), Employees: len(seedEmployees)}, nil
}
