package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"igudar/internal/config"
	"igudar/internal/database"
	apperrors "igudar/internal/errors"
	"igudar/internal/logger"
	"igudar/internal/models"
	"igudar/internal/money"
	"igudar/internal/services"
)

// catalogue is the YAML seed file layout. Amounts are major units and accept
// the compact display form ("2.5M", "250K").
type catalogue struct {
	Properties []seedProperty `yaml:"properties"`
}

type seedProperty struct {
	Title            string   `yaml:"title"`
	Description      string   `yaml:"description"`
	Location         string   `yaml:"location"`
	City             string   `yaml:"city"`
	PropertyType     string   `yaml:"property_type"`
	Status           string   `yaml:"status"`
	Price            string   `yaml:"price"`
	TargetAmount     string   `yaml:"target_amount"`
	MinInvestment    string   `yaml:"min_investment"`
	ExpectedROI      float64  `yaml:"expected_roi"`
	RentalYield      float64  `yaml:"rental_yield"`
	InvestmentPeriod int      `yaml:"investment_period"`
	SharesTotal      int64    `yaml:"shares_total"`
	FundingDeadline  string   `yaml:"funding_deadline"`
	Images           []string `yaml:"images"`
	Amenities        []string `yaml:"amenities"`
}

func loadCatalogue(r io.Reader) (*catalogue, error) {
	var cat catalogue
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cat); err != nil {
		if err == io.EOF {
			return &cat, nil
		}
		return nil, fmt.Errorf("decode catalogue: %w", err)
	}
	return &cat, nil
}

func parseAmount(field, raw string) (int64, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	major, err := money.ParseShort(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return money.ToMinor(major), nil
}

func (p seedProperty) input() (services.PropertyInput, error) {
	in := services.PropertyInput{
		Title:            p.Title,
		Description:      p.Description,
		Location:         p.Location,
		City:             p.City,
		PropertyType:     models.PropertyType(p.PropertyType),
		Status:           models.PropertyStatus(p.Status),
		ExpectedROI:      p.ExpectedROI,
		RentalYield:      p.RentalYield,
		InvestmentPeriod: p.InvestmentPeriod,
		SharesTotal:      p.SharesTotal,
		Images:           p.Images,
		Amenities:        p.Amenities,
	}

	var err error
	if in.Price, err = parseAmount("price", p.Price); err != nil {
		return in, err
	}
	if in.TargetAmount, err = parseAmount("target_amount", p.TargetAmount); err != nil {
		return in, err
	}
	if in.MinInvestment, err = parseAmount("min_investment", p.MinInvestment); err != nil {
		return in, err
	}
	if in.TargetAmount == 0 {
		in.TargetAmount = in.Price
	}

	if p.FundingDeadline != "" {
		deadline, err := parseDeadline(p.FundingDeadline)
		if err != nil {
			return in, err
		}
		in.FundingDeadline = &deadline
	}
	return in, nil
}

func parseDeadline(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("funding_deadline: expected RFC3339 or YYYY-MM-DD, got %q", raw)
}

// seedProperties creates every catalogue entry through the property service
// and stops on the first failure.
func seedProperties(ctx context.Context, svc services.PropertyServicer, actor services.Actor, cat *catalogue) (int, error) {
	created := 0
	for i, sp := range cat.Properties {
		in, err := sp.input()
		if err != nil {
			return created, fmt.Errorf("property %d (%q): %w", i+1, sp.Title, err)
		}
		property, err := svc.CreateProperty(ctx, actor, in)
		if err != nil {
			return created, fmt.Errorf("property %d (%q): %w", i+1, sp.Title, describe(err))
		}
		logger.Get().Infow("Seeded property", "id", property.ID, "title", property.Title, "status", property.Status)
		created++
	}
	return created, nil
}

// describe flattens field details into the error text for CLI output.
func describe(err error) error {
	appErr := apperrors.Normalize(err)
	if len(appErr.Details) == 0 {
		return err
	}
	parts := make([]string, 0, len(appErr.Details))
	for _, d := range appErr.Details {
		parts = append(parts, d.Field+": "+d.Message)
	}
	return fmt.Errorf("%s (%s)", appErr.Message, strings.Join(parts, "; "))
}

func seedCmd() *cobra.Command {
	var issuerEmail string

	cmd := &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Load a YAML property catalogue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open seed file: %w", err)
			}
			defer f.Close()

			cat, err := loadCatalogue(f)
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := money.SetCurrency(cfg.Currency); err != nil {
				return err
			}

			dbManager, err := database.NewManager(cfg)
			if err != nil {
				return err
			}
			defer dbManager.Close()

			var issuer models.User
			if err := dbManager.DB().WithContext(cmd.Context()).Where("email = ?", strings.ToLower(issuerEmail)).First(&issuer).Error; err != nil {
				return fmt.Errorf("issuer %q: %w", issuerEmail, err)
			}

			actor := services.Actor{UserID: issuer.ID, Role: issuer.Role}
			created, err := seedProperties(cmd.Context(), services.NewPropertyService(dbManager.DB()), actor, cat)
			if err != nil {
				return err
			}
			logger.Get().Infof("Seeded %d properties as %s", created, issuer.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&issuerEmail, "issuer", "", "email of the issuer or admin account that owns the seeded properties")
	_ = cmd.MarkFlagRequired("issuer")
	return cmd
}
