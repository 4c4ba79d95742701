package store

import (
	"context"
	"fmt"
	"log/slog"

	"passbuy/internal/reference/models"
	domain "passbuy/pkg/domain"
)

// Seed populates the reference catalogs once. It skips any catalog that
// already has rows, so repeated startups are harmless.
func Seed(ctx context.Context, s Store, logger *slog.Logger) error {
	n, err := s.CountProviders(ctx)
	if err != nil {
		return fmt.Errorf("seed providers: %w", err)
	}
	if n > 0 {
		logger.InfoContext(ctx, "education providers already seeded", "count", n)
	} else {
		for code, name := range defaultProviders {
			p := &models.Provider{ID: domain.NewProviderID(), Code: code, Name: name}
			if err := s.CreateProvider(ctx, p); err != nil {
				return fmt.Errorf("seed provider %s: %w", code, err)
			}
		}
		logger.InfoContext(ctx, "seeded default education providers", "count", len(defaultProviders))
	}

	n, err = s.CountEmployers(ctx)
	if err != nil {
		return fmt.Errorf("seed employers: %w", err)
	}
	if n > 0 {
		logger.InfoContext(ctx, "transport employers already seeded", "count", n)
		return nil
	}
	for _, name := range defaultEmployers {
		e := &models.Employer{ID: domain.NewEmployerID(), Name: name}
		if err := s.CreateEmployer(ctx, e); err != nil {
			return fmt.Errorf("seed employer %s: %w", name, err)
		}
	}
	logger.InfoContext(ctx, "seeded default transport employers", "count", len(defaultEmployers))
	return nil
}

var defaultProviders = map[string]string{
	"UOW":     "University of Wollongong",
	"USYD":    "University of Sydney",
	"WSU":     "Western Sydney University",
	"UNSW":    "University of New South Wales",
	"UTS":     "University of Technology Sydney",
	"TAFENSW": "TAFE NSW",
	"ANU":     "Australian National University",
	"UA":      "University of Adelaide",
	"UWA":     "University of Western Australia",
	"CDU":     "Charles Darwin University",
	"UQ":      "University of Queensland",
	"QUT":     "Queensland University of Technology",
}

var defaultEmployers = []string{
	"Sydney Trains",
	"NSW TrainLink",
	"Sydney Metro",
	"State Transit Authority",
	"Transdev NSW",
}
