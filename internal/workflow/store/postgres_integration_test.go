//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"passbuy/internal/platform/database"
	refmodels "passbuy/internal/reference/models"
	refstore "passbuy/internal/reference/store"
	"passbuy/internal/workflow/models"
	"passbuy/internal/workflow/store"
	domain "passbuy/pkg/domain"
	"passbuy/pkg/platform/sentinel"
	"passbuy/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres   *containers.PostgresContainer
	store      *store.Postgres
	providerID domain.ProviderID
	employerID domain.EmployerID
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	ctx := context.Background()
	s.postgres = containers.NewPostgresContainer(s.T())
	s.Require().NoError(database.EnsureSchema(ctx, s.postgres.DB))
	s.store = store.NewPostgres(s.postgres.DB)

	reference := refstore.NewPostgres(s.postgres.DB)
	s.providerID = domain.NewProviderID()
	s.Require().NoError(reference.CreateProvider(ctx, &refmodels.Provider{
		ID: s.providerID, Code: "UOW", Name: "University of Wollongong",
	}))
	s.employerID = domain.NewEmployerID()
	s.Require().NoError(reference.CreateEmployer(ctx, &refmodels.Employer{
		ID: s.employerID, Name: "Sydney Trains",
	}))
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	// Truncate in dependency order; catalogs stay seeded.
	err := s.postgres.Truncate(ctx,
		"issued_cards", "education_evidence", "transport_evidence", "card_applications", "users")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) createUser() domain.UserID {
	userID := domain.NewUserID()
	_, err := s.postgres.DB.ExecContext(context.Background(), `
		INSERT INTO users (id, email, display_name, password_hash, password_salt)
		VALUES ($1, $2, 'Test Rider', '\x00', '\x00')`,
		uuid.UUID(userID), uuid.NewString()+"@example.com",
	)
	s.Require().NoError(err)
	return userID
}

func (s *PostgresStoreSuite) newApp(userID domain.UserID, class models.CardClass, appliedAt time.Time) *models.Application {
	return &models.Application{
		ID:        domain.NewApplicationID(),
		UserID:    userID,
		CardClass: class,
		Status:    models.StatusPending,
		AppliedAt: appliedAt,
	}
}

func (s *PostgresStoreSuite) countApplications(userID domain.UserID) int {
	var n int
	err := s.postgres.DB.QueryRowContext(context.Background(),
		`SELECT count(*) FROM card_applications WHERE user_id = $1`, uuid.UUID(userID),
	).Scan(&n)
	s.Require().NoError(err)
	return n
}

func (s *PostgresStoreSuite) TestApplyAtomicity() {
	ctx := context.Background()
	userID := s.createUser()

	first := s.newApp(userID, models.CardClassEducation, time.Now().UTC())
	first.Education = &models.EducationEvidence{
		ProviderID: s.providerID, StudentNumber: 111, CourseCode: "COMP1000", CourseTitle: "Computing",
	}
	s.Require().NoError(s.store.CreateApplication(ctx, first))

	// Duplicate evidence rolls back the application row too.
	dup := s.newApp(userID, models.CardClassEducation, time.Now().UTC())
	dup.Education = &models.EducationEvidence{
		ProviderID: s.providerID, StudentNumber: 111, CourseCode: "COMP1000", CourseTitle: "Computing",
	}
	s.Require().ErrorIs(s.store.CreateApplication(ctx, dup), sentinel.ErrConflict)
	s.Equal(1, s.countApplications(userID))
}

func (s *PostgresStoreSuite) TestTransportEvidenceUniqueness() {
	ctx := context.Background()
	userID := s.createUser()

	a := s.newApp(userID, models.CardClassTransportEmployee, time.Now().UTC())
	a.Transport = &models.TransportEvidence{EmployerID: s.employerID, EmployeeNumber: 7}
	s.Require().NoError(s.store.CreateApplication(ctx, a))

	b := s.newApp(s.createUser(), models.CardClassTransportEmployee, time.Now().UTC())
	b.Transport = &models.TransportEvidence{EmployerID: s.employerID, EmployeeNumber: 7}
	s.Require().ErrorIs(s.store.CreateApplication(ctx, b), sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestApproveAndIssue() {
	ctx := context.Background()
	userID := s.createUser()
	base := time.Now().UTC().Truncate(time.Millisecond)

	older := s.newApp(userID, models.CardClassStandard, base.Add(-time.Hour))
	newer := s.newApp(userID, models.CardClassYouth, base)
	s.Require().NoError(s.store.CreateApplication(ctx, older))
	s.Require().NoError(s.store.CreateApplication(ctx, newer))

	card := &models.Card{
		ID:             domain.NewCardID(),
		ApprovedAt:     base,
		TopUp:          models.TopUp{Mode: models.TopUpAuto, Auto: &models.AutoTopUp{Threshold: 25, Amount: 20}},
		FundingAccount: "acc-1",
	}
	issued, err := s.store.ApproveAndIssue(ctx, userID, nil, card)
	s.Require().NoError(err)
	s.Equal(newer.ID, issued.ApplicationID, "most recent pending application wins")
	s.Equal(models.CardClassYouth, issued.CardClass)

	// Second fulfillment of the same application finds nothing pending.
	_, err = s.store.ApproveAndIssue(ctx, userID, &newer.ID, card)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	// Round-trip of the top-up variants through the nullable columns.
	cards, err := s.store.ListCards(ctx, userID)
	s.Require().NoError(err)
	s.Require().Len(cards, 1)
	s.Equal(models.TopUpAuto, cards[0].TopUp.Mode)
	s.Require().NotNil(cards[0].TopUp.Auto)
	s.Equal(25.0, cards[0].TopUp.Auto.Threshold)
	s.Nil(cards[0].TopUp.Schedule)
	s.Equal("acc-1", cards[0].FundingAccount)
}

func (s *PostgresStoreSuite) TestOwnershipScoping() {
	ctx := context.Background()
	owner := s.createUser()
	stranger := s.createUser()

	app := s.newApp(owner, models.CardClassStandard, time.Now().UTC())
	s.Require().NoError(s.store.CreateApplication(ctx, app))

	card := &models.Card{ID: domain.NewCardID(), ApprovedAt: time.Now().UTC(), TopUp: models.TopUp{Mode: models.TopUpManual}, FundingAccount: "acc-1"}
	_, err := s.store.ApproveAndIssue(ctx, stranger, &app.ID, card)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	issued, err := s.store.ApproveAndIssue(ctx, owner, &app.ID, card)
	s.Require().NoError(err)

	s.Require().ErrorIs(s.store.DeleteCard(ctx, stranger, issued.ID), sentinel.ErrNotFound)
	s.Require().NoError(s.store.DeleteCard(ctx, owner, issued.ID))
}

func (s *PostgresStoreSuite) TestReconcileStale() {
	ctx := context.Background()
	userID := s.createUser()
	base := time.Now().UTC()

	stale := s.newApp(userID, models.CardClassEducation, base.Add(-time.Hour))
	stale.Education = &models.EducationEvidence{
		ProviderID: s.providerID, StudentNumber: 333, CourseCode: "COMP1000", CourseTitle: "Computing",
	}
	fulfilled := s.newApp(userID, models.CardClassStandard, base)
	s.Require().NoError(s.store.CreateApplication(ctx, stale))
	s.Require().NoError(s.store.CreateApplication(ctx, fulfilled))

	card := &models.Card{ID: domain.NewCardID(), ApprovedAt: base, TopUp: models.TopUp{Mode: models.TopUpManual}, FundingAccount: "acc-1"}
	_, err := s.store.ApproveAndIssue(ctx, userID, &fulfilled.ID, card)
	s.Require().NoError(err)

	result, err := s.store.ReconcileStale(ctx, userID)
	s.Require().NoError(err)
	s.Equal(1, result.DeletedApplications)
	s.Equal(1, result.DeletedEvidence)
	s.Equal(1, result.SkippedLinkedToCard)

	apps, err := s.store.ListApplications(ctx, userID)
	s.Require().NoError(err)
	s.Require().Len(apps, 1)
	s.Equal(fulfilled.ID, apps[0].ID)
	s.Equal(models.StatusApproved, apps[0].Status)
}

func (s *PostgresStoreSuite) TestListApplicationsJoinsEvidence() {
	ctx := context.Background()
	userID := s.createUser()

	app := s.newApp(userID, models.CardClassEducation, time.Now().UTC())
	app.Education = &models.EducationEvidence{
		ProviderID: s.providerID, StudentNumber: 444, CourseCode: "MATH1001", CourseTitle: "Calculus",
	}
	s.Require().NoError(s.store.CreateApplication(ctx, app))

	apps, err := s.store.ListApplications(ctx, userID)
	s.Require().NoError(err)
	s.Require().Len(apps, 1)
	s.Require().NotNil(apps[0].Education)
	s.Equal(s.providerID, apps[0].Education.ProviderID)
	s.Equal(int64(444), apps[0].Education.StudentNumber)
	s.Equal("MATH1001", apps[0].Education.CourseCode)
	s.Nil(apps[0].Transport)
}
