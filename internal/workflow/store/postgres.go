package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"passbuy/internal/workflow/models"
	domain "passbuy/pkg/domain"
	"passbuy/pkg/platform/sentinel"
)

// Postgres implements Store. Multi-row operations run in one transaction at
// the store's default isolation; the ownership and status filters plus row
// locks make read-committed sufficient.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *Postgres) CreateApplication(ctx context.Context, app *models.Application) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO card_applications (id, user_id, card_class, status, applied_at)
			VALUES ($1, $2, $3, $4, $5)`,
			uuid.UUID(app.ID), uuid.UUID(app.UserID), app.CardClass, app.Status, app.AppliedAt,
		)
		if err != nil {
			return fmt.Errorf("insert application: %w", err)
		}

		switch {
		case app.Education != nil:
			_, err = tx.ExecContext(ctx, `
				INSERT INTO education_evidence (application_id, provider_id, student_number, course_code, course_title)
				VALUES ($1, $2, $3, $4, $5)`,
				uuid.UUID(app.ID), uuid.UUID(app.Education.ProviderID),
				app.Education.StudentNumber, app.Education.CourseCode, app.Education.CourseTitle,
			)
		case app.Transport != nil:
			_, err = tx.ExecContext(ctx, `
				INSERT INTO transport_evidence (application_id, employer_id, employee_number)
				VALUES ($1, $2, $3)`,
				uuid.UUID(app.ID), uuid.UUID(app.Transport.EmployerID), app.Transport.EmployeeNumber,
			)
		}
		if err != nil {
			if isUniqueViolation(err) {
				return sentinel.ErrConflict
			}
			return fmt.Errorf("insert evidence: %w", err)
		}
		return nil
	})
}

func (s *Postgres) ApproveAndIssue(ctx context.Context, userID domain.UserID, appID *domain.ApplicationID, card *models.Card) (*models.Card, error) {
	issued := *card
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		// The status re-check and the mutation share this transaction; the
		// row lock stops a racing reconciliation from deleting the chosen
		// application before the card insert commits.
		query := `
			SELECT id, card_class FROM card_applications
			WHERE user_id = $1 AND status = $2`
		args := []any{uuid.UUID(userID), models.StatusPending}
		if appID != nil {
			query += ` AND id = $3`
			args = append(args, uuid.UUID(*appID))
		}
		query += ` ORDER BY applied_at DESC, id DESC LIMIT 1 FOR UPDATE`

		var (
			chosenID  uuid.UUID
			cardClass models.CardClass
		)
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&chosenID, &cardClass); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return sentinel.ErrNotFound
			}
			return fmt.Errorf("select pending application: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE card_applications SET status = $1 WHERE id = $2`,
			models.StatusApproved, chosenID,
		); err != nil {
			return fmt.Errorf("approve application: %w", err)
		}

		issued.UserID = userID
		issued.ApplicationID = domain.ApplicationID(chosenID)
		issued.CardClass = cardClass

		var (
			autoThreshold, autoAmount, scheduleAmount sql.NullFloat64
			scheduleCadence                           sql.NullString
		)
		if a := issued.TopUp.Auto; a != nil {
			autoThreshold = sql.NullFloat64{Float64: a.Threshold, Valid: true}
			autoAmount = sql.NullFloat64{Float64: a.Amount, Valid: true}
		}
		if sch := issued.TopUp.Schedule; sch != nil {
			scheduleCadence = sql.NullString{String: sch.Cadence, Valid: true}
			scheduleAmount = sql.NullFloat64{Float64: sch.Amount, Valid: true}
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO issued_cards
				(id, user_id, application_id, card_class, approved_at,
				 topup_mode, auto_threshold, auto_amount, schedule_cadence, schedule_amount,
				 funding_account)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			uuid.UUID(issued.ID), uuid.UUID(userID), chosenID, cardClass, issued.ApprovedAt,
			issued.TopUp.Mode, autoThreshold, autoAmount, scheduleCadence, scheduleAmount,
			issued.FundingAccount,
		); err != nil {
			if isUniqueViolation(err) {
				return sentinel.ErrConflict
			}
			return fmt.Errorf("insert card: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &issued, nil
}

func (s *Postgres) ReconcileStale(ctx context.Context, userID domain.UserID) (models.ReconcileResult, error) {
	var result models.ReconcileResult
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		// One snapshot of the user's applications, with their card links,
		// locked for the rest of the transaction. A fulfillment racing on
		// the same rows blocks on the lock and then sees the rows gone (or
		// we see its card and skip).
		rows, err := tx.QueryContext(ctx, `
			SELECT a.id, a.status,
			       EXISTS (SELECT 1 FROM issued_cards c WHERE c.application_id = a.id) AS linked
			FROM card_applications a
			WHERE a.user_id = $1
			FOR UPDATE OF a`,
			uuid.UUID(userID),
		)
		if err != nil {
			return fmt.Errorf("snapshot applications: %w", err)
		}
		defer rows.Close()

		var deletable []string
		for rows.Next() {
			var (
				id     uuid.UUID
				status models.Status
				linked bool
			)
			if err := rows.Scan(&id, &status, &linked); err != nil {
				return fmt.Errorf("scan application: %w", err)
			}
			if linked {
				result.SkippedLinkedToCard++
				continue
			}
			if status != models.StatusPending {
				continue
			}
			deletable = append(deletable, id.String())
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate pending applications: %w", err)
		}
		if len(deletable) == 0 {
			return nil
		}

		ids := pq.Array(deletable)
		res, err := tx.ExecContext(ctx,
			`DELETE FROM education_evidence WHERE application_id = ANY($1::uuid[])`, ids)
		if err != nil {
			return fmt.Errorf("delete education evidence: %w", err)
		}
		n, _ := res.RowsAffected()
		result.DeletedEvidence += int(n)

		res, err = tx.ExecContext(ctx,
			`DELETE FROM transport_evidence WHERE application_id = ANY($1::uuid[])`, ids)
		if err != nil {
			return fmt.Errorf("delete transport evidence: %w", err)
		}
		n, _ = res.RowsAffected()
		result.DeletedEvidence += int(n)

		res, err = tx.ExecContext(ctx,
			`DELETE FROM card_applications WHERE id = ANY($1::uuid[])`, ids)
		if err != nil {
			return fmt.Errorf("delete applications: %w", err)
		}
		n, _ = res.RowsAffected()
		result.DeletedApplications = int(n)
		return nil
	})
	if err != nil {
		return models.ReconcileResult{}, err
	}
	return result, nil
}

func (s *Postgres) ListApplications(ctx context.Context, userID domain.UserID) ([]*models.Application, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.card_class, a.status, a.applied_at,
		       e.provider_id, e.student_number, e.course_code, e.course_title,
		       t.employer_id, t.employee_number
		FROM card_applications a
		LEFT JOIN education_evidence e ON e.application_id = a.id
		LEFT JOIN transport_evidence t ON t.application_id = a.id
		WHERE a.user_id = $1
		ORDER BY a.applied_at DESC, a.id DESC`,
		uuid.UUID(userID),
	)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var out []*models.Application
	for rows.Next() {
		var (
			id                     uuid.UUID
			app                    models.Application
			providerID, employerID uuid.NullUUID
			studentNumber          sql.NullInt64
			courseCode             sql.NullString
			courseTitle            sql.NullString
			employeeNumber         sql.NullInt64
		)
		if err := rows.Scan(&id, &app.CardClass, &app.Status, &app.AppliedAt,
			&providerID, &studentNumber, &courseCode, &courseTitle,
			&employerID, &employeeNumber,
		); err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		app.ID = domain.ApplicationID(id)
		app.UserID = userID
		if providerID.Valid {
			app.Education = &models.EducationEvidence{
				ProviderID:    domain.ProviderID(providerID.UUID),
				StudentNumber: studentNumber.Int64,
				CourseCode:    courseCode.String,
				CourseTitle:   courseTitle.String,
			}
		}
		if employerID.Valid {
			app.Transport = &models.TransportEvidence{
				EmployerID:     domain.EmployerID(employerID.UUID),
				EmployeeNumber: employeeNumber.Int64,
			}
		}
		out = append(out, &app)
	}
	return out, rows.Err()
}

func (s *Postgres) ListCards(ctx context.Context, userID domain.UserID) ([]*models.Card, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, application_id, card_class, approved_at,
		       topup_mode, auto_threshold, auto_amount, schedule_cadence, schedule_amount,
		       funding_account
		FROM issued_cards
		WHERE user_id = $1
		ORDER BY approved_at DESC, id DESC`,
		uuid.UUID(userID),
	)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var out []*models.Card
	for rows.Next() {
		var (
			id                                        uuid.UUID
			applicationID                             uuid.NullUUID
			card                                      models.Card
			autoThreshold, autoAmount, scheduleAmount sql.NullFloat64
			scheduleCadence                           sql.NullString
		)
		if err := rows.Scan(&id, &applicationID, &card.CardClass, &card.ApprovedAt,
			&card.TopUp.Mode, &autoThreshold, &autoAmount, &scheduleCadence, &scheduleAmount,
			&card.FundingAccount,
		); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		card.ID = domain.CardID(id)
		card.UserID = userID
		if applicationID.Valid {
			card.ApplicationID = domain.ApplicationID(applicationID.UUID)
		}
		if card.TopUp.Mode == models.TopUpAuto && autoThreshold.Valid {
			card.TopUp.Auto = &models.AutoTopUp{
				Threshold: autoThreshold.Float64,
				Amount:    autoAmount.Float64,
			}
		}
		if card.TopUp.Mode == models.TopUpScheduled && scheduleCadence.Valid {
			card.TopUp.Schedule = &models.ScheduledTopUp{
				Cadence: scheduleCadence.String,
				Amount:  scheduleAmount.Float64,
			}
		}
		out = append(out, &card)
	}
	return out, rows.Err()
}

func (s *Postgres) DeleteCard(ctx context.Context, userID domain.UserID, cardID domain.CardID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM issued_cards WHERE id = $1 AND user_id = $2`,
		uuid.UUID(cardID), uuid.UUID(userID),
	)
	if err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete card rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
