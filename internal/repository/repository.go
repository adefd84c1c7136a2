// Package repository is the gorm-backed store for investments and their
// payment schedules.
package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "treasurytracker/internal/errors"
	"treasurytracker/internal/models"
	"treasurytracker/internal/pagination"
)

// InvestmentFilter narrows ListInvestments. Zero values mean "any".
type InvestmentFilter struct {
	Status       *models.InvestmentStatus
	Type         *models.InvestmentType
	Window       pagination.Window
	WithPayments bool
}

// PaymentFilter narrows ListPaymentEvents. From and To are inclusive.
type PaymentFilter struct {
	Statuses []models.PaymentStatus
	From     *time.Time
	To       *time.Time
}

// InvestmentRepository defines the storage operations the services rely on.
// Every method that writes more than one row does so in a single transaction.
type InvestmentRepository interface {
	SaveInvestment(ctx context.Context, inv *models.Investment, schedule []models.PaymentEvent) error
	ReplacePaymentSchedule(ctx context.Context, investmentID string, schedule []models.PaymentEvent) error
	GetInvestment(ctx context.Context, userID, investmentID string, withPayments bool) (*models.Investment, error)
	ListInvestments(ctx context.Context, userID string, filter InvestmentFilter) ([]models.Investment, int64, error)
	UpdateInvestment(ctx context.Context, inv *models.Investment, changes map[string]interface{}) error
	DeleteInvestment(ctx context.Context, inv *models.Investment) error
	ListPaymentEvents(ctx context.Context, investmentIDs []string, filter PaymentFilter) ([]models.PaymentEvent, error)
	GetPaymentEvent(ctx context.Context, investmentID, paymentID string) (*models.PaymentEvent, error)
	UpdatePaymentEvent(ctx context.Context, p *models.PaymentEvent, changes map[string]interface{}) error
	TransitionPaymentStatuses(ctx context.Context, from, to models.PaymentStatus, onOrBefore time.Time) (int64, error)
}

// investmentRepository implements InvestmentRepository on gorm.
type investmentRepository struct {
	db *gorm.DB
}

// NewInvestmentRepository creates a new InvestmentRepository.
func NewInvestmentRepository(db *gorm.DB) InvestmentRepository {
	return &investmentRepository{db: db}
}

func paymentsByDate(db *gorm.DB) *gorm.DB {
	return db.Order("payment_date ASC")
}

// SaveInvestment creates or updates inv. A non-nil schedule replaces the
// investment's payment events in the same transaction.
func (r *investmentRepository) SaveInvestment(ctx context.Context, inv *models.Investment, schedule []models.PaymentEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if inv.ID == "" {
			if err := tx.Omit(clause.Associations).Create(inv).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		} else if err := tx.Omit(clause.Associations).Save(inv).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if schedule == nil {
			return nil
		}
		return replaceSchedule(tx, inv.ID, schedule)
	})
}

// ReplacePaymentSchedule discards every event of the investment and inserts
// schedule in their place. Readers see either the old or the new schedule.
func (r *investmentRepository) ReplacePaymentSchedule(ctx context.Context, investmentID string, schedule []models.PaymentEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return replaceSchedule(tx, investmentID, schedule)
	})
}

func replaceSchedule(tx *gorm.DB, investmentID string, schedule []models.PaymentEvent) error {
	// Touching the parent row takes its row lock, so concurrent replacements
	// of the same schedule run one after the other.
	res := tx.Model(&models.Investment{}).Where("id = ?", investmentID).Update("updated_at", time.Now())
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrInvestmentNotFound
	}

	if err := tx.Where("investment_id = ?", investmentID).Delete(&models.PaymentEvent{}).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if len(schedule) == 0 {
		return nil
	}
	for i := range schedule {
		schedule[i].InvestmentID = investmentID
	}
	if err := tx.Create(&schedule).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetInvestment returns one of the user's investments. Investments owned by
// someone else are reported as not found.
func (r *investmentRepository) GetInvestment(ctx context.Context, userID, investmentID string, withPayments bool) (*models.Investment, error) {
	q := r.db.WithContext(ctx)
	if withPayments {
		q = q.Preload("Payments", paymentsByDate)
	}

	var inv models.Investment
	if err := q.Where("id = ? AND user_id = ?", investmentID, userID).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvestmentNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &inv, nil
}

// ListInvestments returns one window of the user's investments, newest first,
// together with the number of investments matching the filter.
func (r *investmentRepository) ListInvestments(ctx context.Context, userID string, filter InvestmentFilter) ([]models.Investment, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Investment{}).Where("user_id = ?", userID)
	if filter.Status != nil {
		base = base.Where("status = ?", *filter.Status)
	}
	if filter.Type != nil {
		base = base.Where("investment_type = ?", *filter.Type)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	q := base.Session(&gorm.Session{})
	if filter.WithPayments {
		q = q.Preload("Payments", paymentsByDate)
	}

	var investments []models.Investment
	if err := q.Order("created_at DESC").Order("id DESC").
		Scopes(pagination.Paginate(filter.Window)).
		Find(&investments).Error; err != nil {
		return nil, 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return investments, total, nil
}

// UpdateInvestment writes the given column changes to inv.
func (r *investmentRepository) UpdateInvestment(ctx context.Context, inv *models.Investment, changes map[string]interface{}) error {
	if len(changes) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Model(inv).Omit(clause.Associations).Updates(changes).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// DeleteInvestment removes the investment and all of its payment events.
func (r *investmentRepository) DeleteInvestment(ctx context.Context, inv *models.Investment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("investment_id = ?", inv.ID).Delete(&models.PaymentEvent{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		res := tx.Delete(inv)
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrInvestmentNotFound
		}
		return nil
	})
}

// ListPaymentEvents returns the events of the given investments ordered by
// date. Events on the same date are ordered by investment then event id.
func (r *investmentRepository) ListPaymentEvents(ctx context.Context, investmentIDs []string, filter PaymentFilter) ([]models.PaymentEvent, error) {
	if len(investmentIDs) == 0 {
		return []models.PaymentEvent{}, nil
	}

	q := r.db.WithContext(ctx).Where("investment_id IN ?", investmentIDs)
	if len(filter.Statuses) > 0 {
		q = q.Where("payment_status IN ?", filter.Statuses)
	}
	if filter.From != nil {
		q = q.Where("payment_date >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("payment_date <= ?", *filter.To)
	}

	var events []models.PaymentEvent
	if err := q.Order("payment_date ASC").Order("investment_id ASC").Order("id ASC").Find(&events).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return events, nil
}

// GetPaymentEvent returns one event of an investment.
func (r *investmentRepository) GetPaymentEvent(ctx context.Context, investmentID, paymentID string) (*models.PaymentEvent, error) {
	var p models.PaymentEvent
	if err := r.db.WithContext(ctx).Where("id = ? AND investment_id = ?", paymentID, investmentID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPaymentNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &p, nil
}

// UpdatePaymentEvent writes the given column changes to p.
func (r *investmentRepository) UpdatePaymentEvent(ctx context.Context, p *models.PaymentEvent, changes map[string]interface{}) error {
	if len(changes) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Model(p).Updates(changes).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// TransitionPaymentStatuses moves every event in status from whose date is on
// or before onOrBefore to status to, returning the number of events moved.
func (r *investmentRepository) TransitionPaymentStatuses(ctx context.Context, from, to models.PaymentStatus, onOrBefore time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.PaymentEvent{}).
		Where("payment_status = ? AND payment_date <= ?", from, onOrBefore).
		Update("payment_status", to)
	if res.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	return res.RowsAffected, nil
}
