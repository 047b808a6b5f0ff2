package email

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Job struct {
	Kind    string
	To      string
	Payload any
}

// OutboxService persists notification jobs. Jobs are only picked up once the
// enclosing transaction commits.
type OutboxService struct {
	db          *gorm.DB
	maxAttempts int
}

func NewOutboxService(db *gorm.DB, maxAttempts int) *OutboxService {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &OutboxService{db: db, maxAttempts: maxAttempts}
}

func (s *OutboxService) Enqueue(ctx context.Context, j Job) (OutboxJob, error) {
	return s.EnqueueTx(ctx, s.db, j)
}

func (s *OutboxService) EnqueueTx(ctx context.Context, tx *gorm.DB, j Job) (OutboxJob, error) {
	to := strings.TrimSpace(j.To)
	if j.Kind == "" || to == "" {
		return OutboxJob{}, errors.New("outbox: kind and recipient are required")
	}
	payload, err := json.Marshal(j.Payload)
	if err != nil {
		return OutboxJob{}, fmt.Errorf("outbox payload: %w", err)
	}

	now := time.Now().UTC()
	row := OutboxJob{
		ID:            uuid.NewString(),
		Kind:          j.Kind,
		Recipient:     to,
		Payload:       datatypes.JSON(payload),
		Status:        JobPending,
		MaxAttempts:   s.maxAttempts,
		NextAttemptAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
		return OutboxJob{}, err
	}
	return row, nil
}
