package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/keepsake/models"
	"github.com/cppla/keepsake/utils"
)

// MinCodeLength is the shortest access code accepted at provisioning.
const MinCodeLength = 4

// Gate maps access codes to identities.
type Gate struct {
	db          *gorm.DB
	adminSecret string
	now         func() time.Time
}

// NewGate creates a Gate. adminSecret guards provisioning and may be a bcrypt hash.
func NewGate(db *gorm.DB, adminSecret string) *Gate {
	return &Gate{db: db, adminSecret: adminSecret, now: time.Now}
}

// NormalizeCode trims, lowercases and NFC-normalizes an access code.
func NormalizeCode(code string) string {
	return norm.NFC.String(strings.ToLower(strings.TrimSpace(code)))
}

// Verify checks code against provisioned records and returns the identity.
// A successful check refreshes the record's last access time.
func (g *Gate) Verify(ctx context.Context, code string) (string, error) {
	identity := NormalizeCode(code)
	if identity == "" {
		return "", fmt.Errorf("%w: code is required", ErrInvalidInput)
	}

	var rec models.AccessRecord
	if err := g.db.WithContext(ctx).Where("code = ?", identity).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUnauthorized
		}
		return "", fmt.Errorf("load access record: %w", err)
	}

	now := g.now()
	if err := g.db.WithContext(ctx).Model(&models.AccessRecord{}).
		Where("code = ?", identity).
		Updates(map[string]interface{}{"last_access_at": now, "updated_at": now}).Error; err != nil {
		return "", fmt.Errorf("touch access record: %w", err)
	}
	return identity, nil
}

// Exists reports whether identity is still provisioned.
func (g *Gate) Exists(ctx context.Context, identity string) (bool, error) {
	var n int64
	if err := g.db.WithContext(ctx).Model(&models.AccessRecord{}).Where("code = ?", identity).Count(&n).Error; err != nil {
		return false, fmt.Errorf("count access records: %w", err)
	}
	return n > 0, nil
}

// AdminAuthorized reports whether secret matches the configured admin secret.
// An empty configuration disables provisioning over the API.
func (g *Gate) AdminAuthorized(secret string) bool {
	if g.adminSecret == "" || secret == "" {
		return false
	}
	return utils.MatchSecret(g.adminSecret, secret)
}

// Provision registers a new access code.
func (g *Gate) Provision(ctx context.Context, code string) (*models.AccessRecord, error) {
	identity := NormalizeCode(code)
	if len([]rune(identity)) < MinCodeLength {
		return nil, fmt.Errorf("%w: code must be at least %d characters", ErrInvalidInput, MinCodeLength)
	}

	rec := &models.AccessRecord{Code: identity, CreatedAt: g.now()}
	res := g.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(rec)
	if res.Error != nil {
		return nil, fmt.Errorf("create access record: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrAlreadyExists
	}
	return rec, nil
}
