package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Audit actions. The set is closed; the audit service rejects anything else.
const (
	AuditActionLogin         = "login"
	AuditActionLogout        = "logout"
	AuditActionRegister      = "register"
	AuditActionFailedLogin   = "failed_login"
	AuditActionAccountLocked = "account_locked"
	AuditActionTokenRefresh  = "token_refresh"

	AuditActionCategoryCreated    = "category_created"
	AuditActionCategoryUpdated    = "category_updated"
	AuditActionCategoryDeleted    = "category_deleted"
	AuditActionTransactionCreated = "transaction_created"
	AuditActionTransactionUpdated = "transaction_updated"
	AuditActionTransactionDeleted = "transaction_deleted"
	AuditActionAvatarUpdated      = "avatar_updated"
	AuditActionAvatarDeleted      = "avatar_deleted"
	AuditActionBalanceRepaired    = "balance_repaired"
	AuditActionExported           = "transactions_exported"
)

var auditActions = map[string]struct{}{
	AuditActionLogin: {}, AuditActionLogout: {}, AuditActionRegister: {},
	AuditActionFailedLogin: {}, AuditActionAccountLocked: {}, AuditActionTokenRefresh: {},
	AuditActionCategoryCreated: {}, AuditActionCategoryUpdated: {}, AuditActionCategoryDeleted: {},
	AuditActionTransactionCreated: {}, AuditActionTransactionUpdated: {}, AuditActionTransactionDeleted: {},
	AuditActionAvatarUpdated: {}, AuditActionAvatarDeleted: {},
	AuditActionBalanceRepaired: {}, AuditActionExported: {},
}

// IsAuditAction reports whether action belongs to the closed action set.
func IsAuditAction(action string) bool {
	_, ok := auditActions[action]
	return ok
}

const (
	AuditResourceUser        = "user"
	AuditResourceToken       = "token"
	AuditResourceCategory    = "category"
	AuditResourceTransaction = "transaction"
)

// AuditLog is one entry of a user's activity trail. UserID is nil for events
// that could not be attributed, such as a login with an unknown email.
type AuditLog struct {
	ID         uuid.UUID     `gorm:"type:uuid;primary_key" json:"id"`
	UserID     *uuid.UUID    `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Action     string        `gorm:"type:varchar(100);not null;index" json:"action"`
	Resource   string        `gorm:"type:varchar(100);not null" json:"resource"`
	ResourceID string        `gorm:"type:varchar(255)" json:"resource_id,omitempty"`
	IPAddress  string        `gorm:"type:varchar(45)" json:"ip_address,omitempty"`
	UserAgent  string        `gorm:"type:text" json:"user_agent,omitempty"`
	TraceID    string        `gorm:"type:varchar(64);index" json:"trace_id,omitempty"`
	Metadata   AuditMetadata `gorm:"type:text" json:"metadata,omitempty"`
	CreatedAt  time.Time     `gorm:"not null;index" json:"created_at"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"-"`
}

func (al *AuditLog) TableName() string {
	return "audit_logs"
}

func (al *AuditLog) BeforeCreate(*gorm.DB) error {
	stampIdentity(&al.ID, &al.CreatedAt)
	return nil
}

// LogValue keeps client metadata such as emails out of structured logs.
func (al *AuditLog) LogValue() slog.Value {
	user := "anonymous"
	if al.UserID != nil {
		user = al.UserID.String()
	}
	return slog.GroupValue(
		slog.String("action", al.Action),
		slog.String("user_id", user),
		slog.String("resource", al.Resource),
		slog.String("resource_id", al.ResourceID),
		slog.String("trace_id", al.TraceID),
	)
}

// AuditMetadata is free-form event context, stored as a JSON text column so
// the same schema works on postgres and sqlite.
type AuditMetadata map[string]any

func (m AuditMetadata) Value() (driver.Value, error) {
	if len(m) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(map[string]any(m))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (m *AuditMetadata) Scan(value any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into AuditMetadata", value)
	}

	if len(raw) == 0 {
		*m = nil
		return nil
	}
	decoded := map[string]any{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	*m = decoded
	return nil
}

// Int reads a numeric entry, which comes back as float64 after a round trip.
func (m AuditMetadata) Int(key string) (int64, bool) {
	switch v := m[key].(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		return int64(v), true
	}
	return 0, false
}
