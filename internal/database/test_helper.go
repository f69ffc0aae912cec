package database

import (
	"fmt"
	"slices"
	"testing"

	"finance-tracker/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens a private in-memory SQLite database carrying the full
// schema. One pooled connection keeps every goroutine on the same memory
// database, so concurrent writers serialise as they would on a row lock.
func SetupTestDB(t testing.TB) *DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	mustTest(t, err, "open test database")

	sqlDB, err := gdb.DB()
	mustTest(t, err, "unwrap test database")
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db := &DB{DB: gdb}
	mustTest(t, db.AutoMigrate(), "migrate test database")
	return db
}

// CleanupTestDB empties every table, children first.
func CleanupTestDB(t testing.TB, db *DB) {
	t.Helper()
	for _, model := range slices.Backward(schema) {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			t.Logf("cleanup %T: %v", model, err)
		}
	}
}

func CreateTestUser(t testing.TB, db *DB, email string) *models.User {
	t.Helper()
	user := &models.User{
		Email:        email,
		PasswordHash: "hashed_password",
		Name:         "Test",
		Surname:      "User",
		Balance:      decimal.Zero,
	}
	mustTest(t, db.Create(user).Error, "create test user")
	return user
}

func CreateTestCategory(t testing.TB, db *DB, userID uuid.UUID, name string) *models.Category {
	t.Helper()
	category := &models.Category{UserID: userID, Name: name}
	mustTest(t, db.Create(category).Error, "create test category")
	return category
}

// ReloadBalance reads the cached balance straight from the users table.
func ReloadBalance(t testing.TB, db *DB, userID uuid.UUID) decimal.Decimal {
	t.Helper()
	var user models.User
	mustTest(t, db.Select("id", "balance").Take(&user, "id = ?", userID).Error, "reload balance")
	return user.Balance
}

func mustTest(t testing.TB, err error, what string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", what, err)
	}
}
