package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yungbote/aria-backend/internal/db"
	"github.com/yungbote/aria-backend/internal/platform/logger"
	"github.com/yungbote/aria-backend/internal/repos"
	"github.com/yungbote/aria-backend/internal/requestdata"
	"github.com/yungbote/aria-backend/internal/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

type testEnv struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	convRepo      repos.ConversationRepo
	auth          AuthService
	users         UserService
	conversations ConversationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gdb := newTestDB(t)
	log := newTestLogger(t)
	userRepo := repos.NewUserRepo(gdb, log)
	convRepo := repos.NewConversationRepo(gdb, log)
	auth := NewAuthService(gdb, log, userRepo, nil, nil, "test-secret", time.Hour)
	users := NewUserService(gdb, log, userRepo, auth)
	conversations := NewConversationService(gdb, log, convRepo, users)
	return &testEnv{
		db:            gdb,
		log:           log,
		userRepo:      userRepo,
		convRepo:      convRepo,
		auth:          auth,
		users:         users,
		conversations: conversations,
	}
}

func (env *testEnv) register(t *testing.T, username, email, password string) *types.User {
	t.Helper()
	user, _, err := env.auth.RegisterUser(context.Background(), RegisterInput{
		Username: username,
		Email:    email,
		Password: password,
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return user
}

func ctxFor(userID uuid.UUID) context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
		TokenString: "test-token",
		TokenID:     uuid.New().String(),
		UserID:      userID,
	})
}
