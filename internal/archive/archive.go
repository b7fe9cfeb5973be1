package archive

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/DoyleJ11/traitors-backend/internal/engine"
)

// GameRecord is one finished game.
type GameRecord struct {
	ID        uint   `gorm:"primaryKey"`
	SessionID string `gorm:"index;size:16"`
	Winner    string `gorm:"size:16"`
	Rounds    int
	EndedAt   time.Time
	Players   []PlayerRecord `gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}

type PlayerRecord struct {
	ID         uint   `gorm:"primaryKey"`
	GameID     uint   `gorm:"index"`
	PlayerID   string `gorm:"size:64"`
	Name       string
	Role       string `gorm:"size:16"`
	Eliminated bool
}

// Store archives finished games. Live sessions are never written here.
type Store struct {
	db *gorm.DB
}

// Connect opens the database and runs migrations.
func Connect(dsn string, log *zap.Logger) (*Store, error) {
	gormLogger := logger.New(
		zap.NewStdLog(log.Named("gorm")),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if err := db.AutoMigrate(&GameRecord{}, &PlayerRecord{}); err != nil {
		return nil, fmt.Errorf("migrate archive: %w", err)
	}
	log.Info("archive ready")
	return New(db), nil
}

func New(db *gorm.DB) *Store { return &Store{db: db} }

func (s *Store) Record(ctx context.Context, res engine.Result) error {
	if err := s.db.WithContext(ctx).Create(newGameRecord(res)).Error; err != nil {
		return fmt.Errorf("archive game %s: %w", res.SessionID, err)
	}
	return nil
}

// Recent returns the latest finished games, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]GameRecord, error) {
	var games []GameRecord
	err := s.db.WithContext(ctx).
		Preload("Players").
		Order("ended_at desc").
		Limit(limit).
		Find(&games).Error
	if err != nil {
		return nil, fmt.Errorf("recent games: %w", err)
	}
	return games, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func newGameRecord(res engine.Result) *GameRecord {
	g := &GameRecord{
		SessionID: res.SessionID,
		Winner:    res.Winner.String(),
		Rounds:    res.Rounds,
		EndedAt:   res.EndedAt,
	}
	for _, p := range res.Players {
		g.Players = append(g.Players, PlayerRecord{
			PlayerID:   p.ID,
			Name:       p.Name,
			Role:       p.Role.String(),
			Eliminated: p.Eliminated,
		})
	}
	return g
}
