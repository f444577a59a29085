package archive

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type exchangeRow struct {
	ID         uint      `gorm:"primaryKey"`
	Code       string    `gorm:"size:16;index"`
	FinishedAt time.Time `gorm:"index"`
	TurnOrder  string
	Reveals    []revealRow `gorm:"foreignKey:ExchangeID;constraint:OnDelete:CASCADE"`
}

func (exchangeRow) TableName() string { return "exchanges" }

type revealRow struct {
	ID          uint `gorm:"primaryKey"`
	ExchangeID  uint `gorm:"index"`
	Position    int
	ItemID      string `gorm:"size:64"`
	Title       string
	ImageRef    string
	OwnerID     string `gorm:"size:64"`
	OwnerName   string
	CreatorID   string `gorm:"size:64"`
	CreatorName string
}

func (revealRow) TableName() string { return "exchange_reveals" }

// Store is the postgres-backed archive.
type Store struct {
	db *gorm.DB
}

// Open connects to postgres and migrates the archive tables.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open archive db: %w", err)
	}
	return New(db)
}

func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&exchangeRow{}, &revealRow{}); err != nil {
		return nil, fmt.Errorf("migrate archive: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Archive(ctx context.Context, rec Record) error {
	row := toRow(rec)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("archive %s: %w", rec.Code, err)
	}
	return nil
}

func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	var rows []exchangeRow
	err := s.db.WithContext(ctx).
		Preload("Reveals", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Order("finished_at desc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list exchanges: %w", err)
	}

	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, fromRow(r))
	}
	return out, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toRow(rec Record) exchangeRow {
	row := exchangeRow{
		Code:       rec.Code,
		FinishedAt: rec.FinishedAt,
		TurnOrder:  strings.Join(rec.TurnOrder, ","),
		Reveals:    make([]revealRow, 0, len(rec.Reveals)),
	}
	for _, r := range rec.Reveals {
		row.Reveals = append(row.Reveals, revealRow{
			Position:    r.Position,
			ItemID:      r.ItemID,
			Title:       r.Title,
			ImageRef:    r.ImageRef,
			OwnerID:     r.OwnerID,
			OwnerName:   r.OwnerName,
			CreatorID:   r.CreatorID,
			CreatorName: r.CreatorName,
		})
	}
	return row
}

func fromRow(row exchangeRow) Record {
	rec := Record{
		Code:       row.Code,
		FinishedAt: row.FinishedAt,
		Reveals:    make([]Reveal, 0, len(row.Reveals)),
	}
	if row.TurnOrder != "" {
		rec.TurnOrder = strings.Split(row.TurnOrder, ",")
	}
	for _, r := range row.Reveals {
		rec.Reveals = append(rec.Reveals, Reveal{
			Position:    r.Position,
			ItemID:      r.ItemID,
			Title:       r.Title,
			ImageRef:    r.ImageRef,
			OwnerID:     r.OwnerID,
			OwnerName:   r.OwnerName,
			CreatorID:   r.CreatorID,
			CreatorName: r.CreatorName,
		})
	}
	return rec
}
