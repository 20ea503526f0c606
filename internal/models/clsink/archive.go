package clsink

import (
	"context"
	"fmt"
	"time"

	"resumetracker/internal/gormzerologger"
	"resumetracker/internal/models/clconfig"
	"resumetracker/internal/models/clvisit"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// ArchivedVisit est une visite archivée en base
type ArchivedVisit struct {
	ID           uint64    `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	IPAddress    string    `gorm:"index" json:"ip_address"`
	Email        string    `gorm:"index" json:"email"`
	EmailDomain  string    `json:"email_domain"`
	Company      string    `json:"company"`
	EmailSource  string    `json:"email_source"`
	City         string    `json:"city"`
	Region       string    `json:"region"`
	Country      string    `gorm:"index" json:"country"`
	CountryCode  string    `json:"country_code"`
	Latitude     *float64  `json:"latitude"`
	Longitude    *float64  `json:"longitude"`
	Postal       string    `json:"postal"`
	Timezone     string    `json:"timezone"`
	Org          string    `json:"org"`
	ASN          string    `json:"asn"`
	Browser      string    `json:"browser"`
	OS           string    `json:"os"`
	Device       string    `json:"device"`
	DeviceType   string    `json:"device_type"`
	VisitorType  string    `gorm:"index" json:"visitor_type"`
	Language     string    `json:"language"`
	Encoding     string    `json:"encoding"`
	Referrer     string    `gorm:"type:text" json:"referrer"`
	UserAgent    string    `gorm:"type:text" json:"user_agent"`
	ProcessingMs int64     `json:"processing_ms"`
}

func (ArchivedVisit) TableName() string {
	return "visits"
}

// Archive recopie chaque visite dans sqlite ou mysql
type Archive struct {
	db *gorm.DB
}

// OpenArchive ouvre la base configurée
func OpenArchive(cfg clconfig.ArchiveConfig, logLevel string) (*Archive, error) {
	gormConfig := &gorm.Config{Logger: gormzerologger.New(logLevel, ArchivedVisit{}.TableName())}

	var db *gorm.DB
	var err error
	switch cfg.Db {
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(cfg.Path), gormConfig)
	case "mysql":
		db, err = gorm.Open(mysql.Open(cfg.Dsn), gormConfig)
	default:
		err = fmt.Errorf("le type de database doit etre sqlite ou mysql")
	}
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	return NewArchive(db)
}

// NewArchive migre la table sur une connexion existante
func NewArchive(db *gorm.DB) (*Archive, error) {
	if err := db.AutoMigrate(&ArchivedVisit{}); err != nil {
		return nil, fmt.Errorf("migrate archive: %w", err)
	}
	return &Archive{db: db}, nil
}

func (a *Archive) Name() string {
	return "archive"
}

func (a *Archive) Append(ctx context.Context, rec clvisit.Record) error {
	visit := ArchivedVisit{
		CreatedAt:    rec.Timestamp,
		IPAddress:    rec.IP,
		Email:        rec.Email,
		EmailDomain:  rec.EmailDomain,
		Company:      rec.Company,
		EmailSource:  rec.EmailSource,
		City:         rec.Geo.City,
		Region:       rec.Geo.Region,
		Country:      rec.Geo.Country,
		CountryCode:  rec.Geo.CountryCode,
		Latitude:     rec.Geo.Latitude,
		Longitude:    rec.Geo.Longitude,
		Postal:       rec.Geo.Postal,
		Timezone:     rec.Geo.Timezone,
		Org:          rec.Geo.Org,
		ASN:          rec.Geo.ASN,
		Browser:      rec.Browser,
		OS:           rec.OS,
		Device:       rec.Device,
		DeviceType:   rec.DeviceType,
		VisitorType:  rec.VisitorType,
		Language:     rec.Language,
		Encoding:     rec.Encoding,
		Referrer:     rec.Referrer,
		UserAgent:    rec.UserAgent,
		ProcessingMs: rec.Duration.Milliseconds(),
	}
	return a.db.WithContext(ctx).Create(&visit).Error
}

// Purge supprime les visites antérieures à before
func (a *Archive) Purge(before time.Time) (int64, error) {
	result := a.db.Where("created_at < ?", before).Delete(&ArchivedVisit{})
	return result.RowsAffected, result.Error
}

func (a *Archive) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
