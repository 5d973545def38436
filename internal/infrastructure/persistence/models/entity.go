package models

import (
	"time"

	"github.com/crm/backend/internal/domain/lead"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntityModel is the persistence model for a lead or client.
type EntityModel struct {
	AggregateModel
	FirstName     string          `gorm:"type:varchar(100)"`
	LastName      string          `gorm:"type:varchar(100)"`
	Email         string          `gorm:"type:varchar(200);index"`
	Phone         string          `gorm:"type:varchar(32);index"`
	Country       string          `gorm:"type:varchar(100)"`
	Language      string          `gorm:"type:varchar(50)"`
	Stage         lead.Stage      `gorm:"type:varchar(20);not null;index"`
	Status        lead.Status     `gorm:"type:varchar(30);not null;index"`
	OwnerID       *uuid.UUID      `gorm:"type:uuid;index"`
	Campaign      string          `gorm:"type:varchar(100)"`
	Source        string          `gorm:"type:varchar(100)"`
	AccountTypeID *uuid.UUID      `gorm:"type:uuid"`
	Balance       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Credit        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	FTD           bool            `gorm:"column:ftd;not null"`
	FTDDate       *time.Time      `gorm:"column:ftd_date"`
	FTDAmount     decimal.Decimal `gorm:"column:ftd_amount;type:decimal(18,2);not null"`
	FTW           bool            `gorm:"column:ftw;not null"`
	FTWDate       *time.Time      `gorm:"column:ftw_date"`
	LastContactAt *time.Time
	ConvertedAt   *time.Time
	Notes         string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (EntityModel) TableName() string {
	return "entities"
}

// ToDomain converts the persistence model to a domain Entity.
func (m *EntityModel) ToDomain() *lead.Entity {
	return &lead.Entity{
		BaseAggregateRoot: m.ToAggregateRoot(),
		FirstName:         m.FirstName,
		LastName:          m.LastName,
		Email:             m.Email,
		Phone:             m.Phone,
		Country:           m.Country,
		Language:          m.Language,
		Stage:             m.Stage,
		Status:            m.Status,
		OwnerID:           m.OwnerID,
		Campaign:          m.Campaign,
		Source:            m.Source,
		AccountTypeID:     m.AccountTypeID,
		Balance:           m.Balance,
		Credit:            m.Credit,
		FTD:               m.FTD,
		FTDDate:           m.FTDDate,
		FTDAmount:         m.FTDAmount,
		FTW:               m.FTW,
		FTWDate:           m.FTWDate,
		LastContactAt:     m.LastContactAt,
		ConvertedAt:       m.ConvertedAt,
		Notes:             m.Notes,
	}
}

// FromDomain populates the persistence model from a domain Entity.
func (m *EntityModel) FromDomain(e *lead.Entity) {
	m.FromDomainAggregateRoot(e.BaseAggregateRoot)
	m.FirstName = e.FirstName
	m.LastName = e.LastName
	m.Email = e.Email
	m.Phone = e.Phone
	m.Country = e.Country
	m.Language = e.Language
	m.Stage = e.Stage
	m.Status = e.Status
	m.OwnerID = e.OwnerID
	m.Campaign = e.Campaign
	m.Source = e.Source
	m.AccountTypeID = e.AccountTypeID
	m.Balance = e.Balance
	m.Credit = e.Credit
	m.FTD = e.FTD
	m.FTDDate = e.FTDDate
	m.FTDAmount = e.FTDAmount
	m.FTW = e.FTW
	m.FTWDate = e.FTWDate
	m.LastContactAt = e.LastContactAt
	m.ConvertedAt = e.ConvertedAt
	m.Notes = e.Notes
}

// EntityModelFromDomain creates a persistence model from a domain Entity.
func EntityModelFromDomain(e *lead.Entity) *EntityModel {
	m := &EntityModel{}
	m.FromDomain(e)
	return m
}
