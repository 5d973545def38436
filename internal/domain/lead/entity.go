package lead

import (
	"fmt"
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/fieldkit"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Stage is the lifecycle stage of a contact
type Stage string

const (
	StageLead   Stage = "lead"
	StageClient Stage = "client"
)

// IsValid reports whether s is a known stage
func (s Stage) IsValid() bool {
	return s == StageLead || s == StageClient
}

// Status is the sales status of a contact
type Status string

const (
	StatusNew           Status = "new"
	StatusNoAnswer      Status = "no_answer"
	StatusCallBack      Status = "call_back"
	StatusInterested    Status = "interested"
	StatusNotInterested Status = "not_interested"
	StatusConverted     Status = "converted"
)

// Statuses lists every sales status in pipeline order
var Statuses = []Status{
	StatusNew, StatusNoAnswer, StatusCallBack, StatusInterested, StatusNotInterested, StatusConverted,
}

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Entity is a lead or client of the brokerage
type Entity struct {
	shared.BaseAggregateRoot
	FirstName     string
	LastName      string
	Email         string
	Phone         string
	Country       string
	Language      string
	Stage         Stage
	Status        Status
	OwnerID       *uuid.UUID
	Campaign      string
	Source        string
	AccountTypeID *uuid.UUID
	Balance       decimal.Decimal
	Credit        decimal.Decimal
	FTD           bool
	FTDDate       *time.Time
	FTDAmount     decimal.Decimal
	FTW           bool
	FTWDate       *time.Time
	LastContactAt *time.Time
	ConvertedAt   *time.Time
	Notes         string
}

// NewEntityInput holds the fields accepted when a lead is created
type NewEntityInput struct {
	FirstName     string
	LastName      string
	Email         string
	Phone         string
	Country       string
	Language      string
	Campaign      string
	Source        string
	AccountTypeID *uuid.UUID
	OwnerID       *uuid.UUID
	Notes         string
}

// NewEntity creates a lead. Email or phone is required.
func NewEntity(in NewEntityInput) (*Entity, error) {
	e := &Entity{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Stage:             StageLead,
		Status:            StatusNew,
		Balance:           decimal.Zero,
		Credit:            decimal.Zero,
		FTDAmount:         decimal.Zero,
		OwnerID:           in.OwnerID,
		AccountTypeID:     in.AccountTypeID,
	}

	raw := map[string]string{
		FieldFirstName: in.FirstName,
		FieldLastName:  in.LastName,
		FieldEmail:     in.Email,
		FieldPhone:     in.Phone,
		FieldCountry:   in.Country,
		FieldLanguage:  in.Language,
		FieldCampaign:  in.Campaign,
		FieldSource:    in.Source,
		FieldNotes:     in.Notes,
	}
	for _, key := range creationOrder {
		value, err := fieldkit.NormalizeOnCommit(editableFields[key], raw[key])
		if err != nil {
			return nil, err
		}
		e.assign(key, value)
	}
	if e.Email == "" && e.Phone == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Email or phone is required")
	}

	e.AddDomainEvent(NewEntityCreatedEvent(e))
	return e, nil
}

// FullName joins first and last name
func (e *Entity) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// IsClient reports whether the contact has been converted
func (e *Entity) IsClient() bool {
	return e.Stage == StageClient
}

// Equity is balance plus credit
func (e *Entity) Equity() decimal.Decimal {
	return e.Balance.Add(e.Credit)
}

// SetField edits one field from raw input
func (e *Entity) SetField(key, raw string) error {
	spec, ok := editableFields[key]
	if !ok {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Field %q is not editable", key))
	}
	value, err := fieldkit.NormalizeOnCommit(spec, raw)
	if err != nil {
		return err
	}

	if key == FieldStatus {
		return e.ChangeStatus(Status(value.(string)))
	}

	old := e.fieldString(key)
	prevEmail, prevPhone := e.Email, e.Phone
	e.assign(key, value)
	if e.Email == "" && e.Phone == "" {
		e.Email, e.Phone = prevEmail, prevPhone
		return shared.NewDomainError("INVALID_INPUT", "Email or phone is required")
	}
	if old == e.fieldString(key) {
		return nil
	}

	e.Touch()
	e.AddDomainEvent(NewEntityUpdatedEvent(e, key, old, e.fieldString(key)))
	return nil
}

func (e *Entity) assign(key string, value any) {
	s, _ := value.(string)
	switch key {
	case FieldFirstName:
		e.FirstName = s
	case FieldLastName:
		e.LastName = s
	case FieldEmail:
		e.Email = s
	case FieldPhone:
		e.Phone = s
	case FieldCountry:
		e.Country = strings.ToUpper(s)
	case FieldLanguage:
		e.Language = strings.ToLower(s)
	case FieldCampaign:
		e.Campaign = s
	case FieldSource:
		e.Source = s
	case FieldNotes:
		e.Notes = s
	}
}

func (e *Entity) fieldString(key string) string {
	v, _ := e.Value(key)
	return fieldkit.Format(fieldkit.KindText, v)
}

// AssignOwner hands the contact to an agent
func (e *Entity) AssignOwner(ownerID uuid.UUID) error {
	if ownerID == uuid.Nil {
		return shared.NewDomainError("INVALID_INPUT", "Owner is required")
	}
	var previous *uuid.UUID
	if e.OwnerID != nil {
		if *e.OwnerID == ownerID {
			return nil
		}
		prev := *e.OwnerID
		previous = &prev
	}
	e.OwnerID = &ownerID
	e.Touch()
	e.AddDomainEvent(NewEntityAssignedEvent(e, previous, ownerID))
	return nil
}

// Unassign removes the owner
func (e *Entity) Unassign() {
	if e.OwnerID == nil {
		return
	}
	e.OwnerID = nil
	e.Touch()
}

// SetAccountType links the contact to an account type
func (e *Entity) SetAccountType(accountTypeID uuid.UUID) {
	e.AccountTypeID = &accountTypeID
	e.Touch()
}

// ChangeStatus moves the sales status. Converting is done through
// ConvertToClient; a client cannot go back to lead statuses other than
// converted.
func (e *Entity) ChangeStatus(status Status) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Invalid status %q", status))
	}
	if status == e.Status {
		return nil
	}
	if status == StatusConverted {
		return e.ConvertToClient(time.Now())
	}
	if e.IsClient() {
		return shared.NewDomainError("INVALID_STATE", "Client status cannot be changed")
	}

	old := e.Status
	e.Status = status
	e.Touch()
	e.AddDomainEvent(NewEntityStatusChangedEvent(e, old, status))
	return nil
}

// ConvertToClient turns a lead into a client
func (e *Entity) ConvertToClient(at time.Time) error {
	if e.IsClient() {
		return shared.NewDomainError("INVALID_STATE", "Contact is already a client")
	}
	old := e.Status
	e.Stage = StageClient
	e.Status = StatusConverted
	e.ConvertedAt = &at
	e.Touch()
	e.AddDomainEvent(NewEntityStatusChangedEvent(e, old, StatusConverted))
	e.AddDomainEvent(NewEntityConvertedEvent(e))
	return nil
}

// RecordContact stores the time of the latest contact attempt and an
// optional status outcome
func (e *Entity) RecordContact(at time.Time, outcome Status) error {
	if outcome != "" && outcome != e.Status {
		if err := e.ChangeStatus(outcome); err != nil {
			return err
		}
	}
	e.LastContactAt = &at
	e.Touch()
	return nil
}

// Deposit adds funds. The first deposit marks the contact FTD and converts
// a lead into a client.
func (e *Entity) Deposit(amount decimal.Decimal, at time.Time) (bool, error) {
	if err := validateAmount(amount); err != nil {
		return false, err
	}
	old := e.Balance
	e.Balance = e.Balance.Add(amount)
	first := !e.FTD
	if first {
		e.FTD = true
		e.FTDDate = &at
		e.FTDAmount = amount
		if !e.IsClient() {
			if err := e.ConvertToClient(at); err != nil {
				return false, err
			}
		}
	}
	e.Touch()
	e.AddDomainEvent(NewEntityBalanceChangedEvent(e, old, e.Balance, "deposit"))
	return first, nil
}

// Withdraw removes funds; the first withdrawal marks the contact FTW
func (e *Entity) Withdraw(amount decimal.Decimal, at time.Time) (bool, error) {
	if err := validateAmount(amount); err != nil {
		return false, err
	}
	if amount.GreaterThan(e.Balance) {
		return false, shared.NewDomainError("INSUFFICIENT_BALANCE",
			fmt.Sprintf("Withdrawal of %s exceeds balance %s", amount.StringFixed(2), e.Balance.StringFixed(2)))
	}
	old := e.Balance
	e.Balance = e.Balance.Sub(amount)
	first := !e.FTW
	if first {
		e.FTW = true
		e.FTWDate = &at
	}
	e.Touch()
	e.AddDomainEvent(NewEntityBalanceChangedEvent(e, old, e.Balance, "withdrawal"))
	return first, nil
}

// AddCredit grants bonus credit
func (e *Entity) AddCredit(amount decimal.Decimal) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	e.Credit = e.Credit.Add(amount)
	e.Touch()
	return nil
}

// RemoveCredit takes back credit; it cannot exceed the available credit
func (e *Entity) RemoveCredit(amount decimal.Decimal) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	if amount.GreaterThan(e.Credit) {
		return shared.NewDomainError("INSUFFICIENT_CREDIT",
			fmt.Sprintf("Credit out of %s exceeds available credit %s", amount.StringFixed(2), e.Credit.StringFixed(2)))
	}
	e.Credit = e.Credit.Sub(amount)
	e.Touch()
	return nil
}

// ApplyRealizedPnL books the result of a closed position. Losses may take
// the balance below zero.
func (e *Entity) ApplyRealizedPnL(pnl decimal.Decimal) {
	if pnl.IsZero() {
		return
	}
	old := e.Balance
	e.Balance = e.Balance.Add(pnl)
	e.Touch()
	e.AddDomainEvent(NewEntityBalanceChangedEvent(e, old, e.Balance, "trade"))
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_INPUT", "Amount must be greater than zero")
	}
	return nil
}
