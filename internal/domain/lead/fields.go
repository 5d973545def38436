package lead

import "github.com/crm/backend/internal/domain/fieldkit"

// Field keys shared by SetField, list columns and email template variables
const (
	FieldID            = "id"
	FieldFirstName     = "first_name"
	FieldLastName      = "last_name"
	FieldFullName      = "full_name"
	FieldEmail         = "email"
	FieldPhone         = "phone"
	FieldCountry       = "country"
	FieldLanguage      = "language"
	FieldStage         = "stage"
	FieldStatus        = "status"
	FieldOwnerID       = "owner_id"
	FieldCampaign      = "campaign"
	FieldSource        = "source"
	FieldAccountTypeID = "account_type_id"
	FieldBalance       = "balance"
	FieldCredit        = "credit"
	FieldEquity        = "equity"
	FieldFTD           = "ftd"
	FieldFTDDate       = "ftd_date"
	FieldFTDAmount     = "ftd_amount"
	FieldFTW           = "ftw"
	FieldFTWDate       = "ftw_date"
	FieldLastContactAt = "last_contact_at"
	FieldConvertedAt   = "converted_at"
	FieldCreatedAt     = "created_at"
	FieldNotes         = "notes"
)

var editableFields = map[string]fieldkit.Spec{
	FieldFirstName: {Key: FieldFirstName, Label: "First name", Kind: fieldkit.KindText, MaxLength: 100},
	FieldLastName:  {Key: FieldLastName, Label: "Last name", Kind: fieldkit.KindText, MaxLength: 100},
	FieldEmail:     {Key: FieldEmail, Label: "Email", Kind: fieldkit.KindEmail},
	FieldPhone:     {Key: FieldPhone, Label: "Phone", Kind: fieldkit.KindPhone},
	FieldCountry:   {Key: FieldCountry, Label: "Country", Kind: fieldkit.KindText, MaxLength: 2},
	FieldLanguage:  {Key: FieldLanguage, Label: "Language", Kind: fieldkit.KindText, MaxLength: 10},
	FieldCampaign:  {Key: FieldCampaign, Label: "Campaign", Kind: fieldkit.KindText, MaxLength: 100},
	FieldSource:    {Key: FieldSource, Label: "Source", Kind: fieldkit.KindText, MaxLength: 100},
	FieldNotes:     {Key: FieldNotes, Label: "Notes", Kind: fieldkit.KindTextarea, MaxLength: 4000},
	FieldStatus:    {Key: FieldStatus, Label: "Status", Kind: fieldkit.KindSelect, Required: true, Options: statusOptions()},
}

var creationOrder = []string{
	FieldFirstName, FieldLastName, FieldEmail, FieldPhone, FieldCountry,
	FieldLanguage, FieldCampaign, FieldSource, FieldNotes,
}

func statusOptions() []string {
	out := make([]string, len(Statuses))
	for i, s := range Statuses {
		out[i] = string(s)
	}
	return out
}

// EditableFields returns the specs of the fields SetField accepts, in form order
func EditableFields() []fieldkit.Spec {
	out := make([]fieldkit.Spec, 0, len(editableFields))
	for _, key := range creationOrder {
		out = append(out, editableFields[key])
	}
	return append(out, editableFields[FieldStatus])
}

// Value implements listview.Record
func (e *Entity) Value(field string) (any, bool) {
	switch field {
	case FieldID:
		return e.ID.String(), true
	case FieldFirstName:
		return e.FirstName, true
	case FieldLastName:
		return e.LastName, true
	case FieldFullName:
		return e.FullName(), true
	case FieldEmail:
		return e.Email, true
	case FieldPhone:
		return e.Phone, true
	case FieldCountry:
		return e.Country, true
	case FieldLanguage:
		return e.Language, true
	case FieldStage:
		return string(e.Stage), true
	case FieldStatus:
		return string(e.Status), true
	case FieldOwnerID:
		if e.OwnerID == nil {
			return nil, true
		}
		return e.OwnerID.String(), true
	case FieldCampaign:
		return e.Campaign, true
	case FieldSource:
		return e.Source, true
	case FieldAccountTypeID:
		if e.AccountTypeID == nil {
			return nil, true
		}
		return e.AccountTypeID.String(), true
	case FieldBalance:
		return e.Balance, true
	case FieldCredit:
		return e.Credit, true
	case FieldEquity:
		return e.Equity(), true
	case FieldFTD:
		return e.FTD, true
	case FieldFTDDate:
		return e.FTDDate, true
	case FieldFTDAmount:
		if !e.FTD {
			return nil, true
		}
		return e.FTDAmount, true
	case FieldFTW:
		return e.FTW, true
	case FieldFTWDate:
		return e.FTWDate, true
	case FieldLastContactAt:
		return e.LastContactAt, true
	case FieldConvertedAt:
		return e.ConvertedAt, true
	case FieldCreatedAt:
		return e.CreatedAt, true
	case FieldNotes:
		return e.Notes, true
	}
	return nil, false
}
