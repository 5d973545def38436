package listview

import (
	"github.com/crm/backend/internal/domain/accounttype"
	"github.com/crm/backend/internal/domain/lead"
	"github.com/crm/backend/internal/domain/listview"
)

// Table keys
const (
	TableLeads           = "leads"
	TableClients         = "clients"
	TableOpenPositions   = "open-positions"
	TableClosedPositions = "closed-positions"
	TableTransactions    = "transactions"
	TableUsers           = "users"
)

func text(key, label string, visible bool) listview.ColumnDef {
	return listview.ColumnDef{Key: key, Label: label, Type: listview.TypeText, DefaultVisible: visible, Sortable: true}
}

func number(key, label string, visible bool) listview.ColumnDef {
	return listview.ColumnDef{Key: key, Label: label, Type: listview.TypeNumber, DefaultVisible: visible, Sortable: true}
}

func money(key, label string, visible bool) listview.ColumnDef {
	return listview.ColumnDef{Key: key, Label: label, Type: listview.TypeMoney, DefaultVisible: visible, Sortable: true}
}

func date(key, label string, visible bool) listview.ColumnDef {
	return listview.ColumnDef{Key: key, Label: label, Type: listview.TypeDate, DefaultVisible: visible, Sortable: true}
}

func boolean(key, label string, visible bool) listview.ColumnDef {
	return listview.ColumnDef{Key: key, Label: label, Type: listview.TypeBoolean, DefaultVisible: visible, Sortable: true}
}

func choice(key, label string, visible bool, options ...string) listview.ColumnDef {
	return listview.ColumnDef{Key: key, Label: label, Type: listview.TypeSelect, Options: options, DefaultVisible: visible, Sortable: true}
}

func leadStatuses() []string {
	out := make([]string, len(lead.Statuses))
	for i, s := range lead.Statuses {
		out[i] = string(s)
	}
	return out
}

func assetClasses() []string {
	out := make([]string, len(accounttype.AssetClasses))
	for i, c := range accounttype.AssetClasses {
		out[i] = string(c)
	}
	return out
}

// NewRegistry returns the column catalogue of every CRM list
func NewRegistry() *listview.Registry {
	notes := text(lead.FieldNotes, "Notes", false)
	notes.Sortable = false

	return listview.NewRegistry(
		listview.Table{Key: TableLeads, Label: "Leads", Columns: []listview.ColumnDef{
			text(lead.FieldFullName, "Name", true),
			text(lead.FieldFirstName, "First name", false),
			text(lead.FieldLastName, "Last name", false),
			text(lead.FieldEmail, "Email", true),
			text(lead.FieldPhone, "Phone", true),
			text(lead.FieldCountry, "Country", true),
			text(lead.FieldLanguage, "Language", false),
			choice(lead.FieldStatus, "Status", true, leadStatuses()...),
			text(lead.FieldOwnerID, "Owner", false),
			text(lead.FieldCampaign, "Campaign", true),
			text(lead.FieldSource, "Source", false),
			date(lead.FieldLastContactAt, "Last contact", true),
			date(lead.FieldCreatedAt, "Created", true),
			notes,
		}},
		listview.Table{Key: TableClients, Label: "Clients", Columns: []listview.ColumnDef{
			text(lead.FieldFullName, "Name", true),
			text(lead.FieldEmail, "Email", true),
			text(lead.FieldPhone, "Phone", false),
			text(lead.FieldCountry, "Country", true),
			choice(lead.FieldStatus, "Status", false, leadStatuses()...),
			money(lead.FieldBalance, "Balance", true),
			money(lead.FieldCredit, "Credit", true),
			money(lead.FieldEquity, "Equity", true),
			boolean(lead.FieldFTD, "FTD", true),
			date(lead.FieldFTDDate, "FTD date", true),
			money(lead.FieldFTDAmount, "FTD amount", false),
			boolean(lead.FieldFTW, "FTW", false),
			date(lead.FieldFTWDate, "FTW date", false),
			text(lead.FieldOwnerID, "Owner", false),
			text(lead.FieldAccountTypeID, "Account type", false),
			text(lead.FieldCampaign, "Campaign", false),
			date(lead.FieldConvertedAt, "Converted", true),
			date(lead.FieldCreatedAt, "Created", false),
		}},
		listview.Table{Key: TableOpenPositions, Label: "Open positions", Columns: []listview.ColumnDef{
			text("symbol", "Symbol", true),
			choice("asset_class", "Asset class", true, assetClasses()...),
			choice("side", "Side", true, "buy", "sell"),
			number("volume", "Volume", true),
			number("leverage", "Leverage", false),
			number("open_price", "Open price", true),
			number("current_price", "Current price", true),
			number("stop_loss", "Stop loss", false),
			number("take_profit", "Take profit", false),
			money("commission", "Commission", false),
			money("swap", "Swap", false),
			money("pnl", "P/L", true),
			text("entity_id", "Client", false),
			date("opened_at", "Opened", true),
		}},
		listview.Table{Key: TableClosedPositions, Label: "Closed positions", Columns: []listview.ColumnDef{
			text("symbol", "Symbol", true),
			choice("asset_class", "Asset class", false, assetClasses()...),
			choice("side", "Side", true, "buy", "sell"),
			number("volume", "Volume", true),
			number("open_price", "Open price", true),
			number("close_price", "Close price", true),
			money("commission", "Commission", false),
			money("swap", "Swap", false),
			money("pnl", "P/L", true),
			choice("close_reason", "Close reason", true, "manual", "stop_loss", "take_profit"),
			text("entity_id", "Client", false),
			date("opened_at", "Opened", false),
			date("closed_at", "Closed", true),
		}},
		listview.Table{Key: TableTransactions, Label: "Transactions", Columns: []listview.ColumnDef{
			date("created_at", "Date", true),
			choice("type", "Type", true, "deposit", "withdrawal", "credit_in", "credit_out"),
			choice("status", "Status", true, "pending", "approved", "rejected"),
			money("amount", "Amount", true),
			text("currency", "Currency", true),
			boolean("is_ftd", "FTD", true),
			boolean("is_ftw", "FTW", false),
			text("reference", "Reference", false),
			text("comment", "Comment", false),
			text("gateway_id", "Gateway", false),
			text("entity_id", "Client", false),
			date("processed_at", "Processed", false),
			text("reject_reason", "Reject reason", false),
		}},
		listview.Table{Key: TableUsers, Label: "Users", Columns: []listview.ColumnDef{
			text("full_name", "Name", true),
			text("email", "Email", true),
			choice("role", "Role", true, "admin", "manager", "agent"),
			choice("status", "Status", true, "active", "disabled"),
			boolean("locked", "Locked", false),
			date("last_login_at", "Last login", true),
			date("created_at", "Created", false),
		}},
	)
}
