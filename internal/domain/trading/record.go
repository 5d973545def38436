package trading

// Value implements listview.Record
func (p *Position) Value(field string) (any, bool) {
	switch field {
	case "id":
		return p.ID.String(), true
	case "entity_id":
		return p.EntityID.String(), true
	case "symbol":
		return p.Symbol, true
	case "asset_class":
		return string(p.AssetClass), true
	case "side":
		return string(p.Side), true
	case "volume":
		return p.Volume, true
	case "leverage":
		return p.Leverage, true
	case "open_price":
		return p.OpenPrice, true
	case "current_price":
		return p.CurrentPrice, true
	case "close_price":
		if !p.IsClosed() {
			return nil, true
		}
		return p.ClosePrice, true
	case "stop_loss":
		return p.StopLoss, true
	case "take_profit":
		return p.TakeProfit, true
	case "commission":
		return p.Commission, true
	case "swap":
		return p.Swap, true
	case "pnl":
		return p.FloatingPnL(), true
	case "status":
		return string(p.Status), true
	case "close_reason":
		return string(p.CloseReason), true
	case "opened_at":
		return p.OpenedAt, true
	case "closed_at":
		return p.ClosedAt, true
	}
	return nil, false
}
