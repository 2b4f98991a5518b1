package billing

// BulkRequest is the single batch sent to the backend for a bulk run. The
// backend is responsible for applying it atomically.
type BulkRequest struct {
	RoomIDs       []int64       `json:"room_ids"`
	BillingMonth  Month         `json:"billing_month"`
	CommonCharges []AdHocCharge `json:"common_charges"`
	Tariff        TariffConfig  `json:"tariff"`
}

// GenerateBulk produces one invoice per selected room. Every invoice ends with
// the same common charges, appended once.
func GenerateBulk(rooms []RoomChargeInput, t TariffConfig, common []AdHocCharge, month Month) ([]Invoice, error) {
	if len(rooms) == 0 {
		return nil, ErrNoRoomsSelected
	}

	invoices := make([]Invoice, 0, len(rooms))
	for _, room := range rooms {
		items := CalculateRoomCharges(room, t)
		for _, c := range common {
			items = append(items, c.LineItem())
		}
		inv := Assemble(room.RoomID, items, t.DueDayOfMonth, month)
		inv.RoomName = room.RoomName
		invoices = append(invoices, inv)
	}
	return invoices, nil
}

// NewBulkRequest validates the selection and builds the batch payload.
func NewBulkRequest(rooms []RoomChargeInput, t TariffConfig, common []AdHocCharge, month Month) (BulkRequest, error) {
	if len(rooms) == 0 {
		return BulkRequest{}, ErrNoRoomsSelected
	}
	ids := make([]int64, 0, len(rooms))
	for _, r := range rooms {
		ids = append(ids, r.RoomID)
	}
	if common == nil {
		common = []AdHocCharge{}
	}
	return BulkRequest{RoomIDs: ids, BillingMonth: month, CommonCharges: common, Tariff: t}, nil
}
