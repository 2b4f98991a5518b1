package billing

import (
	"fmt"
	"time"
)

// ItemType tags a line item so renderers can label it in any language.
type ItemType string

const (
	ItemRent        ItemType = "rent"
	ItemElectricity ItemType = "electricity"
	ItemWater       ItemType = "water"
	ItemInternet    ItemType = "internet"
	ItemTrash       ItemType = "trash"
	ItemParking     ItemType = "parking"
	ItemAdHoc       ItemType = "ad_hoc"
)

// ChargeLineItem is one priced component of an invoice.
type ChargeLineItem struct {
	Type        ItemType `json:"item_type"`
	Description string   `json:"description"`
	Quantity    int64    `json:"quantity"`
	UnitPrice   int64    `json:"unit_price"`
	Amount      int64    `json:"amount"`
}

// AdHocCharge is a manually entered extra charge such as a repair fee.
type AdHocCharge struct {
	ID          string    `json:"id"`
	Description string    `json:"description" validate:"required"`
	Amount      int64     `json:"amount" validate:"gt=0"`
	Date        time.Time `json:"date"`
}

// LineItem converts the charge into a flat line item.
func (c AdHocCharge) LineItem() ChargeLineItem {
	return ChargeLineItem{
		Type:        ItemAdHoc,
		Description: c.Description,
		Quantity:    1,
		UnitPrice:   c.Amount,
		Amount:      c.Amount,
	}
}

// RoomChargeInput is one room's profile and consumption for one billing cycle.
//
// TrashIncluded defaults to true when omitted. A room with no occupants is
// never charged trash, whatever TrashIncluded says.
type RoomChargeInput struct {
	RoomID              int64         `json:"room_id"`
	RoomName            string        `json:"room_name,omitempty"`
	RentAmount          int64         `json:"rent_amount"`
	ElectricityUsageKwh int64         `json:"electricity_usage_kwh"`
	OccupantCount       int64         `json:"occupant_count"`
	InternetPlan        InternetPlan  `json:"internet_plan"`
	ParkingVehicleCount int64         `json:"parking_vehicle_count"`
	TrashIncluded       *bool         `json:"trash_included,omitempty"`
	AdHocCharges        []AdHocCharge `json:"ad_hoc_charges,omitempty"`
}

// includesTrash is true unless trash was explicitly switched off for the room.
// A vacant room produces no trash and is never charged for it.
func (in RoomChargeInput) includesTrash() bool {
	if in.OccupantCount <= 0 {
		return false
	}
	return in.TrashIncluded == nil || *in.TrashIncluded
}

func metered(t ItemType, desc string, qty, unit int64) ChargeLineItem {
	return ChargeLineItem{Type: t, Description: desc, Quantity: qty, UnitPrice: unit, Amount: qty * unit}
}

func flat(t ItemType, desc string, fee int64) ChargeLineItem {
	return ChargeLineItem{Type: t, Description: desc, Quantity: 1, UnitPrice: fee, Amount: fee}
}

// CalculateRoomCharges prices one room against the tariff. Items with a zero
// quantity or fee are left out rather than listed with amount 0.
func CalculateRoomCharges(in RoomChargeInput, t TariffConfig) []ChargeLineItem {
	items := []ChargeLineItem{}

	if in.RentAmount > 0 {
		items = append(items, flat(ItemRent, "Rent", in.RentAmount))
	}
	if in.ElectricityUsageKwh > 0 {
		items = append(items, metered(ItemElectricity, "Electricity", in.ElectricityUsageKwh, t.ElectricityRatePerKwh))
	}
	if in.OccupantCount > 0 {
		items = append(items, metered(ItemWater, "Water", in.OccupantCount, t.WaterRatePerOccupant))
	}
	if fee := t.InternetFee(in.InternetPlan); fee > 0 {
		items = append(items, flat(ItemInternet, fmt.Sprintf("Internet (plan %s)", in.InternetPlan), fee))
	}
	if in.includesTrash() && t.TrashFee > 0 {
		items = append(items, flat(ItemTrash, "Trash", t.TrashFee))
	}
	if in.ParkingVehicleCount > 0 {
		items = append(items, metered(ItemParking, "Parking", in.ParkingVehicleCount, t.ParkingFeePerVehicle))
	}

	for _, c := range in.AdHocCharges {
		items = append(items, c.LineItem())
	}
	return items
}

// Sum adds up the amounts of the given items.
func Sum(items []ChargeLineItem) int64 {
	var total int64
	for _, it := range items {
		total += it.Amount
	}
	return total
}
