package billing

import (
	"errors"
	"testing"
)

func TestGenerateBulk(t *testing.T) {
	rooms := []RoomChargeInput{
		{RoomID: 1, RoomName: "P101", RentAmount: 3000000, ElectricityUsageKwh: 80, OccupantCount: 1},
		{RoomID: 2, RoomName: "P102", RentAmount: 3500000, ElectricityUsageKwh: 120, OccupantCount: 2, InternetPlan: InternetPlanB},
		{RoomID: 3, RoomName: "P201", RentAmount: 4000000, OccupantCount: 3, ParkingVehicleCount: 1},
	}
	common := []AdHocCharge{
		{ID: "c1", Description: "Stairwell painting", Amount: 100000},
		{ID: "c2", Description: "Water pump repair", Amount: 25000},
	}

	invoices, err := GenerateBulk(rooms, DefaultTariff(), common, Month{Year: 2024, Month: 6})
	if err != nil {
		t.Fatalf("GenerateBulk: %v", err)
	}
	if len(invoices) != len(rooms) {
		t.Fatalf("Expected %d invoices, got %d", len(rooms), len(invoices))
	}

	for i, inv := range invoices {
		if inv.RoomID != rooms[i].RoomID || inv.RoomName != rooms[i].RoomName {
			t.Errorf("invoice %d belongs to room %d, expected %d", i, inv.RoomID, rooms[i].RoomID)
		}

		personal := CalculateRoomCharges(rooms[i], DefaultTariff())
		if len(inv.LineItems) != len(personal)+len(common) {
			t.Fatalf("room %d: expected %d items, got %d", inv.RoomID, len(personal)+len(common), len(inv.LineItems))
		}
		for j, it := range personal {
			if inv.LineItems[j] != it {
				t.Errorf("room %d item %d: expected %+v, got %+v", inv.RoomID, j, it, inv.LineItems[j])
			}
		}
		tail := inv.LineItems[len(personal):]
		for j, c := range common {
			if tail[j] != c.LineItem() {
				t.Errorf("room %d common charge %d: expected %+v, got %+v", inv.RoomID, j, c.LineItem(), tail[j])
			}
		}

		if err := inv.Verify(); err != nil {
			t.Errorf("room %d: %v", inv.RoomID, err)
		}
	}

	if invoices[0].TotalAmount == invoices[1].TotalAmount {
		t.Error("Expected personalised totals per room")
	}
}

func TestGenerateBulk_NoRooms(t *testing.T) {
	if _, err := GenerateBulk(nil, DefaultTariff(), nil, Month{2024, 6}); !errors.Is(err, ErrNoRoomsSelected) {
		t.Errorf("Expected ErrNoRoomsSelected, got %v", err)
	}
	if _, err := NewBulkRequest([]RoomChargeInput{}, DefaultTariff(), nil, Month{2024, 6}); !errors.Is(err, ErrNoRoomsSelected) {
		t.Errorf("Expected ErrNoRoomsSelected, got %v", err)
	}
}

func TestNewBulkRequest(t *testing.T) {
	rooms := []RoomChargeInput{{RoomID: 4}, {RoomID: 9}}
	req, err := NewBulkRequest(rooms, DefaultTariff(), nil, Month{2024, 6})
	if err != nil {
		t.Fatalf("NewBulkRequest: %v", err)
	}
	if len(req.RoomIDs) != 2 || req.RoomIDs[0] != 4 || req.RoomIDs[1] != 9 {
		t.Errorf("Unexpected room IDs %v", req.RoomIDs)
	}
	if req.CommonCharges == nil {
		t.Error("Common charges must encode as an empty list, not null")
	}
}
