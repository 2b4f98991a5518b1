package billing

// InternetPlan selects which flat internet fee a room pays.
type InternetPlan string

const (
	InternetNone  InternetPlan = ""
	InternetPlanA InternetPlan = "A"
	InternetPlanB InternetPlan = "B"
)

// TariffConfig holds the unit prices of one billing run. All amounts are in đồng.
type TariffConfig struct {
	ElectricityRatePerKwh int64 `json:"electricity_rate_per_kwh"`
	WaterRatePerOccupant  int64 `json:"water_rate_per_occupant"`
	InternetPlanAFee      int64 `json:"internet_plan_a_fee"`
	InternetPlanBFee      int64 `json:"internet_plan_b_fee"`
	TrashFee              int64 `json:"trash_fee"`
	ParkingFeePerVehicle  int64 `json:"parking_fee_per_vehicle"`
	DueDayOfMonth         int   `json:"due_day_of_month"`
}

const (
	DefaultElectricityRate int64 = 3500
	DefaultWaterRate       int64 = 60000
	DefaultInternetPlanA   int64 = 50000
	DefaultInternetPlanB   int64 = 100000
	DefaultTrashFee        int64 = 40000
	DefaultParkingFee      int64 = 100000
	DefaultDueDayOfMonth   int   = 5
)

// DefaultTariff returns the hardcoded tariff shown when the operator opens the
// bulk invoice form.
func DefaultTariff() TariffConfig {
	return TariffConfig{
		ElectricityRatePerKwh: DefaultElectricityRate,
		WaterRatePerOccupant:  DefaultWaterRate,
		InternetPlanAFee:      DefaultInternetPlanA,
		InternetPlanBFee:      DefaultInternetPlanB,
		TrashFee:              DefaultTrashFee,
		ParkingFeePerVehicle:  DefaultParkingFee,
		DueDayOfMonth:         DefaultDueDayOfMonth,
	}
}

// InternetFee returns the flat fee for the given plan, 0 when the room has none.
func (t TariffConfig) InternetFee(plan InternetPlan) int64 {
	switch plan {
	case InternetPlanA:
		return t.InternetPlanAFee
	case InternetPlanB:
		return t.InternetPlanBFee
	default:
		return 0
	}
}
