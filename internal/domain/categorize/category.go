// Package categorize assigns every statement transaction exactly one
// canonical spend category via an ordered cascade of matching tiers.
package categorize

// Category is one member of the closed spend-category enum shared with the
// rewards optimizer. The strings are a wire contract: they are stored,
// aggregated and consumed downstream, so existing values must never change.
type Category string

const (
	CategoryAmazon          Category = "amazon_spends"
	CategoryFlipkart        Category = "flipkart_spends"
	CategoryGroceryOnline   Category = "grocery_spends_online"
	CategoryFoodOrdering    Category = "online_food_ordering"
	CategoryDining          Category = "dining_or_going_out"
	CategoryOtherOnline     Category = "other_online_spends"
	CategoryOtherOffline    Category = "other_offline_spends"
	CategoryFlights         Category = "flights"
	CategoryHotels          Category = "hotels"
	CategoryMobileBills     Category = "mobile_phone_bills"
	CategoryElectricity     Category = "electricity_bills"
	CategoryWaterBills      Category = "water_bills"
	CategoryOTT             Category = "ott_channels"
	CategoryFuel            Category = "fuel"
	CategorySchoolFees      Category = "school_fees"
	CategoryRent            Category = "rent"
	CategoryInsuranceHealth Category = "insurance_health"
	CategoryInsuranceMotor  Category = "insurance_car_or_bike"
	CategoryElectronics     Category = "large_electronics"
	CategoryPharmacy        Category = "pharmacy"
)

// AllCategories returns every enum member in declaration order.
func AllCategories() []Category {
	return []Category{
		CategoryAmazon,
		CategoryFlipkart,
		CategoryGroceryOnline,
		CategoryFoodOrdering,
		CategoryDining,
		CategoryOtherOnline,
		CategoryOtherOffline,
		CategoryFlights,
		CategoryHotels,
		CategoryMobileBills,
		CategoryElectricity,
		CategoryWaterBills,
		CategoryOTT,
		CategoryFuel,
		CategorySchoolFees,
		CategoryRent,
		CategoryInsuranceHealth,
		CategoryInsuranceMotor,
		CategoryElectronics,
		CategoryPharmacy,
	}
}

var validCategories = func() map[Category]bool {
	m := make(map[Category]bool, len(AllCategories()))
	for _, c := range AllCategories() {
		m[c] = true
	}
	return m
}()

// Valid reports whether c is a member of the closed enum.
func (c Category) Valid() bool {
	return validCategories[c]
}

func (c Category) String() string {
	return string(c)
}

// Exclusion reasons used for transactions that must not count toward spend.
// These are histogram keys surfaced to the caller, so they are stable strings.
const (
	ReasonEMIInterest    = "EMI/Interest"
	ReasonCardPayment    = "Card payment"
	ReasonReversal       = "Reversal"
	ReasonFxMarkup       = "Fx markup fee"
	ReasonNonSpendCredit = "Non-cashback credit"
)

// Tier identifies which cascade level produced a decision.
type Tier string

const (
	TierLexical    Tier = "lexical"
	TierVendorHint Tier = "vendor_hint"
	TierContext    Tier = "context"
	TierAmountBand Tier = "amount_band"
	TierDefault    Tier = "default"
)
