package categorize

import "github.com/shopspring/decimal"

// KeywordEntry maps a strong merchant or platform token to its category.
// Strong tokens are long enough that a substring hit is unambiguous.
type KeywordEntry struct {
	Pattern  string
	Category Category
}

// WeakRule is a short or collision-prone token that is only trusted when a
// second signal corroborates it. "RENT" alone matches "CURRENT"; "JIO" alone
// matches "JIOMART". Without corroboration the rule is rejected and the
// description falls through to the next tier.
type WeakRule struct {
	Token      string   // must appear as a standalone word
	Category   Category
	Companions []string // any companion keyword corroborates
	AmountMin  decimal.Decimal
	AmountMax  decimal.Decimal // zero means no amount band configured
}

// defaultKeywordTable returns the built-in strong merchant keyword table.
// Loaded once at startup and never mutated. Patterns are matched
// case-insensitively as substrings of the raw description.
func defaultKeywordTable() []KeywordEntry {
	return []KeywordEntry{
		// Marketplaces
		{"AMAZON", CategoryAmazon},
		{"AMZN", CategoryAmazon},
		{"FLIPKART", CategoryFlipkart},
		{"FKRT", CategoryFlipkart},

		// Online grocery
		{"BIGBASKET", CategoryGroceryOnline},
		{"BLINKIT", CategoryGroceryOnline},
		{"GROFERS", CategoryGroceryOnline},
		{"ZEPTO", CategoryGroceryOnline},
		{"INSTAMART", CategoryGroceryOnline},
		{"JIOMART", CategoryGroceryOnline},
		{"NATURES BASKET", CategoryGroceryOnline},
		{"DMART READY", CategoryGroceryOnline},

		// Food delivery
		{"SWIGGY", CategoryFoodOrdering},
		{"ZOMATO", CategoryFoodOrdering},
		{"EATSURE", CategoryFoodOrdering},
		{"EATCLUB", CategoryFoodOrdering},
		{"FAASOS", CategoryFoodOrdering},

		// Dining out
		{"MCDONALD", CategoryDining},
		{"BURGER KING", CategoryDining},
		{"KFC", CategoryDining},
		{"DOMINOS", CategoryDining},
		{"PIZZA HUT", CategoryDining},
		{"SUBWAY", CategoryDining},
		{"STARBUCKS", CategoryDining},
		{"CAFE COFFEE DAY", CategoryDining},
		{"BARBEQUE NATION", CategoryDining},
		{"HALDIRAM", CategoryDining},

		// Other online platforms
		{"MYNTRA", CategoryOtherOnline},
		{"AJIO", CategoryOtherOnline},
		{"NYKAA", CategoryOtherOnline},
		{"MEESHO", CategoryOtherOnline},
		{"SNAPDEAL", CategoryOtherOnline},
		{"TATACLIQ", CategoryOtherOnline},
		{"IRCTC", CategoryOtherOnline},
		{"BOOKMYSHOW", CategoryOtherOnline},

		// Flights and travel portals
		{"INDIGO", CategoryFlights},
		{"AIR INDIA", CategoryFlights},
		{"SPICEJET", CategoryFlights},
		{"VISTARA", CategoryFlights},
		{"AKASA", CategoryFlights},
		{"MAKEMYTRIP", CategoryFlights},
		{"GOIBIBO", CategoryFlights},
		{"CLEARTRIP", CategoryFlights},
		{"EASEMYTRIP", CategoryFlights},
		{"IXIGO", CategoryFlights},

		// Hotels
		{"OYO", CategoryHotels},
		{"TREEBO", CategoryHotels},
		{"FABHOTEL", CategoryHotels},
		{"AIRBNB", CategoryHotels},
		{"MARRIOTT", CategoryHotels},
		{"RADISSON", CategoryHotels},
		{"TAJ HOTELS", CategoryHotels},
		{"LEMON TREE", CategoryHotels},
		{"ITC HOTEL", CategoryHotels},

		// Telecom
		{"AIRTEL", CategoryMobileBills},
		{"VODAFONE", CategoryMobileBills},
		{"JIO PREPAID", CategoryMobileBills},
		{"JIO POSTPAID", CategoryMobileBills},
		{"BSNL", CategoryMobileBills},

		// Electricity boards
		{"BESCOM", CategoryElectricity},
		{"MSEDCL", CategoryElectricity},
		{"TATA POWER", CategoryElectricity},
		{"BSES RAJDHANI", CategoryElectricity},
		{"BSES YAMUNA", CategoryElectricity},
		{"CESC", CategoryElectricity},
		{"TNEB", CategoryElectricity},
		{"ADANI ELECTRICITY", CategoryElectricity},

		// Water boards
		{"BWSSB", CategoryWaterBills},
		{"DELHI JAL", CategoryWaterBills},
		{"WATER BOARD", CategoryWaterBills},

		// Streaming
		{"NETFLIX", CategoryOTT},
		{"HOTSTAR", CategoryOTT},
		{"DISNEY", CategoryOTT},
		{"PRIME VIDEO", CategoryOTT},
		{"SONYLIV", CategoryOTT},
		{"ZEE5", CategoryOTT},
		{"SPOTIFY", CategoryOTT},
		{"YOUTUBE PREMIUM", CategoryOTT},

		// Fuel
		{"INDIAN OIL", CategoryFuel},
		{"IOCL", CategoryFuel},
		{"HPCL", CategoryFuel},
		{"BPCL", CategoryFuel},
		{"BHARAT PETROLEUM", CategoryFuel},
		{"HINDUSTAN PETROLEUM", CategoryFuel},
		{"SHELL PETROL", CategoryFuel},
		{"PETROL PUMP", CategoryFuel},

		// Education
		{"SCHOOL FEE", CategorySchoolFees},
		{"TUITION", CategorySchoolFees},
		{"VIDYALAYA", CategorySchoolFees},

		// Rent platforms
		{"NOBROKER", CategoryRent},
		{"NESTAWAY", CategoryRent},

		// Insurance
		{"STAR HEALTH", CategoryInsuranceHealth},
		{"NIVA BUPA", CategoryInsuranceHealth},
		{"CARE HEALTH", CategoryInsuranceHealth},
		{"ADITYA BIRLA HEALTH", CategoryInsuranceHealth},
		{"ACKO", CategoryInsuranceMotor},
		{"ICICI LOMBARD", CategoryInsuranceMotor},
		{"BAJAJ ALLIANZ", CategoryInsuranceMotor},
		{"GO DIGIT", CategoryInsuranceMotor},

		// Electronics chains
		{"CROMA", CategoryElectronics},
		{"RELIANCE DIGITAL", CategoryElectronics},
		{"VIJAY SALES", CategoryElectronics},
		{"APPLE STORE", CategoryElectronics},

		// Pharmacies
		{"APOLLO PHARMACY", CategoryPharmacy},
		{"PHARMEASY", CategoryPharmacy},
		{"NETMEDS", CategoryPharmacy},
		{"TATA 1MG", CategoryPharmacy},
		{"MEDPLUS", CategoryPharmacy},
		{"WELLNESS FOREVER", CategoryPharmacy},
	}
}

// defaultWeakRules returns the built-in collision-prone token rules.
func defaultWeakRules() []WeakRule {
	return []WeakRule{
		{
			Token:      "RENT",
			Category:   CategoryRent,
			Companions: []string{"HOUSE", "FLAT", "LANDLORD", "LEASE"},
			AmountMin:  decimal.NewFromInt(5000),
			AmountMax:  decimal.NewFromInt(200000),
		},
		{
			Token:      "JIO",
			Category:   CategoryMobileBills,
			Companions: []string{"RECHARGE", "PREPAID", "POSTPAID", "MOBILE"},
			AmountMin:  decimal.NewFromInt(10),
			AmountMax:  decimal.NewFromInt(3000),
		},
		{
			Token:      "BB",
			Category:   CategoryGroceryOnline,
			Companions: []string{"DAILY", "BASKET", "GROCERY"},
		},
		{
			Token:      "HP",
			Category:   CategoryFuel,
			Companions: []string{"PETROL", "FUEL", "FILLING"},
		},
		{
			Token:      "MMT",
			Category:   CategoryFlights,
			Companions: []string{"FLIGHT", "TRAVEL", "TRIP"},
		},
	}
}

// VendorMapping translates a source-provided category hint into either a
// canonical category or a non-spend exclusion signal.
type VendorMapping struct {
	Hint     string   `csv:"hint"`     // uppercase vendor category, optionally "CATEGORY/SUBCATEGORY"
	Category Category `csv:"category"` // empty when the entry is non-spend
	Exclude  bool     `csv:"exclude"`
	Reason   string   `csv:"reason"` // exclusion reason when Exclude is set
}

// defaultVendorMap returns the built-in bank-agnostic vendor-hint table.
func defaultVendorMap() []VendorMapping {
	return []VendorMapping{
		{Hint: "RESTAURANT", Category: CategoryDining},
		{Hint: "FOOD", Category: CategoryDining},
		{Hint: "FOOD DELIVERY", Category: CategoryFoodOrdering},
		{Hint: "GROCERY", Category: CategoryGroceryOnline},
		{Hint: "SUPERMARKET", Category: CategoryGroceryOnline},
		{Hint: "FUEL", Category: CategoryFuel},
		{Hint: "PETROL", Category: CategoryFuel},
		{Hint: "AIRLINE", Category: CategoryFlights},
		{Hint: "TRAVEL/AIRLINE", Category: CategoryFlights},
		{Hint: "HOTEL", Category: CategoryHotels},
		{Hint: "LODGING", Category: CategoryHotels},
		{Hint: "TELECOM", Category: CategoryMobileBills},
		{Hint: "MOBILE", Category: CategoryMobileBills},
		{Hint: "ELECTRICITY", Category: CategoryElectricity},
		{Hint: "UTILITY/ELECTRIC", Category: CategoryElectricity},
		{Hint: "UTILITY/WATER", Category: CategoryWaterBills},
		{Hint: "ENTERTAINMENT", Category: CategoryOTT},
		{Hint: "STREAMING", Category: CategoryOTT},
		{Hint: "EDUCATION", Category: CategorySchoolFees},
		{Hint: "INSURANCE", Category: CategoryInsuranceHealth},
		{Hint: "INSURANCE/HEALTH", Category: CategoryInsuranceHealth},
		{Hint: "INSURANCE/MOTOR", Category: CategoryInsuranceMotor},
		{Hint: "ELECTRONICS", Category: CategoryElectronics},
		{Hint: "PHARMACY", Category: CategoryPharmacy},
		{Hint: "HEALTHCARE", Category: CategoryPharmacy},
		{Hint: "SHOPPING", Category: CategoryOtherOnline},
		{Hint: "RENT", Category: CategoryRent},

		// Non-spend entries map to an exclusion signal, never to a guess.
		{Hint: "EMI", Exclude: true, Reason: ReasonEMIInterest},
		{Hint: "LOAN", Exclude: true, Reason: ReasonEMIInterest},
		{Hint: "INTEREST", Exclude: true, Reason: ReasonEMIInterest},
		{Hint: "FINANCE CHARGE", Exclude: true, Reason: ReasonEMIInterest},
		{Hint: "PAYMENT", Exclude: true, Reason: ReasonCardPayment},
		{Hint: "TRANSFER", Exclude: true, Reason: ReasonCardPayment},
		{Hint: "REVERSAL", Exclude: true, Reason: ReasonReversal},
		{Hint: "REFUND", Exclude: true, Reason: ReasonReversal},
		{Hint: "FX MARKUP", Exclude: true, Reason: ReasonFxMarkup},
		{Hint: "MARKUP FEE", Exclude: true, Reason: ReasonFxMarkup},
	}
}

// defaultAggregators returns payment-aggregator tokens whose transactions are
// identifiable mainly by magnitude rather than by merchant.
func defaultAggregators() []string {
	return []string{
		"RAZORPAY",
		"RAZORP",
		"PAYU",
		"BILLDESK",
		"CCAVENUE",
		"CASHFREE",
		"PAYTM",
	}
}

// cardBillTokens flag direct credit-card bill settlements routed through
// consumer apps. These are internal transfers, not recurring obligations.
func cardBillTokens() []string {
	return []string{
		"CRED CLUB",
		"CRED.CLUB",
		"CREDIT CARD PAYMENT",
		"CC PAYMENT",
		"BBPS",
	}
}

// onlineCues hint that an uncategorized transaction happened on a digital
// channel rather than at a terminal.
func onlineCues() []string {
	return []string{
		"UPI",
		"WWW",
		".COM",
		".IN",
		"ECOM",
		"ONLINE",
		"PAYPAL",
		"GOOGLE",
	}
}
