// market/instruments.go
package market

type InstrumentMeta struct {
	Name          string
	BaseCurrency  string
	QuoteCurrency string

	// DisplayPrecision is the number of decimals quotes are printed with.
	DisplayPrecision int

	// TypicalSpread is the quoted ask-bid width used when a config does
	// not name one, in quote currency.
	TypicalSpread float64
}

var Instruments = map[string]InstrumentMeta{
	"XAU_USD": {
		Name:             "XAU_USD",
		BaseCurrency:     "XAU",
		QuoteCurrency:    "USD",
		DisplayPrecision: 2,
		TypicalSpread:    0.30,
	},
	"XAG_USD": {
		Name:             "XAG_USD",
		BaseCurrency:     "XAG",
		QuoteCurrency:    "USD",
		DisplayPrecision: 3,
		TypicalSpread:    0.03,
	},
	"EUR_USD": {
		Name:             "EUR_USD",
		BaseCurrency:     "EUR",
		QuoteCurrency:    "USD",
		DisplayPrecision: 5,
		TypicalSpread:    0.00012,
	},
	"USD_JPY": {
		Name:             "USD_JPY",
		BaseCurrency:     "USD",
		QuoteCurrency:    "JPY",
		DisplayPrecision: 3,
		TypicalSpread:    0.014,
	},
}

// LookupInstrument accepts both "XAU_USD" and "XAUUSD" spellings.
func LookupInstrument(name string) (InstrumentMeta, bool) {
	if m, ok := Instruments[name]; ok {
		return m, true
	}
	for _, m := range Instruments {
		if m.BaseCurrency+m.QuoteCurrency == name {
			return m, true
		}
	}
	return InstrumentMeta{}, false
}
