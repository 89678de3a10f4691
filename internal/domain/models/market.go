package models

// Exchange is a market the analysis service holds rates for.
type Exchange string

const (
	ExchangeBinance Exchange = "Binance"
	ExchangeKucoin  Exchange = "Kucoin"
)

// Exchanges lists the selectable markets in display order.
var Exchanges = []Exchange{ExchangeBinance, ExchangeKucoin}

func (e Exchange) IsValid() bool {
	for _, v := range Exchanges {
		if v == e {
			return true
		}
	}
	return false
}

func (e Exchange) String() string { return string(e) }

// Currency is a cryptocurrency the analysis service holds rates for.
type Currency string

const (
	CurrencyBitcoin  Currency = "Bitcoin"
	CurrencyEthereum Currency = "Ethereum"
	CurrencyBNB      Currency = "BNB"
	CurrencyCardano  Currency = "Cardano"
	CurrencyRipple   Currency = "Ripple"
)

// Currencies lists the selectable currencies in display order.
var Currencies = []Currency{
	CurrencyBitcoin,
	CurrencyEthereum,
	CurrencyBNB,
	CurrencyCardano,
	CurrencyRipple,
}

func (c Currency) IsValid() bool {
	for _, v := range Currencies {
		if v == c {
			return true
		}
	}
	return false
}

func (c Currency) String() string { return string(c) }

// Pair is one (exchange, currency) combination.
type Pair struct {
	Exchange Exchange
	Currency Currency
}

func (p Pair) String() string { return string(p.Currency) + "/" + string(p.Exchange) }

// AllPairs returns every selectable combination.
func AllPairs() []Pair {
	out := make([]Pair, 0, len(Exchanges)*len(Currencies))
	for _, e := range Exchanges {
		for _, c := range Currencies {
			out = append(out, Pair{Exchange: e, Currency: c})
		}
	}
	return out
}
