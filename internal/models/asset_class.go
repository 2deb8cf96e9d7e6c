package models

import "strings"

// AssetClass selects the upstream feed and price semantics for a symbol.
// Values other than the named constants are allowed and simply have no feed.
type AssetClass string

const (
	AssetClassStock  AssetClass = "stock"
	AssetClassCrypto AssetClass = "crypto"
	AssetClassBond   AssetClass = "bond"
	AssetClassCash   AssetClass = "cash"
)

// NormalizeAssetClass lowercases and trims a raw asset class.
func NormalizeAssetClass(raw string) AssetClass {
	return AssetClass(strings.ToLower(strings.TrimSpace(raw)))
}

// NormalizeSymbol uppercases and trims a ticker.
func NormalizeSymbol(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Instrument is a distinct (symbol, asset class) pair.
type Instrument struct {
	Symbol     string     `json:"symbol" gorm:"column:symbol"`
	AssetClass AssetClass `json:"asset_class" gorm:"column:asset_class"`
}

func (i Instrument) String() string {
	return i.Symbol + "/" + string(i.AssetClass)
}
