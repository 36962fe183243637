package data

import (
	"encoding/json"
	"os"

	"appchain-calc/internal/model"
)

// LoadMarketDataJSON reads a snapshot in the /api/market-data shape. Fields
// go through model.NewMarketData, so partial files are fine.
func LoadMarketDataJSON(path string) (model.MarketData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.MarketData{}, err
	}
	var r model.RawMarketData
	if err := json.Unmarshal(raw, &r); err != nil {
		return model.MarketData{}, err
	}
	return model.NewMarketData(r), nil
}
