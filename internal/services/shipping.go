package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/anonto42/story-branch/backend/internal/models"
)

const shippingMethod = "Pincode-based calculation"

// Warehouse is the fixed dispatch location all estimates start from
var Warehouse = models.Location{
	Lat:     28.6139,
	Lng:     77.2090,
	Address: "Central Warehouse, New Delhi, India",
}

// ShippingQuote is the cost and delivery estimate for one destination
type ShippingQuote struct {
	Cost         float64
	Zone         string
	DeliveryDays int
}

type pincodeRange struct {
	name       string
	start, end int
}

var (
	localRanges = []pincodeRange{
		{"Delhi", 110000, 110099},
		{"Gurgaon", 122000, 122999},
		{"Noida", 201000, 201999},
	}
	metroRanges = []pincodeRange{
		{"Mumbai", 400000, 400999},
		{"Bangalore", 560000, 560999},
		{"Chennai", 600000, 600999},
		{"Kolkata", 700000, 700999},
		{"Hyderabad", 500000, 500999},
		{"Pune", 411000, 411999},
	}
	stateRates = map[string]ShippingQuote{
		"maharashtra":    {Cost: 100, DeliveryDays: 2},
		"karnataka":      {Cost: 120, DeliveryDays: 3},
		"tamil nadu":     {Cost: 130, DeliveryDays: 3},
		"gujarat":        {Cost: 110, DeliveryDays: 2},
		"rajasthan":      {Cost: 120, DeliveryDays: 3},
		"uttar pradesh":  {Cost: 100, DeliveryDays: 2},
		"west bengal":    {Cost: 150, DeliveryDays: 3},
		"kerala":         {Cost: 180, DeliveryDays: 4},
		"andhra pradesh": {Cost: 140, DeliveryDays: 3},
		"telangana":      {Cost: 140, DeliveryDays: 3},
	}
)

// QuoteShipping prices a delivery by pincode first, then by state, then nationally
func QuoteShipping(pincode, state string) ShippingQuote {
	if pin, err := strconv.Atoi(strings.TrimSpace(pincode)); err == nil {
		for _, r := range localRanges {
			if pin >= r.start && pin <= r.end {
				return ShippingQuote{Cost: 50, Zone: "Local", DeliveryDays: 1}
			}
		}
		for _, r := range metroRanges {
			if pin >= r.start && pin <= r.end {
				return ShippingQuote{Cost: 150, Zone: "Metro - " + r.name, DeliveryDays: 2}
			}
		}
	}

	state = strings.TrimSpace(state)
	if q, ok := stateRates[strings.ToLower(state)]; ok {
		q.Zone = "State - " + state
		return q
	}
	return ShippingQuote{Cost: 200, Zone: "National", DeliveryDays: 5}
}

// EstimateShipping builds the shipping info for a destination address
func EstimateShipping(address, city, state, pincode, country string) models.ShippingInfo {
	if strings.TrimSpace(country) == "" {
		country = "India"
	}
	q := QuoteShipping(pincode, state)
	return models.ShippingInfo{
		Warehouse: Warehouse,
		Destination: models.Location{
			Address: fmt.Sprintf("%s, %s, %s, %s, %s", address, city, state, pincode, country),
			Pincode: pincode,
			State:   state,
			City:    city,
		},
		Zone:                  q.Zone,
		EstimatedDeliveryDays: q.DeliveryDays,
		ShippingCost:          q.Cost,
		Method:                shippingMethod,
	}
}

// SampleShippingEstimate is served to plain GET requests on the estimate endpoint
func SampleShippingEstimate() models.ShippingInfo {
	return EstimateShipping("Sample Address", "Mumbai", "Maharashtra", "400058", "India")
}
