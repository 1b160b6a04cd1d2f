package catalog

import "github.com/shopspring/decimal"

// SeedProducts is the starter catalogue installed into an empty store.
func SeedProducts() []Product {
	kit := func(kw, price, emi, savings int64, qty int, description string, features ...string) Product {
		capacity := decimal.NewFromInt(kw).String() + "kW"
		return Product{
			Name:        capacity + " Rooftop Solar System",
			Capacity:    capacity,
			Price:       decimal.NewFromInt(price),
			EMI:         decimal.NewFromInt(emi),
			Savings:     decimal.NewFromInt(savings),
			ImageURL:    "https://picsum.photos/seed/solar" + decimal.NewFromInt(kw).String() + "/800/600",
			Description: description,
			Features:    features,
			Quantity:    qty,
			StockStatus: InStock,
		}
	}
	return []Product{
		kit(1, 65000, 2200, 1500, 10,
			"Perfect for small homes with basic electrical needs like lights, fans, and TV.",
			"Monocrystalline Panels", "Smart Inverter", "25-year Warranty"),
		kit(3, 185000, 6200, 4500, 5,
			"Ideal for medium families with 1-2 Air Conditioners and typical home appliances.",
			"High Efficiency Panels", "WiFi Monitoring", "Grid-Tie System"),
		kit(5, 295000, 9800, 7500, 3,
			"Standard for large residential rooftops or small shops with significant daytime load.",
			"Tier 1 Solar Panels", "MPPT Inverter", "Structure included"),
		kit(10, 540000, 18000, 15000, 2,
			"Commercial grade system for offices, hospitals, or luxury villas with high electricity usage.",
			"Bi-facial Panels", "Premium Support", "Turnkey Installation"),
	}
}
