package domain

import "github.com/shopspring/decimal"

type catalogEntry struct {
	id       string
	name     string
	category Category
	rate     string
	quantity int
}

var predefinedCatalog = []catalogEntry{
	{"cam-fx3", "Sony FX3 Cinema Camera", CategoryCamera, "85.00", 3},
	{"cam-a7s3", "Sony A7S III", CategoryCamera, "65.00", 4},
	{"cam-bmpcc6k", "Blackmagic Pocket 6K Pro", CategoryCamera, "55.00", 2},
	{"lens-2470gm", "Sony FE 24-70mm f/2.8 GM II", CategoryLens, "30.00", 5},
	{"lens-70200gm", "Sony FE 70-200mm f/2.8 GM II", CategoryLens, "35.00", 3},
	{"lens-35gm", "Sony FE 35mm f/1.4 GM", CategoryLens, "20.00", 4},
	{"light-aputure600d", "Aputure LS 600d Pro", CategoryLighting, "45.00", 2},
	{"light-nanlite", "Nanlite PavoTube II 30X Kit", CategoryLighting, "25.00", 4},
	{"audio-ntg5", "Rode NTG5 Shotgun Kit", CategoryAudio, "18.00", 4},
	{"audio-wireless", "Sennheiser EW-DP Wireless Lav", CategoryAudio, "22.00", 6},
	{"grip-ronin", "DJI RS 3 Pro Gimbal", CategoryGrip, "28.00", 3},
	{"grip-cstand", "C-Stand with Arm", CategoryGrip, "5.00", 10},
	{"power-vmount", "V-Mount Battery 150Wh", CategoryPower, "8.00", 12},
	{"drone-mavic3", "DJI Mavic 3 Cine", CategoryDrone, "95.00", 1},
	{"acc-monitor", "Atomos Ninja V+ Monitor", CategoryAccessory, "20.00", 3},
}

// PredefinedCatalog returns the items seeded on bootstrap. Predefined items
// can be edited but never hard-deleted.
func PredefinedCatalog() []InventoryItem {
	items := make([]InventoryItem, 0, len(predefinedCatalog))
	for _, e := range predefinedCatalog {
		items = append(items, InventoryItem{
			ID:                e.id,
			Name:              e.name,
			Category:          e.category,
			DailyRate:         decimal.RequireFromString(e.rate),
			TotalQuantity:     e.quantity,
			AvailableQuantity: e.quantity,
			Predefined:        true,
		})
	}
	return items
}
