package catalog

const (
	NonProdUAT = "non-prod-uat"
	Prod       = "prod"
)

// Default returns the built-in onboarding catalog used when no catalog file is
// configured.
func Default() *Catalog {
	return &Catalog{
		Environments: []Environment{
			{Name: NonProdUAT, Tables: onboardingTables(NonProdUAT)},
			{Name: Prod, Production: true, Tables: onboardingTables(Prod)},
		},
	}
}

func onboardingTables(prefix string) map[string]Table {
	return map[string]Table{
		"prospect": {
			Name:        prefix + "-onboarding-prospect",
			DisplayName: "Prospect",
			PrimaryKey:  "phone_number",
			Indexes: []Index{
				{Name: "", DisplayName: "Phone Number (Primary)", HashKey: "phone_number"},
				{Name: "prospect_id_index", DisplayName: "Prospect ID", HashKey: "prospect_id"},
				{Name: "id_card_no_index", DisplayName: "ID Card Number", HashKey: "id_card_no"},
				{Name: "device_id_index", DisplayName: "Device ID", HashKey: "device_id"},
				{Name: "cif_number_index", DisplayName: "CIF Number", HashKey: "cif_number"},
			},
		},
		"progress": {
			Name:        prefix + "-onboarding-progress",
			DisplayName: "Onboard Progress",
			PrimaryKey:  "onboard_id",
			Indexes: []Index{
				{Name: "", DisplayName: "Onboard ID (Primary)", HashKey: "onboard_id"},
				{Name: "phone_number_device_id", DisplayName: "Phone + Device ID", HashKey: "phone_number", RangeKey: "device_id"},
				{Name: "reserved_cif_number_index", DisplayName: "Reserved CIF Number", HashKey: "reserved_cif_number"},
			},
		},
	}
}
