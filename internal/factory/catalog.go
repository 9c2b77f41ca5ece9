package factory

import "factory-status-backend/internal/model"

// stageSpec describes one pipeline stage and the devices installed on it.
type stageSpec struct {
	Name        string
	Order       int
	Description string
	Devices     []deviceSpec
}

type deviceSpec struct {
	Code string
	Name string
	Type model.DeviceType
}

// plantLayout is the vehicle line created on first start.
var plantLayout = []stageSpec{
	{
		Name:        "Body Assembly",
		Order:       1,
		Description: "Vehicle body assembly and welding",
		Devices: []deviceSpec{
			{"BA-WR-001", "Welding Robot 1", model.DeviceTypeWeldingRobot},
			{"BA-WR-002", "Welding Robot 2", model.DeviceTypeWeldingRobot},
			{"BA-SP-001", "Stamping Press 1", model.DeviceTypeStampingPress},
			{"BA-QS-001", "Quality Scanner 1", model.DeviceTypeQualityScanner},
		},
	},
	{
		Name:        "Paint Shop",
		Order:       2,
		Description: "Vehicle painting and coating",
		Devices: []deviceSpec{
			{"PS-PR-001", "Paint Robot 1", model.DeviceTypePaintRobot},
			{"PS-PR-002", "Paint Robot 2", model.DeviceTypePaintRobot},
			{"PS-DO-001", "Drying Oven 1", model.DeviceTypeDryingOven},
			{"PS-CM-001", "Color Mixer 1", model.DeviceTypeColorMixer},
		},
	},
	{
		Name:        "Final Assembly",
		Order:       3,
		Description: "Engine, interior, and final component assembly",
		Devices: []deviceSpec{
			{"FA-DA-001", "Dashboard Assembler", model.DeviceTypeAssemblyRobot},
			{"FA-EM-001", "Engine Mounting Robot", model.DeviceTypeAssemblyRobot},
			{"FA-WL-001", "Wire Loom Installer", model.DeviceTypeAssemblyRobot},
			{"FA-FI-001", "Final Inspection Scanner", model.DeviceTypeQualityScanner},
		},
	},
}
