package graph

// DefaultCatalog returns the device types a fresh project starts with:
// the grain-handling equipment the editor was first built for.
// Each call returns a new slice.
func DefaultCatalog() []DeviceType {
	return []DeviceType{
		{Name: "zasuvka", Label: "Засувка", Color: "#4A90D9", Icon: "zasuvka"},
		{Name: "noria", Label: "Норія", Color: "#E67E22", Icon: "noria"},
		{Name: "transporter", Label: "Транспортер", Color: "#27AE60", Icon: "transporter"},
		{Name: "redler", Label: "Редлер", Color: "#8E44AD", Icon: "redler"},
		{Name: "bunker", Label: "Бункер", Color: "#C0392B", Icon: "bunker"},
		{Name: "sylos", Label: "Силос", Color: "#16A085", Icon: "sylos"},
	}
}
