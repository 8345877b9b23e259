package ctdf

// TrainLine is a CTA 'L' route as the Train Tracker API knows it, Code is the
// value sent as the rt parameter and Name is used inside train identifiers
type TrainLine struct {
	Code string `yaml:"code" json:"train_line_abbrev"`
	Name string `yaml:"name" json:"train_line"`
}

func DefaultTrainLines() []TrainLine {
	return []TrainLine{
		{Code: "Red", Name: "Red"},
		{Code: "Blue", Name: "Blue"},
		{Code: "Brn", Name: "Brown"},
		{Code: "G", Name: "Green"},
		{Code: "Org", Name: "Orange"},
		{Code: "P", Name: "Purple"},
		{Code: "Pink", Name: "Pink"},
	}
}
