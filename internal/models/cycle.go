package models

// CycleSeries holds the two plotted series of one charge/discharge cycle.
// Values that could not be parsed from the workbook are NaN.
type CycleSeries struct {
	Index            int // 1-based cycle number
	SpecificCapacity []float64
	Voltage          []float64
}

// RecordSheet is the parsed cycling data of one workbook.
type RecordSheet struct {
	Source string
	Cycles []CycleSeries
}

// FileReport summarizes the conversion of one workbook.
type FileReport struct {
	Input      string
	CSV        string
	Project    string
	CycleCount int
}
