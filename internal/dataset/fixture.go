package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// SynthesizeOptions controls generated fixtures.
type SynthesizeOptions struct {
	Rows         int
	FailureRatio float64
	Seed         uint64
	// Separable draws every feature of the two classes from disjoint ranges
	// with gaps wider than twice the range width, so any axis-aligned split
	// between them classifies unseen rows perfectly.
	Separable bool
}

// Synthesize generates machine readings with exactly round(Rows*FailureRatio)
// failures. The same options always produce the same records.
func Synthesize(opts SynthesizeOptions) []RawRecord {
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	failures := int(math.Round(float64(opts.Rows) * opts.FailureRatio))
	labels := make([]int, opts.Rows)
	for i := 0; i < failures && i < opts.Rows; i++ {
		labels[i] = 1
	}
	rng.Shuffle(len(labels), func(i, j int) { labels[i], labels[j] = labels[j], labels[i] })

	records := make([]RawRecord, opts.Rows)
	for i, label := range labels {
		var rec RawRecord
		if opts.Separable {
			rec = separableRecord(rng, label)
		} else {
			rec = noisyRecord(rng, label)
		}
		rec.UDI = strconv.Itoa(i + 1)
		rec.ProductID = fmt.Sprintf("%s%05d", rec.Type, 14860+i)
		rec.MachineFailure = label
		for j := range rec.FailureModes {
			rec.FailureModes[j] = "0"
		}
		if label == 1 {
			rec.FailureModes[rng.IntN(len(rec.FailureModes))] = "1"
		}
		records[i] = rec
	}
	return records
}

func separableRecord(rng *rand.Rand, label int) RawRecord {
	between := func(lo, width float64) float64 {
		return round1(lo + rng.Float64()*width)
	}
	if label == 1 {
		return RawRecord{
			Type:               "H",
			AirTemperature:     between(303, 1),
			ProcessTemperature: between(313, 1),
			RotationalSpeed:    math.Round(between(1700, 50)),
			Torque:             between(60, 5),
			ToolWear:           math.Round(between(200, 10)),
		}
	}
	return RawRecord{
		Type:               "L",
		AirTemperature:     between(298, 1),
		ProcessTemperature: between(308, 1),
		RotationalSpeed:    math.Round(between(1400, 50)),
		Torque:             between(30, 5),
		ToolWear:           math.Round(between(50, 10)),
	}
}

func noisyRecord(rng *rand.Rand, label int) RawRecord {
	var typ string
	switch p := rng.Float64(); {
	case p < 0.6:
		typ = "L"
	case p < 0.9:
		typ = "M"
	default:
		typ = "H"
	}

	air := 300 + rng.NormFloat64()*2
	rec := RawRecord{
		Type:               typ,
		AirTemperature:     round1(air),
		ProcessTemperature: round1(air + 10 + rng.NormFloat64()),
		RotationalSpeed:    math.Round(1540 + rng.NormFloat64()*180),
		Torque:             round1(math.Max(3, 40+rng.NormFloat64()*10)),
		ToolWear:           math.Round(rng.Float64() * 250),
	}
	if label == 1 {
		rec.Torque = round1(rec.Torque + 15)
		rec.RotationalSpeed -= 150
		rec.ToolWear = math.Min(rec.ToolWear+60, 260)
	}
	return rec
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Row renders a record as cells in Columns order.
func (r RawRecord) Row() []string {
	row := []string{
		r.UDI, r.ProductID, r.Type,
		formatFloat(r.AirTemperature),
		formatFloat(r.ProcessTemperature),
		formatFloat(r.RotationalSpeed),
		formatFloat(r.Torque),
		formatFloat(r.ToolWear),
		strconv.Itoa(r.MachineFailure),
	}
	return append(row, r.FailureModes[:]...)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteCSV writes records with a header row.
func WriteCSV(w io.Writer, records []RawRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, rec := range records {
		if err := cw.Write(rec.Row()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes records to the first sheet of a new workbook.
func WriteXLSX(w io.Writer, records []RawRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	write := func(rowNum int, cells []string) error {
		values := make([]interface{}, len(cells))
		for i, c := range cells {
			values[i] = c
		}
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		return f.SetSheetRow(sheet, cell, &values)
	}

	if err := write(1, Columns); err != nil {
		return err
	}
	for i, rec := range records {
		if err := write(i+2, rec.Row()); err != nil {
			return err
		}
	}

	_, err := f.WriteTo(w)
	return err
}
