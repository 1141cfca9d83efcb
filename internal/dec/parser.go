// Package dec parses .DEC files, the fixed-width record format produced
// by the federal tax filing program. Lines are Latin-1, one record each,
// identified by a numeric prefix. The layout was reverse engineered from
// transmitted files: recognized records decode at fixed byte offsets,
// unknown prefixes are skipped, and garbled fields degrade to zero
// values instead of failing the whole file.
package dec

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"irpfscan/internal/model"
)

// ErrCorruptedFile marks a file that is structurally not a declaration:
// empty, or not starting with the IRPF header. Everything past the header
// is parsed tolerantly.
var ErrCorruptedFile = errors.New("corrupted declaration file")

// Record prefixes of the line types the parser understands.
const (
	recHeader    = "IRPF"
	recTaxpayer  = "16"
	recTotals    = "20"
	recDependent = "25"
	recMedical   = "26"
	recAsset     = "27"
	recDisposal  = "63"
)

// ParseFile reads and parses a .DEC file from disk.
func ParseFile(path string) (*model.Declaration, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open declaration: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a declaration from r. The stream is decoded as Latin-1,
// the single-byte encoding the filing program writes.
func Parse(r io.Reader) (*model.Declaration, error) {
	sc := bufio.NewScanner(charmap.ISO8859_1.NewDecoder().Reader(r))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read declaration: %w", err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrCorruptedFile)
	}

	d := &model.Declaration{FilingType: model.FilingComplete}
	if err := parseHeader(lines[0], d); err != nil {
		return nil, err
	}

	taxpayerSeen := false
	totalsSeen := false
	for _, line := range lines[1:] {
		switch {
		case strings.HasPrefix(line, recTaxpayer):
			if !taxpayerSeen {
				parseTaxpayer(line, d)
				taxpayerSeen = true
			}
		case strings.HasPrefix(line, recDependent):
			if dep, ok := parseDependent(line); ok {
				d.Dependents = append(d.Dependents, dep)
			}
		case strings.HasPrefix(line, recMedical):
			if ded, ok := parseMedical(line); ok {
				d.Deductions = append(d.Deductions, ded)
			}
		case strings.HasPrefix(line, recAsset):
			if a, ok := parseAsset(line); ok {
				d.Assets = append(d.Assets, a)
			}
		case strings.HasPrefix(line, recDisposal):
			if disp, ok := parseDisposal(line); ok {
				d.Disposals = append(d.Disposals, disp)
			}
		case strings.HasPrefix(line, recTotals):
			if !totalsSeen {
				parseTotals(line, d)
				totalsSeen = true
			}
		}
	}
	return d, nil
}

// parseHeader decodes the IRPF header line: exercise year, calendar year,
// taxpayer CPF and name, and the federative unit.
func parseHeader(line string, d *model.Declaration) error {
	if !strings.HasPrefix(line, recHeader) {
		return fmt.Errorf("%w: missing IRPF header", ErrCorruptedFile)
	}
	exercise, err := strconv.Atoi(field(line, 8, 12))
	if err != nil {
		return fmt.Errorf("%w: unreadable exercise year", ErrCorruptedFile)
	}
	calendar, err := strconv.Atoi(field(line, 12, 16))
	if err != nil {
		return fmt.Errorf("%w: unreadable calendar year", ErrCorruptedFile)
	}
	d.ExerciseYear = exercise
	d.CalendarYear = calendar
	d.Taxpayer.CPF = field(line, 21, 32)
	d.Taxpayer.Name = field(line, 38, 98)
	d.State = field(line, 98, 100)
	return nil
}

// parseTaxpayer refines the header identity with the taxpayer record,
// which additionally carries the birth date.
func parseTaxpayer(line string, d *model.Declaration) {
	if cpf := field(line, 2, 13); cpf != "" {
		d.Taxpayer.CPF = cpf
	}
	if name := field(line, 13, 73); name != "" {
		d.Taxpayer.Name = name
	}
	if len(line) > 185 {
		if birth, ok := DecodeDate(line[177:185]); ok {
			d.Taxpayer.BirthDate = birth
		}
	}
}

// parseTotals decodes the financial summary record. Two layouts exist:
// the long one carries exempt income and the total tax paid at the tail,
// the short one only a tax-paid field at an earlier offset.
func parseTotals(line string, d *model.Declaration) {
	switch {
	case len(line) > 520:
		d.TaxableIncome = DecodeAmount(field(line, 106, 119), 2)
		d.TaxDue = DecodeAmount(field(line, 227, 240), 2)
		d.ExemptIncome = DecodeAmount(field(line, 471, 482), 2)
		d.TaxPaid = DecodeAmount(field(line, 500, 508), 2)
	case len(line) > 400:
		d.TaxableIncome = DecodeAmount(field(line, 106, 119), 2)
		d.TaxDue = DecodeAmount(field(line, 227, 240), 2)
		d.TaxPaid = DecodeAmount(field(line, 257, 270), 2)
	}
	d.TaxBalance = d.TaxDue.Sub(d.TaxPaid)
}

func parseDependent(line string) (model.Dependent, bool) {
	dep := model.Dependent{
		Type: model.DependentTypeFromCode(field(line, 18, 20)),
		Name: field(line, 20, 80),
		CPF:  field(line, 88, 99),
	}
	if len(line) >= 88 {
		if birth, ok := DecodeDate(line[80:88]); ok {
			dep.BirthDate = birth
		}
	}
	if dep.Name == "" || dep.CPF == "" {
		return model.Dependent{}, false
	}
	return dep, true
}

func parseMedical(line string) (model.Deduction, bool) {
	ded := model.Deduction{
		Category:     model.DeductionMedical,
		ProviderID:   DecodeIdentifier(field(line, 20, 34)),
		ProviderName: field(line, 34, 94),
		Amount:       DecodeAmount(field(line, 105, 118), 2),
	}
	if !ded.Amount.IsPositive() || ded.ProviderName == "" {
		return model.Deduction{}, false
	}
	return ded, true
}

func parseAsset(line string) (model.Asset, bool) {
	a := model.Asset{
		Group: model.AssetGroupFromCode(field(line, 13, 15)),
		Code:  field(line, 15, 17),
	}
	desc := strings.Join(strings.Fields(field(line, 19, 531)), " ")
	if len(desc) > 500 {
		desc = desc[:500]
	}
	a.Description = desc
	if len(line) >= 557 {
		a.PriorValue = DecodeAmount(line[531:544], 2)
		a.CurrentValue = DecodeAmount(line[544:557], 2)
	}
	// Foreign stock records declare the realized result on the asset
	// itself, in a 3-decimal field near the end of the line.
	if len(line) >= 1199 {
		a.Result = DecodeAmount(line[1185:1199], 3)
	}
	if a.Description == "" {
		return model.Asset{}, false
	}
	return a, true
}

func parseDisposal(line string) (model.Disposal, bool) {
	disp := model.Disposal{AssetName: field(line, 36, 96)}
	if disp.AssetName == "" {
		return model.Disposal{}, false
	}
	if reg, ok := ScanDigitRun(line, 150, 220, 14); ok {
		disp.RegistryNumber = reg
	}
	if date, ok := ScanDate(line, 380, 450, 2020); ok {
		disp.Date = date
	}
	if len(line) >= 555 {
		disp.SaleValue = DecodeAmount(line[449:458], 2)
		disp.AcquisitionCost = DecodeAmount(line[531:538], 2)
		disp.CapitalGain = DecodeAmount(line[542:551], 2)
	}
	if len(line) >= 630 {
		disp.TaxDue = DecodeAmount(line[617:625], 2)
	}
	return disp, true
}

// field returns the trimmed slice [from:to] of line, tolerating lines
// shorter than the layout expects.
func field(line string, from, to int) string {
	if from >= len(line) {
		return ""
	}
	if to > len(line) {
		to = len(line)
	}
	return strings.TrimSpace(line[from:to])
}
