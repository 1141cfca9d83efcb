package analysis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"irpfscan/internal/log"
	"irpfscan/internal/model"
	"irpfscan/internal/rules"
)

var (
	// ErrMixedFilers is returned when a comparative run receives
	// declarations from different taxpayers.
	ErrMixedFilers = errors.New("declarations belong to different filers")

	// ErrNotEnoughDeclarations is returned when a comparative run
	// receives fewer than two declarations.
	ErrNotEnoughDeclarations = errors.New("comparative analysis requires at least two declarations")

	// ErrDuplicateYear is returned when two declarations cover the same
	// exercise year.
	ErrDuplicateYear = errors.New("multiple declarations for the same exercise year")

	// ErrSameFiler is returned when a spouse comparison receives two
	// declarations from the same taxpayer.
	ErrSameFiler = errors.New("spouse comparison requires two different filers")

	// ErrMismatchedYears is returned when spouse declarations cover
	// different exercise years.
	ErrMismatchedYears = errors.New("spouse declarations cover different exercise years")
)

// Result is the aggregated outcome of one analysis run.
type Result struct {
	ID           uuid.UUID     `json:"id"`
	GeneratedAt  time.Time     `json:"generated_at"`
	Duration     time.Duration `json:"duration_ns"`
	TaxpayerName string        `json:"taxpayer_name"`
	TaxpayerCPF  string        `json:"taxpayer_cpf"` // masked
	ExerciseYear int           `json:"exercise_year"`
	Years        []int         `json:"years,omitempty"` // comparative runs only

	Score           model.RiskScore       `json:"score"`
	Inconsistencies []model.Inconsistency `json:"inconsistencies"`
	Warnings        []model.Warning       `json:"warnings"`
	Suggestions     []model.Suggestion    `json:"suggestions"`
}

// Pipeline runs a fixed analyzer set over declarations.
type Pipeline struct {
	analyzers   []Analyzer
	comparative []ComparativeAnalyzer
	spouse      *Spouse
	logger      *log.Logger
}

// New builds a pipeline with the default analyzer sets over the given
// tables.
func New(tables rules.Tables, logger *log.Logger) *Pipeline {
	return &Pipeline{
		analyzers:   DefaultAnalyzers(tables),
		comparative: DefaultComparativeAnalyzers(tables),
		spouse:      NewSpouse(),
		logger:      logger.WithComponent(log.ComponentPipeline),
	}
}

// Analyze runs every single-declaration analyzer concurrently and merges
// their findings into a scored Result.
func (p *Pipeline) Analyze(ctx context.Context, d *model.Declaration) (*Result, error) {
	start := time.Now()

	slots := make([][]model.Finding, len(p.analyzers))
	g, ctx := errgroup.WithContext(ctx)
	for i, a := range p.analyzers {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			slots[i] = a.Analyze(d)
			p.logger.Debug("analyzer finished",
				log.FieldAnalyzer, a.Name(),
				log.FieldFindings, len(slots[i]))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analysis interrupted: %w", err)
	}

	var findings []model.Finding
	for _, s := range slots {
		findings = append(findings, s...)
	}

	res := p.buildResult(d, findings, start)
	p.logger.Info("declaration analyzed",
		log.FieldFiler, res.TaxpayerCPF,
		log.FieldYear, d.ExerciseYear,
		log.FieldFindings, len(findings),
		log.FieldScore, res.Score.Score,
		log.FieldDuration, res.Duration.Milliseconds(),
	)
	return res, nil
}

// Compare validates that the declarations form one filer's history and
// runs the comparative analyzers over it.
func (p *Pipeline) Compare(ctx context.Context, decls []*model.Declaration) (*Result, error) {
	if len(decls) < 2 {
		return nil, ErrNotEnoughDeclarations
	}

	sorted := append([]*model.Declaration(nil), decls...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ExerciseYear < sorted[j].ExerciseYear
	})

	filer := sorted[0].Taxpayer.CPF
	for _, d := range sorted[1:] {
		if d.Taxpayer.CPF != filer {
			return nil, fmt.Errorf("%w: %s and %s",
				ErrMixedFilers, sorted[0].Taxpayer.MaskedCPF(), d.Taxpayer.MaskedCPF())
		}
	}
	for i := 1; i < len(sorted); i++ {
		if sorted[i].ExerciseYear == sorted[i-1].ExerciseYear {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateYear, sorted[i].ExerciseYear)
		}
	}

	start := time.Now()
	slots := make([][]model.Finding, len(p.comparative))
	g, ctx := errgroup.WithContext(ctx)
	for i, a := range p.comparative {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			slots[i] = a.Compare(sorted)
			p.logger.Debug("analyzer finished",
				log.FieldAnalyzer, a.Name(),
				log.FieldFindings, len(slots[i]))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analysis interrupted: %w", err)
	}

	var findings []model.Finding
	for _, s := range slots {
		findings = append(findings, s...)
	}

	latest := sorted[len(sorted)-1]
	res := p.buildResult(latest, findings, start)
	res.Years = make([]int, len(sorted))
	for i, d := range sorted {
		res.Years[i] = d.ExerciseYear
	}
	p.logger.Info("declarations compared",
		log.FieldFiler, res.TaxpayerCPF,
		log.FieldFindings, len(findings),
		log.FieldScore, res.Score.Score,
		log.FieldDuration, res.Duration.Milliseconds(),
	)
	return res, nil
}

// CompareSpouses cross-checks a couple's separate filings for the same
// exercise year. Findings are reported against the primary declaration.
func (p *Pipeline) CompareSpouses(ctx context.Context, primary, spouse *model.Declaration) (*Result, error) {
	if primary.Taxpayer.CPF == spouse.Taxpayer.CPF {
		return nil, fmt.Errorf("%w: %s", ErrSameFiler, primary.Taxpayer.MaskedCPF())
	}
	if primary.ExerciseYear != spouse.ExerciseYear {
		return nil, fmt.Errorf("%w: %d and %d",
			ErrMismatchedYears, primary.ExerciseYear, spouse.ExerciseYear)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analysis interrupted: %w", err)
	}

	start := time.Now()
	findings := p.spouse.Compare(primary, spouse)
	p.logger.Debug("analyzer finished",
		log.FieldAnalyzer, p.spouse.Name(),
		log.FieldFindings, len(findings))

	res := p.buildResult(primary, findings, start)
	p.logger.Info("spouse declarations compared",
		log.FieldFiler, res.TaxpayerCPF,
		log.FieldYear, primary.ExerciseYear,
		log.FieldFindings, len(findings),
		log.FieldScore, res.Score.Score,
		log.FieldDuration, res.Duration.Milliseconds(),
	)
	return res, nil
}

func (p *Pipeline) buildResult(d *model.Declaration, findings []model.Finding, start time.Time) *Result {
	incs, warns, suggs := partition(findings)
	return &Result{
		ID:              uuid.New(),
		GeneratedAt:     time.Now().UTC(),
		Duration:        time.Since(start),
		TaxpayerName:    d.Taxpayer.Name,
		TaxpayerCPF:     d.Taxpayer.MaskedCPF(),
		ExerciseYear:    d.ExerciseYear,
		Score:           Score(incs, warns),
		Inconsistencies: incs,
		Warnings:        warns,
		Suggestions:     suggs,
	}
}

// partition splits mixed findings by kind, preserving emission order.
func partition(findings []model.Finding) ([]model.Inconsistency, []model.Warning, []model.Suggestion) {
	incs := []model.Inconsistency{}
	warns := []model.Warning{}
	suggs := []model.Suggestion{}
	for _, f := range findings {
		switch v := f.(type) {
		case model.Inconsistency:
			incs = append(incs, v)
		case model.Warning:
			warns = append(warns, v)
		case model.Suggestion:
			suggs = append(suggs, v)
		}
	}
	return incs, warns, suggs
}
