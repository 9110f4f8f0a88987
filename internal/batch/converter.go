package batch

import (
	"errors"
	"sync"
	"time"

	"github.com/PhucNguyen204/sigma2padas/internal/logger"
	"github.com/PhucNguyen204/sigma2padas/internal/metrics"
	"github.com/PhucNguyen204/sigma2padas/pkg/padas"
	"github.com/PhucNguyen204/sigma2padas/pkg/pdl"
	"github.com/PhucNguyen204/sigma2padas/pkg/sigma"
)

// Converter compiles a batch of rules with a fixed pool of workers.
// Each worker compiles whole rules; rules share no state.
type Converter struct {
	asm     *padas.Assembler
	workers int
	log     *logger.Logger
}

// Result contains the assembled records in input order.
type Result struct {
	Records        []padas.Record `json:"records"`
	ProcessedRules int            `json:"processed_rules"`
	ProcessingTime time.Duration  `json:"processing_time"`
}

func NewConverter(asm *padas.Assembler, workers int, log *logger.Logger) *Converter {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Converter{asm: asm, workers: workers, log: log}
}

// Convert assembles every rule. If any rule fails, no records are returned and
// the error of the lowest failing index is reported.
func (c *Converter) Convert(rules []sigma.Rule) (*Result, error) {
	start := time.Now()
	records := make([]padas.Record, len(rules))
	errs := make([]error, len(rules))

	if c.asm.Compiler().Mode() == pdl.SubstituteLiteral {
		c.warnCollisions(rules)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	workers := c.workers
	if workers > len(rules) {
		workers = len(rules)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				records[i], errs[i] = c.asm.Assemble(rules[i])
			}
		}()
	}
	for i := range rules {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	elapsed := time.Since(start)
	metrics.BatchDuration.Observe(elapsed.Seconds())

	for i, err := range errs {
		if err != nil {
			metrics.ConversionErrors.WithLabelValues(reason(err)).Inc()
			c.log.Error().Err(err).Int("rule", i).Msg("conversion failed")
			return nil, err
		}
	}
	for _, r := range records {
		metrics.RulesConverted.WithLabelValues(r.Schema().String()).Inc()
	}
	c.log.Debug().Int("rules", len(records)).Int("workers", workers).Dur("took", elapsed).Msg("batch converted")
	return &Result{Records: records, ProcessedRules: len(records), ProcessingTime: elapsed}, nil
}

func (c *Converter) warnCollisions(rules []sigma.Rule) {
	for _, r := range rules {
		if r.Detection == nil {
			continue
		}
		for _, col := range pdl.FindCollisions(r.Detection.Names()) {
			c.log.Warn().
				Int("rule", r.Index).
				Str("selection", col.Name).
				Str("within", col.Within).
				Msg("literal substitution may corrupt condition")
		}
	}
}

func reason(err error) string {
	switch {
	case errors.Is(err, padas.ErrMissingRequiredField):
		return "missing_required_field"
	case errors.Is(err, pdl.ErrUnsupportedValueType):
		return "unsupported_value_type"
	case errors.Is(err, pdl.ErrEmptyValueList):
		return "empty_value_list"
	default:
		return "other"
	}
}
