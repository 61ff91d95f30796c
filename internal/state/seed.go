package state

import (
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/alschell/wealthhorizonai/internal/marketdata"
	"github.com/alschell/wealthhorizonai/internal/modules/portfolio"
)

//go:embed seed.yaml
var defaultSeed []byte

// Seed is the startup description of a session.
type Seed struct {
	Market     MarketSeed      `yaml:"market"`
	Portfolios []PortfolioSeed `yaml:"portfolios"`
	Scenarios  []Scenario      `yaml:"scenarios"`
	Hierarchy  []Group         `yaml:"hierarchy"`
}

// MarketSeed configures the synthetic market table.
type MarketSeed struct {
	Start       string                      `yaml:"start"`
	Days        int                         `yaml:"days"`
	FX          map[string]float64          `yaml:"fx"`
	Instruments []marketdata.InstrumentSpec `yaml:"instruments"`
}

// PortfolioSeed is one sample portfolio.
type PortfolioSeed struct {
	ID       string                       `yaml:"id"`
	Name     string                       `yaml:"name"`
	Strategy string                       `yaml:"strategy"`
	Holdings map[string]portfolio.Holding `yaml:"holdings"`
	Cash     map[string]float64           `yaml:"cash"`
}

// Scenario is a macro scenario. Probabilities are independent and need not
// sum to 1.
type Scenario struct {
	Name        string  `yaml:"name" json:"name" msgpack:"name"`
	Probability float64 `yaml:"prob" json:"prob" msgpack:"prob"`
	Hedge       string  `yaml:"hedge" json:"hedge" msgpack:"hedge"`
}

// Group is a client group (a family or a wealth manager's book).
type Group struct {
	Name        string       `yaml:"group" json:"group" msgpack:"group"`
	Individuals []Individual `yaml:"individuals" json:"individuals" msgpack:"individuals"`
}

// Individual references portfolios by id; it does not own them.
type Individual struct {
	Name       string   `yaml:"name" json:"name" msgpack:"name"`
	Portfolios []string `yaml:"portfolios" json:"portfolios" msgpack:"portfolios"`
}

// DefaultSeed parses the embedded seed.
func DefaultSeed() (*Seed, error) {
	return ParseSeed(defaultSeed)
}

// ParseSeed decodes and validates a YAML seed.
func ParseSeed(data []byte) (*Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed: %w", err)
	}
	if err := seed.validate(); err != nil {
		return nil, err
	}
	return &seed, nil
}

func (s *Seed) validate() error {
	if len(s.Portfolios) == 0 {
		return fmt.Errorf("seed has no portfolios")
	}

	ids := make(map[string]bool, len(s.Portfolios))
	for _, p := range s.Portfolios {
		if p.ID == "" {
			return fmt.Errorf("seed portfolio %q has no id", p.Name)
		}
		if ids[p.ID] {
			return fmt.Errorf("seed portfolio id %s is duplicated", p.ID)
		}
		ids[p.ID] = true
	}

	for _, g := range s.Hierarchy {
		for _, ind := range g.Individuals {
			for _, id := range ind.Portfolios {
				if !ids[id] {
					return fmt.Errorf("hierarchy %s/%s references unknown portfolio %s", g.Name, ind.Name, id)
				}
			}
		}
	}

	for _, sc := range s.Scenarios {
		if sc.Probability < 0 || sc.Probability > 1 {
			return fmt.Errorf("scenario %s probability %f outside [0, 1]", sc.Name, sc.Probability)
		}
	}
	return nil
}

// generatorConfig converts the market seed for marketdata.Generate.
func (m MarketSeed) generatorConfig() (marketdata.GeneratorConfig, error) {
	start, err := time.Parse(marketdata.DateLayout, m.Start)
	if err != nil {
		return marketdata.GeneratorConfig{}, fmt.Errorf("invalid market start date %q: %w", m.Start, err)
	}
	return marketdata.GeneratorConfig{
		Start:       start,
		Days:        m.Days,
		Instruments: m.Instruments,
		FX:          m.FX,
	}, nil
}
